// Package cloudbackend defines the cloud-agnostic capability surface a
// search's compute backend implements, and a pure classifier mapping
// observed job/cluster state onto the search lifecycle state machine.
package cloudbackend

import (
	"context"
	"os"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

// State is a search's lifecycle state, as observed by CheckStatus.
type State string

const (
	StateCreating   State = "CREATING"
	StateSubmitting State = "SUBMITTING"
	StateRunning    State = "RUNNING"
	StateSuccess    State = "SUCCESS"
	StateFailure    State = "FAILURE"
	StateDeleting   State = "DELETING"
	StateUnknown    State = "UNKNOWN"
)

// JobCounts tallies batch jobs by terminal/non-terminal outcome, as
// reported by a Backend's CheckStatus.
type JobCounts struct {
	Pending   int
	Running   int
	Succeeded int
	Failed    int
}

func (c JobCounts) total() int { return c.Pending + c.Running + c.Succeeded + c.Failed }

// ClassifyStatus implements the aggregate state-machine rule: any
// non-retriable failure wins outright; all-succeeded is SUCCESS; any
// pending/running job keeps the search RUNNING; a cluster with no jobs
// yet is SUBMITTING; a cluster still coming up is CREATING; anything
// else (no cluster, no counts, but config present) is UNKNOWN.
func ClassifyStatus(counts JobCounts, clusterExists, clusterReady bool) State {
	switch {
	case counts.Failed > 0:
		return StateFailure
	case counts.total() > 0 && counts.Succeeded == counts.total():
		return StateSuccess
	case counts.Pending+counts.Running > 0:
		return StateRunning
	case clusterReady:
		return StateSubmitting
	case clusterExists:
		return StateCreating
	default:
		return StateUnknown
	}
}

// Job is one submitted batch job and its cloud-assigned identity.
type Job struct {
	BatchURI     string
	ResourceName string // ARN, GCP resource path, or similar
}

// Owner identifies the local principal to attribute created resources
// to. There is no per-search identity provider in this CLI, so every
// backend and the results registry fall back to the invoking user's
// name.
func Owner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// StandardLabels returns the tag/label set every cloud backend attaches
// to the resources it creates for clusterName: a billing code, the
// cluster's own name, and the principal that created it. Nothing in this
// module queries resources by these labels: the janitor works from a
// results URI and `elastic-blast list` reads the results registry.
func StandardLabels(clusterName string) map[string]string {
	return map[string]string{
		"billingcode":  "elastic-blast",
		"cluster-name": clusterName,
		"created-by":   Owner(),
	}
}

// Backend is the capability set a cloud provider's search backend
// implements: provision compute, submit jobs against it, observe
// aggregate status, and tear everything down.
type Backend interface {
	// Provision brings up (or reattaches to) the compute environment for
	// a search. Idempotent on cfg's results URI.
	Provision(ctx context.Context, cfg *config.Config) error

	// SubmitJobs submits one job per batch URI, at-least-once. Returns
	// the jobs as submitted; callers persist this list for later status
	// and delete calls.
	SubmitJobs(ctx context.Context, cfg *config.Config, batchURIs []string) ([]Job, error)

	// CheckStatus reports the aggregate job counts and whether the
	// compute environment exists/is ready, for ClassifyStatus to turn
	// into a State.
	CheckStatus(ctx context.Context, cfg *config.Config, jobs []Job) (JobCounts, bool, bool, error)

	// Delete tears down compute environments, queues, and any
	// cluster/stack and disks, tolerating already-gone resources at
	// every step.
	Delete(ctx context.Context, cfg *config.Config) error
}

// factories holds the provider constructors registered by the aws and
// gcp subpackages' init() functions, mirroring the registry pattern
// used throughout this codebase for pluggable backends.
var factories = map[config.Provider]func(ctx context.Context, cfg *config.Config) (Backend, error){}

// Register makes a provider's constructor available to New. Called from
// the provider subpackage's init().
func Register(provider config.Provider, fn func(ctx context.Context, cfg *config.Config) (Backend, error)) {
	factories[provider] = fn
}

// New constructs the Backend for cfg.Cloud.Provider.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	fn, ok := factories[cfg.Cloud.Provider]
	if !ok {
		return nil, elberrors.Input("no cloud backend registered for provider %q", cfg.Cloud.Provider)
	}
	return fn(ctx, cfg)
}
