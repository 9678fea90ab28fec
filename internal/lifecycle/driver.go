// Package lifecycle implements the submit/status/delete/janitor
// commands driving one BLAST search end to end: it validates
// configuration, provisions a cloud backend, splits and uploads query
// batches, submits jobs, and later polls or tears down that same
// backend, using only the frozen config and job list pinned to the
// results URI as shared state between invocations.
package lifecycle

import (
	"context"
	"io"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
	"github.com/alphauslabs/elastic-blast-go/internal/registry"
)

// Driver runs the lifecycle commands against a single results URI at a
// time. It holds no per-search state of its own — every method thaws or
// freezes what it needs from the results URI — so one Driver can be
// reused across searches within the same process (e.g. the janitor
// sweep).
type Driver struct {
	Log      elblog.Logger
	Registry *registry.Client // nil when [registry] is not configured
}

// NewDriver builds a Driver. reg may be nil.
func NewDriver(log elblog.Logger, reg *registry.Client) *Driver {
	return &Driver{Log: log, Registry: reg}
}

// List returns every search the registry has on record for owner. It
// fails with KindInput when no registry is configured, since there is no
// other inventory of past searches to fall back to — `list` is purely an
// operator-visibility feature on top of the registry.
func (d *Driver) List(ctx context.Context, owner string) ([]*registry.Search, error) {
	if d.Registry == nil {
		return nil, elberrors.Input("no [registry] configured; list requires a Spanner database")
	}
	return d.Registry.List(ctx, owner)
}

// jobRecord is the persisted shape of one submitted batch job, written
// to filehelper.JobsKey at submit time and read back by status/delete.
type jobRecord struct {
	BatchURI     string `json:"batchUri"`
	ResourceName string `json:"resourceName"`
}

// jobManifest is the full set of jobs submitted for a search, alongside
// the cluster name they were submitted under (a sanity check against a
// thawed config that might otherwise point at a reused results URI).
type jobManifest struct {
	ClusterName string      `json:"clusterName"`
	Jobs        []jobRecord `json:"jobs"`
}

func toJobRecords(jobs []cloudbackend.Job) []jobRecord {
	out := make([]jobRecord, len(jobs))
	for i, j := range jobs {
		out[i] = jobRecord{BatchURI: j.BatchURI, ResourceName: j.ResourceName}
	}
	return out
}

func toBackendJobs(records []jobRecord) []cloudbackend.Job {
	out := make([]cloudbackend.Job, len(records))
	for i, r := range records {
		out[i] = cloudbackend.Job{BatchURI: r.BatchURI, ResourceName: r.ResourceName}
	}
	return out
}

// openResults opens the Store rooted at cfg's results URI.
func openResults(ctx context.Context, cfg *config.Config) (filehelper.Store, error) {
	return filehelper.Open(ctx, cfg.Cluster.Results)
}

// loadManifest thaws the persisted job manifest for a search.
func loadManifest(ctx context.Context, store filehelper.Store) (*jobManifest, error) {
	var m jobManifest
	if err := filehelper.ReadJSON(ctx, store, filehelper.JobsKey, &m); err != nil {
		return nil, elberrors.Dependency("reading job manifest: %v", err)
	}
	return &m, nil
}

// thawFrozenConfig reads back the config pinned to the results URI at
// submit time, the authoritative copy status/delete/janitor operate
// against instead of re-parsing a possibly-stale local INI file.
func thawFrozenConfig(ctx context.Context, store filehelper.Store) (*config.Config, error) {
	r, err := store.OpenRead(ctx, filehelper.ConfigKey)
	if err != nil {
		return nil, elberrors.Input("no search found at this results URI (%v)", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, elberrors.Dependency("reading frozen config: %v", err)
	}
	return config.ThawBytes(data)
}
