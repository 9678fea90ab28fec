package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

// pollInterval is the sleep between repolls under --wait, per spec.
const pollInterval = 20 * time.Second

// Report is the outcome of a single status check: the aggregate state
// and job counts that drove it.
type Report struct {
	State  cloudbackend.State
	Counts cloudbackend.JobCounts
}

// Terminal reports whether r.State needs no further polling.
func (r Report) Terminal() bool {
	switch r.State {
	case cloudbackend.StateSuccess, cloudbackend.StateFailure, cloudbackend.StateUnknown:
		return true
	default:
		return false
	}
}

// exitCodes maps a terminal state onto the process exit code used by
// `status --exit-code`.
var exitCodes = map[cloudbackend.State]int{
	cloudbackend.StateSuccess: 0,
	cloudbackend.StateFailure: 1,
	cloudbackend.StateUnknown: 2,
}

// ExitCode returns r's mapped exit code, or 2 (UNKNOWN's code) for any
// non-terminal state, since --exit-code only makes sense once polling
// has stopped.
func (r Report) ExitCode() int {
	if code, ok := exitCodes[r.State]; ok {
		return code
	}
	return exitCodes[cloudbackend.StateUnknown]
}

// Status thaws the frozen config and job manifest at resultsURI and
// classifies the search's current state. If wait is set, it repolls
// every pollInterval until a terminal state is reached or ctx is
// cancelled.
func (d *Driver) Status(ctx context.Context, resultsURI string, wait bool) (Report, error) {
	for {
		report, err := d.checkOnce(ctx, resultsURI)
		if err != nil {
			return Report{}, err
		}
		if !wait || report.Terminal() {
			return report, nil
		}
		d.Log.Info("search still in progress, waiting", "results", resultsURI, "state", report.State)
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// checkOnce performs a single thaw + CheckStatus + ClassifyStatus round.
func (d *Driver) checkOnce(ctx context.Context, resultsURI string) (Report, error) {
	store, err := filehelper.Open(ctx, resultsURI)
	if err != nil {
		return Report{}, err
	}
	defer store.Close()

	cfg, err := thawFrozenConfig(ctx, store)
	if err != nil {
		return Report{}, err
	}
	if err := cfg.Validate(config.CommandStatus); err != nil {
		return Report{}, elberrors.Input("%v", err)
	}

	manifest, err := loadManifest(ctx, store)
	if err != nil {
		return Report{}, err
	}

	backend, err := cloudbackend.New(ctx, cfg)
	if err != nil {
		return Report{}, err
	}

	counts, clusterExists, clusterReady, err := backend.CheckStatus(ctx, cfg, toBackendJobs(manifest.Jobs))
	if err != nil {
		return Report{}, err
	}

	state := cloudbackend.ClassifyStatus(counts, clusterExists, clusterReady)
	return Report{State: state, Counts: counts}, nil
}

// FormatCounts renders r as a terse, single-line status summary.
func FormatCounts(r Report) string {
	return fmt.Sprintf("%s: pending=%d running=%d succeeded=%d failed=%d",
		r.State, r.Counts.Pending, r.Counts.Running, r.Counts.Succeeded, r.Counts.Failed)
}
