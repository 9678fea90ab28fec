package lifecycle

import (
	"context"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

// Sweep is the janitor's idempotent per-search check: on SUCCESS or
// FAILURE it writes the corresponding marker and deletes the cluster; on
// an intermediate state it only logs; on UNKNOWN it logs a warning
// (worded differently when dryRun is set, since an unreachable cluster
// during a dry run is expected rather than alarming).
func (d *Driver) Sweep(ctx context.Context, resultsURI string, dryRun bool) error {
	store, err := filehelper.Open(ctx, resultsURI)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg, err := thawFrozenConfig(ctx, store)
	if err != nil {
		return err
	}
	if err := cfg.Validate(config.CommandStatus); err != nil {
		return elberrors.Input("%v", err)
	}

	report, err := d.checkOnce(ctx, resultsURI)
	if err != nil {
		return err
	}

	log := d.Log.With("results", resultsURI, "cluster", cfg.Cluster.Name)

	switch report.State {
	case cloudbackend.StateSuccess:
		if err := filehelper.WriteMarker(ctx, store, filehelper.SuccessKey); err != nil {
			return err
		}
		log.Debug("search succeeded, deleting cluster")
		return d.Delete(ctx, resultsURI)

	case cloudbackend.StateFailure:
		if err := filehelper.WriteMarker(ctx, store, filehelper.FailureKey); err != nil {
			return err
		}
		log.Debug("search failed, deleting cluster")
		return d.Delete(ctx, resultsURI)

	case cloudbackend.StateCreating:
		log.Debug("search still initializing")
	case cloudbackend.StateSubmitting:
		log.Debug("search performing job submission")
	case cloudbackend.StateRunning:
		log.Debug("search still running")
	case cloudbackend.StateDeleting:
		log.Debug("search being deleted")
	case cloudbackend.StateUnknown:
		if dryRun {
			log.Warn("unknown status because of dry-run option")
		} else {
			log.Warn("unknown or expired search")
		}
	}
	return nil
}
