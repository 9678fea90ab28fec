package lifecycle

import (
	"context"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

// Delete thaws the frozen config at resultsURI and tears down its
// backend. Calling it twice succeeds both times: the second call's
// Backend.Delete sees only already-gone resources and returns nil.
func (d *Driver) Delete(ctx context.Context, resultsURI string) error {
	store, err := filehelper.Open(ctx, resultsURI)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg, err := thawFrozenConfig(ctx, store)
	if err != nil {
		return err
	}
	if err := cfg.Validate(config.CommandDelete); err != nil {
		return elberrors.Input("%v", err)
	}

	backend, err := cloudbackend.New(ctx, cfg)
	if err != nil {
		return err
	}
	if err := backend.Delete(ctx, cfg); err != nil {
		return err
	}

	if err := d.Registry.UpdateState(ctx, cloudbackend.Owner(), resultsURI, string(cloudbackend.StateDeleting)); err != nil {
		d.Log.Warn("registry update failed", "error", err)
	}

	d.Log.Info("search deleted", "results", resultsURI)
	return nil
}
