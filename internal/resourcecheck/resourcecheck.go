// Package resourcecheck runs pre-flight quota checks against the
// target cloud provider before a search is provisioned, so an
// under-quota account fails fast with a human-readable diagnostic
// instead of hanging in CREATING.
package resourcecheck

import (
	"context"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
)

// Check compares cfg.Cluster's machine type against the account's vCPU
// quota: it fails when a single instance does not fit, and only warns
// when the whole requested fleet does not. It also checks the provider's
// own resource limits (Batch compute environments and job queues on AWS,
// GKE clusters on GCP). Skipped entirely on dry-run, matching the
// original's check_resource_quotas.
func Check(ctx context.Context, cfg *config.Config, log elblog.Logger) error {
	if cfg.Cluster.DryRun {
		return nil
	}
	switch cfg.Cloud.Provider {
	case config.ProviderAWS:
		return checkAWS(ctx, cfg, log)
	case config.ProviderGCP:
		return checkGCP(ctx, cfg, log)
	default:
		return nil
	}
}
