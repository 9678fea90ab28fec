package resourcecheck

import (
	"context"
	"fmt"

	compute "google.golang.org/api/compute/v1"
	container "google.golang.org/api/container/v1"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
)

// defaultGKEClusterLimit is GKE's default per-region cluster quota; a
// region already at this count cannot provision another cluster until
// one is deleted or the project requests a quota increase.
const defaultGKEClusterLimit = 50

func checkGCP(ctx context.Context, cfg *config.Config, log elblog.Logger) error {
	if cfg.Cluster.NumCPUs <= 0 {
		return nil
	}
	if cfg.Cloud.GCPProject == "" {
		return elberrors.Input("cloud-provider.gcp-project is required to check GCP quotas")
	}

	svc, err := compute.NewService(ctx)
	if err != nil {
		return elberrors.Dependency("creating Compute Engine client for quota check: %v", err)
	}

	region, err := svc.Regions.Get(cfg.Cloud.GCPProject, cfg.Cloud.Region).Context(ctx).Do()
	if err != nil {
		log.Warn("could not read GCP region quotas, skipping pre-flight check", "error", err.Error())
		return nil
	}

	var cpuLimit, cpuUsage float64
	found := false
	for _, q := range region.Quotas {
		if q.Metric != "CPUS" {
			continue
		}
		cpuLimit, cpuUsage = q.Limit, q.Usage
		found = true
		break
	}
	if !found {
		log.Warn("CPUS quota not found in region, skipping pre-flight check", "region", cfg.Cloud.Region)
		return nil
	}

	available := int(cpuLimit - cpuUsage)
	if available < cfg.Cluster.NumCPUs {
		return elberrors.Dependency(
			"your GCP project has %d of %.0f CPUS quota available in region %s; the requested machine type needs %d vCPUs per instance and cannot be provisioned; request a quota increase or choose a smaller instance type",
			available, cpuLimit, cfg.Cloud.Region, cfg.Cluster.NumCPUs)
	}
	if want := cfg.Cluster.NumCPUs * cfg.Cluster.NumNodes; available < want {
		log.Warn("CPUS quota limits fleet size",
			"requestedVCPUs", want, "availableVCPUs", available, "region", cfg.Cloud.Region)
	}

	if cfg.Cluster.NumNodes > 1 {
		return checkGKEClusterLimit(ctx, cfg, log)
	}
	return nil
}

// checkGKEClusterLimit counts the project's existing GKE clusters in
// cfg.Cloud.Region against defaultGKEClusterLimit, since a multi-node
// search provisions one more cluster there.
func checkGKEClusterLimit(ctx context.Context, cfg *config.Config, log elblog.Logger) error {
	svc, err := container.NewService(ctx)
	if err != nil {
		log.Warn("could not create GKE client, skipping cluster quota check", "error", err.Error())
		return nil
	}

	parent := fmt.Sprintf("projects/%s/locations/%s", cfg.Cloud.GCPProject, cfg.Cloud.Region)
	resp, err := svc.Projects.Locations.Clusters.List(parent).Context(ctx).Do()
	if err != nil {
		log.Warn("could not list GKE clusters, skipping cluster quota check", "error", err.Error())
		return nil
	}

	if len(resp.Clusters) >= defaultGKEClusterLimit {
		return elberrors.Dependency(
			"your project already has %d of %d allowed GKE clusters in region %s; delete unused clusters or request a quota increase before submitting a new one",
			len(resp.Clusters), defaultGKEClusterLimit, cfg.Cloud.Region)
	}
	return nil
}
