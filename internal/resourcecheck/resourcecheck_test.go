package resourcecheck

import (
	"context"
	"testing"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
)

func TestCheck_SkippedOnDryRun(t *testing.T) {
	cfg := &config.Config{
		Cloud:   config.CloudConfig{Provider: config.ProviderAWS},
		Cluster: config.ClusterConfig{DryRun: true, NumCPUs: 9999},
	}
	if err := Check(context.Background(), cfg, elblog.Nop()); err != nil {
		t.Errorf("Check with dry-run = %v, want nil", err)
	}
}

func TestCheck_UnknownProviderIsNoop(t *testing.T) {
	cfg := &config.Config{
		Cloud: config.CloudConfig{Provider: "azure"},
	}
	if err := Check(context.Background(), cfg, elblog.Nop()); err != nil {
		t.Errorf("Check with unknown provider = %v, want nil", err)
	}
}
