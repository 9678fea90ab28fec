package cloudbackend

import (
	"context"
	"testing"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		name          string
		counts        JobCounts
		clusterExists bool
		clusterReady  bool
		want          State
	}{
		{"absent", JobCounts{}, false, false, StateUnknown},
		{"creating", JobCounts{}, true, false, StateCreating},
		{"submitting", JobCounts{}, true, true, StateSubmitting},
		{"running, some pending", JobCounts{Pending: 2, Running: 1}, true, true, StateRunning},
		{"running, none pending", JobCounts{Running: 3}, true, true, StateRunning},
		{"all succeeded", JobCounts{Succeeded: 4}, true, true, StateSuccess},
		{"any failure wins over running", JobCounts{Running: 2, Failed: 1}, true, true, StateFailure},
		{"any failure wins over success", JobCounts{Succeeded: 3, Failed: 1}, true, true, StateFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ClassifyStatus(c.counts, c.clusterExists, c.clusterReady)
			if got != c.want {
				t.Errorf("ClassifyStatus(%+v, %v, %v) = %v, want %v", c.counts, c.clusterExists, c.clusterReady, got, c.want)
			}
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Cloud: config.CloudConfig{Provider: "azure"}})
	if err == nil {
		t.Error("New with unregistered provider = nil error, want error")
	}
}
