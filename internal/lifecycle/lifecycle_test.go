package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
)

func TestSameSearch(t *testing.T) {
	base := &config.Config{
		Cloud:   config.CloudConfig{Provider: config.ProviderAWS},
		Blast:   config.BlastConfig{Program: "blastn", DB: "nt"},
		Cluster: config.ClusterConfig{Name: "my-cluster"},
	}
	identical := &config.Config{
		Cloud:   config.CloudConfig{Provider: config.ProviderAWS},
		Blast:   config.BlastConfig{Program: "blastn", DB: "nt", Options: "-evalue 1e-5"},
		Cluster: config.ClusterConfig{Name: "my-cluster", MachineType: "m5.large"},
	}
	assert.True(t, sameSearch(base, identical), "configs differing only in cosmetic fields should be the same search")

	differentDB := &config.Config{
		Cloud:   config.CloudConfig{Provider: config.ProviderAWS},
		Blast:   config.BlastConfig{Program: "blastn", DB: "swissprot"},
		Cluster: config.ClusterConfig{Name: "my-cluster"},
	}
	assert.False(t, sameSearch(base, differentDB))

	differentProvider := &config.Config{
		Cloud:   config.CloudConfig{Provider: config.ProviderGCP},
		Blast:   config.BlastConfig{Program: "blastn", DB: "nt"},
		Cluster: config.ClusterConfig{Name: "my-cluster"},
	}
	assert.False(t, sameSearch(base, differentProvider))
}

func TestJobRecordRoundTrip(t *testing.T) {
	jobs := []cloudbackend.Job{
		{BatchURI: "s3://bucket/batch_000.fa", ResourceName: "arn:aws:batch:job/1"},
		{BatchURI: "s3://bucket/batch_001.fa", ResourceName: "arn:aws:batch:job/2"},
	}
	records := toJobRecords(jobs)
	require.Len(t, records, 2)
	assert.Equal(t, jobs[0].BatchURI, records[0].BatchURI)
	assert.Equal(t, jobs[0].ResourceName, records[0].ResourceName)

	roundTripped := toBackendJobs(records)
	assert.Equal(t, jobs, roundTripped)
}

func TestReportTerminal(t *testing.T) {
	cases := []struct {
		state cloudbackend.State
		want  bool
	}{
		{cloudbackend.StateCreating, false},
		{cloudbackend.StateSubmitting, false},
		{cloudbackend.StateRunning, false},
		{cloudbackend.StateDeleting, false},
		{cloudbackend.StateSuccess, true},
		{cloudbackend.StateFailure, true},
		{cloudbackend.StateUnknown, true},
	}
	for _, c := range cases {
		got := Report{State: c.state}.Terminal()
		assert.Equalf(t, c.want, got, "state %s", c.state)
	}
}

func TestReportExitCode(t *testing.T) {
	assert.Equal(t, 0, Report{State: cloudbackend.StateSuccess}.ExitCode())
	assert.Equal(t, 1, Report{State: cloudbackend.StateFailure}.ExitCode())
	assert.Equal(t, 2, Report{State: cloudbackend.StateUnknown}.ExitCode())
	// Non-terminal states have no entry in exitCodes; ExitCode falls back
	// to UNKNOWN's code rather than zero, since 0 would misreport an
	// in-progress search as successful.
	assert.Equal(t, 2, Report{State: cloudbackend.StateRunning}.ExitCode())
}

func TestFormatCounts(t *testing.T) {
	r := Report{
		State:  cloudbackend.StateRunning,
		Counts: cloudbackend.JobCounts{Pending: 1, Running: 2, Succeeded: 3, Failed: 0},
	}
	got := FormatCounts(r)
	assert.Equal(t, "RUNNING: pending=1 running=2 succeeded=3 failed=0", got)
}

func TestSubmit_InvalidConfigFailsBeforeAnyIO(t *testing.T) {
	driver := NewDriver(elblog.Nop(), nil)
	err := driver.Submit(context.Background(), &config.Config{})
	require.Error(t, err)
	assert.Equal(t, 1, exitCodeOf(t, err)) // KindInput
}

func TestStatus_UnsupportedResultsScheme(t *testing.T) {
	driver := NewDriver(elblog.Nop(), nil)
	_, err := driver.Status(context.Background(), "ftp://bad-scheme/results", false)
	require.Error(t, err)
}

func TestDelete_UnsupportedResultsScheme(t *testing.T) {
	driver := NewDriver(elblog.Nop(), nil)
	err := driver.Delete(context.Background(), "ftp://bad-scheme/results")
	require.Error(t, err)
}

func TestRateFor(t *testing.T) {
	cases := []struct {
		machineType string
		want        float64
	}{
		{"m5.large", 0.192},
		{"n1-standard-8", 0.0475},
		{"unknown-family", 0},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, rateFor(c.machineType), "rateFor(%q)", c.machineType)
	}
}

func TestSummary_EstimatedCostAndString(t *testing.T) {
	s := Summary{
		ClusterName: "my-cluster",
		MachineType: "m5.large",
		NumJobs:     10,
		Succeeded:   8,
		Failed:      2,
		HourlyRate:  rateFor("m5.large"),
	}
	assert.InDelta(t, 1.92, s.EstimatedCost(), 1e-9)
	assert.Equal(t, "cluster=my-cluster machine=m5.large jobs=10 succeeded=8 failed=2 est_cost=$1.92", s.String())
}

func TestList_NoRegistryConfigured(t *testing.T) {
	driver := NewDriver(elblog.Nop(), nil)
	_, err := driver.List(context.Background(), "alice")
	require.Error(t, err)
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	type exitCoder interface{ ExitCode() int }
	ec, ok := err.(exitCoder)
	require.True(t, ok, "error %v does not implement ExitCode()", err)
	return ec.ExitCode()
}
