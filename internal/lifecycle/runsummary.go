package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

// hourlyRates is a rough, static $/hour table for the machine-type
// families the Tuner chooses between, used only to produce an
// order-of-magnitude cost estimate. Real billing reconciliation (a
// BigQuery export integration or similar) is out of scope; run-summary's
// number is an estimate, not an invoice.
var hourlyRates = map[string]float64{
	"m5":          0.192, // AWS general purpose, per vCPU-ish baseline rate
	"c5":          0.17,
	"r5":          0.252,
	"optimal":     0.20,
	"n1-standard": 0.0475,
	"n1-highmem":  0.0592,
}

// Summary is the rendered output of `run-summary`.
type Summary struct {
	ClusterName string
	MachineType string
	NumJobs     int
	Succeeded   int
	Failed      int
	HourlyRate  float64
}

// RunSummary derives a rough per-search cost/usage summary from the
// search's frozen config and current job counts. There is no wall-clock
// tracking available without a persistent worker process, so the
// estimate is job-count × hourly-rate, not integrated CPU-hours.
func (d *Driver) RunSummary(ctx context.Context, resultsURI string) (Summary, error) {
	report, err := d.checkOnce(ctx, resultsURI)
	if err != nil {
		return Summary{}, err
	}

	store, err := filehelper.Open(ctx, resultsURI)
	if err != nil {
		return Summary{}, err
	}
	defer store.Close()

	cfg, err := thawFrozenConfig(ctx, store)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		ClusterName: cfg.Cluster.Name,
		MachineType: cfg.Cluster.MachineType,
		NumJobs:     report.Counts.Pending + report.Counts.Running + report.Counts.Succeeded + report.Counts.Failed,
		Succeeded:   report.Counts.Succeeded,
		Failed:      report.Counts.Failed,
		HourlyRate:  rateFor(cfg.Cluster.MachineType),
	}, nil
}

// rateFor looks up hourlyRates by machine-type family prefix, falling
// back to 0 (unpriced) for families not in the table.
func rateFor(machineType string) float64 {
	for family, rate := range hourlyRates {
		if strings.HasPrefix(machineType, family) {
			return rate
		}
	}
	return 0
}

// EstimatedCost is jobs × rate-per-instance-hour, the coarse
// "what did this roughly cost" figure `run-summary` prints.
func (s Summary) EstimatedCost() float64 {
	return float64(s.NumJobs) * s.HourlyRate
}

func (s Summary) String() string {
	return fmt.Sprintf("cluster=%s machine=%s jobs=%d succeeded=%d failed=%d est_cost=$%.2f",
		s.ClusterName, s.MachineType, s.NumJobs, s.Succeeded, s.Failed, s.EstimatedCost())
}
