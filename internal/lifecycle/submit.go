package lifecycle

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
	"github.com/alphauslabs/elastic-blast-go/internal/jobwriter"
	"github.com/alphauslabs/elastic-blast-go/internal/registry"
	"github.com/alphauslabs/elastic-blast-go/internal/resourcecheck"
	"github.com/alphauslabs/elastic-blast-go/internal/splitter"
)

// jobTemplate is the minimal per-batch job descriptor this driver
// renders and writes to the results URI for operator inspection as a
// job_NNN.yaml artifact; the cloud backend itself is handed the batch
// URIs directly rather than parsing this file back.
const jobTemplate = `query: $QUERY_PATH
query_num: $QUERY_NUM
results: $RESULTS
program: $PROGRAM
db: $DB
options: $OPTIONS
`

const batchesPrefix = "query_batches/"

// Submit validates cfg, provisions a cloud backend, splits and uploads
// the query into batches, writes one job descriptor per batch, and
// submits one cloud job per batch. On any non-transient error it
// unwinds whatever it provisioned before returning.
func (d *Driver) Submit(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(config.CommandSubmit); err != nil {
		return elberrors.Input("%v", err)
	}
	if cfg.Cluster.Name == "" {
		cfg.Cluster.Name = "elastic-blast-" + uuid.NewString()[:8]
	}

	if err := resourcecheck.Check(ctx, cfg, d.Log); err != nil {
		return err
	}

	store, err := openResults(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := d.checkOwnership(ctx, store, cfg); err != nil {
		return err
	}

	cleanup := elberrors.NewCleanupStack(d.Log)
	backend, err := cloudbackend.New(ctx, cfg)
	if err != nil {
		return err
	}

	if err := backend.Provision(ctx, cfg); err != nil {
		return err
	}
	cleanup.Push(func() error { return backend.Delete(ctx, cfg) })

	if err := d.freezeConfig(ctx, store, cfg); err != nil {
		cleanup.Unwind()
		return err
	}

	batchURIs, err := d.splitAndStage(ctx, store, cfg)
	if err != nil {
		cleanup.Unwind()
		return err
	}

	if _, err := d.writeJobDescriptors(ctx, store, cfg, batchURIs); err != nil {
		cleanup.Unwind()
		return err
	}

	jobs, err := backend.SubmitJobs(ctx, cfg, batchURIs)
	if err != nil {
		cleanup.Unwind()
		return err
	}

	manifest := jobManifest{ClusterName: cfg.Cluster.Name, Jobs: toJobRecords(jobs)}
	if err := filehelper.WriteJSON(ctx, store, filehelper.JobsKey, manifest); err != nil {
		cleanup.Unwind()
		return elberrors.Dependency("persisting job manifest: %v", err)
	}

	if err := d.Registry.Upsert(ctx, registry.Search{
		Owner:       cloudbackend.Owner(),
		ResultsURI:  cfg.Cluster.Results,
		ClusterName: cfg.Cluster.Name,
		Provider:    string(cfg.Cloud.Provider),
		State:       string(cloudbackend.StateSubmitting),
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		d.Log.Warn("registry upsert failed", "error", err)
	}

	d.Log.Info("search submitted", "results", cfg.Cluster.Results, "batches", len(batchURIs))
	return nil
}

// checkOwnership enforces spec's results-URI locking rule: a frozen
// config already present at this URI must match cfg, or submit fails
// rather than silently reattaching to (or clobbering) someone else's
// search.
func (d *Driver) checkOwnership(ctx context.Context, store filehelper.Store, cfg *config.Config) error {
	exists, err := store.Exists(ctx, filehelper.ConfigKey)
	if err != nil {
		return elberrors.Dependency("checking results URI ownership: %v", err)
	}
	if !exists {
		return nil
	}

	existing, err := thawFrozenConfig(ctx, store)
	if err != nil {
		return err
	}
	if !sameSearch(existing, cfg) {
		return elberrors.Input("results URI %s is already owned by a different search configuration", cfg.Cluster.Results)
	}
	d.Log.Info("reattaching to existing search", "results", cfg.Cluster.Results)
	return nil
}

// sameSearch compares the fields that identify "the same search" rather
// than requiring byte-identical configs, so cosmetic differences (e.g.
// log level) don't spuriously collide.
func sameSearch(a, b *config.Config) bool {
	return a.Cloud.Provider == b.Cloud.Provider &&
		a.Blast.Program == b.Blast.Program &&
		a.Blast.DB == b.Blast.DB &&
		a.Cluster.Name == b.Cluster.Name
}

func (d *Driver) freezeConfig(ctx context.Context, store filehelper.Store, cfg *config.Config) error {
	if err := filehelper.WriteJSON(ctx, store, filehelper.ConfigKey, cfg); err != nil {
		return elberrors.Dependency("freezing config: %v", err)
	}
	return nil
}

// splitAndStage opens every configured query locator, splits it into
// batch_NNN.fa files under query_batches/ in the results store, and
// returns their full URIs in batch order.
func (d *Driver) splitAndStage(ctx context.Context, store filehelper.Store, cfg *config.Config) ([]string, error) {
	var allURIs []string
	for _, queryURI := range cfg.App.Queries {
		r, err := filehelper.OpenQuery(ctx, queryURI)
		if err != nil {
			return nil, err
		}

		result, err := splitter.Split(ctx, r, int64(cfg.Blast.BatchLength), prefixedStore{store, batchesPrefix})
		r.Close()
		if err != nil {
			return nil, err
		}

		for _, b := range result.Batches {
			allURIs = append(allURIs, joinURI(cfg.Cluster.Results, batchesPrefix+b.Key))
		}
		d.Log.Info("split query", "query", queryURI, "batches", len(result.Batches), "letters", result.TotalLetters)
	}
	return allURIs, nil
}

// writeJobDescriptors renders one job descriptor per batch URI.
func (d *Driver) writeJobDescriptors(ctx context.Context, store filehelper.Store, cfg *config.Config, batchURIs []string) ([]string, error) {
	batches := make([]jobwriter.Batch, len(batchURIs))
	for i, uri := range batchURIs {
		batches[i] = jobwriter.Batch{QueryNum: i, QueryURI: uri, ResultURI: cfg.Cluster.Results}
	}
	extra := map[string]string{
		"PROGRAM": cfg.Blast.Program,
		"DB":      cfg.Blast.DB,
		"OPTIONS": cfg.Blast.Options,
	}
	return jobwriter.Write(ctx, jobTemplate, batches, extra, store)
}

// prefixedStore roots every key under a fixed prefix, so splitter.Split
// can write straight into query_batches/ without knowing about the
// results store's own layout conventions.
type prefixedStore struct {
	filehelper.Store
	prefix string
}

func (p prefixedStore) OpenWrite(ctx context.Context, key string) (io.WriteCloser, error) {
	return p.Store.OpenWrite(ctx, p.prefix+key)
}

func joinURI(root, key string) string {
	return strings.TrimSuffix(root, "/") + "/" + key
}

