package jobwriter

import (
	"context"
	"io"
	"testing"

	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

func TestSubstitute_KnownAndUnknownVars(t *testing.T) {
	template := "query: $QUERY\npath: ${QUERY_PATH}\nunknown: $NOPE\nbraced: ${ALSO_NOPE}\n"
	vars := map[string]string{
		"QUERY":      "batch_000.fa",
		"QUERY_PATH": "s3://bucket/batch_000.fa",
	}
	got := Substitute(template, vars)
	want := "query: batch_000.fa\npath: s3://bucket/batch_000.fa\nunknown: $NOPE\nbraced: ${ALSO_NOPE}\n"
	if got != want {
		t.Errorf("Substitute() = %q, want %q", got, want)
	}
}

func TestSubstitute_NoVars(t *testing.T) {
	if got := Substitute("no variables here", nil); got != "no variables here" {
		t.Errorf("Substitute() = %q", got)
	}
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	store, err := filehelper.Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("filehelper.Open: %v", err)
	}
	defer store.Close()

	template := "query: $QUERY\nnum: $QUERY_NUM\nresults: $RESULTS\nlabel: $LABEL\n"
	batches := []Batch{
		{QueryNum: 0, QueryURI: "s3://b/batches/batch_000.fa", ResultURI: "s3://b/results"},
		{QueryNum: 1, QueryURI: "s3://b/batches/batch_001.fa", ResultURI: "s3://b/results"},
	}

	keys, err := Write(ctx, template, batches, map[string]string{"LABEL": "my-run"}, store)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	if keys[0] != "jobs/job_000.yaml" || keys[1] != "jobs/job_001.yaml" {
		t.Errorf("keys = %v", keys)
	}

	r, err := store.OpenRead(ctx, keys[0])
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := "query: s3://b/batches/batch_000.fa\nnum: 0\nresults: s3://b/results\nlabel: my-run\n"
	if string(data) != want {
		t.Errorf("job_000.yaml = %q, want %q", data, want)
	}
}
