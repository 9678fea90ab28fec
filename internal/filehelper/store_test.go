package filehelper

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
)

func TestOpenLocalStore_WriteReadExistsDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	w, err := store.OpenWrite(ctx, "batch_000.fa")
	if err != nil {
		t.Fatalf("OpenWrite: %v", err)
	}
	if _, err := w.Write([]byte(">seq1\nACGT\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ok, err := store.Exists(ctx, "batch_000.fa")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true, nil", ok, err)
	}

	r, err := store.OpenRead(ctx, "batch_000.fa")
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != ">seq1\nACGT\n" {
		t.Errorf("got %q", data)
	}

	if err := store.Delete(ctx, "batch_000.fa"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err = store.Exists(ctx, "batch_000.fa")
	if err != nil || ok {
		t.Fatalf("Exists after delete = %v, %v, want false, nil", ok, err)
	}
}

func TestSplitURI(t *testing.T) {
	cases := []struct {
		uri        string
		scheme     string
		bucketName string
		prefix     string
		wantErr    bool
	}{
		{"s3://my-bucket/results", "s3", "my-bucket", "results/", false},
		{"gs://my-bucket/results/", "gs", "my-bucket", "results/", false},
		{"s3://my-bucket", "s3", "my-bucket", "", false},
		{"ftp://nope", "", "", "", true},
	}
	for _, c := range cases {
		scheme, bucket, prefix, err := splitURI(c.uri)
		if (err != nil) != c.wantErr {
			t.Errorf("splitURI(%q) error = %v, wantErr %v", c.uri, err, c.wantErr)
			continue
		}
		if c.wantErr {
			continue
		}
		if scheme != c.scheme || bucket != c.bucketName || prefix != c.prefix {
			t.Errorf("splitURI(%q) = (%q, %q, %q), want (%q, %q, %q)",
				c.uri, scheme, bucket, prefix, c.scheme, c.bucketName, c.prefix)
		}
	}
}

func TestStaging_CopyToBucket(t *testing.T) {
	ctx := context.Background()
	destDir := t.TempDir()
	store, err := Open(ctx, destDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	st, err := NewStaging(store, elblog.Nop())
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	for i := 0; i < 3; i++ {
		w, err := st.OpenWrite("batch_00" + string(rune('0'+i)) + ".fa")
		if err != nil {
			t.Fatalf("OpenWrite: %v", err)
		}
		w.Write([]byte(">seq\nACGT\n"))
		w.Close()
	}

	if err := st.CopyToBucket(ctx, false); err != nil {
		t.Fatalf("CopyToBucket: %v", err)
	}

	for i := 0; i < 3; i++ {
		ok, err := store.Exists(ctx, "batch_00"+string(rune('0'+i))+".fa")
		if err != nil || !ok {
			t.Errorf("Exists(batch_00%d.fa) = %v, %v, want true, nil", i, ok, err)
		}
	}
}

func TestOpenQuery_LocalPath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "query.fa")
	if err := os.WriteFile(path, []byte(">seq1\nACGT\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := OpenQuery(ctx, path)
	if err != nil {
		t.Fatalf("OpenQuery: %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != ">seq1\nACGT\n" {
		t.Errorf("got %q", data)
	}
}

func TestOpenQuery_RejectsUnsupportedScheme(t *testing.T) {
	_, err := OpenQuery(context.Background(), "ftp://nope/query.fa")
	if err == nil {
		t.Fatal("OpenQuery with ftp scheme = nil error, want error")
	}
}

func TestOpenQuery_MissingLocalFile(t *testing.T) {
	_, err := OpenQuery(context.Background(), filepath.Join(t.TempDir(), "missing.fa"))
	if err == nil {
		t.Fatal("OpenQuery with missing file = nil error, want error")
	}
}
