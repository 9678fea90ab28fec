package splitter

import (
	"context"
	"strings"
	"testing"

	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

func openTestStore(t *testing.T) filehelper.Store {
	t.Helper()
	store, err := filehelper.Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("filehelper.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func readBatch(t *testing.T, store filehelper.Store, key string) string {
	t.Helper()
	r, err := store.OpenRead(context.Background(), key)
	if err != nil {
		t.Fatalf("OpenRead(%s): %v", key, err)
	}
	defer r.Close()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}

func TestSplit_EmptyInput(t *testing.T) {
	store := openTestStore(t)
	result, err := Split(context.Background(), strings.NewReader(""), 1000, store)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if result.TotalLetters != 0 || len(result.Batches) != 0 {
		t.Errorf("got %+v, want zero batches and zero letters", result)
	}
}

func TestSplit_SingleBatch(t *testing.T) {
	store := openTestStore(t)
	input := ">seq1\nAAAA\nCCCC\n>seq2\nGGGG\n"
	result, err := Split(context.Background(), strings.NewReader(input), 1000, store)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(result.Batches))
	}
	if result.TotalLetters != 12 {
		t.Errorf("TotalLetters = %d, want 12", result.TotalLetters)
	}
	if got := readBatch(t, store, "batch_000.fa"); got != input {
		t.Errorf("batch_000.fa = %q, want %q", got, input)
	}
}

func TestSplit_FlushesOnOverflow(t *testing.T) {
	store := openTestStore(t)
	// Each record has 4 body letters; batchLength 5 means only one record
	// fits per batch before the next would overflow.
	input := ">s1\nAAAA\n>s2\nCCCC\n>s3\nGGGG\n"
	result, err := Split(context.Background(), strings.NewReader(input), 5, store)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(result.Batches))
	}
	if result.TotalLetters != 12 {
		t.Errorf("TotalLetters = %d, want 12", result.TotalLetters)
	}
}

func TestSplit_IndivisibleOversizedRecord(t *testing.T) {
	store := openTestStore(t)
	// A single record longer than batchLength is still written whole,
	// alone in its own batch.
	input := ">big\n" + strings.Repeat("A", 50) + "\n>small\nCC\n"
	result, err := Split(context.Background(), strings.NewReader(input), 10, store)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(result.Batches))
	}
	if result.Batches[0].Letters != 50 {
		t.Errorf("first batch letters = %d, want 50", result.Batches[0].Letters)
	}
}

func TestSplit_HeaderWithEmptyBodyIsValidRecord(t *testing.T) {
	store := openTestStore(t)
	input := ">empty\n>seq2\nAAAA\n"
	result, err := Split(context.Background(), strings.NewReader(input), 1000, store)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(result.Batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(result.Batches))
	}
	if result.TotalLetters != 4 {
		t.Errorf("TotalLetters = %d, want 4", result.TotalLetters)
	}
}

func TestSplit_RejectsDataBeforeHeader(t *testing.T) {
	store := openTestStore(t)
	_, err := Split(context.Background(), strings.NewReader("AAAA\n>seq1\nCCCC\n"), 1000, store)
	if err == nil {
		t.Error("Split with data before first header = nil error, want error")
	}
}

func TestSplit_RejectsNonPositiveBatchLength(t *testing.T) {
	store := openTestStore(t)
	if _, err := Split(context.Background(), strings.NewReader(">s\nA\n"), 0, store); err == nil {
		t.Error("Split with batchLength=0 = nil error, want error")
	}
}

func TestNumberWidth(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 3}, {1, 3}, {2, 3}, {999, 3}, {1000, 3}, {1001, 4}, {10000, 4},
	}
	for _, c := range cases {
		if got := numberWidth(c.n); got != c.want {
			t.Errorf("numberWidth(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
