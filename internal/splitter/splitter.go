// Package splitter turns a lazy FASTA byte stream into a deterministic
// sequence of on-disk batch files, preserving record boundaries.
package splitter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

// BatchFilePrefix is the fixed prefix for split output files.
const BatchFilePrefix = "batch_"

// Batch describes one produced batch file.
type Batch struct {
	Key     string // e.g. "batch_000.fa", relative to the Store passed to Split
	Letters int64  // body-character count in this batch only
}

// Result is the outcome of a full Split call.
type Result struct {
	TotalLetters int64
	Batches      []Batch
}

// record is one FASTA header + body, held in memory only long enough to
// decide which batch it belongs to.
type record struct {
	header  string // includes leading '>'
	body    []string
	letters int64
}

// Split reads r as a (possibly multi-file-concatenated) FASTA stream and
// writes batch_NNN.fa files to out, flushing a batch whenever adding the
// next record would exceed batchLength. A record is never split across
// batches, even if it alone exceeds batchLength. Numbering is zero-padded
// to width max(3, ceil(log10(num_batches))).
//
// Records are buffered in memory until a flush decision can be made,
// rather than streamed straight to disk, because the final batch count
// (and therefore the zero-pad width) isn't known until the whole input
// has been read.
func Split(ctx context.Context, r io.Reader, batchLength int64, out filehelper.Store) (*Result, error) {
	if batchLength <= 0 {
		return nil, elberrors.Input("batch length must be positive, got %d", batchLength)
	}

	records, totalLetters, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Result{}, nil
	}

	groups := groupIntoBatches(records, batchLength)
	width := numberWidth(len(groups))

	result := &Result{TotalLetters: totalLetters}
	for i, group := range groups {
		key := fmt.Sprintf("%s%0*d.fa", BatchFilePrefix, width, i)
		letters, err := writeBatch(ctx, out, key, group)
		if err != nil {
			return nil, err
		}
		result.Batches = append(result.Batches, Batch{Key: key, Letters: letters})
	}
	return result, nil
}

// readRecords scans r line by line, splitting it into FASTA records. A
// record begins at a line starting with '>' in column 0 and extends to
// the next such line or end-of-stream. Letter count is body characters
// only — headers and embedded whitespace never count.
func readRecords(r io.Reader) ([]record, int64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []record
	var total int64
	var cur *record

	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			if cur != nil {
				records = append(records, *cur)
			}
			cur = &record{header: line}
			continue
		}
		if cur == nil {
			return nil, 0, elberrors.Input("malformed FASTA input: sequence data before first header")
		}
		cur.body = append(cur.body, line)
		n := int64(len(strings.Join(strings.Fields(line), "")))
		cur.letters += n
		total += n
	}
	if err := sc.Err(); err != nil {
		if elbErr, ok := err.(*elberrors.Error); ok {
			return nil, 0, elbErr
		}
		return nil, 0, elberrors.Wrap(elberrors.KindDependency, err, "reading input stream")
	}
	if cur != nil {
		records = append(records, *cur)
	}
	return records, total, nil
}

// groupIntoBatches assigns each record to a batch, flushing whenever a
// non-empty batch would exceed batchLength by adding the next record. A
// record is always added to an empty batch even if it alone exceeds the
// limit, since records are indivisible.
func groupIntoBatches(records []record, batchLength int64) [][]record {
	var groups [][]record
	var cur []record
	var curLetters int64

	for _, rec := range records {
		if len(cur) > 0 && curLetters+rec.letters > batchLength {
			groups = append(groups, cur)
			cur = nil
			curLetters = 0
		}
		cur = append(cur, rec)
		curLetters += rec.letters
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func writeBatch(ctx context.Context, out filehelper.Store, key string, group []record) (int64, error) {
	w, err := out.OpenWrite(ctx, key)
	if err != nil {
		return 0, elberrors.Dependency("opening batch file %s: %v", key, err)
	}

	var letters int64
	bw := bufio.NewWriter(w)
	for _, rec := range group {
		fmt.Fprintln(bw, rec.header)
		for _, line := range rec.body {
			fmt.Fprintln(bw, line)
		}
		letters += rec.letters
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return 0, elberrors.Dependency("writing batch file %s: %v", key, err)
	}
	if err := w.Close(); err != nil {
		return 0, elberrors.Dependency("closing batch file %s: %v", key, err)
	}
	return letters, nil
}

// numberWidth returns max(3, ceil(log10(n))), the zero-pad width for n
// batches.
func numberWidth(n int) int {
	if n <= 1 {
		return 3
	}
	w := len(strconv.Itoa(n - 1))
	if w < 3 {
		return 3
	}
	return w
}
