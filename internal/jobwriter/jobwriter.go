// Package jobwriter renders per-batch job descriptor files from a
// template by substituting $VAR / ${VAR} occurrences against a
// caller-supplied variable map.
package jobwriter

import (
	"context"
	"fmt"
	"regexp"

	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

// varPattern matches both ${VAR} and bare $VAR forms; unknown variables
// are left verbatim rather than causing a failure.
var varPattern = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// Substitute replaces $VAR / ${VAR} occurrences in template using vars.
// A name with no entry in vars is left untouched, braces and all.
func Substitute(template string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := varPattern.FindStringSubmatch(match)
		key := name[1]
		if key == "" {
			key = name[2]
		}
		if v, ok := vars[key]; ok {
			return v
		}
		return match
	})
}

// Batch is the minimal per-batch information Write needs to fill in the
// well-known variables.
type Batch struct {
	QueryNum  int
	QueryURI  string // e.g. "s3://bucket/results/batches/batch_003.fa"
	ResultURI string // e.g. "s3://bucket/results"
}

// Write renders one job_NNN.yaml per batch from template, merging extra
// into the well-known QUERY/QUERY_NUM/QUERY_PATH/RESULTS variables, and
// writes them to out. It returns the written keys in batch order.
func Write(ctx context.Context, template string, batches []Batch, extra map[string]string, out filehelper.Store) ([]string, error) {
	width := 3
	if n := len(batches); n > 1000 {
		width = len(fmt.Sprintf("%d", n-1))
	}

	var keys []string
	for _, b := range batches {
		vars := make(map[string]string, len(extra)+4)
		for k, v := range extra {
			vars[k] = v
		}
		vars["QUERY"] = b.QueryURI
		vars["QUERY_NUM"] = fmt.Sprintf("%d", b.QueryNum)
		vars["QUERY_PATH"] = b.QueryURI
		vars["RESULTS"] = b.ResultURI

		rendered := Substitute(template, vars)
		key := fmt.Sprintf("jobs/job_%0*d.yaml", width, b.QueryNum)

		w, err := out.OpenWrite(ctx, key)
		if err != nil {
			return nil, elberrors.Dependency("opening job descriptor %s: %v", key, err)
		}
		if _, err := w.Write([]byte(rendered)); err != nil {
			w.Close()
			return nil, elberrors.Dependency("writing job descriptor %s: %v", key, err)
		}
		if err := w.Close(); err != nil {
			return nil, elberrors.Dependency("closing job descriptor %s: %v", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
