// Package registry is the optional Spanner-backed inventory of
// in-flight and completed searches, keyed by (Owner, ResultsURI). It
// exists purely for operator visibility (`elastic-blast list`); the
// driver's actual source of truth is always the
// object-storage markers under each search's results URI.
package registry

import "time"

// Search is one row of the Searches table.
type Search struct {
	Owner        string    `spanner:"Owner"`
	ResultsURI   string    `spanner:"ResultsURI"`
	ClusterName  string    `spanner:"ClusterName"`
	Provider     string    `spanner:"Provider"`
	State        string    `spanner:"State"`
	SubmittedAt  time.Time `spanner:"SubmittedAt"`
	LastStatusAt time.Time `spanner:"LastStatusAt"`
}
