package registry

import (
	"context"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

// Client wraps a Spanner database handle scoped to the Searches table.
type Client struct {
	db *spanner.Client
}

// NewClient opens a Spanner client against database (a full resource
// path "projects/.../instances/.../databases/..."). Returns nil, nil
// when database is empty: the registry is optional, and callers treat
// a nil *Client as "not configured".
func NewClient(ctx context.Context, database string) (*Client, error) {
	if database == "" {
		return nil, nil
	}
	db, err := spanner.NewClient(ctx, database)
	if err != nil {
		return nil, elberrors.Dependency("opening Spanner database %s: %v", database, err)
	}
	return &Client{db: db}, nil
}

// Close releases the underlying Spanner client. Safe to call on a nil
// *Client.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.db.Close()
}

// Upsert records a search's current state, creating the row if absent.
func (c *Client) Upsert(ctx context.Context, s Search) error {
	if c == nil {
		return nil
	}
	_, err := c.db.Apply(ctx, []*spanner.Mutation{
		spanner.InsertOrUpdate("Searches",
			[]string{"Owner", "ResultsURI", "ClusterName", "Provider", "State", "SubmittedAt", "LastStatusAt"},
			[]interface{}{s.Owner, s.ResultsURI, s.ClusterName, s.Provider, s.State, s.SubmittedAt, spanner.CommitTimestamp},
		),
	})
	if err != nil {
		return elberrors.Dependency("upserting search %s: %v", s.ResultsURI, err)
	}
	return nil
}

// UpdateState moves a search to a new state, bumping LastStatusAt.
func (c *Client) UpdateState(ctx context.Context, owner, resultsURI, state string) error {
	if c == nil {
		return nil
	}
	_, err := c.db.Apply(ctx, []*spanner.Mutation{
		spanner.Update("Searches",
			[]string{"Owner", "ResultsURI", "State", "LastStatusAt"},
			[]interface{}{owner, resultsURI, state, spanner.CommitTimestamp},
		),
	})
	if err != nil {
		return elberrors.Dependency("updating search state %s: %v", resultsURI, err)
	}
	return nil
}

// Get retrieves a single search by owner and results URI.
func (c *Client) Get(ctx context.Context, owner, resultsURI string) (*Search, error) {
	if c == nil {
		return nil, elberrors.Internal("registry not configured")
	}
	row, err := c.db.Single().ReadRow(ctx, "Searches",
		spanner.Key{owner, resultsURI},
		[]string{"Owner", "ResultsURI", "ClusterName", "Provider", "State", "SubmittedAt", "LastStatusAt"},
	)
	if err != nil {
		return nil, elberrors.Dependency("reading search %s: %v", resultsURI, err)
	}
	var s Search
	if err := row.ToStruct(&s); err != nil {
		return nil, elberrors.Internal("parsing search row %s: %v", resultsURI, err)
	}
	return &s, nil
}

// List returns every search owned by owner, most recently submitted first.
func (c *Client) List(ctx context.Context, owner string) ([]*Search, error) {
	if c == nil {
		return nil, nil
	}
	stmt := spanner.Statement{
		SQL: `SELECT Owner, ResultsURI, ClusterName, Provider, State, SubmittedAt, LastStatusAt
		      FROM Searches
		      WHERE Owner = @owner
		      ORDER BY SubmittedAt DESC`,
		Params: map[string]interface{}{"owner": owner},
	}
	iter := c.db.Single().Query(ctx, stmt)
	defer iter.Stop()

	var out []*Search
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, elberrors.Dependency("iterating searches for %s: %v", owner, err)
		}
		var s Search
		if err := row.ToStruct(&s); err != nil {
			return nil, elberrors.Internal("parsing search row: %v", err)
		}
		out = append(out, &s)
	}
	return out, nil
}

// Delete removes a search's row once its results have been torn down.
func (c *Client) Delete(ctx context.Context, owner, resultsURI string) error {
	if c == nil {
		return nil
	}
	_, err := c.db.Apply(ctx, []*spanner.Mutation{
		spanner.Delete("Searches", spanner.Key{owner, resultsURI}),
	})
	if err != nil {
		return elberrors.Dependency("deleting search %s: %v", resultsURI, err)
	}
	return nil
}
