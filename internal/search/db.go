package search

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Querier is the slice of *pgxpool.Pool the search pipeline needs. Narrowed
// to an interface so tests can substitute an instrumented fake store.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
