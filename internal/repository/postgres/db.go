package postgres

import (
	"context"
	"database/sql"
)

// Querier is the common interface between *sql.DB and *sql.Tx, so
// repositories can run either standalone or transaction-scoped.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
