// Package tx carries transaction handles through context so stores can join
// the caller's transaction without widening their method signatures.
//
// Two runners implement the same boundary: SQLRunner wraps *sql.Tx, and
// MemoryRunner serializes writers behind one lock and applies staged
// in-memory mutations only when the callback succeeds.
package tx

import (
	"context"
	"database/sql"
)

// Runner executes fn inside a transaction. The context passed to fn carries
// the transaction; stores pick it up with From or JournalFrom.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Querier is the subset of *sql.DB and *sql.Tx used by stores.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn returns the transaction in ctx, or db when none is active.
func Conn(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}
