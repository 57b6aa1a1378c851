package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "equilibrium/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// SQLRunner runs callbacks inside a database/sql transaction.
type SQLRunner struct {
	db        *sql.DB
	timeout   time.Duration
	isolation sql.IsolationLevel
}

// SQLOption configures a SQLRunner.
type SQLOption func(*SQLRunner)

// WithTimeout bounds a transaction that arrives without a deadline.
func WithTimeout(d time.Duration) SQLOption {
	return func(r *SQLRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithIsolation overrides the isolation level (default: read committed).
func WithIsolation(level sql.IsolationLevel) SQLOption {
	return func(r *SQLRunner) {
		r.isolation = level
	}
}

func NewSQLRunner(db *sql.DB, opts ...SQLOption) *SQLRunner {
	r := &SQLRunner{db: db, timeout: defaultTxTimeout, isolation: sql.LevelReadCommitted}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: r.isolation})
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted before commit")
		}
		return err
	}
	return nil
}
