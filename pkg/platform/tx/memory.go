package tx

import (
	"context"
	"sync"
	"time"

	dErrors "equilibrium/pkg/domain-errors"
)

// Journal collects mutations staged by in-memory stores during a transaction.
// They are applied in order on commit and dropped on rollback.
type Journal struct {
	mu      sync.Mutex
	pending []func()
}

// Stage queues a mutation for commit.
func (j *Journal) Stage(apply func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending = append(j.pending, apply)
}

func (j *Journal) commit() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, apply := range j.pending {
		apply()
	}
	j.pending = nil
}

type journalKey struct{}

// WithJournal attaches a journal to ctx.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom extracts the active journal, if any.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

// Apply runs mutation now, or stages it when ctx carries a journal.
func Apply(ctx context.Context, mutation func()) {
	if j, ok := JournalFrom(ctx); ok {
		j.Stage(mutation)
		return
	}
	mutation()
}

// MemoryRunner is the in-memory transaction boundary: one coarse lock
// serializes transactions, and staged mutations become visible only after the
// callback returns nil with the context still live.
type MemoryRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{timeout: defaultTxTimeout}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	journal := &Journal{}
	if err := fn(WithJournal(ctx, journal)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted before commit")
	}
	journal.commit()
	return nil
}
