// Package events relays committed outbox rows to the message broker.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"equilibrium/internal/placement/models"
	"equilibrium/internal/platform/metrics"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/circuit"
	"equilibrium/pkg/platform/tx"
	"equilibrium/pkg/requestcontext"
)

// Outbox is the relay's view of the outbox table.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]*models.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []id.EventID, at time.Time) error
}

// Publisher delivers a batch of events. It must be safe to call again with
// events it already delivered; the relay is at-least-once.
type Publisher interface {
	Publish(ctx context.Context, events []*models.OutboxEvent) error
}

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay polls the outbox and hands unpublished events to a Publisher. Each
// batch is fetched, published and marked inside one transaction, so a
// publish failure leaves the rows for the next poll.
type Relay struct {
	tx        tx.Runner
	outbox    Outbox
	publisher Publisher
	breaker   *circuit.Breaker
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithBreaker replaces the default breaker guarding the publisher.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) {
		if b != nil {
			r.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func NewRelay(runner tx.Runner, outbox Outbox, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		tx:        runner,
		outbox:    outbox,
		publisher: publisher,
		breaker:   circuit.New("outbox-publisher"),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox every interval until ctx is cancelled. A full batch
// is followed immediately by another drain. Publish failures are logged and
// retried on a later tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
			for {
				n, err := r.Drain(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.logger.WarnContext(ctx, "outbox drain failed", "error", err)
					}
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// Drain publishes one batch and returns how many events it relayed. It
// returns (0, nil) without touching the outbox while the breaker is open.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	if !r.breaker.Allow() {
		return 0, nil
	}

	var published int
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		batch, err := r.outbox.FetchUnpublished(txCtx, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch unpublished events: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := r.publish(txCtx, batch); err != nil {
			return err
		}
		ids := make([]id.EventID, len(batch))
		for i, e := range batch {
			ids[i] = e.ID
		}
		if err := r.outbox.MarkPublished(txCtx, ids, requestcontext.Now(ctx)); err != nil {
			return fmt.Errorf("mark events published: %w", err)
		}
		published = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if published > 0 && r.metrics != nil {
		r.metrics.AddOutboxPublished(published)
	}
	return published, nil
}

func (r *Relay) publish(ctx context.Context, batch []*models.OutboxEvent) error {
	if err := r.publisher.Publish(ctx, batch); err != nil {
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.ErrorContext(ctx, "outbox publisher circuit opened", "breaker", r.breaker.Name(), "error", err)
		}
		return fmt.Errorf("publish %d events: %w", len(batch), err)
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "outbox publisher circuit closed", "breaker", r.breaker.Name())
	}
	return nil
}
