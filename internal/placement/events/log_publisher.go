package events

import (
	"context"
	"log/slog"

	"equilibrium/internal/placement/models"
)

// LogPublisher writes events to a logger. It stands in for the broker when
// none is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events []*models.OutboxEvent) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "domain event",
			"event_id", e.ID,
			"event_type", e.Type,
			"aggregate_id", e.AggregateID,
			"payload", string(e.Payload),
		)
	}
	return nil
}
