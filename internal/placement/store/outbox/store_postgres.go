package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/tx"
)

// PostgresStore is the transactional outbox. Append joins the placement
// transaction; the relay drains rows in its own transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event *models.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("outbox event is required")
	}
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(event.ID), uuid.UUID(event.AggregateID), string(event.Type), string(event.Payload), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

// FetchUnpublished locks up to limit unpublished rows, oldest first. Rows
// locked by another relay are skipped, so call it inside a transaction.
func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]*models.OutboxEvent, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []*models.OutboxEvent
	for rows.Next() {
		var (
			e           models.OutboxEvent
			eventID     uuid.UUID
			aggregateID uuid.UUID
			eventType   string
		)
		if err := rows.Scan(&eventID, &aggregateID, &eventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		e.ID = id.EventID(eventID)
		e.AggregateID = id.MemberID(aggregateID)
		e.Type = models.EventType(eventType)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []id.EventID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, eventID := range ids {
		raw[i] = eventID.String()
	}
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE outbox SET published_at = $2
		WHERE id = ANY($1::uuid[]) AND published_at IS NULL
	`, pq.Array(raw), at)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func (s *PostgresStore) Pending(ctx context.Context) (int, error) {
	var n int
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox: %w", err)
	}
	return n, nil
}
