package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
)

// PostgresStore persists bonus entries. The (payment_id, kind) unique key is
// the idempotency guard; seq records append order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, recipient_member_id, source_member_id, payment_id, kind, amount, created_at`

// Insert uses ON CONFLICT DO NOTHING so a duplicate does not abort the
// surrounding transaction. Returns sentinel.ErrAlreadyUsed when nothing was
// written.
func (s *PostgresStore) Insert(ctx context.Context, entry *models.BonusEntry) error {
	if entry == nil {
		return fmt.Errorf("bonus entry is required")
	}
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO bonus_entries (id, recipient_member_id, source_member_id, payment_id, kind, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (payment_id, kind) DO NOTHING
	`, uuid.UUID(entry.ID), uuid.UUID(entry.RecipientMemberID), uuid.UUID(entry.SourceMemberID),
		uuid.UUID(entry.PaymentID), string(entry.Kind), entry.Amount.StringFixed(2), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bonus entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert bonus entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment %s kind %s: %w", entry.PaymentID, entry.Kind, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *PostgresStore) FindByPaymentAndKind(ctx context.Context, payment id.PaymentID, kind models.BonusKind) (*models.BonusEntry, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM bonus_entries WHERE payment_id = $1 AND kind = $2`,
		uuid.UUID(payment), string(kind))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find bonus entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) ListByPayment(ctx context.Context, payment id.PaymentID) ([]*models.BonusEntry, error) {
	return s.query(ctx,
		`SELECT `+entryColumns+` FROM bonus_entries WHERE payment_id = $1 ORDER BY seq`,
		uuid.UUID(payment))
}

func (s *PostgresStore) List(ctx context.Context, recipient *id.MemberID) ([]*models.BonusEntry, error) {
	if recipient == nil {
		return s.query(ctx, `SELECT `+entryColumns+` FROM bonus_entries ORDER BY seq`)
	}
	return s.query(ctx,
		`SELECT `+entryColumns+` FROM bonus_entries WHERE recipient_member_id = $1 ORDER BY seq`,
		uuid.UUID(*recipient))
}

// Totals aggregates in SQL rather than loading every row.
func (s *PostgresStore) Totals(ctx context.Context, recipient *id.MemberID) (models.BonusTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::text,
		       COALESCE(SUM(amount) FILTER (WHERE kind = 'REFERRAL'), 0)::text,
		       COALESCE(SUM(amount) FILTER (WHERE kind = 'PLACEMENT'), 0)::text,
		       COUNT(*)
		FROM bonus_entries`
	var args []any
	if recipient != nil {
		query += ` WHERE recipient_member_id = $1`
		args = append(args, uuid.UUID(*recipient))
	}

	var total, referral, placement string
	var totals models.BonusTotals
	if err := tx.Conn(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&total, &referral, &placement, &totals.Entries); err != nil {
		return models.BonusTotals{}, fmt.Errorf("sum bonus entries: %w", err)
	}
	var err error
	if totals.Total, err = decimal.NewFromString(total); err != nil {
		return models.BonusTotals{}, fmt.Errorf("parse total: %w", err)
	}
	if totals.Referral, err = decimal.NewFromString(referral); err != nil {
		return models.BonusTotals{}, fmt.Errorf("parse referral total: %w", err)
	}
	if totals.Placement, err = decimal.NewFromString(placement); err != nil {
		return models.BonusTotals{}, fmt.Errorf("parse placement total: %w", err)
	}
	return totals, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.BonusEntry, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bonus entries: %w", err)
	}
	defer rows.Close()

	var out []*models.BonusEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bonus entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bonus entries: %w", err)
	}
	return out, nil
}

type entryRow interface {
	Scan(dest ...any) error
}

func scanEntry(row entryRow) (*models.BonusEntry, error) {
	var (
		e                          models.BonusEntry
		entryID, recipient, source uuid.UUID
		payment                    uuid.UUID
		kind                       string
	)
	if err := row.Scan(&entryID, &recipient, &source, &payment, &kind, &e.Amount, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.ID = id.BonusEntryID(entryID)
	e.RecipientMemberID = id.MemberID(recipient)
	e.SourceMemberID = id.MemberID(source)
	e.PaymentID = id.PaymentID(payment)
	e.Kind = models.BonusKind(kind)
	return &e, nil
}
