package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// PostgresMembers persists members.
type PostgresMembers struct {
	db *sql.DB
}

func NewPostgresMembers(db *sql.DB) *PostgresMembers {
	return &PostgresMembers{db: db}
}

func (s *PostgresMembers) Create(ctx context.Context, m *models.Member) error {
	if m == nil {
		return fmt.Errorf("member is required")
	}
	var referrer any
	if m.ReferrerID != nil {
		referrer = uuid.UUID(*m.ReferrerID)
	}
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO members (id, referrer_id, username, status, created_at, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(m.ID), referrer, m.Username, string(m.Status), m.CreatedAt, m.PlacedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create member: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (s *PostgresMembers) Load(ctx context.Context, member id.MemberID) (*models.Member, error) {
	var (
		m          models.Member
		memberID   uuid.UUID
		referrerID uuid.NullUUID
		status     string
		placedAt   sql.NullTime
	)
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, referrer_id, username, status, created_at, placed_at
		FROM members WHERE id = $1
	`, uuid.UUID(member)).Scan(&memberID, &referrerID, &m.Username, &status, &m.CreatedAt, &placedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load member: %w", err)
	}
	m.ID = id.MemberID(memberID)
	m.Status = models.MemberStatus(status)
	if referrerID.Valid {
		r := id.MemberID(referrerID.UUID)
		m.ReferrerID = &r
	}
	if placedAt.Valid {
		m.PlacedAt = &placedAt.Time
	}
	return &m, nil
}

func (s *PostgresMembers) MarkPlaced(ctx context.Context, member id.MemberID, at time.Time) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE members SET status = $2, placed_at = $3 WHERE id = $1
	`, uuid.UUID(member), string(models.MemberStatusPlaced), at)
	if err != nil {
		return fmt.Errorf("mark member placed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark member placed: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresMembers) Count(ctx context.Context) (int, error) {
	var n int
	if err := tx.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// PostgresPayments persists payments.
type PostgresPayments struct {
	db *sql.DB
}

func NewPostgresPayments(db *sql.DB) *PostgresPayments {
	return &PostgresPayments{db: db}
}

func (s *PostgresPayments) Create(ctx context.Context, p *models.Payment) error {
	if p == nil {
		return fmt.Errorf("payment is required")
	}
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO payments (id, member_id, tariff_code, amount, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(p.ID), uuid.UUID(p.MemberID), string(p.TariffCode), p.Amount.StringFixed(2),
		string(p.Status), p.CreatedAt, p.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create payment: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *PostgresPayments) Load(ctx context.Context, payment id.PaymentID) (*models.Payment, error) {
	var (
		p           models.Payment
		paymentID   uuid.UUID
		memberID    uuid.UUID
		tariff      string
		status      string
		completedAt sql.NullTime
	)
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, member_id, tariff_code, amount, status, created_at, completed_at
		FROM payments WHERE id = $1
	`, uuid.UUID(payment)).Scan(&paymentID, &memberID, &tariff, &p.Amount, &status, &p.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	p.ID = id.PaymentID(paymentID)
	p.MemberID = id.MemberID(memberID)
	p.TariffCode = id.TariffCode(tariff)
	p.Status = models.PaymentStatus(status)
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

// Complete transitions PENDING -> COMPLETED with a conditional update.
// Returns sentinel.ErrInvalidState when the payment exists in another status.
func (s *PostgresPayments) Complete(ctx context.Context, payment id.PaymentID, at time.Time) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE payments SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
	`, uuid.UUID(payment), string(models.PaymentStatusCompleted), at, string(models.PaymentStatusPending))
	if err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.Load(ctx, payment); err != nil {
		return err
	}
	return fmt.Errorf("payment %s: %w", payment, sentinel.ErrInvalidState)
}

// ListPending returns up to limit PENDING payments, oldest first.
func (s *PostgresPayments) ListPending(ctx context.Context, limit int) ([]*models.Payment, error) {
	var max any
	if limit > 0 {
		max = limit
	}
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, member_id, tariff_code, amount, status, created_at, completed_at
		FROM payments WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`, string(models.PaymentStatusPending), max)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Payment, 0)
	for rows.Next() {
		var (
			p           models.Payment
			paymentID   uuid.UUID
			memberID    uuid.UUID
			tariff      string
			status      string
			completedAt sql.NullTime
		)
		if err := rows.Scan(&paymentID, &memberID, &tariff, &p.Amount, &status, &p.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan pending payment: %w", err)
		}
		p.ID = id.PaymentID(paymentID)
		p.MemberID = id.MemberID(memberID)
		p.TariffCode = id.TariffCode(tariff)
		p.Status = models.PaymentStatus(status)
		if completedAt.Valid {
			p.CompletedAt = &completedAt.Time
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	return out, nil
}
