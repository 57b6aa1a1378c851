package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
)

// PaymentStatus mirrors the billing subsystem's lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment is owned by the billing collaborator; placement only acts on
// payments observed as COMPLETED.
type Payment struct {
	ID          id.PaymentID    `json:"id"`
	MemberID    id.MemberID     `json:"member_id"`
	TariffCode  id.TariffCode   `json:"tariff_code"`
	Amount      decimal.Decimal `json:"amount"`
	Status      PaymentStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// CanComplete checks the PENDING -> COMPLETED transition.
func (p *Payment) CanComplete() error {
	if p.Status != PaymentStatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "payment is not pending")
	}
	return nil
}

// ApplyCompletion marks the payment completed. Call CanComplete first.
func (p *Payment) ApplyCompletion(now time.Time) {
	p.Status = PaymentStatusCompleted
	p.CompletedAt = &now
}
