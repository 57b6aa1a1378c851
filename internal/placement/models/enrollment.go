package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "equilibrium/pkg/domain"
)

// Registration is a freshly signed-up member and the pending payment that
// will place them once it completes.
type Registration struct {
	Member  *Member  `json:"member"`
	Payment *Payment `json:"payment"`
}

// QueueItem is one pending payment as shown to whoever confirms payments.
type QueueItem struct {
	PaymentID        id.PaymentID    `json:"payment_id"`
	MemberID         id.MemberID     `json:"member_id"`
	Username         string          `json:"username"`
	ReferrerID       *id.MemberID    `json:"referrer_id,omitempty"`
	ReferrerUsername string          `json:"referrer_username,omitempty"`
	Tariff           TariffSummary   `json:"tariff"`
	Amount           decimal.Decimal `json:"amount"`
	CreatedAt        time.Time       `json:"created_at"`
}

type TariffSummary struct {
	Code        id.TariffCode   `json:"code"`
	Name        string          `json:"name"`
	EntryAmount decimal.Decimal `json:"entry_amount"`
}
