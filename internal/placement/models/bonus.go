package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "equilibrium/pkg/domain"
)

// BonusKind distinguishes who earned a bonus.
type BonusKind string

const (
	// BonusKindReferral is paid to the member whose invitation was used.
	BonusKindReferral BonusKind = "REFERRAL"
	// BonusKindPlacement is paid to the tree parent the new member lands under.
	BonusKindPlacement BonusKind = "PLACEMENT"
)

// BonusKinds lists kinds in the order they are applied.
var BonusKinds = []BonusKind{BonusKindReferral, BonusKindPlacement}

func (k BonusKind) IsValid() bool {
	return k == BonusKindReferral || k == BonusKindPlacement
}

// BonusEntry is an immutable ledger record. At most one entry exists per
// (PaymentID, Kind).
type BonusEntry struct {
	ID                id.BonusEntryID `json:"id"`
	RecipientMemberID id.MemberID     `json:"recipient_member_id"`
	SourceMemberID    id.MemberID     `json:"source_member_id"`
	PaymentID         id.PaymentID    `json:"payment_id"`
	Kind              BonusKind       `json:"kind"`
	Amount            decimal.Decimal `json:"amount"`
	CreatedAt         time.Time       `json:"created_at"`
}

// BonusTotals aggregates ledger amounts.
type BonusTotals struct {
	Total     decimal.Decimal `json:"total"`
	Referral  decimal.Decimal `json:"referral"`
	Placement decimal.Decimal `json:"placement"`
	Entries   int             `json:"entries"`
}

// Add folds one entry into the totals.
func (t *BonusTotals) Add(e *BonusEntry) {
	t.Total = t.Total.Add(e.Amount)
	switch e.Kind {
	case BonusKindReferral:
		t.Referral = t.Referral.Add(e.Amount)
	case BonusKindPlacement:
		t.Placement = t.Placement.Add(e.Amount)
	}
	t.Entries++
}
