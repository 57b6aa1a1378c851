package models

import (
	"github.com/shopspring/decimal"

	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
)

var hundred = decimal.NewFromInt(100)

// moneyPlaces is the scale of stored money values (NUMERIC(12,2)).
const moneyPlaces = 2

// Tariff is a priced tier. The placement core reads a snapshot at placement
// time; later catalog edits never affect an in-flight placement.
type Tariff struct {
	Code                  id.TariffCode   `json:"code"`
	Name                  string          `json:"name"`
	EntryAmount           decimal.Decimal `json:"entry_amount"`
	ReferralBonusPercent  int             `json:"referral_bonus_percent"`
	PlacementBonusPercent int             `json:"placement_bonus_percent"`
	Active                bool            `json:"active"`
}

// Validate enforces catalog invariants: positive entry amount and bonus
// percentages within [0, 100].
func (t Tariff) Validate() error {
	if t.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "tariff code is required")
	}
	if !t.EntryAmount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "tariff "+string(t.Code)+": entry amount must be positive")
	}
	if t.ReferralBonusPercent < 0 || t.ReferralBonusPercent > 100 {
		return dErrors.New(dErrors.CodeValidation, "tariff "+string(t.Code)+": referral bonus percent out of range")
	}
	if t.PlacementBonusPercent < 0 || t.PlacementBonusPercent > 100 {
		return dErrors.New(dErrors.CodeValidation, "tariff "+string(t.Code)+": placement bonus percent out of range")
	}
	return nil
}

// ReferralAmount is entryAmount * referralBonusPercent / 100, rounded to cents.
func (t Tariff) ReferralAmount() decimal.Decimal {
	return percentOf(t.EntryAmount, t.ReferralBonusPercent)
}

// PlacementAmount is entryAmount * placementBonusPercent / 100, rounded to cents.
func (t Tariff) PlacementAmount() decimal.Decimal {
	return percentOf(t.EntryAmount, t.PlacementBonusPercent)
}

// AmountFor returns the bonus amount for kind.
func (t Tariff) AmountFor(kind BonusKind) decimal.Decimal {
	if kind == BonusKindReferral {
		return t.ReferralAmount()
	}
	return t.PlacementAmount()
}

func percentOf(amount decimal.Decimal, percent int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(percent))).Div(hundred).Round(moneyPlaces)
}
