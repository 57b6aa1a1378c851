package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
)

func TestTariffBonusArithmetic(t *testing.T) {
	t.Run("half of entry amount", func(t *testing.T) {
		tariff := Tariff{Code: "tariff_100", EntryAmount: decimal.RequireFromString("100.00"), ReferralBonusPercent: 50, PlacementBonusPercent: 50}
		assert.True(t, tariff.ReferralAmount().Equal(decimal.RequireFromString("50")))
		assert.True(t, tariff.PlacementAmount().Equal(decimal.RequireFromString("50")))
	})

	t.Run("distinct percentages", func(t *testing.T) {
		tariff := Tariff{Code: "t", EntryAmount: decimal.RequireFromString("20.00"), ReferralBonusPercent: 10, PlacementBonusPercent: 25}
		assert.Equal(t, "2", tariff.AmountFor(BonusKindReferral).String())
		assert.Equal(t, "5", tariff.AmountFor(BonusKindPlacement).String())
	})

	t.Run("rounds to cents half away from zero", func(t *testing.T) {
		tariff := Tariff{Code: "t", EntryAmount: decimal.RequireFromString("0.25"), ReferralBonusPercent: 10, PlacementBonusPercent: 30}
		// 0.025 -> 0.03, 0.075 -> 0.08
		assert.Equal(t, "0.03", tariff.ReferralAmount().StringFixed(2))
		assert.Equal(t, "0.08", tariff.PlacementAmount().StringFixed(2))
	})

	t.Run("no float drift on repeated sums", func(t *testing.T) {
		tariff := Tariff{Code: "t", EntryAmount: decimal.RequireFromString("0.30"), ReferralBonusPercent: 33, PlacementBonusPercent: 0}
		sum := decimal.Zero
		for i := 0; i < 1000; i++ {
			sum = sum.Add(tariff.ReferralAmount())
		}
		assert.Equal(t, "100.00", sum.StringFixed(2))
	})
}

func TestTariffValidate(t *testing.T) {
	valid := Tariff{Code: "tariff_20", EntryAmount: decimal.NewFromInt(20), ReferralBonusPercent: 50, PlacementBonusPercent: 50, Active: true}
	require.NoError(t, valid.Validate())

	cases := map[string]Tariff{
		"missing code":       {EntryAmount: decimal.NewFromInt(20)},
		"zero entry":         {Code: "x", EntryAmount: decimal.Zero},
		"negative referral":  {Code: "x", EntryAmount: decimal.NewFromInt(1), ReferralBonusPercent: -1},
		"placement over 100": {Code: "x", EntryAmount: decimal.NewFromInt(1), PlacementBonusPercent: 101},
	}
	for name, tariff := range cases {
		t.Run(name, func(t *testing.T) {
			err := tariff.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestPlacementNodeInvariants(t *testing.T) {
	now := time.Now()
	root := NewRootNode(id.NewMemberID(), "tariff_100", now)
	require.NoError(t, root.ValidateRoot())
	assert.True(t, root.IsRoot())
	assert.Equal(t, RootPosition, root.Position)

	child := NewChildNode(id.NewMemberID(), root, 2, "tariff_100", now)
	require.NoError(t, child.ValidateChildOf(root, DefaultMaxChildren))
	assert.Equal(t, 1, child.Level)

	s := func(err error) bool { return dErrors.HasCode(err, dErrors.CodeStructureCorruption) }

	t.Run("level mismatch", func(t *testing.T) {
		bad := *child
		bad.Level = 3
		assert.True(t, s(bad.ValidateChildOf(root, DefaultMaxChildren)))
	})

	t.Run("position out of range", func(t *testing.T) {
		bad := *child
		bad.Position = DefaultMaxChildren + 1
		assert.True(t, s(bad.ValidateChildOf(root, DefaultMaxChildren)))
	})

	t.Run("wrong parent pointer", func(t *testing.T) {
		other := id.NewMemberID()
		bad := *child
		bad.ParentMemberID = &other
		assert.True(t, s(bad.ValidateChildOf(root, DefaultMaxChildren)))
	})

	t.Run("root with a parent", func(t *testing.T) {
		bad := *child
		bad.Level = 0
		assert.True(t, s(bad.ValidateRoot()))
	})
}

func TestFreePosition(t *testing.T) {
	parent := NewRootNode(id.NewMemberID(), "t", time.Now())
	at := func(pos int) *PlacementNode { return NewChildNode(id.NewMemberID(), parent, pos, "t", time.Now()) }

	assert.Equal(t, 1, FreePosition(nil, 3))
	assert.Equal(t, 2, FreePosition([]*PlacementNode{at(1), at(3)}, 3))
	assert.Equal(t, 1, FreePosition([]*PlacementNode{at(2), at(3)}, 3))
	assert.Equal(t, 0, FreePosition([]*PlacementNode{at(1), at(2), at(3)}, 3))
	assert.Equal(t, 4, FreePosition([]*PlacementNode{at(1), at(2), at(3)}, 5))
}

func TestBonusTotals(t *testing.T) {
	var totals BonusTotals
	totals.Add(&BonusEntry{Kind: BonusKindReferral, Amount: decimal.RequireFromString("50")})
	totals.Add(&BonusEntry{Kind: BonusKindPlacement, Amount: decimal.RequireFromString("25.50")})
	assert.Equal(t, "75.50", totals.Total.StringFixed(2))
	assert.Equal(t, "50.00", totals.Referral.StringFixed(2))
	assert.Equal(t, "25.50", totals.Placement.StringFixed(2))
	assert.Equal(t, 2, totals.Entries)
}
