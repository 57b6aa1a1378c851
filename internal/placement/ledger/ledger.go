// Package ledger turns a committed placement into bonus entries.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/requestcontext"
)

// Store is the append-only entry storage.
type Store interface {
	Insert(ctx context.Context, entry *models.BonusEntry) error
	FindByPaymentAndKind(ctx context.Context, payment id.PaymentID, kind models.BonusKind) (*models.BonusEntry, error)
	ListByPayment(ctx context.Context, payment id.PaymentID) ([]*models.BonusEntry, error)
	List(ctx context.Context, recipient *id.MemberID) ([]*models.BonusEntry, error)
	Totals(ctx context.Context, recipient *id.MemberID) (models.BonusTotals, error)
}

// Ledger records bonuses. Entries are timestamped with requestcontext.Now.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// ApplyOnPlacement credits the member's referrer (REFERRAL) and tree parent
// (PLACEMENT) for payment. A kind already credited for this payment is
// skipped, so the call is safe to repeat. When referrer and parent are the
// same member both entries are still written. Returns only the entries
// created by this call.
func (l *Ledger) ApplyOnPlacement(ctx context.Context, member *models.Member, payment *models.Payment, tariff *models.Tariff, node *models.PlacementNode) ([]*models.BonusEntry, error) {
	if member == nil || payment == nil || tariff == nil || node == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "member, payment, tariff and node are required")
	}

	var created []*models.BonusEntry
	for _, kind := range models.BonusKinds {
		recipient, ok := recipientFor(kind, member, node)
		if !ok {
			continue
		}
		entry, err := l.credit(ctx, kind, recipient, member.ID, payment.ID, tariff.AmountFor(kind))
		if err != nil {
			return nil, err
		}
		if entry != nil {
			created = append(created, entry)
		}
	}
	return created, nil
}

func recipientFor(kind models.BonusKind, member *models.Member, node *models.PlacementNode) (id.MemberID, bool) {
	switch kind {
	case models.BonusKindReferral:
		if member.HasReferrer() {
			return *member.ReferrerID, true
		}
	case models.BonusKindPlacement:
		if node.ParentMemberID != nil {
			return *node.ParentMemberID, true
		}
	}
	return id.MemberID{}, false
}

func (l *Ledger) credit(ctx context.Context, kind models.BonusKind, recipient, source id.MemberID, payment id.PaymentID, amount decimal.Decimal) (*models.BonusEntry, error) {
	_, err := l.store.FindByPaymentAndKind(ctx, payment, kind)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing bonus")
	}

	entry := &models.BonusEntry{
		ID:                id.NewBonusEntryID(),
		RecipientMemberID: recipient,
		SourceMemberID:    source,
		PaymentID:         payment,
		Kind:              kind,
		Amount:            amount,
		CreatedAt:         requestcontext.Now(ctx),
	}
	if err := l.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record bonus")
	}
	return entry, nil
}

// ForPayment returns every entry recorded for payment, REFERRAL first.
func (l *Ledger) ForPayment(ctx context.Context, payment id.PaymentID) ([]*models.BonusEntry, error) {
	entries, err := l.store.ListByPayment(ctx, payment)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bonuses for payment")
	}
	return entries, nil
}

// History returns entries in append order, optionally for one recipient.
func (l *Ledger) History(ctx context.Context, recipient *id.MemberID) ([]*models.BonusEntry, error) {
	entries, err := l.store.List(ctx, recipient)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bonus history")
	}
	return entries, nil
}

// Totals sums the whole ledger per kind.
func (l *Ledger) Totals(ctx context.Context) (models.BonusTotals, error) {
	totals, err := l.store.Totals(ctx, nil)
	if err != nil {
		return models.BonusTotals{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum bonuses")
	}
	return totals, nil
}
