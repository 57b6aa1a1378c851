package ledger

import (
	"context"
	"fmt"
	"sync"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
)

type entryKey struct {
	payment id.PaymentID
	kind    models.BonusKind
}

// InMemory is an append-only bonus ledger. Slice order is append order.
type InMemory struct {
	mu      sync.RWMutex
	entries []models.BonusEntry
	byKey   map[entryKey]int
}

func NewInMemory() *InMemory {
	return &InMemory{byKey: make(map[entryKey]int)}
}

// Insert appends an entry. Returns sentinel.ErrAlreadyUsed when an entry for
// the same (payment, kind) exists.
func (s *InMemory) Insert(ctx context.Context, entry *models.BonusEntry) error {
	if entry == nil {
		return fmt.Errorf("bonus entry is required")
	}
	key := entryKey{payment: entry.PaymentID, kind: entry.Kind}

	s.mu.RLock()
	_, exists := s.byKey[key]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("payment %s kind %s: %w", entry.PaymentID, entry.Kind, sentinel.ErrAlreadyUsed)
	}

	stored := *entry
	tx.Apply(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, dup := s.byKey[key]; dup {
			return
		}
		s.byKey[key] = len(s.entries)
		s.entries = append(s.entries, stored)
	})
	return nil
}

func (s *InMemory) FindByPaymentAndKind(_ context.Context, payment id.PaymentID, kind models.BonusKind) (*models.BonusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byKey[entryKey{payment: payment, kind: kind}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e := s.entries[idx]
	return &e, nil
}

func (s *InMemory) ListByPayment(_ context.Context, payment id.PaymentID) ([]*models.BonusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BonusEntry
	for _, kind := range models.BonusKinds {
		if idx, ok := s.byKey[entryKey{payment: payment, kind: kind}]; ok {
			e := s.entries[idx]
			out = append(out, &e)
		}
	}
	return out, nil
}

// List returns entries in append order, filtered by recipient when given.
func (s *InMemory) List(_ context.Context, recipient *id.MemberID) ([]*models.BonusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.BonusEntry, 0, len(s.entries))
	for i := range s.entries {
		if recipient != nil && s.entries[i].RecipientMemberID != *recipient {
			continue
		}
		e := s.entries[i]
		out = append(out, &e)
	}
	return out, nil
}

func (s *InMemory) Totals(ctx context.Context, recipient *id.MemberID) (models.BonusTotals, error) {
	entries, err := s.List(ctx, recipient)
	if err != nil {
		return models.BonusTotals{}, err
	}
	var totals models.BonusTotals
	for _, e := range entries {
		totals.Add(e)
	}
	return totals, nil
}
