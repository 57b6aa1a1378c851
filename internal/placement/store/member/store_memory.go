package member

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
)

// InMemoryMembers stores members keyed by id.
type InMemoryMembers struct {
	mu      sync.RWMutex
	members map[id.MemberID]models.Member
}

func NewInMemoryMembers() *InMemoryMembers {
	return &InMemoryMembers{members: make(map[id.MemberID]models.Member)}
}

func (s *InMemoryMembers) Create(ctx context.Context, m *models.Member) error {
	if m == nil {
		return fmt.Errorf("member is required")
	}
	s.mu.RLock()
	_, exists := s.members[m.ID]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("member %s: %w", m.ID, sentinel.ErrAlreadyUsed)
	}
	stored := *m
	tx.Apply(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.members[stored.ID] = stored
	})
	return nil
}

func (s *InMemoryMembers) Load(_ context.Context, member id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[member]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &m, nil
}

// MarkPlaced flips the member to PLACED. The change is staged with the rest
// of the placement transaction.
func (s *InMemoryMembers) MarkPlaced(ctx context.Context, member id.MemberID, at time.Time) error {
	s.mu.RLock()
	_, ok := s.members[member]
	s.mu.RUnlock()
	if !ok {
		return sentinel.ErrNotFound
	}
	tx.Apply(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		m := s.members[member]
		m.Status = models.MemberStatusPlaced
		placedAt := at
		m.PlacedAt = &placedAt
		s.members[member] = m
	})
	return nil
}

func (s *InMemoryMembers) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members), nil
}

// InMemoryPayments stores payments keyed by id.
type InMemoryPayments struct {
	mu       sync.RWMutex
	payments map[id.PaymentID]models.Payment
}

func NewInMemoryPayments() *InMemoryPayments {
	return &InMemoryPayments{payments: make(map[id.PaymentID]models.Payment)}
}

func (s *InMemoryPayments) Create(ctx context.Context, p *models.Payment) error {
	if p == nil {
		return fmt.Errorf("payment is required")
	}
	s.mu.RLock()
	_, exists := s.payments[p.ID]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("payment %s: %w", p.ID, sentinel.ErrAlreadyUsed)
	}
	stored := *p
	tx.Apply(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.payments[stored.ID] = stored
	})
	return nil
}

func (s *InMemoryPayments) Load(_ context.Context, payment id.PaymentID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[payment]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

// Complete moves a pending payment to COMPLETED. Returns
// sentinel.ErrInvalidState for any other source status.
func (s *InMemoryPayments) Complete(ctx context.Context, payment id.PaymentID, at time.Time) error {
	s.mu.RLock()
	p, ok := s.payments[payment]
	s.mu.RUnlock()
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := p.CanComplete(); err != nil {
		return fmt.Errorf("payment %s: %w", payment, sentinel.ErrInvalidState)
	}
	tx.Apply(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		current := s.payments[payment]
		current.ApplyCompletion(at)
		s.payments[payment] = current
	})
	return nil
}

// ListPending returns up to limit PENDING payments, oldest first.
func (s *InMemoryPayments) ListPending(_ context.Context, limit int) ([]*models.Payment, error) {
	s.mu.RLock()
	out := make([]*models.Payment, 0)
	for _, p := range s.payments {
		if p.Status != models.PaymentStatusPending {
			continue
		}
		snapshot := p
		out = append(out, &snapshot)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
