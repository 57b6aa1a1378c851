package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/tx"
)

// InMemory keeps outbox events in append order.
type InMemory struct {
	mu     sync.Mutex
	events []models.OutboxEvent
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, event *models.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("outbox event is required")
	}
	stored := *event
	tx.Apply(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, stored)
	})
	return nil
}

// FetchUnpublished returns up to limit unpublished events, oldest first.
func (s *InMemory) FetchUnpublished(_ context.Context, limit int) ([]*models.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OutboxEvent
	for i := range s.events {
		if len(out) >= limit {
			break
		}
		if s.events[i].PublishedAt != nil {
			continue
		}
		e := s.events[i]
		out = append(out, &e)
	}
	return out, nil
}

func (s *InMemory) MarkPublished(_ context.Context, ids []id.EventID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[id.EventID]bool, len(ids))
	for _, eventID := range ids {
		want[eventID] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if want[s.events[i].ID] && s.events[i].PublishedAt == nil {
			publishedAt := at
			s.events[i].PublishedAt = &publishedAt
		}
	}
	return nil
}

// Pending counts unpublished events.
func (s *InMemory) Pending(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.events {
		if s.events[i].PublishedAt == nil {
			n++
		}
	}
	return n, nil
}
