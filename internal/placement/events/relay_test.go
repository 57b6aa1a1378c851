package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"equilibrium/internal/placement/models"
	outboxstore "equilibrium/internal/placement/store/outbox"
	"equilibrium/internal/platform/metrics"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/circuit"
	"equilibrium/pkg/platform/tx"
)

type RelaySuite struct {
	suite.Suite
	ctx       context.Context
	outbox    *outboxstore.InMemory
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	s.outbox = outboxstore.NewInMemory()
	s.publisher = &recordingPublisher{}
	s.metrics = metrics.New()
}

func (s *RelaySuite) newRelay(opts ...Option) *Relay {
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	}, opts...)
	return NewRelay(tx.NewMemoryRunner(), s.outbox, s.publisher, opts...)
}

func (s *RelaySuite) appendEvents(n int) []id.EventID {
	ids := make([]id.EventID, n)
	for i := range ids {
		e := &models.OutboxEvent{
			ID:          id.NewEventID(),
			AggregateID: id.NewMemberID(),
			Type:        models.EventPlacementCompleted,
			Payload:     []byte(`{}`),
			CreatedAt:   time.Now(),
		}
		s.Require().NoError(s.outbox.Append(s.ctx, e))
		ids[i] = e.ID
	}
	return ids
}

func (s *RelaySuite) pending() int {
	n, err := s.outbox.Pending(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *RelaySuite) TestDrainPublishesInOrderAndMarks() {
	ids := s.appendEvents(3)
	relay := s.newRelay()

	n, err := relay.Drain(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Equal(ids, s.publisher.ids())
	s.Equal(0, s.pending())
	s.Equal(float64(3), testutil.ToFloat64(s.metrics.OutboxPublished))

	n, err = relay.Drain(s.ctx)
	s.Require().NoError(err)
	s.Zero(n, "nothing left")
}

func (s *RelaySuite) TestDrainRespectsBatchSize() {
	s.appendEvents(5)
	relay := s.newRelay(WithBatchSize(2))

	n, err := relay.Drain(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal(3, s.pending())
}

func (s *RelaySuite) TestPublishFailureKeepsEvents() {
	s.appendEvents(2)
	s.publisher.fail = errors.New("broker unreachable")
	relay := s.newRelay()

	_, err := relay.Drain(s.ctx)
	s.Require().Error(err)
	s.ErrorIs(err, s.publisher.fail)
	s.Equal(2, s.pending())
	s.Zero(testutil.ToFloat64(s.metrics.OutboxPublished))
}

func (s *RelaySuite) TestOpenBreakerSkipsPublisher() {
	s.appendEvents(1)
	s.publisher.fail = errors.New("broker unreachable")
	breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	relay := s.newRelay(WithBreaker(breaker))

	_, err := relay.Drain(s.ctx)
	s.Require().Error(err)
	s.True(breaker.IsOpen())

	n, err := relay.Drain(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
	s.Equal(1, s.publisher.calls(), "open breaker keeps the publisher idle")
	s.Equal(1, s.pending())
}

func (s *RelaySuite) TestRunDrainsUntilCancelled() {
	s.appendEvents(7)
	relay := s.newRelay(WithInterval(5*time.Millisecond), WithBatchSize(3))

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	s.Eventually(func() bool {
		n, err := s.outbox.Pending(s.ctx)
		return err == nil && n == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("relay did not stop")
	}
	s.Len(s.publisher.ids(), 7)
}

func (s *RelaySuite) TestLogPublisher() {
	var buf bytes.Buffer
	publisher := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))
	event := &models.OutboxEvent{ID: id.NewEventID(), AggregateID: id.NewMemberID(), Type: models.EventBonusCredited, Payload: []byte(`{"amount":"50.00"}`)}

	s.Require().NoError(publisher.Publish(s.ctx, []*models.OutboxEvent{event}))
	s.Contains(buf.String(), `"event_type":"bonus.credited"`)
	s.Contains(buf.String(), event.AggregateID.String())
}

type recordingPublisher struct {
	mu        sync.Mutex
	fail      error
	published []id.EventID
	attempts  int
}

func (p *recordingPublisher) Publish(_ context.Context, events []*models.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.fail != nil {
		return p.fail
	}
	for _, e := range events {
		p.published = append(p.published, e.ID)
	}
	return nil
}

func (p *recordingPublisher) ids() []id.EventID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]id.EventID(nil), p.published...)
}

func (p *recordingPublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}
