// Package service is the placement facade: it turns a completed payment into
// a tree node plus bonus entries in one transaction, and serves the read-only
// tree and ledger queries.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"equilibrium/internal/placement/engine"
	"equilibrium/internal/placement/ledger"
	"equilibrium/internal/placement/models"
	"equilibrium/internal/platform/metrics"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/tx"
)

// PaymentStore is owned by billing; placement only reads it.
type PaymentStore interface {
	Load(ctx context.Context, payment id.PaymentID) (*models.Payment, error)
}

// MemberStore is owned by signup; placement reads members and flips status.
type MemberStore interface {
	Load(ctx context.Context, member id.MemberID) (*models.Member, error)
	MarkPlaced(ctx context.Context, member id.MemberID, at time.Time) error
	Count(ctx context.Context) (int, error)
}

type TariffCatalog interface {
	Resolve(ctx context.Context, code id.TariffCode) (*models.Tariff, error)
	ListActive(ctx context.Context) []*models.Tariff
}

// TreeIndex is the engine's view of the tree plus the batched read used to
// render subtrees.
type TreeIndex interface {
	engine.TreeIndex
	ChildrenOfMany(ctx context.Context, members []id.MemberID) (map[id.MemberID][]*models.PlacementNode, error)
	Count(ctx context.Context) (int, error)
}

type OutboxStore interface {
	Append(ctx context.Context, event *models.OutboxEvent) error
}

// TreeCache stores rendered subtrees keyed by a generation that Invalidate
// advances.
type TreeCache interface {
	Lookup(ctx context.Context, root *id.MemberID, maxDepth *int) (*models.TreeView, int64, bool, error)
	Store(ctx context.Context, gen int64, root *id.MemberID, maxDepth *int, view *models.TreeView) error
	Invalidate(ctx context.Context) error
}

// Stores groups the storage collaborators. All of them must join the
// transaction carried by the context RunInTx hands out.
type Stores struct {
	Payments PaymentStore
	Members  MemberStore
	Tree     TreeIndex
	Bonuses  ledger.Store
	Outbox   OutboxStore
}

const (
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 5 * time.Second
)

// Service is the PlacementFacade.
type Service struct {
	tx       tx.Runner
	payments PaymentStore
	members  MemberStore
	tree     TreeIndex
	outbox   OutboxStore
	tariffs  TariffCatalog
	engine   *engine.Engine
	ledger   *ledger.Ledger

	cache          TreeCache
	subtrees       singleflight.Group
	maxChildren    int
	maxAttempts    int
	attemptTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTreeCache enables subtree caching. Cache failures never fail a query.
func WithTreeCache(c TreeCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithMaxChildren(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxChildren = n
		}
	}
}

// WithMaxAttempts bounds how many transactions one Place may run when it
// keeps losing slot races.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each placement transaction.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(runner tx.Runner, stores Stores, tariffs TariffCatalog, opts ...Option) *Service {
	s := &Service{
		tx:             runner,
		payments:       stores.Payments,
		members:        stores.Members,
		tree:           stores.Tree,
		outbox:         stores.Outbox,
		tariffs:        tariffs,
		ledger:         ledger.New(stores.Bonuses),
		maxChildren:    models.DefaultMaxChildren,
		maxAttempts:    defaultMaxAttempts,
		attemptTimeout: defaultAttemptTimeout,
		logger:         slog.Default(),
		tracer:         otel.Tracer("equilibrium/placement"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = engine.New(stores.Tree, engine.WithMaxChildren(s.maxChildren))
	return s
}

// MaxChildren returns the branching factor placements use.
func (s *Service) MaxChildren() int {
	return s.engine.MaxChildren()
}

func (s *Service) incrementPlacement(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementPlacement(outcome)
	}
}

func (s *Service) incrementConflict() {
	if s.metrics != nil {
		s.metrics.IncrementConflict()
	}
}

func (s *Service) observePlacement(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObservePlacementDuration(start)
	}
}

func (s *Service) recordBonuses(entries []*models.BonusEntry) {
	if s.metrics == nil {
		return
	}
	for _, e := range entries {
		s.metrics.RecordBonus(string(e.Kind), e.Amount)
	}
}

func (s *Service) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.IncrementCacheRequest(result)
	}
}
