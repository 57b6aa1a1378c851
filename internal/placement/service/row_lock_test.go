package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"equilibrium/internal/placement/models"
	treestore "equilibrium/internal/placement/store/tree"
	"equilibrium/internal/platform/metrics"
	id "equilibrium/pkg/domain"
)

// rowLockRunner behaves like a READ COMMITTED database with SELECT ... FOR
// UPDATE: no transaction-wide lock, writes visible as soon as they are made,
// and row locks held until the transaction ends.
type rowLockRunner struct {
	mu   sync.Mutex
	rows map[id.MemberID]*sync.Mutex
}

type heldRows struct {
	locks    []*sync.Mutex
	searched bool
}

type heldRowsKey struct{}

func newRowLockRunner() *rowLockRunner {
	return &rowLockRunner{rows: make(map[id.MemberID]*sync.Mutex)}
}

func (r *rowLockRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	held := &heldRows{}
	defer func() {
		for i := len(held.locks) - 1; i >= 0; i-- {
			held.locks[i].Unlock()
		}
	}()
	return fn(context.WithValue(ctx, heldRowsKey{}, held))
}

func (r *rowLockRunner) lock(ctx context.Context, member id.MemberID) {
	r.mu.Lock()
	row, ok := r.rows[member]
	if !ok {
		row = &sync.Mutex{}
		r.rows[member] = row
	}
	r.mu.Unlock()

	row.Lock()
	held := ctx.Value(heldRowsKey{}).(*heldRows)
	held.locks = append(held.locks, row)
}

// rowLockedTree takes row locks through the runner. The first lock of every
// transaction waits until all callers have finished their initial search, so
// every caller starts from the same stale view of the tree.
type rowLockedTree struct {
	*treestore.InMemory
	runner  *rowLockRunner
	callers int32
	arrived atomic.Int32
	ready   chan struct{}
}

func (t *rowLockedTree) LockParent(ctx context.Context, member id.MemberID) error {
	if _, err := t.InMemory.NodeOf(ctx, member); err != nil {
		return err
	}
	held := ctx.Value(heldRowsKey{}).(*heldRows)
	if !held.searched {
		held.searched = true
		if t.arrived.Add(1) == t.callers {
			close(t.ready)
		}
		select {
		case <-t.ready:
		case <-time.After(2 * time.Second):
		}
	}
	t.runner.lock(ctx, member)
	return nil
}

func (s *ServiceSuite) TestConcurrentPlacementsUnderRowLocks() {
	root, _ := s.join(nil)
	level1 := []*models.Member{}
	for range 3 {
		m, _ := s.join(root)
		level1 = append(level1, m)
	}
	for _, parent := range level1 {
		for range 3 {
			s.join(parent)
		}
	}

	// Levels 0-2 hold 13 nodes; level 3 has 27 free slots spread over 9 parents.
	const n = 27
	joiners := make([]*models.Member, n)
	payments := make([]*models.Payment, n)
	for i := range joiners {
		joiners[i] = s.newMember(root)
		payments[i] = s.newPayment(joiners[i], "tariff_20", models.PaymentStatusCompleted)
	}

	runner := newRowLockRunner()
	tree := &rowLockedTree{InMemory: s.tree, runner: runner, callers: n, ready: make(chan struct{})}
	m := metrics.New()
	svc := New(runner, Stores{
		Payments: s.payments,
		Members:  s.members,
		Tree:     tree,
		Bonuses:  s.bonuses,
		Outbox:   s.outbox,
	}, s.catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
		WithAttemptTimeout(10*time.Second),
	)

	var g errgroup.Group
	for i := range joiners {
		g.Go(func() error {
			_, err := svc.Place(s.ctx, joiners[i].ID, payments[i].ID)
			return err
		})
	}
	s.Require().NoError(g.Wait(), "every caller lands in one of the free slots")

	perLevel := map[int]int{}
	s.walk(root.ID, func(node *models.PlacementNode, children []*models.PlacementNode) {
		perLevel[node.Level]++
		s.LessOrEqual(len(children), models.DefaultMaxChildren)
	})
	s.Equal(map[int]int{0: 1, 1: 3, 2: 9, 3: 27}, perLevel)

	s.Equal(float64(0), testutil.ToFloat64(m.PlacementConflicts), "full parents are skipped, not retried")
	s.Equal(float64(n), testutil.ToFloat64(m.Placements.WithLabelValues(metrics.OutcomePlaced)))
}
