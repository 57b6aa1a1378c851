//go:build integration

package tree_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"equilibrium/internal/placement/models"
	"equilibrium/internal/placement/store/tree"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/platform/tx"
	"equilibrium/pkg/testutil/containers"
)

type PostgresTreeSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *tree.PostgresStore
	now      time.Time
}

func TestPostgresTreeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTreeSuite))
}

func (s *PostgresTreeSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = tree.NewPostgres(s.postgres.DB)
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresTreeSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresTreeSuite) TestInsertAndRead() {
	ctx := context.Background()
	root := models.NewRootNode(id.NewMemberID(), "tariff_100", s.now)
	s.Require().NoError(s.store.Insert(ctx, root))

	a := models.NewChildNode(id.NewMemberID(), root, 2, "tariff_100", s.now)
	b := models.NewChildNode(id.NewMemberID(), root, 1, "tariff_50", s.now)
	s.Require().NoError(s.store.Insert(ctx, a))
	s.Require().NoError(s.store.Insert(ctx, b))

	s.Run("root", func() {
		got, err := s.store.RootNode(ctx)
		s.Require().NoError(err)
		s.Equal(root.MemberID, got.MemberID)
		s.Nil(got.ParentMemberID)
	})

	s.Run("node round trip", func() {
		got, err := s.store.NodeOf(ctx, b.MemberID)
		s.Require().NoError(err)
		s.Equal(root.MemberID, *got.ParentMemberID)
		s.Equal(1, got.Level)
		s.Equal(1, got.Position)
		s.Equal(id.TariffCode("tariff_50"), got.TariffCode)
	})

	s.Run("children by position", func() {
		kids, err := s.store.ChildrenOf(ctx, root.MemberID)
		s.Require().NoError(err)
		s.Require().Len(kids, 2)
		s.Equal(b.MemberID, kids[0].MemberID)
		s.Equal(a.MemberID, kids[1].MemberID)
	})

	s.Run("batched children", func() {
		got, err := s.store.ChildrenOfMany(ctx, []id.MemberID{root.MemberID, a.MemberID})
		s.Require().NoError(err)
		s.Len(got[root.MemberID], 2)
		s.Empty(got[a.MemberID])
	})

	s.Run("count", func() {
		n, err := s.store.Count(ctx)
		s.Require().NoError(err)
		s.Equal(3, n)
	})

	s.Run("missing node", func() {
		_, err := s.store.NodeOf(ctx, id.NewMemberID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresTreeSuite) TestConstraintTranslation() {
	ctx := context.Background()
	root := models.NewRootNode(id.NewMemberID(), "tariff_100", s.now)
	s.Require().NoError(s.store.Insert(ctx, root))
	s.Require().NoError(s.store.Insert(ctx, models.NewChildNode(id.NewMemberID(), root, 1, "tariff_100", s.now)))

	s.Run("second root", func() {
		err := s.store.Insert(ctx, models.NewRootNode(id.NewMemberID(), "tariff_100", s.now))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("taken slot", func() {
		err := s.store.Insert(ctx, models.NewChildNode(id.NewMemberID(), root, 1, "tariff_100", s.now))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate member", func() {
		err := s.store.Insert(ctx, models.NewChildNode(root.MemberID, root, 2, "tariff_100", s.now))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("unknown parent", func() {
		ghost := models.NewRootNode(id.NewMemberID(), "tariff_100", s.now)
		err := s.store.Insert(ctx, models.NewChildNode(id.NewMemberID(), ghost, 1, "tariff_100", s.now))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentSlotRace verifies the (parent, position) constraint admits
// exactly one winner when many transactions target the same slot.
func (s *PostgresTreeSuite) TestConcurrentSlotRace() {
	ctx := context.Background()
	root := models.NewRootNode(id.NewMemberID(), "tariff_100", s.now)
	s.Require().NoError(s.store.Insert(ctx, root))

	runner := tx.NewSQLRunner(s.postgres.DB)
	const goroutines = 20
	var (
		wg        sync.WaitGroup
		wins      atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.RunInTx(ctx, func(txCtx context.Context) error {
				if err := s.store.LockParent(txCtx, root.MemberID); err != nil {
					return err
				}
				return s.store.Insert(txCtx, models.NewChildNode(id.NewMemberID(), root, 1, "tariff_100", s.now))
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
