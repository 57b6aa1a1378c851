//go:build integration

package member_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"equilibrium/internal/placement/models"
	"equilibrium/internal/placement/store/member"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
	"equilibrium/pkg/testutil/containers"
)

type PostgresMemberSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	members  *member.PostgresMembers
	payments *member.PostgresPayments
	now      time.Time
}

func TestPostgresMemberSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresMemberSuite))
}

func (s *PostgresMemberSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.members = member.NewPostgresMembers(s.postgres.DB)
	s.payments = member.NewPostgresPayments(s.postgres.DB)
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresMemberSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresMemberSuite) TestMemberLifecycle() {
	ctx := context.Background()
	referrer := &models.Member{ID: id.NewMemberID(), Username: "root", Status: models.MemberStatusUnplaced, CreatedAt: s.now}
	s.Require().NoError(s.members.Create(ctx, referrer))
	m := &models.Member{ID: id.NewMemberID(), ReferrerID: &referrer.ID, Username: "partner", Status: models.MemberStatusUnplaced, CreatedAt: s.now}
	s.Require().NoError(s.members.Create(ctx, m))

	s.Run("load keeps referrer", func() {
		got, err := s.members.Load(ctx, m.ID)
		s.Require().NoError(err)
		s.Require().True(got.HasReferrer())
		s.Equal(referrer.ID, *got.ReferrerID)
		s.False(got.IsPlaced())
	})

	s.Run("duplicate", func() {
		s.ErrorIs(s.members.Create(ctx, m), sentinel.ErrAlreadyUsed)
	})

	s.Run("mark placed", func() {
		s.Require().NoError(s.members.MarkPlaced(ctx, m.ID, s.now))
		got, err := s.members.Load(ctx, m.ID)
		s.Require().NoError(err)
		s.True(got.IsPlaced())
	})

	s.Run("count", func() {
		n, err := s.members.Count(ctx)
		s.Require().NoError(err)
		s.Equal(2, n)
	})
}

func (s *PostgresMemberSuite) TestPaymentCompletion() {
	ctx := context.Background()
	m := &models.Member{ID: id.NewMemberID(), Status: models.MemberStatusUnplaced, CreatedAt: s.now}
	s.Require().NoError(s.members.Create(ctx, m))
	p := &models.Payment{
		ID:         id.NewPaymentID(),
		MemberID:   m.ID,
		TariffCode: "tariff_100",
		Amount:     decimal.RequireFromString("100.00"),
		Status:     models.PaymentStatusPending,
		CreatedAt:  s.now,
	}
	s.Require().NoError(s.payments.Create(ctx, p))

	s.Require().NoError(s.payments.Complete(ctx, p.ID, s.now))
	got, err := s.payments.Load(ctx, p.ID)
	s.Require().NoError(err)
	s.True(got.IsCompleted())
	s.True(got.Amount.Equal(decimal.NewFromInt(100)))

	s.ErrorIs(s.payments.Complete(ctx, p.ID, s.now), sentinel.ErrInvalidState)
	s.ErrorIs(s.payments.Complete(ctx, id.NewPaymentID(), s.now), sentinel.ErrNotFound)
}

func (s *PostgresMemberSuite) TestListPending() {
	ctx := context.Background()
	m := &models.Member{ID: id.NewMemberID(), Status: models.MemberStatusUnplaced, CreatedAt: s.now}
	s.Require().NoError(s.members.Create(ctx, m))
	create := func(at time.Time, status models.PaymentStatus) *models.Payment {
		p := &models.Payment{
			ID:         id.NewPaymentID(),
			MemberID:   m.ID,
			TariffCode: "tariff_100",
			Amount:     decimal.RequireFromString("100.00"),
			Status:     status,
			CreatedAt:  at,
		}
		s.Require().NoError(s.payments.Create(ctx, p))
		return p
	}
	later := create(s.now.Add(time.Minute), models.PaymentStatusPending)
	earlier := create(s.now, models.PaymentStatusPending)
	create(s.now, models.PaymentStatusFailed)

	got, err := s.payments.ListPending(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(earlier.ID, got[0].ID)
	s.Equal(later.ID, got[1].ID)
	s.True(got[0].Amount.Equal(decimal.NewFromInt(100)))

	got, err = s.payments.ListPending(ctx, 1)
	s.Require().NoError(err)
	s.Len(got, 1)
}
