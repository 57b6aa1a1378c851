package enrollment

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"equilibrium/internal/placement/models"
	"equilibrium/internal/placement/service"
	ledgerstore "equilibrium/internal/placement/store/ledger"
	memberstore "equilibrium/internal/placement/store/member"
	outboxstore "equilibrium/internal/placement/store/outbox"
	treestore "equilibrium/internal/placement/store/tree"
	"equilibrium/internal/placement/tariff"
	"equilibrium/internal/platform/metrics"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/tx"
	"equilibrium/pkg/requestcontext"
)

var baseTime = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

const catalogYAML = `
tariffs:
  - code: tariff_100
    name: Tariff $100
    entry_amount: "100.00"
  - code: tariff_500
    name: Tariff $500
    entry_amount: "500.00"
  - code: tariff_20
    entry_amount: "20.00"
    active: false
`

type EnrollmentSuite struct {
	suite.Suite
	ctx      context.Context
	members  *memberstore.InMemoryMembers
	payments *memberstore.InMemoryPayments
	catalog  *tariff.Catalog
	svc      *Service
}

func TestEnrollmentSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentSuite))
}

func (s *EnrollmentSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), baseTime)
	s.members = memberstore.NewInMemoryMembers()
	s.payments = memberstore.NewInMemoryPayments()
	catalog, err := tariff.Parse([]byte(catalogYAML), tariff.Defaults{ReferralBonusPercent: 50, PlacementBonusPercent: 50})
	s.Require().NoError(err)
	s.catalog = catalog

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewMemoryRunner()
	placer := service.New(runner, service.Stores{
		Payments: s.payments,
		Members:  s.members,
		Tree:     treestore.NewInMemory(),
		Bonuses:  ledgerstore.NewInMemory(),
		Outbox:   outboxstore.NewInMemory(),
	}, catalog, service.WithLogger(logger), service.WithMetrics(metrics.New()))
	s.svc = New(runner, s.members, s.payments, catalog, placer, WithLogger(logger))
}

func (s *EnrollmentSuite) register(at time.Time, username string, referrer *id.MemberID) *models.Registration {
	reg, err := s.svc.Register(requestcontext.WithTime(s.ctx, at), RegisterRequest{
		Username:   username,
		ReferrerID: referrer,
		TariffCode: "tariff_100",
	})
	s.Require().NoError(err)
	return reg
}

func (s *EnrollmentSuite) TestRegister() {
	root := s.register(baseTime, "root", nil)

	s.Run("creates an unplaced member and a pending payment at the entry amount", func() {
		reg, err := s.svc.Register(s.ctx, RegisterRequest{
			Username:   "  alice  ",
			ReferrerID: &root.Member.ID,
			TariffCode: "tariff_500",
		})
		s.Require().NoError(err)
		s.Equal("alice", reg.Member.Username)
		s.Equal(models.MemberStatusUnplaced, reg.Member.Status)
		s.Equal(root.Member.ID, *reg.Member.ReferrerID)
		s.Equal(models.PaymentStatusPending, reg.Payment.Status)
		s.Equal("500.00", reg.Payment.Amount.StringFixed(2))
		s.Equal(baseTime, reg.Payment.CreatedAt)

		stored, err := s.payments.Load(s.ctx, reg.Payment.ID)
		s.Require().NoError(err)
		s.Equal(reg.Member.ID, stored.MemberID)
	})

	cases := []struct {
		name string
		req  RegisterRequest
		code dErrors.Code
	}{
		{"blank username", RegisterRequest{Username: " ", TariffCode: "tariff_100"}, dErrors.CodeValidation},
		{"username with spaces", RegisterRequest{Username: "a b", TariffCode: "tariff_100"}, dErrors.CodeValidation},
		{"unknown tariff", RegisterRequest{Username: "bob", TariffCode: "tariff_7"}, dErrors.CodeTariffUnavailable},
		{"inactive tariff", RegisterRequest{Username: "bob", TariffCode: "tariff_20"}, dErrors.CodeTariffUnavailable},
		{"unknown referrer", RegisterRequest{Username: "bob", ReferrerID: ptr(id.NewMemberID()), TariffCode: "tariff_100"}, dErrors.CodeBadRequest},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			before, err := s.members.Count(s.ctx)
			s.Require().NoError(err)

			_, err = s.svc.Register(s.ctx, tc.req)
			s.Require().Error(err)
			s.Equal(tc.code, dErrors.CodeOf(err))

			after, err := s.members.Count(s.ctx)
			s.Require().NoError(err)
			s.Equal(before, after, "nothing is created")
		})
	}
}

func (s *EnrollmentSuite) TestQueue() {
	root := s.register(baseTime, "root", nil)
	second := s.register(baseTime.Add(2*time.Minute), "bob", &root.Member.ID)
	first := s.register(baseTime.Add(time.Minute), "alice", &root.Member.ID)

	s.Run("pending payments oldest first with their referrer", func() {
		items, err := s.svc.Queue(s.ctx, 0)
		s.Require().NoError(err)
		s.Require().Len(items, 3)
		s.Equal(root.Payment.ID, items[0].PaymentID)
		s.Nil(items[0].ReferrerID)
		s.Empty(items[0].ReferrerUsername)

		s.Equal(first.Payment.ID, items[1].PaymentID)
		s.Equal("alice", items[1].Username)
		s.Equal(root.Member.ID, *items[1].ReferrerID)
		s.Equal("root", items[1].ReferrerUsername)
		s.Equal(id.TariffCode("tariff_100"), items[1].Tariff.Code)
		s.Equal("Tariff $100", items[1].Tariff.Name)
		s.Equal("100.00", items[1].Amount.StringFixed(2))

		s.Equal(second.Payment.ID, items[2].PaymentID)
	})

	s.Run("limit", func() {
		items, err := s.svc.Queue(s.ctx, 1)
		s.Require().NoError(err)
		s.Len(items, 1)
	})

	s.Run("completed payments leave the queue", func() {
		_, err := s.svc.Complete(s.ctx, root.Payment.ID)
		s.Require().NoError(err)
		items, err := s.svc.Queue(s.ctx, 0)
		s.Require().NoError(err)
		s.Require().Len(items, 2)
		s.Equal(first.Payment.ID, items[0].PaymentID)
	})

	s.Run("tariff dropped from the catalog keeps its code", func() {
		next, err := tariff.Parse([]byte("tariffs:\n  - code: tariff_500\n    entry_amount: \"500.00\"\n"), tariff.Defaults{})
		s.Require().NoError(err)
		s.catalog.Replace(next)

		items, err := s.svc.Queue(s.ctx, 0)
		s.Require().NoError(err)
		s.Require().NotEmpty(items)
		s.Equal(models.TariffSummary{Code: "tariff_100", Name: "tariff_100"}, items[0].Tariff)
	})
}

func (s *EnrollmentSuite) TestComplete() {
	root := s.register(baseTime, "root", nil)
	child := s.register(baseTime, "alice", &root.Member.ID)

	s.Run("root completes into the tree root", func() {
		result, err := s.svc.Complete(s.ctx, root.Payment.ID)
		s.Require().NoError(err)
		s.False(result.AlreadyPlaced)
		s.True(result.Node.IsRoot())

		stored, err := s.payments.Load(s.ctx, root.Payment.ID)
		s.Require().NoError(err)
		s.True(stored.IsCompleted())
		s.Require().NotNil(stored.CompletedAt)
		s.Equal(baseTime, *stored.CompletedAt)
	})

	s.Run("referred member is placed and credits the referrer", func() {
		result, err := s.svc.Complete(s.ctx, child.Payment.ID)
		s.Require().NoError(err)
		s.Equal(root.Member.ID, *result.Node.ParentMemberID)
		s.Require().Len(result.BonusEntries, 2)
		for _, e := range result.BonusEntries {
			s.Equal(root.Member.ID, e.RecipientMemberID)
		}
	})

	s.Run("completing again replays the placement", func() {
		result, err := s.svc.Complete(s.ctx, child.Payment.ID)
		s.Require().NoError(err)
		s.True(result.AlreadyPlaced)
		s.Len(result.BonusEntries, 2)
	})

	s.Run("unknown payment", func() {
		_, err := s.svc.Complete(s.ctx, id.NewPaymentID())
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("cancelled payment", func() {
		m := &models.Member{ID: id.NewMemberID(), Username: "carol", Status: models.MemberStatusUnplaced}
		s.Require().NoError(s.members.Create(s.ctx, m))
		p := &models.Payment{ID: id.NewPaymentID(), MemberID: m.ID, TariffCode: "tariff_100",
			Amount: root.Payment.Amount, Status: models.PaymentStatusCancelled}
		s.Require().NoError(s.payments.Create(s.ctx, p))

		_, err := s.svc.Complete(s.ctx, p.ID)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
		got, err := s.members.Load(s.ctx, m.ID)
		s.Require().NoError(err)
		s.False(got.IsPlaced())
	})
}

func ptr[T any](v T) *T {
	return &v
}
