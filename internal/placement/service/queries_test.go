package service

import (
	"context"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
)

func intPtr(n int) *int { return &n }

func (s *ServiceSuite) TestGetSubtree() {
	s.Run("empty tree", func() {
		_, err := s.service.GetSubtree(s.ctx, nil, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	root, _ := s.join(nil)
	first, _ := s.join(root)
	s.join(root)
	s.join(root)
	grandchild, _ := s.join(first)

	s.Run("whole tree", func() {
		view, err := s.service.GetSubtree(s.ctx, nil, nil)
		s.Require().NoError(err)
		s.Equal(root.ID, view.MemberID)
		s.Require().Len(view.Children, 3)
		for i, child := range view.Children {
			s.Equal(i+1, child.Position)
			s.Equal(1, child.Level)
		}
		s.Equal(first.ID, view.Children[0].MemberID)
		s.Require().Len(view.Children[0].Children, 1)
		s.Equal(grandchild.ID, view.Children[0].Children[0].MemberID)
		s.NotNil(view.Children[1].Children, "leaves render an empty list")
		s.Empty(view.Children[1].Children)
	})

	s.Run("depth zero is the root alone", func() {
		view, err := s.service.GetSubtree(s.ctx, nil, intPtr(0))
		s.Require().NoError(err)
		s.Empty(view.Children)
	})

	s.Run("depth one stops at the first ring", func() {
		view, err := s.service.GetSubtree(s.ctx, nil, intPtr(1))
		s.Require().NoError(err)
		s.Len(view.Children, 3)
		s.Empty(view.Children[0].Children)
	})

	s.Run("explicit root", func() {
		view, err := s.service.GetSubtree(s.ctx, &first.ID, nil)
		s.Require().NoError(err)
		s.Equal(first.ID, view.MemberID)
		s.Equal(1, view.Level)
		s.Len(view.Children, 1)
	})

	s.Run("unplaced root", func() {
		stranger := s.newMember(nil)
		_, err := s.service.GetSubtree(s.ctx, &stranger.ID, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("negative depth", func() {
		_, err := s.service.GetSubtree(s.ctx, nil, intPtr(-1))
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestBonusHistory() {
	root, _ := s.join(nil)
	a, _ := s.join(root)
	s.join(root)
	s.join(root)
	s.join(a) // lands under a: a earns both kinds

	all, err := s.service.BonusHistory(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(all.Entries, 8)
	s.Equal("400.00", all.Totals.Total.StringFixed(2))
	s.Equal(models.BonusKindReferral, all.Entries[0].Kind, "append order")

	forA, err := s.service.BonusHistory(s.ctx, &a.ID)
	s.Require().NoError(err)
	s.Len(forA.Entries, 2)
	s.Equal("100.00", forA.Totals.Total.StringFixed(2))
	s.Equal("50.00", forA.Totals.Referral.StringFixed(2))
	s.Equal("50.00", forA.Totals.Placement.StringFixed(2))

	nobody := id.NewMemberID()
	empty, err := s.service.BonusHistory(s.ctx, &nobody)
	s.Require().NoError(err)
	s.NotNil(empty.Entries)
	s.Empty(empty.Entries)
	s.True(empty.Totals.Total.IsZero())
}

func (s *ServiceSuite) TestStatsAndTariffs() {
	root, _ := s.join(nil)
	s.join(root)
	s.newMember(root)

	stats, err := s.service.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(2, stats.Nodes)
	s.Equal(3, stats.Members)
	s.Equal(2, stats.Bonuses.Entries)
	s.Equal("50.00", stats.Bonuses.Referral.StringFixed(2))
	s.Equal("100.00", stats.Bonuses.Total.StringFixed(2))

	tariffs := s.service.Tariffs(context.Background())
	s.Require().Len(tariffs, 2, "inactive tariffs are hidden")
	s.Equal(id.TariffCode("tariff_20"), tariffs[0].Code)
	s.Equal(models.DefaultMaxChildren, s.service.MaxChildren())
}
