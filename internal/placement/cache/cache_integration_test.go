//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"equilibrium/internal/placement/cache"
	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.TreeCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = cache.New(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTripAndInvalidate() {
	ctx := context.Background()
	root := id.NewMemberID()
	depth := 1
	view := &models.TreeView{
		MemberID:   root,
		TariffCode: "tariff_100",
		Position:   1,
		Children:   []*models.TreeView{{MemberID: id.NewMemberID(), Level: 1, Position: 1, TariffCode: "tariff_100"}},
	}

	_, gen, hit, err := s.cache.Lookup(ctx, &root, &depth)
	s.Require().NoError(err)
	s.False(hit)
	s.Equal(int64(0), gen)

	s.Require().NoError(s.cache.Store(ctx, gen, &root, &depth, view))

	got, _, hit, err := s.cache.Lookup(ctx, &root, &depth)
	s.Require().NoError(err)
	s.Require().True(hit)
	s.Equal(view.MemberID, got.MemberID)
	s.Require().Len(got.Children, 1)
	s.Equal(view.Children[0].MemberID, got.Children[0].MemberID)

	s.Require().NoError(s.cache.Invalidate(ctx))

	_, gen, hit, err = s.cache.Lookup(ctx, &root, &depth)
	s.Require().NoError(err)
	s.False(hit)
	s.Equal(int64(1), gen)
}

func (s *RedisCacheSuite) TestStaleGenerationIsNeverRead() {
	ctx := context.Background()
	_, gen, _, err := s.cache.Lookup(ctx, nil, nil)
	s.Require().NoError(err)

	// A commit lands while the view is being built.
	s.Require().NoError(s.cache.Invalidate(ctx))
	s.Require().NoError(s.cache.Store(ctx, gen, nil, nil, &models.TreeView{MemberID: id.NewMemberID()}))

	_, _, hit, err := s.cache.Lookup(ctx, nil, nil)
	s.Require().NoError(err)
	s.False(hit)
}
