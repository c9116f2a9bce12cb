//go:build integration

package rediscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/compliance"
	"conforma/internal/compliance/store/rediscache"
	id "conforma/pkg/domain"
	"conforma/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *rediscache.Cache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = rediscache.New(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	run := &compliance.Run{
		ID:         id.NewRunID(),
		PartNumber: "K123456R001",
		Family:     compliance.FamilyFLR25,
		Variant:    compliance.VariantR,
		Kind:       compliance.KindRadar,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
		Conformant: true,
	}

	s.Require().NoError(s.cache.Set(ctx, run))

	got, hit, err := s.cache.Get(ctx, run.ID)
	s.Require().NoError(err)
	s.Require().True(hit)
	s.Equal(run.ID, got.ID)
	s.Equal(run.PartNumber, got.PartNumber)
	s.True(got.Conformant)
}

func (s *RedisCacheSuite) TestMiss() {
	_, hit, err := s.cache.Get(context.Background(), id.NewRunID())
	s.Require().NoError(err)
	s.False(hit)
}
