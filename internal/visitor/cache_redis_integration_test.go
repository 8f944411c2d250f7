//go:build integration

package visitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"visitors/internal/visitor"
	"visitors/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *visitor.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = visitor.NewRedisCache(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestGetMissingKey() {
	var out visitor.Projection
	hit, err := s.cache.Get(context.Background(), "visitor:42", &out)
	s.Require().NoError(err)
	s.False(hit)
}

func (s *RedisCacheSuite) TestPutThenGet() {
	ctx := context.Background()
	in := visitor.Projection{ID: 1, Name: "Ada", Purpose: "Interview", Duration: 60}

	s.Require().NoError(s.cache.Put(ctx, "visitor:1", in))

	var out visitor.Projection
	hit, err := s.cache.Get(ctx, "visitor:1", &out)
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(in, out)
}

func (s *RedisCacheSuite) TestPutListValue() {
	ctx := context.Background()
	in := []visitor.Projection{{ID: 1, Name: "Ada"}, {ID: 2, Name: "Grace"}}

	s.Require().NoError(s.cache.Put(ctx, "visitors", in))

	var out []visitor.Projection
	hit, err := s.cache.Get(ctx, "visitors", &out)
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(in, out)
}

func (s *RedisCacheSuite) TestEvictRemovesKey() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Put(ctx, "visitor:1", visitor.Projection{ID: 1, Name: "Ada"}))

	s.Require().NoError(s.cache.Evict(ctx, "visitor:1"))

	var out visitor.Projection
	hit, err := s.cache.Get(ctx, "visitor:1", &out)
	s.Require().NoError(err)
	s.False(hit)
}

func (s *RedisCacheSuite) TestEvictMissingKeyIsNoError() {
	s.NoError(s.cache.Evict(context.Background(), "visitor:404"))
}

func (s *RedisCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	short := visitor.NewRedisCache(s.redis.Client, 100*time.Millisecond)

	s.Require().NoError(short.Put(ctx, "visitor:1", visitor.Projection{ID: 1, Name: "Ada"}))
	time.Sleep(300 * time.Millisecond)

	var out visitor.Projection
	hit, err := short.Get(ctx, "visitor:1", &out)
	s.Require().NoError(err)
	s.False(hit)
}
