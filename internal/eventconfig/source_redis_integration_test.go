//go:build integration

package eventconfig_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pintcert/internal/eventconfig"
	"pintcert/pkg/testutil/containers"
)

type countingSource struct {
	inner eventconfig.Source
	loads int
}

func (c *countingSource) Load(ctx context.Context) (map[string]eventconfig.YearConfig, error) {
	c.loads++
	return c.inner.Load(ctx)
}

type CachedSourceIntegrationSuite struct {
	suite.Suite

	redis *containers.RedisContainer
}

func TestCachedSourceIntegrationSuite(t *testing.T) {
	suite.Run(t, &CachedSourceIntegrationSuite{redis: containers.NewRedisContainer(t)})
}

func (s *CachedSourceIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redis.FlushAll(context.Background()))
}

func (s *CachedSourceIntegrationSuite) TestLoad_CachesDocument() {
	ctx := context.Background()

	inner := &countingSource{inner: eventconfig.StaticSource{
		"2024": {
			Colors:    [4]string{"#111111", "#222222", "#333333", "#444444"},
			HourRules: eventconfig.HourRules{HoursPerDay: 6, HoursPerEvent: 30},
		},
	}}
	cached := eventconfig.NewCachedSource(inner, s.redis.Client, time.Minute, nil)

	first, err := cached.Load(ctx)
	s.Require().NoError(err)
	second, err := cached.Load(ctx)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(1, inner.loads, "second load must be served from cache")
}

func (s *CachedSourceIntegrationSuite) TestInvalidate_ForcesReload() {
	ctx := context.Background()

	inner := &countingSource{inner: eventconfig.StaticSource{}}
	cached := eventconfig.NewCachedSource(inner, s.redis.Client, time.Minute, nil)

	_, err := cached.Load(ctx)
	s.Require().NoError(err)

	s.Require().NoError(cached.Invalidate(ctx))

	_, err = cached.Load(ctx)
	s.Require().NoError(err)
	s.Equal(2, inner.loads)
}
