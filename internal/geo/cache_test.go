package geo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/geo"
)

// countingProvider is a geo.Provider that records how often it is called.
type countingProvider struct {
	geocodes int
	routes   int
	route    domain.RouteInfo
}

func (p *countingProvider) Geocode(_ context.Context, address string) (domain.Location, error) {
	p.geocodes++
	return point(address, 10, 20), nil
}

func (p *countingProvider) CalculateDistance(_ context.Context, _, _ domain.Location) (float64, error) {
	return 42, nil
}

func (p *countingProvider) GetRoute(_ context.Context, _, _ domain.Location, _ domain.TransportMode) (domain.RouteInfo, error) {
	p.routes++
	return p.route, nil
}

var _ geo.Provider = (*countingProvider)(nil)

func newCache(t *testing.T, next geo.Provider, ttl time.Duration) (*geo.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return geo.NewCache(next, rdb, ttl, nil), mr
}

func TestCache_GeocodeHitsRedisOnSecondCall(t *testing.T) {
	next := &countingProvider{}
	c, _ := newCache(t, next, time.Hour)
	ctx := context.Background()

	first, err := c.Geocode(ctx, "Old Town Square")
	require.NoError(t, err)
	second, err := c.Geocode(ctx, "old town   square")
	require.NoError(t, err)

	assert.Equal(t, 1, next.geocodes)
	assert.Equal(t, *first.Coordinates, *second.Coordinates)
}

func TestCache_RouteCachedPerMode(t *testing.T) {
	next := &countingProvider{route: domain.RouteInfo{DistanceMeters: 800, DurationSeconds: 600, Polyline: "xyz"}}
	c, _ := newCache(t, next, time.Hour)
	ctx := context.Background()
	a, b := point("A", 1, 1), point("B", 2, 2)

	r1, err := c.GetRoute(ctx, a, b, domain.ModeWalking)
	require.NoError(t, err)
	r2, err := c.GetRoute(ctx, a, b, domain.ModeWalking)
	require.NoError(t, err)
	_, err = c.GetRoute(ctx, a, b, domain.ModeDriving)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 2, next.routes)
}

func TestCache_EmptyRouteNotCached(t *testing.T) {
	next := &countingProvider{}
	c, _ := newCache(t, next, time.Hour)
	ctx := context.Background()
	a, b := point("A", 1, 1), point("B", 2, 2)

	_, _ = c.GetRoute(ctx, a, b, domain.ModeDriving)
	_, _ = c.GetRoute(ctx, a, b, domain.ModeDriving)

	assert.Equal(t, 2, next.routes)
}

func TestCache_EntriesExpire(t *testing.T) {
	next := &countingProvider{route: domain.RouteInfo{DistanceMeters: 800, DurationSeconds: 600}}
	c, mr := newCache(t, next, time.Minute)
	ctx := context.Background()
	a, b := point("A", 1, 1), point("B", 2, 2)

	_, err := c.GetRoute(ctx, a, b, domain.ModeDriving)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.GetRoute(ctx, a, b, domain.ModeDriving)
	require.NoError(t, err)

	assert.Equal(t, 2, next.routes)
}

func TestCache_FallsThroughWhenRedisDown(t *testing.T) {
	next := &countingProvider{route: domain.RouteInfo{DistanceMeters: 800, DurationSeconds: 600}}
	c, mr := newCache(t, next, time.Hour)
	mr.Close()

	route, err := c.GetRoute(context.Background(), point("A", 1, 1), point("B", 2, 2), domain.ModeDriving)

	require.NoError(t, err)
	assert.Equal(t, 600, route.DurationSeconds)
	assert.Equal(t, 1, next.routes)
}
