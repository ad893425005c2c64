package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

const (
	geocodeKeyPrefix = "geo:geocode:"
	routeKeyPrefix   = "geo:route:"
)

// Cache wraps a Provider with a Redis cache for geocode and route lookups.
// Redis failures are logged and the lookup falls through to the wrapped
// provider, so a cache outage only costs latency.
type Cache struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// NewCache returns a caching decorator. ttl <= 0 stores entries without expiry.
func NewCache(next Provider, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, log: logger}
}

var _ Provider = (*Cache)(nil)

type cachedLocation struct {
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type cachedRoute struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
	Polyline        string  `json:"polyline,omitempty"`
}

func geocodeKey(address string) string {
	return geocodeKeyPrefix + strings.ToLower(normalize(address))
}

func routeKey(origin, destination domain.Location, mode domain.TransportMode) string {
	o, d := origin.Coordinates, destination.Coordinates
	return fmt.Sprintf("%s%s:%.6f,%.6f:%.6f,%.6f", routeKeyPrefix, mode, o.Lat, o.Lng, d.Lat, d.Lng)
}

func (c *Cache) Geocode(ctx context.Context, address string) (domain.Location, error) {
	key := geocodeKey(address)
	var hit cachedLocation
	if c.get(ctx, key, &hit) {
		loc := domain.Location{Name: hit.Name, Address: hit.Address}
		return loc.WithCoordinates(domain.Coordinates{Lat: hit.Lat, Lng: hit.Lng}), nil
	}

	loc, err := c.next.Geocode(ctx, address)
	if err != nil {
		return domain.Location{}, err
	}
	if loc.HasCoordinates() {
		c.set(ctx, key, cachedLocation{
			Name:    loc.Name,
			Address: loc.Address,
			Lat:     loc.Coordinates.Lat,
			Lng:     loc.Coordinates.Lng,
		})
	}
	return loc, nil
}

// CalculateDistance is not cached; every provider computes it locally.
func (c *Cache) CalculateDistance(ctx context.Context, origin, destination domain.Location) (float64, error) {
	return c.next.CalculateDistance(ctx, origin, destination)
}

// GetRoute caches non-empty routes keyed by mode and endpoint coordinates.
func (c *Cache) GetRoute(ctx context.Context, origin, destination domain.Location, mode domain.TransportMode) (domain.RouteInfo, error) {
	if !origin.HasCoordinates() || !destination.HasCoordinates() {
		return c.next.GetRoute(ctx, origin, destination, mode)
	}
	key := routeKey(origin, destination, mode)
	var hit cachedRoute
	if c.get(ctx, key, &hit) {
		return domain.RouteInfo{DistanceMeters: hit.DistanceMeters, DurationSeconds: hit.DurationSeconds, Polyline: hit.Polyline}, nil
	}

	route, err := c.next.GetRoute(ctx, origin, destination, mode)
	if err != nil {
		return domain.RouteInfo{}, err
	}
	if !route.IsEmpty() {
		c.set(ctx, key, cachedRoute{DistanceMeters: route.DistanceMeters, DurationSeconds: route.DurationSeconds, Polyline: route.Polyline})
	}
	return route, nil
}

// get reports whether key was found and decoded into dst.
func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.WarnContext(ctx, "geo cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.WarnContext(ctx, "geo cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "geo cache write failed", "key", key, "error", err)
	}
}
