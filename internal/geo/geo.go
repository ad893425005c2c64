// Package geo provides geocoding and routing for the itinerary planner:
// an OpenRouteService client, a straight-line estimator used when no API key
// is configured, and a Redis-backed cache that wraps either.
package geo

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// Provider is the capability every adapter in this package implements. It
// matches itinerary.GeoService.
type Provider interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
	CalculateDistance(ctx context.Context, origin, destination domain.Location) (float64, error)
	GetRoute(ctx context.Context, origin, destination domain.Location, mode domain.TransportMode) (domain.RouteInfo, error)
}

// normalize collapses whitespace so equivalent queries share cache keys.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// timed logs the duration of op at debug level, and its error if any.
// Use as: defer timed(ctx, log, "ors.GetRoute")(&err)
func timed(ctx context.Context, log *slog.Logger, op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		attrs := []any{"op", op, "duration_ms", time.Since(start).Milliseconds()}
		if errp != nil && *errp != nil {
			log.DebugContext(ctx, "geo call failed", append(attrs, "error", *errp)...)
			return
		}
		log.DebugContext(ctx, "geo call", attrs...)
	}
}
