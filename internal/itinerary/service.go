// Package itinerary implements domain.ItineraryPlanner on top of a geocoding
// and routing provider.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// GeoService is the geocoding and routing capability the planner consumes.
// Implementations live in internal/geo.
type GeoService interface {
	// Geocode resolves free text to a location with coordinates. It returns
	// domain.ErrNotFound when nothing matches.
	Geocode(ctx context.Context, address string) (domain.Location, error)
	// CalculateDistance returns the straight-line distance in meters.
	CalculateDistance(ctx context.Context, origin, destination domain.Location) (float64, error)
	// GetRoute returns the travel route for mode. An empty RouteInfo means no
	// route could be found.
	GetRoute(ctx context.Context, origin, destination domain.Location, mode domain.TransportMode) (domain.RouteInfo, error)
}

// Config tunes mode selection and feasibility checks. Zero fields take the
// defaults from DefaultConfig.
type Config struct {
	// DefaultMode forces a transport mode. Empty selects one by distance.
	DefaultMode domain.TransportMode
	// Currency prices estimated transit costs.
	Currency string
	// WalkingMaxMeters and TransitMaxMeters are the auto-mode thresholds:
	// up to WalkingMaxMeters walk, up to TransitMaxMeters take transit,
	// otherwise drive.
	WalkingMaxMeters float64
	TransitMaxMeters float64
	// MinTransferGap is the shortest gap between two activities at different
	// places, with no leg computed, that does not raise a warning.
	MinTransferGap time.Duration
	// MaxLegMeters caps plausible leg distances inside one day.
	MaxLegMeters float64
}

// DefaultConfig returns the planner defaults.
func DefaultConfig() Config {
	return Config{
		Currency:         domain.DefaultCurrency,
		WalkingMaxMeters: 1000,
		TransitMaxMeters: 5000,
		MinTransferGap:   10 * time.Minute,
		MaxLegMeters:     500_000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Currency == "" {
		c.Currency = d.Currency
	}
	if c.WalkingMaxMeters <= 0 {
		c.WalkingMaxMeters = d.WalkingMaxMeters
	}
	if c.TransitMaxMeters <= 0 {
		c.TransitMaxMeters = d.TransitMaxMeters
	}
	if c.MinTransferGap <= 0 {
		c.MinTransferGap = d.MinTransferGap
	}
	if c.MaxLegMeters <= 0 {
		c.MaxLegMeters = d.MaxLegMeters
	}
	return c
}

// Service is stateless apart from its configuration and is safe for
// concurrent use when its GeoService is.
type Service struct {
	geo GeoService
	cfg Config
	log *slog.Logger
}

// NewService creates a planner. logger may be nil.
func NewService(geo GeoService, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{geo: geo, cfg: cfg.withDefaults(), log: logger}
}

var _ domain.ItineraryPlanner = (*Service)(nil)

// CalculateTransitBetween routes from the end of one activity to the start of
// the next. Every failure wraps domain.ErrRouting.
func (s *Service) CalculateTransitBetween(ctx context.Context, from, to domain.Activity) (domain.Transit, error) {
	origin, err := s.resolve(ctx, from.Location)
	if err != nil {
		return domain.Transit{}, fmt.Errorf("%w: locate %q: %v", domain.ErrRouting, from.Location.Name, err)
	}
	dest, err := s.resolve(ctx, to.Location)
	if err != nil {
		return domain.Transit{}, fmt.Errorf("%w: locate %q: %v", domain.ErrRouting, to.Location.Name, err)
	}

	if *origin.Coordinates == *dest.Coordinates {
		return domain.NewTransitBetween(from, to, domain.ModeWalking, domain.RouteInfo{}, s.cfg.Currency), nil
	}

	mode := s.chooseMode(ctx, origin, dest)
	route, err := s.geo.GetRoute(ctx, origin, dest, mode)
	if err != nil {
		return domain.Transit{}, fmt.Errorf("%w: route %q to %q: %v", domain.ErrRouting, origin.Name, dest.Name, err)
	}
	if route.IsEmpty() {
		return domain.Transit{}, fmt.Errorf("%w: no %s route from %q to %q", domain.ErrRouting, mode, origin.Name, dest.Name)
	}
	return domain.NewTransitBetween(from, to, mode, route, s.cfg.Currency), nil
}

// resolve returns loc with coordinates, geocoding by address and then by name
// when they are missing.
func (s *Service) resolve(ctx context.Context, loc domain.Location) (domain.Location, error) {
	if loc.HasCoordinates() {
		return loc, nil
	}
	queries := []string{loc.Address, loc.Name}
	var lastErr error = domain.ErrNotFound
	for _, q := range queries {
		if q == "" {
			continue
		}
		g, err := s.geo.Geocode(ctx, q)
		if err != nil {
			lastErr = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			continue
		}
		if g.HasCoordinates() {
			return loc.WithCoordinates(*g.Coordinates), nil
		}
	}
	return domain.Location{}, lastErr
}

func (s *Service) chooseMode(ctx context.Context, origin, dest domain.Location) domain.TransportMode {
	if s.cfg.DefaultMode != "" {
		return s.cfg.DefaultMode
	}
	meters, err := s.geo.CalculateDistance(ctx, origin, dest)
	if err != nil {
		s.log.DebugContext(ctx, "distance lookup failed, using haversine", "error", err)
		meters = domain.HaversineMeters(*origin.Coordinates, *dest.Coordinates)
	}
	switch {
	case meters <= s.cfg.WalkingMaxMeters:
		return domain.ModeWalking
	case meters <= s.cfg.TransitMaxMeters:
		return domain.ModeTransit
	default:
		return domain.ModeDriving
	}
}

type pair struct{ from, to uuid.UUID }

// ValidateFeasibility checks each consecutive pair of activities in the order
// given. Warnings are advisory.
func (s *Service) ValidateFeasibility(activities []domain.Activity, transits []domain.Transit) []domain.ItineraryWarning {
	legs := make(map[pair]domain.Transit, len(transits))
	for _, t := range transits {
		legs[pair{t.FromActivityID, t.ToActivityID}] = t
	}

	var warnings []domain.ItineraryWarning
	for i := 0; i+1 < len(activities); i++ {
		cur, next := activities[i], activities[i+1]
		if leg, ok := legs[pair{cur.ID, next.ID}]; ok {
			if leg.ArrivesAfter(next.StartTime) {
				warnings = append(warnings, domain.TimeConflictWarning(cur.ID, next.ID,
					fmt.Sprintf("arrives at %s by %s, after %q starts at %s", leg.ArrivalTime, leg.Mode, next.Name, next.StartTime)))
			}
			if leg.Route.DistanceMeters > s.cfg.MaxLegMeters {
				warnings = append(warnings, domain.UnreachableWarning(cur.ID, next.ID,
					fmt.Sprintf("%.0f km between %q and %q is not plausible within a day", leg.Route.DistanceKm(), cur.Name, next.Name)))
			}
			continue
		}

		gap := next.StartTime.Sub(cur.EndTime)
		switch {
		case gap < 0:
			warnings = append(warnings, domain.TimeConflictWarning(cur.ID, next.ID,
				fmt.Sprintf("%q overlaps %q by %s", cur.Name, next.Name, -gap)))
		case gap < s.cfg.MinTransferGap && !cur.Location.SamePlace(next.Location):
			warnings = append(warnings, domain.TightScheduleWarning(cur.ID, next.ID,
				fmt.Sprintf("only %s to get from %q to %q", gap, cur.Location.Name, next.Location.Name)))
		}
	}
	return warnings
}

// CalculateTransitsBetween routes every consecutive pair in start-time order
// and validates the result.
func (s *Service) CalculateTransitsBetween(ctx context.Context, activities []domain.Activity) domain.TransitCalculationResult {
	sorted := append([]domain.Activity(nil), activities...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })

	var result domain.TransitCalculationResult
	for i := 0; i+1 < len(sorted); i++ {
		from, to := sorted[i], sorted[i+1]
		t, err := s.CalculateTransitBetween(ctx, from, to)
		if err != nil {
			s.log.DebugContext(ctx, "transit calculation failed", "from", from.ID, "to", to.ID, "error", err)
			result.AddWarnings(domain.UnreachableWarning(from.ID, to.ID, err.Error()))
			continue
		}
		result.AddTransit(t)
	}
	result.AddWarnings(s.ValidateFeasibility(sorted, result.Transits)...)
	return result
}
