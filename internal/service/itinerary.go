package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// ItineraryChange is returned by every itinerary mutation. Result is never
// nil; it holds the legs computed by the change and any warnings.
type ItineraryChange struct {
	Trip   *domain.Trip
	Result *domain.TransitCalculationResult
}

// AddActivity inserts an activity into a day. Members only. A location
// without coordinates is geocoded first when possible.
func (s *TravelService) AddActivity(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, a domain.Activity) (ItineraryChange, error) {
	trip, err := s.loadAsMember(ctx, "AddActivity", actor, tripID)
	if err != nil {
		return ItineraryChange{}, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Location = s.locate(ctx, a.Location)

	res, err := trip.AddActivity(ctx, dayIndex, a, s.planner)
	if err != nil {
		return ItineraryChange{}, err
	}
	return s.finish(ctx, "AddActivity", trip, dayIndex, res)
}

// ModifyActivity applies patch to one activity. Members only.
func (s *TravelService) ModifyActivity(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, activityID uuid.UUID, patch domain.ActivityPatch) (ItineraryChange, error) {
	trip, err := s.loadAsMember(ctx, "ModifyActivity", actor, tripID)
	if err != nil {
		return ItineraryChange{}, err
	}
	if patch.Location != nil {
		loc := s.locate(ctx, *patch.Location)
		patch.Location = &loc
	}

	res, err := trip.ModifyActivity(ctx, dayIndex, activityID, patch, s.planner)
	if err != nil {
		return ItineraryChange{}, err
	}
	return s.finish(ctx, "ModifyActivity", trip, dayIndex, res)
}

// RemoveActivity deletes an activity and bridges its neighbours. Members only.
// Removing an unknown activity is a no-op.
func (s *TravelService) RemoveActivity(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, activityID uuid.UUID) (ItineraryChange, error) {
	trip, err := s.loadAsMember(ctx, "RemoveActivity", actor, tripID)
	if err != nil {
		return ItineraryChange{}, err
	}
	res, err := trip.RemoveActivity(ctx, dayIndex, activityID, s.planner)
	if err != nil {
		return ItineraryChange{}, err
	}
	return s.finish(ctx, "RemoveActivity", trip, dayIndex, res)
}

// UpdateDayItinerary replaces a day's activities and recomputes every leg.
// Members only.
func (s *TravelService) UpdateDayItinerary(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, activities []domain.Activity) (ItineraryChange, error) {
	trip, err := s.loadAsMember(ctx, "UpdateDayItinerary", actor, tripID)
	if err != nil {
		return ItineraryChange{}, err
	}
	located := make([]domain.Activity, len(activities))
	for i, a := range activities {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.Location = s.locate(ctx, a.Location)
		located[i] = a
	}

	res, err := trip.UpdateDayItinerary(ctx, dayIndex, located, s.planner)
	if err != nil {
		return ItineraryChange{}, err
	}
	return s.finish(ctx, "UpdateDayItinerary", trip, dayIndex, res)
}

// UpdateDayNotes sets the free-text notes of a day. Members only.
func (s *TravelService) UpdateDayNotes(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, notes string) (*domain.Trip, error) {
	return s.mutateDay(ctx, "UpdateDayNotes", actor, tripID, func(t *domain.Trip) error {
		return t.UpdateDayNotes(dayIndex, notes)
	})
}

// UpdateDayTheme sets the theme of a day. Members only.
func (s *TravelService) UpdateDayTheme(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, theme string) (*domain.Trip, error) {
	return s.mutateDay(ctx, "UpdateDayTheme", actor, tripID, func(t *domain.Trip) error {
		return t.UpdateDayTheme(dayIndex, theme)
	})
}

func (s *TravelService) mutateDay(ctx context.Context, op, actor string, tripID uuid.UUID, fn func(*domain.Trip) error) (*domain.Trip, error) {
	trip, err := s.loadAsMember(ctx, op, actor, tripID)
	if err != nil {
		return nil, err
	}
	if err := fn(trip); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, op, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// locate pins coordinates on loc through the geo service. Lookup failures
// leave loc as it is; the planner will try again when routing.
func (s *TravelService) locate(ctx context.Context, loc domain.Location) domain.Location {
	if loc.HasCoordinates() || s.geo == nil {
		return loc
	}
	found, err := s.geo.Geocode(ctx, loc.GeocodeQuery())
	if err != nil || !found.HasCoordinates() {
		s.log.DebugContext(ctx, "geocode activity location failed", "location", loc.Name, "error", err)
		return loc
	}
	if loc.Address == "" {
		loc.Address = found.Address
	}
	return loc.WithCoordinates(*found.Coordinates)
}

func (s *TravelService) finish(ctx context.Context, op string, trip *domain.Trip, dayIndex int, res *domain.TransitCalculationResult) (ItineraryChange, error) {
	if res == nil {
		res = &domain.TransitCalculationResult{}
	}
	if res.HasWarnings() {
		s.log.DebugContext(ctx, "itinerary warnings",
			"op", op,
			"trip_id", trip.ID(),
			"day_index", dayIndex,
			"warnings", len(res.Warnings),
		)
	}
	if err := s.commit(ctx, op, trip); err != nil {
		return ItineraryChange{}, err
	}
	return ItineraryChange{Trip: trip, Result: res}, nil
}

