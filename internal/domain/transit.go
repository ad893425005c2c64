package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transit is the computed leg between two activities of the same day.
// It references the activities by ID only and never owns them.
type Transit struct {
	ID             uuid.UUID
	FromActivityID uuid.UUID
	ToActivityID   uuid.UUID
	Mode           TransportMode
	Route          RouteInfo
	DepartureTime  TimeOfDay
	ArrivalTime    TimeOfDay
	Cost           Money
	Notes          string
}

// NewTransit builds a leg departing at departure. ArrivalTime is derived from
// the route duration. When cost is nil the tariff for mode and distance is used,
// priced in currency.
func NewTransit(fromID, toID uuid.UUID, mode TransportMode, route RouteInfo, departure TimeOfDay, cost *Money, currency string) Transit {
	t := Transit{
		ID:             uuid.New(),
		FromActivityID: fromID,
		ToActivityID:   toID,
		Mode:           mode,
		Route:          route,
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(time.Duration(route.DurationSeconds) * time.Second),
	}
	if cost != nil {
		t.Cost = *cost
	} else {
		t.Cost = EstimateTransitCost(mode, route.DistanceMeters, currency)
	}
	return t
}

// NewTransitBetween builds the leg from one activity to another, departing
// when from ends.
func NewTransitBetween(from, to Activity, mode TransportMode, route RouteInfo, currency string) Transit {
	return NewTransit(from.ID, to.ID, mode, route, from.EndTime, nil, currency)
}

// ArrivesAfter reports whether the leg, evaluated without wrapping at
// midnight, arrives later than t.
func (t Transit) ArrivesAfter(at TimeOfDay) bool {
	return t.DepartureTime.Seconds()+t.Route.DurationSeconds > at.Seconds()
}

// Connects reports whether the leg references the activity at either end.
func (t Transit) Connects(activityID uuid.UUID) bool {
	return t.FromActivityID == activityID || t.ToActivityID == activityID
}

// TransitPatch updates the user-overridable parts of a leg.
type TransitPatch struct {
	Mode  *TransportMode
	Route *RouteInfo
	Notes *string
}

// Update applies p. A new route re-derives the arrival time; a new mode or
// route re-prices the leg in its current currency.
func (t *Transit) Update(p TransitPatch) {
	if p.Mode != nil {
		t.Mode = *p.Mode
	}
	if p.Route != nil {
		t.Route = *p.Route
		t.ArrivalTime = t.DepartureTime.Add(time.Duration(p.Route.DurationSeconds) * time.Second)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Mode != nil || p.Route != nil {
		t.Cost = EstimateTransitCost(t.Mode, t.Route.DistanceMeters, t.Cost.Currency())
	}
}
