package domain

import (
	"context"

	"github.com/google/uuid"
)

// ItineraryPlanner computes transit legs and checks that a day's schedule is
// achievable. The Trip aggregate accepts one per call; a nil planner means no
// recalculation. Implementations live in internal/itinerary.
type ItineraryPlanner interface {
	// CalculateTransitBetween routes from one activity to the next. Failures
	// wrap ErrRouting.
	CalculateTransitBetween(ctx context.Context, from, to Activity) (Transit, error)
	// ValidateFeasibility checks each consecutive pair of activities.
	ValidateFeasibility(activities []Activity, transits []Transit) []ItineraryWarning
	// CalculateTransitsBetween routes every consecutive pair. Routing failures
	// become warnings in the result.
	CalculateTransitsBetween(ctx context.Context, activities []Activity) TransitCalculationResult
}

type WarningKind string

const (
	WarningUnreachable  WarningKind = "unreachable"
	WarningTimeConflict WarningKind = "time_conflict"
)

type WarningSeverity string

const (
	SeverityWarning WarningSeverity = "warning"
	SeverityInfo    WarningSeverity = "info"
)

// ItineraryWarning is advisory. It never blocks the change that produced it.
type ItineraryWarning struct {
	Kind           WarningKind     `json:"kind"`
	Severity       WarningSeverity `json:"severity"`
	FromActivityID uuid.UUID       `json:"from_activity_id"`
	ToActivityID   uuid.UUID       `json:"to_activity_id"`
	Message        string          `json:"message"`
}

func UnreachableWarning(from, to uuid.UUID, message string) ItineraryWarning {
	return ItineraryWarning{Kind: WarningUnreachable, Severity: SeverityWarning, FromActivityID: from, ToActivityID: to, Message: message}
}

func TimeConflictWarning(from, to uuid.UUID, message string) ItineraryWarning {
	return ItineraryWarning{Kind: WarningTimeConflict, Severity: SeverityWarning, FromActivityID: from, ToActivityID: to, Message: message}
}

// TightScheduleWarning is a time conflict at info severity: the gap exists
// but may be too short to move between two places.
func TightScheduleWarning(from, to uuid.UUID, message string) ItineraryWarning {
	w := TimeConflictWarning(from, to, message)
	w.Severity = SeverityInfo
	return w
}

// TransitCalculationResult collects the legs computed by one itinerary
// mutation and any warnings raised while computing or validating them.
type TransitCalculationResult struct {
	Transits []Transit
	Warnings []ItineraryWarning
}

func (r *TransitCalculationResult) AddTransit(t Transit) { r.Transits = append(r.Transits, t) }

func (r *TransitCalculationResult) AddWarnings(ws ...ItineraryWarning) {
	r.Warnings = append(r.Warnings, ws...)
}

func (r *TransitCalculationResult) HasWarnings() bool { return r != nil && len(r.Warnings) > 0 }
