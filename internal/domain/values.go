package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTripNameLen        = 100
	maxTripDescriptionLen = 2000
)

// TripName is a validated, trimmed trip title.
type TripName string

// NewTripName rejects blank names and names longer than 100 characters.
func NewTripName(s string) (TripName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(s) > maxTripNameLen {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrValidation, maxTripNameLen)
	}
	return TripName(s), nil
}

// TripDescription is free text; empty is allowed.
type TripDescription string

func NewTripDescription(s string) (TripDescription, error) {
	if utf8.RuneCountInString(s) > maxTripDescriptionLen {
		return "", fmt.Errorf("%w: description must be at most %d characters", ErrValidation, maxTripDescriptionLen)
	}
	return TripDescription(s), nil
}

// DateRange is an inclusive range of calendar dates. Both ends are truncated to
// UTC midnight so day arithmetic never depends on the caller's time zone.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange returns ErrValidation when end is before start.
// A single-day trip (start == end) is valid.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s, e := toDate(start), toDate(end)
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("%w: end date must not be before start date", ErrValidation)
	}
	return DateRange{start: s, end: e}, nil
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time   { return r.end }

// Days returns the number of calendar days in the range, inclusive.
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start).Hours()/24) + 1
}

// Contains reports whether d falls on a date inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = toDate(d)
	return !d.Before(r.start) && !d.After(r.end)
}

func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusPlanning   TripStatus = "planning"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// ParseTripStatus accepts the lower-case wire form, case-insensitively.
func ParseTripStatus(s string) (TripStatus, error) {
	switch st := TripStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TripStatusPlanning, TripStatusInProgress, TripStatusCompleted, TripStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown trip status %q", ErrValidation, s)
}

// TripVisibility controls whether a trip appears in public listings.
type TripVisibility string

const (
	VisibilityPrivate TripVisibility = "private"
	VisibilityPublic  TripVisibility = "public"
)

func ParseTripVisibility(s string) (TripVisibility, error) {
	switch v := TripVisibility(strings.ToLower(strings.TrimSpace(s))); v {
	case VisibilityPrivate, VisibilityPublic:
		return v, nil
	case "":
		return VisibilityPrivate, nil
	}
	return "", fmt.Errorf("%w: unknown visibility %q", ErrValidation, s)
}

// MemberRole is a participant's role within one trip.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

func ParseMemberRole(s string) (MemberRole, error) {
	switch r := MemberRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleMember:
		return r, nil
	case "":
		return RoleMember, nil
	}
	return "", fmt.Errorf("%w: unknown member role %q", ErrValidation, s)
}

// ActivityType categorises an activity.
type ActivityType string

const (
	ActivitySightseeing   ActivityType = "sightseeing"
	ActivityDining        ActivityType = "dining"
	ActivityAccommodation ActivityType = "accommodation"
	ActivityTransport     ActivityType = "transport"
	ActivityShopping      ActivityType = "shopping"
	ActivityEntertainment ActivityType = "entertainment"
	ActivityOther         ActivityType = "other"
)

func ParseActivityType(s string) (ActivityType, error) {
	switch t := ActivityType(strings.ToLower(strings.TrimSpace(s))); t {
	case ActivitySightseeing, ActivityDining, ActivityAccommodation, ActivityTransport,
		ActivityShopping, ActivityEntertainment, ActivityOther:
		return t, nil
	case "":
		return ActivityOther, nil
	}
	return "", fmt.Errorf("%w: unknown activity type %q", ErrValidation, s)
}

// TransportMode is how a traveller moves between two activities.
type TransportMode string

const (
	ModeWalking TransportMode = "walking"
	ModeCycling TransportMode = "cycling"
	ModeTransit TransportMode = "transit"
	ModeDriving TransportMode = "driving"
	ModeTaxi    TransportMode = "taxi"
)

func ParseTransportMode(s string) (TransportMode, error) {
	switch m := TransportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWalking, ModeCycling, ModeTransit, ModeDriving, ModeTaxi:
		return m, nil
	case "bicycling":
		return ModeCycling, nil
	}
	return "", fmt.Errorf("%w: unknown transport mode %q", ErrValidation, s)
}
