package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced trip, member, activity or day does
// not exist. Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a value object is malformed (empty name,
// end date before start date, negative money, unknown enum value).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrInvalidState is returned when an operation is attempted against a trip in
// an incompatible lifecycle state, e.g. editing a COMPLETED trip.
var ErrInvalidState = errors.New("invalid state")

// ErrInvariantViolation is returned when an operation would break a structural
// guarantee of the aggregate, e.g. removing or demoting the trip creator.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrPermission is returned when the acting user lacks the role the operation
// requires.
var ErrPermission = errors.New("permission denied")

// ErrRouting is returned by itinerary planners when the geo/routing provider
// failed or produced no usable route. The Trip aggregate never lets it escape
// an itinerary mutation; it is downgraded to an ItineraryWarning instead.
var ErrRouting = errors.New("routing failure")

// ErrConcurrentModification is returned by repositories when a trip was saved
// by someone else since it was loaded. Handlers should map this to HTTP 409.
var ErrConcurrentModification = errors.New("concurrent modification")

// Refinements of the kinds above. errors.Is matches both the refinement and
// its kind, so callers can branch on whichever is more convenient.
var (
	ErrDuplicateMember  = fmt.Errorf("%w: duplicate member", ErrInvariantViolation)
	ErrInvalidDayIndex  = fmt.Errorf("%w: invalid day index", ErrNotFound)
	ErrCurrencyMismatch = fmt.Errorf("%w: currency mismatch", ErrValidation)
)
