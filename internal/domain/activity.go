package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Activity is a single scheduled event on a trip day. Its ID is stable across
// updates. Start and end are wall-clock times on the owning day.
// Cost is the unset Money when the activity is free or unpriced.
type Activity struct {
	ID        uuid.UUID
	Name      string
	Type      ActivityType
	Location  Location
	StartTime TimeOfDay
	EndTime   TimeOfDay
	Cost      Money
	Notes     string
}

// NewActivity validates and creates an activity with a fresh ID.
func NewActivity(name string, typ ActivityType, loc Location, start, end TimeOfDay, cost Money, notes string) (Activity, error) {
	a := Activity{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Type:      typ,
		Location:  loc,
		StartTime: start,
		EndTime:   end,
		Cost:      cost,
		Notes:     notes,
	}
	if err := a.validate(); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// validate enforces the rules shared by NewActivity and Update.
//   - Name and location name must be non-empty.
//   - EndTime must be after StartTime.
func (a Activity) validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: activity name is required", ErrValidation)
	}
	if strings.TrimSpace(a.Location.Name) == "" {
		return fmt.Errorf("%w: activity location is required", ErrValidation)
	}
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	if a.Type == "" {
		return fmt.Errorf("%w: activity type is required", ErrValidation)
	}
	return nil
}

// Duration is the time between start and end.
func (a Activity) Duration() time.Duration { return a.EndTime.Sub(a.StartTime) }

// DurationMinutes truncates Duration to whole minutes.
func (a Activity) DurationMinutes() int { return int(a.Duration() / time.Minute) }

// ActivityPatch carries a partial update. Nil fields are left unchanged.
type ActivityPatch struct {
	Name      *string
	Type      *ActivityType
	Location  *Location
	StartTime *TimeOfDay
	EndTime   *TimeOfDay
	Cost      *Money
	Notes     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ActivityPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Location == nil && p.StartTime == nil &&
		p.EndTime == nil && p.Cost == nil && p.Notes == nil
}

// TouchesSchedule reports whether the patch can move the activity in the day.
func (p ActivityPatch) TouchesSchedule() bool {
	return p.StartTime != nil || p.EndTime != nil
}

// applied returns a copy of a with p applied, validated. a itself is untouched,
// so a failing patch has no effect.
func (p ActivityPatch) applied(a Activity) (Activity, error) {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Location != nil {
		a.Location = p.Location.clone()
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		a.EndTime = *p.EndTime
	}
	if p.Cost != nil {
		a.Cost = *p.Cost
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if err := a.validate(); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// Update applies p in place. On error a is unchanged.
func (a *Activity) Update(p ActivityPatch) error {
	next, err := p.applied(*a)
	if err != nil {
		return err
	}
	*a = next
	return nil
}

func (a Activity) clone() Activity {
	a.Location = a.Location.clone()
	return a
}
