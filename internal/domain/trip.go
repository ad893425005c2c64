// Package domain contains the Trip aggregate, its day/activity/transit
// entities, the value objects they are built from, and the domain events the
// aggregate raises. It performs no I/O; routing is delegated to an
// ItineraryPlanner supplied per call.
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxTripDays = 366

var now = func() time.Time { return time.Now().UTC() }

// Trip is the aggregate root. All changes to members, days, activities and
// transits go through its methods, and every failed method leaves the trip
// unchanged.
type Trip struct {
	id          uuid.UUID
	name        TripName
	description TripDescription
	creatorID   string
	dates       DateRange
	budget      *Money
	visibility  TripVisibility
	status      TripStatus
	days        []*TripDay
	members     []TripMember
	createdAt   time.Time
	updatedAt   time.Time
	version     int
	events      []Event
}

// CreateTrip starts a PLANNING trip with the creator as its only admin and one
// empty day per date in dates.
func CreateTrip(name TripName, description TripDescription, creatorID string, dates DateRange, budget *Money, visibility TripVisibility) (*Trip, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, fmt.Errorf("%w: creator_id is required", ErrValidation)
	}
	if dates.Start().IsZero() {
		return nil, fmt.Errorf("%w: date range is required", ErrValidation)
	}
	if dates.Days() > maxTripDays {
		return nil, fmt.Errorf("%w: trip must not exceed %d days", ErrValidation, maxTripDays)
	}
	if visibility == "" {
		visibility = VisibilityPrivate
	}
	if _, err := ParseTripVisibility(string(visibility)); err != nil {
		return nil, err
	}

	ts := now()
	t := &Trip{
		id:          uuid.New(),
		name:        name,
		description: description,
		creatorID:   creatorID,
		dates:       dates,
		budget:      copyMoney(budget),
		visibility:  visibility,
		status:      TripStatusPlanning,
		members:     []TripMember{{UserID: creatorID, Role: RoleAdmin, JoinedAt: ts}},
		createdAt:   ts,
		updatedAt:   ts,
	}
	for i := 0; i < dates.Days(); i++ {
		t.days = append(t.days, NewTripDay(i+1, dates.Start().AddDate(0, 0, i)))
	}
	t.record(TripCreated{
		EventMeta: newMeta(t.id, ts),
		CreatorID: creatorID,
		Name:      string(name),
		StartDate: dates.Start(),
		EndDate:   dates.End(),
	})
	return t, nil
}

// TripSnapshot is the persisted shape of a trip.
type TripSnapshot struct {
	ID          uuid.UUID
	Name        TripName
	Description TripDescription
	CreatorID   string
	Dates       DateRange
	Budget      *Money
	Visibility  TripVisibility
	Status      TripStatus
	Members     []TripMember
	Days        []TripDaySnapshot
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int
}

// ReconstituteTrip rebuilds a trip from storage. No events are raised.
func ReconstituteTrip(s TripSnapshot) *Trip {
	t := &Trip{
		id:          s.ID,
		name:        s.Name,
		description: s.Description,
		creatorID:   s.CreatorID,
		dates:       s.Dates,
		budget:      copyMoney(s.Budget),
		visibility:  s.Visibility,
		status:      s.Status,
		members:     append([]TripMember(nil), s.Members...),
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
		version:     s.Version,
	}
	for _, d := range s.Days {
		t.days = append(t.days, ReconstituteTripDay(d))
	}
	return t
}

// Snapshot returns a deep copy of the trip in its persisted shape.
func (t *Trip) Snapshot() TripSnapshot {
	s := TripSnapshot{
		ID:          t.id,
		Name:        t.name,
		Description: t.description,
		CreatorID:   t.creatorID,
		Dates:       t.dates,
		Budget:      copyMoney(t.budget),
		Visibility:  t.visibility,
		Status:      t.status,
		Members:     t.Members(),
		CreatedAt:   t.createdAt,
		UpdatedAt:   t.updatedAt,
		Version:     t.version,
	}
	for _, d := range t.days {
		s.Days = append(s.Days, d.Snapshot())
	}
	return s
}

func (t *Trip) ID() uuid.UUID                { return t.id }
func (t *Trip) Name() TripName               { return t.name }
func (t *Trip) Description() TripDescription { return t.description }
func (t *Trip) CreatorID() string            { return t.creatorID }
func (t *Trip) DateRange() DateRange         { return t.dates }
func (t *Trip) Visibility() TripVisibility   { return t.visibility }
func (t *Trip) Status() TripStatus           { return t.status }
func (t *Trip) CreatedAt() time.Time         { return t.createdAt }
func (t *Trip) UpdatedAt() time.Time         { return t.updatedAt }
func (t *Trip) TotalDays() int               { return len(t.days) }
func (t *Trip) MemberCount() int             { return len(t.members) }

// Budget returns a copy of the budget, or nil when none is set.
func (t *Trip) Budget() *Money { return copyMoney(t.budget) }

// Version is the persisted revision the trip was loaded at.
func (t *Trip) Version() int { return t.version }

// SetVersion is called by repositories after a successful save.
func (t *Trip) SetVersion(v int) { t.version = v }

// Members returns a copy of the member list.
func (t *Trip) Members() []TripMember {
	return append([]TripMember(nil), t.members...)
}

// Days returns copies of all days in date order.
func (t *Trip) Days() []*TripDay {
	out := make([]*TripDay, len(t.days))
	for i, d := range t.days {
		out[i] = d.clone()
	}
	return out
}

// Day returns a copy of the day at a 0-based index.
func (t *Trip) Day(index int) (*TripDay, error) {
	if index < 0 || index >= len(t.days) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidDayIndex, index, len(t.days))
	}
	return t.days[index].clone(), nil
}

// DayByDate returns a copy of the day falling on date and its index.
func (t *Trip) DayByDate(date time.Time) (*TripDay, int, bool) {
	d := toDate(date)
	for i, day := range t.days {
		if day.date.Equal(d) {
			return day.clone(), i, true
		}
	}
	return nil, -1, false
}

func (t *Trip) findMember(userID string) int {
	for i := range t.members {
		if t.members[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (t *Trip) IsMember(userID string) bool { return t.findMember(userID) >= 0 }

func (t *Trip) IsAdmin(userID string) bool {
	i := t.findMember(userID)
	return i >= 0 && t.members[i].IsAdmin()
}

// Member returns the member with the given user ID.
func (t *Trip) Member(userID string) (TripMember, bool) {
	i := t.findMember(userID)
	if i < 0 {
		return TripMember{}, false
	}
	return t.members[i], true
}

// AddMember adds a participant. addedBy defaults to the creator when empty.
func (t *Trip) AddMember(userID string, role MemberRole, addedBy, nickname string) error {
	if role == "" {
		role = RoleMember
	}
	ts := now()
	m, err := NewTripMember(userID, role, nickname, ts)
	if err != nil {
		return err
	}
	if t.IsMember(m.UserID) {
		return fmt.Errorf("%w: %s", ErrDuplicateMember, m.UserID)
	}
	if t.status == TripStatusCompleted || t.status == TripStatusCancelled {
		return fmt.Errorf("%w: cannot add members to a %s trip", ErrInvalidState, t.status)
	}
	if addedBy == "" {
		addedBy = t.creatorID
	}
	t.members = append(t.members, m)
	t.touch(ts)
	t.record(TripMemberAdded{EventMeta: newMeta(t.id, ts), UserID: m.UserID, Role: role, AddedBy: addedBy})
	return nil
}

// RemoveMember removes a participant. Only admins may remove members and the
// creator can never be removed.
func (t *Trip) RemoveMember(userID, removedBy, reason string) error {
	if !t.IsAdmin(removedBy) {
		return fmt.Errorf("%w: only admins can remove members", ErrPermission)
	}
	if userID == t.creatorID {
		return fmt.Errorf("%w: cannot remove the trip creator", ErrInvariantViolation)
	}
	i := t.findMember(userID)
	if i < 0 {
		return fmt.Errorf("%w: member %s", ErrNotFound, userID)
	}
	ts := now()
	t.members = append(t.members[:i], t.members[i+1:]...)
	t.touch(ts)
	t.record(TripMemberRemoved{EventMeta: newMeta(t.id, ts), UserID: userID, RemovedBy: removedBy, Reason: reason})
	return nil
}

// ChangeMemberRole sets a member's role. The creator cannot be demoted.
func (t *Trip) ChangeMemberRole(userID string, role MemberRole, changedBy string) error {
	if role != RoleAdmin && role != RoleMember {
		return fmt.Errorf("%w: unknown member role %q", ErrValidation, role)
	}
	if !t.IsAdmin(changedBy) {
		return fmt.Errorf("%w: only admins can change member roles", ErrPermission)
	}
	i := t.findMember(userID)
	if i < 0 {
		return fmt.Errorf("%w: member %s", ErrNotFound, userID)
	}
	if userID == t.creatorID && role != RoleAdmin {
		return fmt.Errorf("%w: cannot demote the trip creator", ErrInvariantViolation)
	}
	old := t.members[i].Role
	if old == role {
		return nil
	}
	ts := now()
	t.members[i].Role = role
	t.touch(ts)
	t.record(TripMemberRoleChanged{EventMeta: newMeta(t.id, ts), UserID: userID, OldRole: old, NewRole: role})
	return nil
}

// Start moves a PLANNING trip to IN_PROGRESS.
func (t *Trip) Start() error {
	if t.status != TripStatusPlanning {
		return fmt.Errorf("%w: cannot start a %s trip", ErrInvalidState, t.status)
	}
	ts := now()
	t.status = TripStatusInProgress
	t.touch(ts)
	t.record(TripStarted{EventMeta: newMeta(t.id, ts), CreatorID: t.creatorID})
	return nil
}

// Complete moves an IN_PROGRESS trip to COMPLETED.
func (t *Trip) Complete() error {
	if t.status != TripStatusInProgress {
		return fmt.Errorf("%w: cannot complete a %s trip", ErrInvalidState, t.status)
	}
	ts := now()
	t.status = TripStatusCompleted
	t.touch(ts)
	t.record(TripCompleted{EventMeta: newMeta(t.id, ts), CreatorID: t.creatorID, Name: string(t.name)})
	return nil
}

// Cancel moves a PLANNING or IN_PROGRESS trip to CANCELLED. Cancelling a
// cancelled trip does nothing.
func (t *Trip) Cancel(reason string) error {
	switch t.status {
	case TripStatusCompleted:
		return fmt.Errorf("%w: cannot cancel a completed trip", ErrInvalidState)
	case TripStatusCancelled:
		return nil
	}
	ts := now()
	t.status = TripStatusCancelled
	t.touch(ts)
	t.record(TripCancelled{EventMeta: newMeta(t.id, ts), Reason: reason})
	return nil
}

func (t *Trip) UpdateName(name TripName) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if name == t.name {
		return nil
	}
	ts := now()
	t.name = name
	t.touch(ts)
	t.record(TripUpdated{EventMeta: newMeta(t.id, ts), Fields: []string{"name"}})
	return nil
}

func (t *Trip) UpdateDescription(description TripDescription) {
	if description == t.description {
		return
	}
	t.description = description
	t.touch(now())
}

func (t *Trip) UpdateVisibility(visibility TripVisibility) error {
	if _, err := ParseTripVisibility(string(visibility)); err != nil || visibility == "" {
		return fmt.Errorf("%w: unknown visibility %q", ErrValidation, visibility)
	}
	if visibility == t.visibility {
		return nil
	}
	t.visibility = visibility
	t.touch(now())
	return nil
}

// UpdateBudget replaces the budget; nil clears it.
func (t *Trip) UpdateBudget(budget *Money) {
	switch {
	case budget == nil && t.budget == nil:
		return
	case budget != nil && t.budget != nil && budget.Equal(*t.budget):
		return
	}
	t.budget = copyMoney(budget)
	t.touch(now())
}

// editableDay returns the live day at index for a mutation.
func (t *Trip) editableDay(index int) (*TripDay, error) {
	if index < 0 || index >= len(t.days) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidDayIndex, index, len(t.days))
	}
	if t.status == TripStatusCompleted {
		return nil, fmt.Errorf("%w: cannot modify a completed trip", ErrInvalidState)
	}
	return t.days[index], nil
}

// AddActivity inserts a into the day. With a planner, the leg from the
// activity it now follows is computed; if it lands between two activities the
// old leg between them is dropped and the leg to the next one is computed too.
// Routing failures are returned as warnings. The result is nil when planner
// is nil.
func (t *Trip) AddActivity(ctx context.Context, dayIndex int, a Activity, planner ItineraryPlanner) (*TransitCalculationResult, error) {
	day, err := t.editableDay(dayIndex)
	if err != nil {
		return nil, err
	}
	if err := checkActivity(a); err != nil {
		return nil, err
	}
	if day.indexOf(a.ID) >= 0 {
		return nil, fmt.Errorf("%w: activity %s already scheduled", ErrInvariantViolation, a.ID)
	}

	pred, succ := day.neighboursFor(a.StartTime)
	day.AddActivity(a)
	ts := now()
	t.touch(ts)

	var result *TransitCalculationResult
	if planner != nil {
		result = &TransitCalculationResult{}
		window := []Activity{a}
		if pred != nil {
			window = append([]Activity{*pred}, window...)
			if succ != nil {
				day.RemoveTransitBetween(pred.ID, succ.ID)
			}
			planLeg(ctx, day, planner, *pred, a, result)
			if succ != nil {
				window = append(window, *succ)
				planLeg(ctx, day, planner, a, *succ, result)
			}
		}
		if len(window) > 1 {
			result.AddWarnings(planner.ValidateFeasibility(window, day.Transits())...)
		}
	}

	t.record(ActivityAdded{EventMeta: newMeta(t.id, ts), DayIndex: dayIndex, ActivityID: a.ID, ActivityName: a.Name})
	return result, nil
}

// ModifyActivity applies patch to an activity. With a planner, the legs to
// and from its neighbours before the change are recomputed and the whole day
// is checked for feasibility.
func (t *Trip) ModifyActivity(ctx context.Context, dayIndex int, activityID uuid.UUID, patch ActivityPatch, planner ItineraryPlanner) (*TransitCalculationResult, error) {
	day, err := t.editableDay(dayIndex)
	if err != nil {
		return nil, err
	}
	i := day.indexOf(activityID)
	if i < 0 {
		return nil, fmt.Errorf("%w: activity %s", ErrNotFound, activityID)
	}
	updated, err := patch.applied(day.activities[i])
	if err != nil {
		return nil, err
	}

	pred, hasPred := day.PreviousActivity(activityID)
	succ, hasSucc := day.NextActivity(activityID)
	day.replaceActivity(i, updated)
	ts := now()
	t.touch(ts)

	var result *TransitCalculationResult
	if planner != nil {
		result = &TransitCalculationResult{}
		if hasPred {
			planLeg(ctx, day, planner, pred, updated, result)
		}
		if hasSucc {
			planLeg(ctx, day, planner, updated, succ, result)
		}
		result.AddWarnings(planner.ValidateFeasibility(day.Activities(), day.Transits())...)
	}

	t.record(ActivityUpdated{EventMeta: newMeta(t.id, ts), DayIndex: dayIndex, ActivityID: activityID})
	return result, nil
}

// RemoveActivity deletes an activity and its legs. Removing an unknown
// activity is a no-op that returns nil, nil. With a planner, the gap left
// behind is bridged by a leg from the previous to the next activity.
func (t *Trip) RemoveActivity(ctx context.Context, dayIndex int, activityID uuid.UUID, planner ItineraryPlanner) (*TransitCalculationResult, error) {
	day, err := t.editableDay(dayIndex)
	if err != nil {
		return nil, err
	}
	if day.indexOf(activityID) < 0 {
		return nil, nil
	}

	pred, hasPred := day.PreviousActivity(activityID)
	succ, hasSucc := day.NextActivity(activityID)
	day.RemoveActivity(activityID)
	ts := now()
	t.touch(ts)

	var result *TransitCalculationResult
	if planner != nil {
		result = &TransitCalculationResult{}
		if hasPred && hasSucc {
			if planLeg(ctx, day, planner, pred, succ, result) {
				result.AddWarnings(planner.ValidateFeasibility([]Activity{pred, succ}, day.Transits())...)
			}
		}
	}

	t.record(ActivityRemoved{EventMeta: newMeta(t.id, ts), DayIndex: dayIndex, ActivityID: activityID})
	return result, nil
}

// UpdateDayItinerary replaces every activity of a day. With a planner and at
// least two activities, a leg is computed for each consecutive pair.
func (t *Trip) UpdateDayItinerary(ctx context.Context, dayIndex int, activities []Activity, planner ItineraryPlanner) (*TransitCalculationResult, error) {
	day, err := t.editableDay(dayIndex)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(activities))
	for _, a := range activities {
		if err := checkActivity(a); err != nil {
			return nil, err
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("%w: activity %s listed twice", ErrValidation, a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	day.ReplaceActivities(activities)
	ts := now()
	t.touch(ts)

	var result *TransitCalculationResult
	if planner != nil {
		result = &TransitCalculationResult{}
		if len(activities) >= 2 {
			batch := planner.CalculateTransitsBetween(ctx, day.Activities())
			for _, tr := range batch.Transits {
				day.AddTransit(tr)
			}
			*result = batch
		}
	}

	t.record(ItineraryUpdated{EventMeta: newMeta(t.id, ts), DayIndex: dayIndex, ActivityCount: len(activities)})
	return result, nil
}

func (t *Trip) UpdateDayNotes(dayIndex int, notes string) error {
	day, err := t.editableDay(dayIndex)
	if err != nil {
		return err
	}
	day.UpdateNotes(notes)
	t.touch(now())
	return nil
}

func (t *Trip) UpdateDayTheme(dayIndex int, theme string) error {
	day, err := t.editableDay(dayIndex)
	if err != nil {
		return err
	}
	day.UpdateTheme(theme)
	t.touch(now())
	return nil
}

// planLeg computes and stores one leg, downgrading a routing failure to an
// unreachable warning. It reports whether a leg was stored.
func planLeg(ctx context.Context, day *TripDay, planner ItineraryPlanner, from, to Activity, result *TransitCalculationResult) bool {
	tr, err := planner.CalculateTransitBetween(ctx, from, to)
	if err != nil {
		result.AddWarnings(UnreachableWarning(from.ID, to.ID, err.Error()))
		return false
	}
	day.AddTransit(tr)
	result.AddTransit(tr)
	return true
}

func checkActivity(a Activity) error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("%w: activity id is required", ErrValidation)
	}
	return a.validate()
}

// CalculateTotalCost sums activity and transit costs over every day.
func (t *Trip) CalculateTotalCost() (Money, error) {
	var total Money
	for _, d := range t.days {
		c, err := d.TotalCost()
		if err != nil {
			return Money{}, err
		}
		if total, err = total.Add(c); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// IsWithinBudget reports whether the total cost does not exceed the budget.
// A trip without a budget is always within it.
func (t *Trip) IsWithinBudget() (bool, error) {
	if t.budget == nil {
		return true, nil
	}
	total, err := t.CalculateTotalCost()
	if err != nil {
		return false, err
	}
	over, err := total.GreaterThan(*t.budget)
	if err != nil {
		return false, err
	}
	return !over, nil
}

// CanBeEditedBy reports whether userID is a member of a trip that is still
// open for changes.
func (t *Trip) CanBeEditedBy(userID string) bool {
	if t.status == TripStatusCompleted || t.status == TripStatusCancelled {
		return false
	}
	return t.IsMember(userID)
}

// PopEvents returns the queued events and clears the queue.
func (t *Trip) PopEvents() []Event {
	ev := t.events
	t.events = nil
	return ev
}

func (t *Trip) touch(ts time.Time) { t.updatedAt = ts }

func (t *Trip) record(e Event) { t.events = append(t.events, e) }

func copyMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
