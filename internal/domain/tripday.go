package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TripDay is one calendar day of a trip. Activities are kept sorted by start
// time; activities that start at the same time keep their insertion order.
// Transits reference activities by ID and there is at most one transit per
// ordered (from, to) pair.
type TripDay struct {
	number     int
	date       time.Time
	theme      string
	notes      string
	activities []Activity
	transits   []Transit
}

// NewTripDay creates an empty day. number is 1-based.
func NewTripDay(number int, date time.Time) *TripDay {
	return &TripDay{number: number, date: toDate(date)}
}

// TripDaySnapshot is the persisted shape of a day.
type TripDaySnapshot struct {
	Number     int
	Date       time.Time
	Theme      string
	Notes      string
	Activities []Activity
	Transits   []Transit
}

// ReconstituteTripDay rebuilds a day from storage, restoring the sort order.
func ReconstituteTripDay(s TripDaySnapshot) *TripDay {
	d := NewTripDay(s.Number, s.Date)
	d.theme = s.Theme
	d.notes = s.Notes
	for _, a := range s.Activities {
		d.activities = append(d.activities, a.clone())
	}
	d.sortActivities()
	for _, t := range s.Transits {
		d.AddTransit(t)
	}
	return d
}

// Snapshot returns a deep copy of the day in its persisted shape.
func (d *TripDay) Snapshot() TripDaySnapshot {
	return TripDaySnapshot{
		Number:     d.number,
		Date:       d.date,
		Theme:      d.theme,
		Notes:      d.notes,
		Activities: d.Activities(),
		Transits:   d.Transits(),
	}
}

func (d *TripDay) Number() int     { return d.number }
func (d *TripDay) Date() time.Time { return d.date }
func (d *TripDay) Theme() string   { return d.theme }
func (d *TripDay) Notes() string   { return d.notes }

func (d *TripDay) UpdateTheme(theme string) { d.theme = theme }
func (d *TripDay) UpdateNotes(notes string) { d.notes = notes }

// Activities returns a copy of the day's activities in start-time order.
func (d *TripDay) Activities() []Activity {
	out := make([]Activity, len(d.activities))
	for i, a := range d.activities {
		out[i] = a.clone()
	}
	return out
}

// Transits returns a copy of the day's transits.
func (d *TripDay) Transits() []Transit {
	out := make([]Transit, len(d.transits))
	copy(out, d.transits)
	return out
}

func (d *TripDay) indexOf(id uuid.UUID) int {
	for i := range d.activities {
		if d.activities[i].ID == id {
			return i
		}
	}
	return -1
}

// FindActivity returns a copy of the activity with the given ID.
func (d *TripDay) FindActivity(id uuid.UUID) (Activity, bool) {
	i := d.indexOf(id)
	if i < 0 {
		return Activity{}, false
	}
	return d.activities[i].clone(), true
}

// PreviousActivity returns the activity sorted immediately before id.
func (d *TripDay) PreviousActivity(id uuid.UUID) (Activity, bool) {
	i := d.indexOf(id)
	if i <= 0 {
		return Activity{}, false
	}
	return d.activities[i-1].clone(), true
}

// NextActivity returns the activity sorted immediately after id.
func (d *TripDay) NextActivity(id uuid.UUID) (Activity, bool) {
	i := d.indexOf(id)
	if i < 0 || i == len(d.activities)-1 {
		return Activity{}, false
	}
	return d.activities[i+1].clone(), true
}

// insertPosition is the index of the first activity starting strictly after
// start, or len(activities) when none does.
func (d *TripDay) insertPosition(start TimeOfDay) int {
	return sort.Search(len(d.activities), func(i int) bool {
		return d.activities[i].StartTime.After(start)
	})
}

// neighboursFor returns the activities a new activity starting at start would
// sit between, evaluated on the current list.
func (d *TripDay) neighboursFor(start TimeOfDay) (pred, succ *Activity) {
	pos := d.insertPosition(start)
	if pos > 0 {
		p := d.activities[pos-1].clone()
		pred = &p
	}
	if pos < len(d.activities) {
		s := d.activities[pos].clone()
		succ = &s
	}
	return pred, succ
}

// AddActivity inserts a after every activity starting at or before it.
func (d *TripDay) AddActivity(a Activity) {
	pos := d.insertPosition(a.StartTime)
	d.activities = append(d.activities, Activity{})
	copy(d.activities[pos+1:], d.activities[pos:])
	d.activities[pos] = a.clone()
}

// RemoveActivity drops the activity and every transit that references it.
// It reports whether the activity existed.
func (d *TripDay) RemoveActivity(id uuid.UUID) bool {
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	d.activities = append(d.activities[:i], d.activities[i+1:]...)
	kept := d.transits[:0]
	for _, t := range d.transits {
		if !t.Connects(id) {
			kept = append(kept, t)
		}
	}
	d.transits = kept
	return true
}

// replaceActivity swaps the activity at i and restores the sort order.
func (d *TripDay) replaceActivity(i int, a Activity) {
	d.activities[i] = a.clone()
	d.sortActivities()
}

// ReplaceActivities swaps the whole list. Existing transits are dropped since
// they no longer describe the new sequence.
func (d *TripDay) ReplaceActivities(activities []Activity) {
	d.activities = make([]Activity, 0, len(activities))
	for _, a := range activities {
		d.activities = append(d.activities, a.clone())
	}
	d.sortActivities()
	d.transits = nil
}

func (d *TripDay) sortActivities() {
	sort.SliceStable(d.activities, func(i, j int) bool {
		return d.activities[i].StartTime.Before(d.activities[j].StartTime)
	})
}

// AddTransit stores t, replacing any existing transit for the same pair.
func (d *TripDay) AddTransit(t Transit) {
	for i := range d.transits {
		if d.transits[i].FromActivityID == t.FromActivityID && d.transits[i].ToActivityID == t.ToActivityID {
			d.transits[i] = t
			return
		}
	}
	d.transits = append(d.transits, t)
}

// TransitBetween returns the transit from one activity to another.
func (d *TripDay) TransitBetween(fromID, toID uuid.UUID) (Transit, bool) {
	for _, t := range d.transits {
		if t.FromActivityID == fromID && t.ToActivityID == toID {
			return t, true
		}
	}
	return Transit{}, false
}

// RemoveTransitBetween reports whether a transit was removed.
func (d *TripDay) RemoveTransitBetween(fromID, toID uuid.UUID) bool {
	for i, t := range d.transits {
		if t.FromActivityID == fromID && t.ToActivityID == toID {
			d.transits = append(d.transits[:i], d.transits[i+1:]...)
			return true
		}
	}
	return false
}

// TotalPlayTime is the sum of activity durations in minutes.
func (d *TripDay) TotalPlayTime() int {
	total := 0
	for _, a := range d.activities {
		total += a.DurationMinutes()
	}
	return total
}

// TotalTransitDistance is the sum of leg distances in meters.
func (d *TripDay) TotalTransitDistance() float64 {
	total := 0.0
	for _, t := range d.transits {
		total += t.Route.DistanceMeters
	}
	return total
}

// TotalTransitTime is the sum of leg durations in minutes.
func (d *TripDay) TotalTransitTime() int {
	seconds := 0
	for _, t := range d.transits {
		seconds += t.Route.DurationSeconds
	}
	return seconds / 60
}

func (d *TripDay) ActivityCost() (Money, error) {
	var total Money
	for _, a := range d.activities {
		next, err := total.Add(a.Cost)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

func (d *TripDay) TransitCost() (Money, error) {
	var total Money
	for _, t := range d.transits {
		next, err := total.Add(t.Cost)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

// TotalCost is ActivityCost plus TransitCost.
func (d *TripDay) TotalCost() (Money, error) {
	ac, err := d.ActivityCost()
	if err != nil {
		return Money{}, err
	}
	tc, err := d.TransitCost()
	if err != nil {
		return Money{}, err
	}
	return ac.Add(tc)
}

func (d *TripDay) clone() *TripDay {
	c := *d
	c.activities = d.Activities()
	c.transits = d.Transits()
	return &c
}
