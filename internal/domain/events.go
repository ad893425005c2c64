package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event raised by the Trip aggregate. Events queue up on
// the trip and are drained with Trip.PopEvents after the trip is saved.
type Event interface {
	// EventName is the routing key used by publishers, e.g. "trip.created".
	EventName() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

// EventMeta is embedded in every event.
type EventMeta struct {
	EventID uuid.UUID `json:"event_id"`
	TripID  uuid.UUID `json:"trip_id"`
	At      time.Time `json:"occurred_at"`
}

func newMeta(tripID uuid.UUID, at time.Time) EventMeta {
	return EventMeta{EventID: uuid.New(), TripID: tripID, At: at}
}

func (m EventMeta) OccurredAt() time.Time  { return m.At }
func (m EventMeta) AggregateID() uuid.UUID { return m.TripID }

type TripCreated struct {
	EventMeta
	CreatorID string    `json:"creator_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// TripUpdated lists the root fields that changed.
type TripUpdated struct {
	EventMeta
	Fields []string `json:"fields"`
}

type TripStarted struct {
	EventMeta
	CreatorID string `json:"creator_id"`
}

type TripCompleted struct {
	EventMeta
	CreatorID string `json:"creator_id"`
	Name      string `json:"name"`
}

type TripCancelled struct {
	EventMeta
	Reason string `json:"reason,omitempty"`
}

type TripMemberAdded struct {
	EventMeta
	UserID  string     `json:"user_id"`
	Role    MemberRole `json:"role"`
	AddedBy string     `json:"added_by"`
}

type TripMemberRemoved struct {
	EventMeta
	UserID    string `json:"user_id"`
	RemovedBy string `json:"removed_by"`
	Reason    string `json:"reason,omitempty"`
}

type TripMemberRoleChanged struct {
	EventMeta
	UserID  string     `json:"user_id"`
	OldRole MemberRole `json:"old_role"`
	NewRole MemberRole `json:"new_role"`
}

type ActivityAdded struct {
	EventMeta
	DayIndex     int       `json:"day_index"`
	ActivityID   uuid.UUID `json:"activity_id"`
	ActivityName string    `json:"activity_name"`
}

type ActivityUpdated struct {
	EventMeta
	DayIndex   int       `json:"day_index"`
	ActivityID uuid.UUID `json:"activity_id"`
}

type ActivityRemoved struct {
	EventMeta
	DayIndex   int       `json:"day_index"`
	ActivityID uuid.UUID `json:"activity_id"`
}

type ItineraryUpdated struct {
	EventMeta
	DayIndex      int `json:"day_index"`
	ActivityCount int `json:"activity_count"`
}

func (TripCreated) EventName() string           { return "trip.created" }
func (TripUpdated) EventName() string           { return "trip.updated" }
func (TripStarted) EventName() string           { return "trip.started" }
func (TripCompleted) EventName() string         { return "trip.completed" }
func (TripCancelled) EventName() string         { return "trip.cancelled" }
func (TripMemberAdded) EventName() string       { return "trip.member_added" }
func (TripMemberRemoved) EventName() string     { return "trip.member_removed" }
func (TripMemberRoleChanged) EventName() string { return "trip.member_role_changed" }
func (ActivityAdded) EventName() string         { return "trip.activity_added" }
func (ActivityUpdated) EventName() string       { return "trip.activity_updated" }
func (ActivityRemoved) EventName() string       { return "trip.activity_removed" }
func (ItineraryUpdated) EventName() string      { return "trip.itinerary_updated" }
