// Package service contains the use-cases of the travel planner.
// Every mutating call loads the Trip aggregate, checks the actor's role,
// applies the change through the aggregate, saves it, then publishes the
// events the aggregate raised.
// No SQL lives here; services depend on repo interfaces.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/events"
	"github.com/maroonxv/travel-sharing/internal/itinerary"
	"github.com/maroonxv/travel-sharing/internal/repo"
)

// TravelService implements the trip use-cases.
type TravelService struct {
	trips   repo.TripRepo
	geo     itinerary.GeoService
	planner domain.ItineraryPlanner
	events  events.Publisher
	log     *slog.Logger
}

// NewTravelService wires the service. pub and logger may be nil; a nil
// publisher drops events.
func NewTravelService(trips repo.TripRepo, geo itinerary.GeoService, planner domain.ItineraryPlanner, pub events.Publisher, logger *slog.Logger) *TravelService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TravelService{trips: trips, geo: geo, planner: planner, events: pub, log: logger}
}

// CreateTripInput carries raw values from the transport layer.
type CreateTripInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Budget      *domain.Money
	Visibility  string
}

// CreateTrip validates the input and persists a new PLANNING trip owned by actor.
func (s *TravelService) CreateTrip(ctx context.Context, actor string, in CreateTripInput) (*domain.Trip, error) {
	name, err := domain.NewTripName(in.Name)
	if err != nil {
		return nil, err
	}
	desc, err := domain.NewTripDescription(in.Description)
	if err != nil {
		return nil, err
	}
	dates, err := domain.NewDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	visibility, err := domain.ParseTripVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}
	trip, err := domain.CreateTrip(name, desc, actor, dates, in.Budget, visibility)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, "CreateTrip", trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// GetTrip returns a trip the actor may see: any public trip, or a private
// trip the actor is a member of. Private trips are reported as not found to
// everyone else.
func (s *TravelService) GetTrip(ctx context.Context, actor string, id uuid.UUID) (*domain.Trip, error) {
	trip, err := s.load(ctx, "GetTrip", id)
	if err != nil {
		return nil, err
	}
	if !canView(trip, actor) {
		return nil, fmt.Errorf("service.TravelService.GetTrip: %w: trip %s", domain.ErrNotFound, id)
	}
	return trip, nil
}

// UpdateTripInput holds the root fields to change. Nil fields are left as
// they are. ClearBudget removes the budget and takes precedence over Budget.
type UpdateTripInput struct {
	Name        *string
	Description *string
	Visibility  *string
	Budget      *domain.Money
	ClearBudget bool
	Status      *string
}

// UpdateTrip applies root-field changes. Admins only.
func (s *TravelService) UpdateTrip(ctx context.Context, actor string, id uuid.UUID, in UpdateTripInput) (*domain.Trip, error) {
	trip, err := s.loadAsAdmin(ctx, "UpdateTrip", actor, id)
	if err != nil {
		return nil, err
	}

	// Parse everything before the first mutation so a bad field changes nothing.
	var (
		name       domain.TripName
		desc       domain.TripDescription
		visibility domain.TripVisibility
		status     domain.TripStatus
	)
	if in.Name != nil {
		if name, err = domain.NewTripName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		if desc, err = domain.NewTripDescription(*in.Description); err != nil {
			return nil, err
		}
	}
	if in.Visibility != nil {
		if visibility, err = domain.ParseTripVisibility(*in.Visibility); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if status, err = domain.ParseTripStatus(*in.Status); err != nil {
			return nil, err
		}
		if err := checkTransition(trip.Status(), status); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		if err := trip.UpdateName(name); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		trip.UpdateDescription(desc)
	}
	if in.Visibility != nil {
		if err := trip.UpdateVisibility(visibility); err != nil {
			return nil, err
		}
	}
	switch {
	case in.ClearBudget:
		trip.UpdateBudget(nil)
	case in.Budget != nil:
		trip.UpdateBudget(in.Budget)
	}
	if in.Status != nil {
		if err := transition(trip, status, ""); err != nil {
			return nil, err
		}
	}

	if err := s.commit(ctx, "UpdateTrip", trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// checkTransition rejects status changes the aggregate would refuse.
func checkTransition(from, to domain.TripStatus) error {
	ok := from == to
	switch to {
	case domain.TripStatusInProgress:
		ok = ok || from == domain.TripStatusPlanning
	case domain.TripStatusCompleted:
		ok = ok || from == domain.TripStatusInProgress
	case domain.TripStatusCancelled:
		ok = from != domain.TripStatusCompleted
	}
	if !ok {
		return fmt.Errorf("%w: cannot move a %s trip to %s", domain.ErrInvalidState, from, to)
	}
	return nil
}

func transition(trip *domain.Trip, to domain.TripStatus, reason string) error {
	if trip.Status() == to && to != domain.TripStatusCancelled {
		return nil
	}
	switch to {
	case domain.TripStatusInProgress:
		return trip.Start()
	case domain.TripStatusCompleted:
		return trip.Complete()
	case domain.TripStatusCancelled:
		return trip.Cancel(reason)
	}
	return fmt.Errorf("%w: cannot move a %s trip to %s", domain.ErrInvalidState, trip.Status(), to)
}

// DeleteTrip removes a trip. Only its creator may delete it.
func (s *TravelService) DeleteTrip(ctx context.Context, actor string, id uuid.UUID) error {
	trip, err := s.load(ctx, "DeleteTrip", id)
	if err != nil {
		return err
	}
	if trip.CreatorID() != actor {
		return fmt.Errorf("service.TravelService.DeleteTrip: %w: only the creator can delete a trip", domain.ErrPermission)
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TravelService.DeleteTrip: %w", err)
	}
	return nil
}

// ListUserTrips returns one page of the actor's trips and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TravelService) ListUserTrips(ctx context.Context, actor string, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
	trips, total, err := s.trips.ListByMember(ctx, actor, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TravelService.ListUserTrips: %w", err)
	}
	if trips == nil {
		trips = []*domain.Trip{}
	}
	return trips, total, nil
}

// ListPublicTrips returns one page of public trips and the total count.
func (s *TravelService) ListPublicTrips(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
	trips, total, err := s.trips.ListPublic(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TravelService.ListPublicTrips: %w", err)
	}
	if trips == nil {
		trips = []*domain.Trip{}
	}
	return trips, total, nil
}

// StartTrip moves a PLANNING trip to IN_PROGRESS. Admins only.
func (s *TravelService) StartTrip(ctx context.Context, actor string, id uuid.UUID) (*domain.Trip, error) {
	return s.mutateAsAdmin(ctx, "StartTrip", actor, id, (*domain.Trip).Start)
}

// CompleteTrip moves an IN_PROGRESS trip to COMPLETED. Admins only.
func (s *TravelService) CompleteTrip(ctx context.Context, actor string, id uuid.UUID) (*domain.Trip, error) {
	return s.mutateAsAdmin(ctx, "CompleteTrip", actor, id, (*domain.Trip).Complete)
}

// CancelTrip cancels a trip that is not completed. Admins only.
func (s *TravelService) CancelTrip(ctx context.Context, actor string, id uuid.UUID, reason string) (*domain.Trip, error) {
	return s.mutateAsAdmin(ctx, "CancelTrip", actor, id, func(t *domain.Trip) error {
		return t.Cancel(strings.TrimSpace(reason))
	})
}

// GetTripStatistics aggregates distance, time and cost for a visible trip.
func (s *TravelService) GetTripStatistics(ctx context.Context, actor string, id uuid.UUID) (domain.TripStatistics, error) {
	trip, err := s.GetTrip(ctx, actor, id)
	if err != nil {
		return domain.TripStatistics{}, err
	}
	stats, err := trip.GenerateStatistics()
	if err != nil {
		return domain.TripStatistics{}, fmt.Errorf("service.TravelService.GetTripStatistics: %w", err)
	}
	return stats, nil
}

// GeocodeLocation resolves a free-text address to a located place.
func (s *TravelService) GeocodeLocation(ctx context.Context, address string) (domain.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Location{}, fmt.Errorf("%w: address is required", domain.ErrValidation)
	}
	loc, err := s.geo.Geocode(ctx, address)
	if err != nil {
		return domain.Location{}, fmt.Errorf("service.TravelService.GeocodeLocation: %w", err)
	}
	return loc, nil
}

func canView(trip *domain.Trip, actor string) bool {
	return trip.Visibility() == domain.VisibilityPublic || trip.IsMember(actor)
}

func (s *TravelService) load(ctx context.Context, op string, id uuid.UUID) (*domain.Trip, error) {
	trip, err := s.trips.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.TravelService.%s: %w", op, err)
	}
	return trip, nil
}

func (s *TravelService) loadAsAdmin(ctx context.Context, op, actor string, id uuid.UUID) (*domain.Trip, error) {
	trip, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !trip.IsAdmin(actor) {
		return nil, fmt.Errorf("service.TravelService.%s: %w: admin role required", op, domain.ErrPermission)
	}
	return trip, nil
}

func (s *TravelService) loadAsMember(ctx context.Context, op, actor string, id uuid.UUID) (*domain.Trip, error) {
	trip, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !trip.IsMember(actor) {
		return nil, fmt.Errorf("service.TravelService.%s: %w: not a member of this trip", op, domain.ErrPermission)
	}
	return trip, nil
}

func (s *TravelService) mutateAsAdmin(ctx context.Context, op, actor string, id uuid.UUID, fn func(*domain.Trip) error) (*domain.Trip, error) {
	trip, err := s.loadAsAdmin(ctx, op, actor, id)
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

// commit saves the trip and publishes its pending events. A publish failure
// is logged; the change is already stored.
func (s *TravelService) commit(ctx context.Context, op string, trip *domain.Trip) error {
	if err := s.trips.Save(ctx, trip); err != nil {
		return fmt.Errorf("service.TravelService.%s: %w", op, err)
	}
	evs := trip.PopEvents()
	if len(evs) == 0 || s.events == nil {
		return nil
	}
	if err := s.events.Publish(ctx, evs...); err != nil {
		s.log.WarnContext(ctx, "publish trip events failed",
			"op", op,
			"trip_id", trip.ID(),
			"events", len(evs),
			"error", err,
		)
	}
	return nil
}
