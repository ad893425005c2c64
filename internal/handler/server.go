// Package handler exposes the travel planner over HTTP.
// Handlers are methods on Server, split into one file per resource. Each one
// decodes the request, calls the service on behalf of the acting user and maps
// domain errors to status codes in errors.go.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/service"
)

// TripServicer defines the use-cases the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	CreateTrip(ctx context.Context, actor string, in service.CreateTripInput) (*domain.Trip, error)
	GetTrip(ctx context.Context, actor string, id uuid.UUID) (*domain.Trip, error)
	UpdateTrip(ctx context.Context, actor string, id uuid.UUID, in service.UpdateTripInput) (*domain.Trip, error)
	DeleteTrip(ctx context.Context, actor string, id uuid.UUID) error
	ListUserTrips(ctx context.Context, actor string, p domain.PaginationParams) ([]*domain.Trip, int64, error)
	ListPublicTrips(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error)
	StartTrip(ctx context.Context, actor string, id uuid.UUID) (*domain.Trip, error)
	CompleteTrip(ctx context.Context, actor string, id uuid.UUID) (*domain.Trip, error)
	CancelTrip(ctx context.Context, actor string, id uuid.UUID, reason string) (*domain.Trip, error)
	GetTripStatistics(ctx context.Context, actor string, id uuid.UUID) (domain.TripStatistics, error)
	GeocodeLocation(ctx context.Context, address string) (domain.Location, error)
	ExportTrip(ctx context.Context, actor string, id uuid.UUID) ([]domain.ExportRow, error)

	AddMember(ctx context.Context, actor string, tripID uuid.UUID, userID, role, nickname string) (*domain.Trip, error)
	RemoveMember(ctx context.Context, actor string, tripID uuid.UUID, userID, reason string) (*domain.Trip, error)
	ChangeMemberRole(ctx context.Context, actor string, tripID uuid.UUID, userID, role string) (*domain.Trip, error)

	AddActivity(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, a domain.Activity) (service.ItineraryChange, error)
	ModifyActivity(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, activityID uuid.UUID, patch domain.ActivityPatch) (service.ItineraryChange, error)
	RemoveActivity(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, activityID uuid.UUID) (service.ItineraryChange, error)
	UpdateDayItinerary(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, activities []domain.Activity) (service.ItineraryChange, error)
	UpdateDayNotes(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, notes string) (*domain.Trip, error)
	UpdateDayTheme(ctx context.Context, actor string, tripID uuid.UUID, dayIndex int, theme string) (*domain.Trip, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips    TripServicer
	currency string
	log      *slog.Logger
}

// NewServer constructs the Server. currency is applied to request amounts that
// omit one; an empty value leaves the domain default in place.
func NewServer(trips TripServicer, currency string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{trips: trips, currency: currency, log: logger}
}

// Routes returns the API router. Cross-cutting middleware (request id, actor,
// logging, CORS, body limit) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/geocode", s.Geocode)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Get("/public", s.ListPublicTrips)

		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Patch("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)
			r.Post("/start", s.StartTrip)
			r.Post("/complete", s.CompleteTrip)
			r.Post("/cancel", s.CancelTrip)
			r.Get("/statistics", s.GetTripStatistics)
			r.Get("/export", s.ExportTrip)

			r.Post("/members", s.AddMember)
			r.Patch("/members/{userID}", s.ChangeMemberRole)
			r.Delete("/members/{userID}", s.RemoveMember)

			r.Patch("/days/{dayIndex}", s.UpdateDay)
			r.Put("/days/{dayIndex}/itinerary", s.UpdateDayItinerary)
			r.Post("/days/{dayIndex}/activities", s.AddActivity)
			r.Patch("/days/{dayIndex}/activities/{activityID}", s.ModifyActivity)
			r.Delete("/days/{dayIndex}/activities/{activityID}", s.RemoveActivity)
		})
	})

	return r
}
