package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/service"
)

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Budget      *Money `json:"budget"`
	Visibility  string `json:"visibility"`
}

// UpdateTripRequest is the body of PATCH /trips/{tripID}.
type UpdateTripRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
	Budget      *Money  `json:"budget"`
	ClearBudget bool    `json:"clear_budget"`
	Status      *string `json:"status"`
}

// CancelTripRequest is the optional body of POST /trips/{tripID}/cancel.
type CancelTripRequest struct {
	Reason string `json:"reason"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req CreateTripRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.createInput(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	trip, err := s.trips.CreateTrip(r.Context(), actor, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(trip))
}

func (s *Server) createInput(req CreateTripRequest) (service.CreateTripInput, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return service.CreateTripInput{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return service.CreateTripInput{}, err
	}
	in := service.CreateTripInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Visibility:  req.Visibility,
	}
	if req.Budget != nil {
		budget, err := s.moneyFromRequest(req.Budget)
		if err != nil {
			return service.CreateTripInput{}, err
		}
		in.Budget = &budget
	}
	return in, nil
}

// ListTrips handles GET /trips: the actor's own trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.listTrips(w, r, func(ctx context.Context, p domain.PaginationParams) ([]*domain.Trip, int64, error) {
		return s.trips.ListUserTrips(ctx, actor, p)
	})
}

// ListPublicTrips handles GET /trips/public.
func (s *Server) ListPublicTrips(w http.ResponseWriter, r *http.Request) {
	s.listTrips(w, r, s.trips.ListPublicTrips)
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request, list func(context.Context, domain.PaginationParams) ([]*domain.Trip, int64, error)) {
	q := r.URL.Query()
	params, err := domain.ParsePaginationParams(q.Get("page"), q.Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trips, total, err := list(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := make([]TripSummary, len(trips))
	for i, t := range trips {
		data[i] = tripToSummary(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data: data,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      int(total),
			TotalPages: params.TotalPages(total),
		},
	})
}

// GetTrip handles GET /trips/{tripID}. Anonymous callers see public trips only.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := s.trips.GetTrip(r.Context(), optionalActor(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PATCH /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	actor, id, err := tripTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req UpdateTripRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in := service.UpdateTripInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		ClearBudget: req.ClearBudget,
		Status:      req.Status,
	}
	if req.Budget != nil {
		budget, err := s.moneyFromRequest(req.Budget)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		in.Budget = &budget
	}

	trip, err := s.trips.UpdateTrip(r.Context(), actor, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// DeleteTrip handles DELETE /trips/{tripID}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	actor, id, err := tripTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.trips.DeleteTrip(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartTrip handles POST /trips/{tripID}/start.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.trips.StartTrip)
}

// CompleteTrip handles POST /trips/{tripID}/complete.
func (s *Server) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.trips.CompleteTrip)
}

// CancelTrip handles POST /trips/{tripID}/cancel with an optional reason.
func (s *Server) CancelTrip(w http.ResponseWriter, r *http.Request) {
	var req CancelTripRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.transition(w, r, func(ctx context.Context, actor string, id uuid.UUID) (*domain.Trip, error) {
		return s.trips.CancelTrip(ctx, actor, id, req.Reason)
	})
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, uuid.UUID) (*domain.Trip, error)) {
	actor, id, err := tripTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := fn(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// GetTripStatistics handles GET /trips/{tripID}/statistics.
func (s *Server) GetTripStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tripID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.trips.GetTripStatistics(r.Context(), optionalActor(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statisticsToResponse(stats))
}

// Geocode handles GET /geocode?address=.
func (s *Server) Geocode(w http.ResponseWriter, r *http.Request) {
	loc, err := s.trips.GeocodeLocation(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locationToResponse(loc))
}

func tripTarget(r *http.Request) (string, uuid.UUID, error) {
	actor, err := requireActor(r)
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := uuidParam(r, "tripID")
	if err != nil {
		return "", uuid.Nil, err
	}
	return actor, id, nil
}
