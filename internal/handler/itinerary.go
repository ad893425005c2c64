package handler

import (
	"fmt"
	"net/http"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/service"
)

// UpdateDayRequest is the body of PATCH /trips/{tripID}/days/{dayIndex}.
type UpdateDayRequest struct {
	Notes *string `json:"notes"`
	Theme *string `json:"theme"`
}

// DayItineraryRequest is the body of PUT /trips/{tripID}/days/{dayIndex}/itinerary.
type DayItineraryRequest struct {
	Activities []ActivityRequest `json:"activities"`
}

// UpdateDay handles PATCH /trips/{tripID}/days/{dayIndex}.
func (s *Server) UpdateDay(w http.ResponseWriter, r *http.Request) {
	t, err := parseDayTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req UpdateDayRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Notes == nil && req.Theme == nil {
		s.writeError(w, r, fmt.Errorf("%w: notes or theme is required", domain.ErrValidation))
		return
	}

	var trip *domain.Trip
	if req.Notes != nil {
		if trip, err = s.trips.UpdateDayNotes(r.Context(), t.actor, t.tripID, t.day, *req.Notes); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Theme != nil {
		if trip, err = s.trips.UpdateDayTheme(r.Context(), t.actor, t.tripID, t.day, *req.Theme); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// AddActivity handles POST /trips/{tripID}/days/{dayIndex}/activities.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	t, err := parseDayTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req ActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.activityFromRequest(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	change, err := s.trips.AddActivity(r.Context(), t.actor, t.tripID, t.day, a)
	s.writeItinerary(w, r, http.StatusCreated, change, err)
}

// ModifyActivity handles PATCH /trips/{tripID}/days/{dayIndex}/activities/{activityID}.
func (s *Server) ModifyActivity(w http.ResponseWriter, r *http.Request) {
	t, err := parseDayTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	activityID, err := uuidParam(r, "activityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req ActivityPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := s.patchFromRequest(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	change, err := s.trips.ModifyActivity(r.Context(), t.actor, t.tripID, t.day, activityID, patch)
	s.writeItinerary(w, r, http.StatusOK, change, err)
}

// RemoveActivity handles DELETE /trips/{tripID}/days/{dayIndex}/activities/{activityID}.
func (s *Server) RemoveActivity(w http.ResponseWriter, r *http.Request) {
	t, err := parseDayTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	activityID, err := uuidParam(r, "activityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	change, err := s.trips.RemoveActivity(r.Context(), t.actor, t.tripID, t.day, activityID)
	s.writeItinerary(w, r, http.StatusOK, change, err)
}

// UpdateDayItinerary handles PUT /trips/{tripID}/days/{dayIndex}/itinerary.
func (s *Server) UpdateDayItinerary(w http.ResponseWriter, r *http.Request) {
	t, err := parseDayTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req DayItineraryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	activities := make([]domain.Activity, len(req.Activities))
	for i, ar := range req.Activities {
		a, err := s.activityFromRequest(ar)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("activities[%d]: %w", i, err))
			return
		}
		activities[i] = a
	}
	change, err := s.trips.UpdateDayItinerary(r.Context(), t.actor, t.tripID, t.day, activities)
	s.writeItinerary(w, r, http.StatusOK, change, err)
}

func (s *Server) writeItinerary(w http.ResponseWriter, r *http.Request, status int, change service.ItineraryChange, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, itineraryToResponse(change))
}
