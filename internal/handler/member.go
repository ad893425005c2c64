package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AddMemberRequest is the body of POST /trips/{tripID}/members.
type AddMemberRequest struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Nickname string `json:"nickname"`
}

// ChangeRoleRequest is the body of PATCH /trips/{tripID}/members/{userID}.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// AddMember handles POST /trips/{tripID}/members.
func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, id, err := tripTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req AddMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := s.trips.AddMember(r.Context(), actor, id, req.UserID, req.Role, req.Nickname)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(trip))
}

// ChangeMemberRole handles PATCH /trips/{tripID}/members/{userID}.
func (s *Server) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, id, err := tripTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req ChangeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := s.trips.ChangeMemberRole(r.Context(), actor, id, chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// RemoveMember handles DELETE /trips/{tripID}/members/{userID}?reason=.
func (s *Server) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, id, err := tripTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	trip, err := s.trips.RemoveMember(r.Context(), actor, id, chi.URLParam(r, "userID"), r.URL.Query().Get("reason"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}
