package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a required JSON body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", domain.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for bodies that may be empty.
func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// requireActor returns the user id placed in the context by the actor middleware.
func requireActor(r *http.Request) (string, error) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		return "", errUnauthenticated
	}
	return actor, nil
}

// optionalActor returns the user id, or "" for anonymous requests.
func optionalActor(r *http.Request) string {
	actor, _ := middleware.ActorFrom(r.Context())
	return actor
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q is not a valid id", domain.ErrValidation, name, raw)
	}
	return id, nil
}

func dayParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "dayIndex")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: day index %q is not a number", domain.ErrValidation, raw)
	}
	return i, nil
}

// dayTarget holds the path parameters shared by the day routes.
type dayTarget struct {
	actor  string
	tripID uuid.UUID
	day    int
}

func parseDayTarget(r *http.Request) (dayTarget, error) {
	actor, err := requireActor(r)
	if err != nil {
		return dayTarget{}, err
	}
	tripID, err := uuidParam(r, "tripID")
	if err != nil {
		return dayTarget{}, err
	}
	day, err := dayParam(r)
	if err != nil {
		return dayTarget{}, err
	}
	return dayTarget{actor: actor, tripID: tripID, day: day}, nil
}
