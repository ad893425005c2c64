package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errUnauthenticated is returned when a route that needs an actor gets none.
var errUnauthenticated = errors.New("missing X-User-ID header")

// errorKinds is checked in order; refinements such as ErrInvalidDayIndex
// match the kind they wrap.
var errorKinds = []struct {
	target error
	status int
	code   string
}{
	{errUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConcurrentModification, http.StatusConflict, "conflict"},
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{domain.ErrInvalidState, http.StatusBadRequest, "invalid_state"},
	{domain.ErrInvariantViolation, http.StatusBadRequest, "invariant_violation"},
	{domain.ErrPermission, http.StatusBadRequest, "permission_denied"},
}

// writeError maps err to a status and writes an ErrorResponse. Unknown errors
// become 500 and are logged; their text is not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request_too_large", "request body too large"))
		return
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			writeJSON(w, k.status, errorBody(k.code, unwrapMessage(err, k.target)))
			return
		}
	}
	s.log.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// unwrapMessage extracts the human-readable part that follows the sentinel.
// e.g. "service.TravelService.UpdateTrip: validation error: name is required" → "name is required"
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	if strings.HasSuffix(msg, sentinel.Error()) {
		return sentinel.Error()
	}
	return msg
}
