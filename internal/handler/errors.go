package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/service"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestError answers a bad request rejected before reaching the service
// layer (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}})
}

// writeError maps a service error onto a status and an ErrorResponse.
// Unexpected errors are logged and answered with a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		detail ErrorDetail
	)
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, detail = http.StatusUnprocessableEntity, ErrorDetail{Code: "validation_error", Message: unwrapMessage(err, domain.ErrValidation)}
	case errors.Is(err, domain.ErrNotFound):
		status, detail = http.StatusNotFound, ErrorDetail{Code: "not_found", Message: "resource not found"}
	case errors.Is(err, domain.ErrPermission):
		status, detail = http.StatusForbidden, ErrorDetail{Code: "permission_denied", Message: unwrapMessage(err, domain.ErrPermission)}
	case errors.Is(err, domain.ErrOffline):
		status, detail = http.StatusServiceUnavailable, ErrorDetail{Code: "backend_unreachable", Message: "the backend could not be reached"}
	default:
		status, detail = http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "an unexpected error occurred"}
	}

	var tce *service.TripCreateError
	if errors.As(err, &tce) {
		if status == http.StatusInternalServerError {
			status, detail = http.StatusBadGateway, ErrorDetail{Code: "trip_create_failed", Message: tce.Error()}
		}
		detail.Details = map[string]any{
			"step":        tce.Step,
			"trip_id":     tce.TripID,
			"compensated": tce.Compensated,
		}
	}

	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: detail})
}

// unwrapMessage extracts the human-readable part that follows a sentinel.
// e.g. "service.Coordinator.SaveMarker: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}

// decodeJSON reads a JSON request body into v. It writes the error response
// itself and reports false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	return decode(w, r, v, true)
}

// decodeOptionalJSON is decodeJSON for endpoints where every field has a
// default: an empty body leaves v untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	return decode(w, r, v, false)
}

func decode(w http.ResponseWriter, r *http.Request, v any, required bool) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
				Code: "body_too_large", Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			}})
		case errors.Is(err, io.EOF) && !required:
			return true
		case errors.Is(err, io.EOF):
			requestError(w, "request body is required")
		default:
			requestError(w, "malformed JSON: "+err.Error())
		}
		return false
	}
	return true
}
