package api

import (
	"errors"
	"net/http"

	"mentorship/internal/database"
	"mentorship/internal/service"

	"github.com/go-chi/render"
)

const (
	codeValidation        = "validation_error"
	codeUnauthorized      = "unauthorized"
	codeForbidden         = "forbidden"
	codeNotFound          = "not_found"
	codeConflict          = "conflict"
	codeInvalidTransition = "invalid_transition"
	codeRateLimited       = "rate_limited"
	codeInternal          = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	render.Status(r, status)
	render.JSON(w, r, payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message, Code: codeForStatus(status)})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeValidation
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusForbidden:
		return codeForbidden
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeConflict
	case http.StatusTooManyRequests:
		return codeRateLimited
	default:
		return codeInternal
	}
}

// errorFor maps service and storage errors onto an HTTP status and body.
// Unclassified errors never leak their message.
func errorFor(err error) (int, errorResponse) {
	var (
		verr     *service.ValidationError
		conflict *database.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{Error: verr.Message, Code: codeValidation, Field: verr.Field}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: service.ErrForbidden.Error(), Code: codeForbidden}
	case errors.Is(err, database.ErrBookingNotFound):
		return http.StatusNotFound, errorResponse{Error: database.ErrBookingNotFound.Error(), Code: codeNotFound}
	case errors.Is(err, database.ErrMentorNotFound):
		return http.StatusNotFound, errorResponse{Error: database.ErrMentorNotFound.Error(), Code: codeNotFound}
	case errors.As(err, &conflict):
		return http.StatusConflict, errorResponse{Error: conflict.Error(), Code: codeConflict, Kind: string(conflict.Kind)}
	case errors.Is(err, database.ErrInvalidTransition):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: codeInvalidTransition}
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: service.ErrRateLimited.Error(), Code: codeRateLimited}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: codeInternal}
	}
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, r, status, body)
}
