// ABOUTME: Maps board errors onto HTTP status codes and a JSON error body.
// ABOUTME: Validation 400, not found 404, capacity 409, refused transitions 422, persistence 500.
package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/server"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

func statusFor(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var (
		verr *core.ValidationError
		nf   *core.NotFoundError
		ce   *core.CapacityExceededError
	)
	switch {
	case errors.As(err, &verr):
		body.Kind, body.Field = "validation", verr.Field
		return http.StatusBadRequest, body
	case errors.As(err, &nf), errors.Is(err, server.ErrBoardNotFound):
		body.Kind = "not_found"
		return http.StatusNotFound, body
	case errors.As(err, &ce):
		body.Kind = "capacity_exceeded"
		return http.StatusConflict, body
	case errors.Is(err, core.ErrMissingReason):
		body.Kind = "missing_reason"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, core.ErrInvalidTransition):
		body.Kind = "invalid_transition"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, core.ErrChecklistLocked):
		body.Kind = "checklist_locked"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, core.ErrDeleteRestricted):
		body.Kind = "delete_restricted"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, core.ErrUnknownCommand):
		body.Kind = "unknown_command"
		return http.StatusBadRequest, body
	case errors.Is(err, core.ErrActorBusy):
		body.Kind = "busy"
		return http.StatusServiceUnavailable, body
	}
	body.Kind = "internal"
	return http.StatusInternalServerError, body
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("component=web action=request_failed request_id=%s path=%s err=%v",
			RequestIDFrom(r.Context()), r.URL.Path, err)
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "validation", Field: field})
}
