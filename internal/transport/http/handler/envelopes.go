package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/support-role-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Title     string `json:"title,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// UserEnvelope wraps a user payload together with the outcome of any role
// decision the operation triggered.
type UserEnvelope struct {
	User    *domain.User    `json:"user,omitempty"`
	Update  *DecisionNotice `json:"update,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// DecisionNotice is the client-facing rendering of a guard decision.
type DecisionNotice struct {
	Outcome domain.Outcome `json:"outcome"`
	Role    string         `json:"role"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user list responses.
type PaginatedUsersEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// PaginatedTransitionsEnvelope wraps a user's role transition history.
type PaginatedTransitionsEnvelope struct {
	Data       []domain.RoleTransition `json:"data"`
	NextCursor string                  `json:"next_cursor,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// rebuffBody is the single response every failed verification link gets,
// whatever actually went wrong. Unknown login, wrong account, stale hash and
// reused code must all read the same from the outside.
var rebuffBody = MessageEnvelope{
	Title: "Verification failed",
	Error: "This email verification link is not for your account, was not recognised, has been invalidated, or has already been used.",
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps service errors onto HTTP responses. Rebuffs take priority:
// the wrapped detail is for server logs, never for the response body.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRebuffed):
		writeJSON(w, http.StatusForbidden, rebuffBody)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func toNotice(d *domain.Decision) *DecisionNotice {
	if d == nil || d.Outcome == "" {
		return nil
	}
	return &DecisionNotice{Outcome: d.Outcome, Role: d.FinalRole}
}
