package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/support-role-api/internal/domain"
)

type transitionLister interface {
	ListByUser(ctx context.Context, userID string, limit int32) ([]domain.RoleTransition, error)
}

// TransitionHandler exposes the role transition audit trail.
type TransitionHandler struct {
	store transitionLister
}

func NewTransitionHandler(store transitionLister) *TransitionHandler {
	return &TransitionHandler{store: store}
}

// ListByUser returns a user's role transitions, newest first.
func (h *TransitionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	transitions, err := h.store.ListByUser(r.Context(), chi.URLParam(r, "id"), int32(limit))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaginatedTransitionsEnvelope{Data: transitions})
}
