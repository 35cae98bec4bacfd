package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/support-role-api/internal/application/guard"
	"github.com/support-role-api/internal/application/verification"
	"github.com/support-role-api/internal/domain"
	"github.com/support-role-api/internal/transport/http/middleware"
)

// VerifyEmailHandler handles the mailed verification link and resends.
type VerifyEmailHandler struct {
	guard    guard.Service
	verifier verification.Service
}

func NewVerifyEmailHandler(g guard.Service, v verification.Service) *VerifyEmailHandler {
	return &VerifyEmailHandler{guard: g, verifier: v}
}

// Verify is the landing endpoint for the emailed link. The authenticated
// caller must be the same account the link was issued for; any mismatch or
// stale link gets the one generic rebuff.
func (h *VerifyEmailHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	code := r.URL.Query().Get("code")
	login := r.URL.Query().Get("login")
	if code == "" || login == "" {
		writeJSON(w, http.StatusForbidden, rebuffBody)
		return
	}
	email, err := h.guard.VerifyEmail(r.Context(), claims.UserID, login, code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Title:   "Verification succeeded",
		Message: fmt.Sprintf("Your email address %s has been verified and your support access is now active.", email),
	})
}

// Resend triggers a fresh challenge mail. Users resend for themselves; an
// admin may name another account in the body.
func (h *VerifyEmailHandler) Resend(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := claims.UserID
	if r.Body != nil && r.ContentLength > 0 {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.UserID != "" && body.UserID != claims.UserID {
			if claims.Role != domain.RoleAdmin {
				writeError(w, http.StatusForbidden, "cannot resend for another user")
				return
			}
			targetID = body.UserID
		}
	}
	if err := h.verifier.SendChallenge(r.Context(), targetID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification email sent"})
}
