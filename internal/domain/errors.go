package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrRebuffed covers every verification-link failure: unknown login, actor
	// mismatch, ineligible domain, bad or reused hash. Handlers must answer all
	// of them with one identical payload so callers cannot tell the cases apart.
	ErrRebuffed = errors.New("verification rebuffed")
)
