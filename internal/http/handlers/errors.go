// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., validation_error, state_conflict) are reserved
//     for lifecycle rules that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Usage:
//   - Handlers translate service sentinel errors through mapServiceError, which
//     selects the most specific matching code; unexpected errors collapse into
//     a generic 500 with internal details hidden.
//   - Clients are expected to branch on these codes for programmatic error handling.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicconnect/go-complaints-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidReference = "invalid_reference"
	ErrCodeStateConflict    = "state_conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// mapServiceError translates a service-layer error into the HTTP envelope.
// Sentinel errors map to specific statuses and codes; anything unmatched is
// treated as a server fault and surfaces as a generic 500 (the underlying
// error is logged by fail, not echoed to the client).
func mapServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrCategoryNotFound):
		fail(c, http.StatusBadRequest, ErrCodeInvalidReference, "invalid or inactive category")
	case errors.Is(err, services.ErrStatusNotFound):
		fail(c, http.StatusBadRequest, ErrCodeInvalidReference, "invalid status")
	case errors.Is(err, services.ErrInvalidAssignee):
		fail(c, http.StatusBadRequest, ErrCodeInvalidReference, "assignee must be an admin account")
	case errors.Is(err, services.ErrInvalidVote):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `vote must be "up" or "down"`)
	case errors.Is(err, services.ErrStateConflict):
		fail(c, http.StatusBadRequest, ErrCodeStateConflict, "operation not allowed in the current status")
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "you do not own this complaint")
	case errors.Is(err, services.ErrComplaintNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "complaint not found")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
