// Package services defines the business logic for the complaint lifecycle:
// creation with unique numbering, status transitions with history, edit and
// delete eligibility, voting, and visibility-scoped reads.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrValidation is the base error for missing or out-of-range input.
	// Service methods wrap it with field context, e.g.
	// fmt.Errorf("%w: title must be at most 100 characters", ErrValidation),
	// so callers can match with errors.Is while keeping the detail.
	ErrValidation = errors.New("validation failed")

	// ErrComplaintNotFound indicates that the requested complaint does not
	// exist, or is not visible on the endpoint that looked it up.
	ErrComplaintNotFound = errors.New("complaint not found")

	// ErrCategoryNotFound indicates that a category reference does not
	// resolve to an active registry entry.
	ErrCategoryNotFound = errors.New("category not found or inactive")

	// ErrStatusNotFound indicates that a status reference does not resolve
	// in the status registry.
	ErrStatusNotFound = errors.New("status not found")

	// ErrUserNotFound indicates that an actor or submitter reference does
	// not resolve in the user directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotOwner is returned when a caller attempts to read or mutate a
	// complaint submitted by someone else.
	ErrNotOwner = errors.New("complaint does not belong to this user")

	// ErrStateConflict is returned when an operation is not allowed in the
	// complaint's current workflow state.
	ErrStateConflict = errors.New("operation not allowed in current status")

	// ErrInvalidVote is returned when a vote direction is neither "up" nor
	// "down".
	ErrInvalidVote = errors.New(`vote must be "up" or "down"`)

	// ErrInvalidAssignee is returned when a complaint is assigned to an
	// account that does not hold an administrative role.
	ErrInvalidAssignee = errors.New("assignee is not an admin account")

	// ErrRegistryNotSeeded signals a fatal configuration problem: the
	// status registry is missing the workflow start marker. The registry
	// must be seeded before the system accepts traffic; this is not
	// recoverable at request time.
	ErrRegistryNotSeeded = errors.New("status registry is not seeded")
)
