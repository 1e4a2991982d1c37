// Package services – AdminService
//
// This file implements the AdminService, which owns the administrative side
// of the lifecycle: unscoped listings with filters and free-text search,
// full-record reads, status transitions with history, and assignment.
// Status transitions apply the status update, the history append, and the
// first-resolution bookkeeping in one transaction.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/notify"
	"github.com/civicconnect/go-complaints-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AdminListOptions narrows and pages the administrative listing.
type AdminListOptions struct {
	Page       int
	Limit      int
	StatusID   string
	CategoryID string
	Priority   string
	City       string
	State      string
	Search     string
	Sort       string
}

// StatusUpdateInput carries an administrative status transition.
type StatusUpdateInput struct {
	StatusID                string
	Notes                   string
	EstimatedResolutionDate *time.Time
}

// Character caps on transition notes. One note feeds two columns: the
// complaint's resolution_notes (capped at 500) and the history entry's note
// (capped at 200), so the stricter history cap binds on input.
const (
	maxResolutionNotesLen = 500
	maxHistoryNoteLen     = 200
)

// AdminService implements the administrative lifecycle use-cases. Role
// enforcement happens at the routing boundary; methods here assume the
// actor already holds an administrative role.
type AdminService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Notifier receives lifecycle events after a successful commit.
	Notifier notify.Notifier
}

// List returns a page of complaints across all submitters, with optional
// equality filters, case-insensitive city/state matching, and free-text
// search over title, description, and complaint number.
func (s *AdminService) List(ctx context.Context, opts AdminListOptions) ([]domain.Complaint, int64, error) {
	tr := otel.Tracer("services/AdminService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", opts.Page),
			attribute.Int("limit", opts.Limit),
		),
	)
	defer span.End()

	page, limit := normalizePage(opts.Page, opts.Limit)
	f := repo.ComplaintFilter{
		StatusID:   opts.StatusID,
		CategoryID: opts.CategoryID,
		Priority:   opts.Priority,
		City:       strings.TrimSpace(opts.City),
		State:      strings.TrimSpace(opts.State),
		Search:     strings.TrimSpace(opts.Search),
	}

	total, err := repo.CountComplaints(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Complaint{}, 0, nil
	}
	items, err := repo.ListComplaintsPage(ctx, s.DB, f, opts.Sort, (page-1)*limit, limit)
	return items, total, err
}

// Get returns the full complaint record including its status history.
func (s *AdminService) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	tr := otel.Tracer("services/AdminService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("complaint.id", id)),
	)
	defer span.End()

	c, err := repo.GetComplaint(ctx, s.DB, id, true)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return c, nil
}

// UpdateStatus transitions a complaint to the target status on behalf of
// adminID. In one transaction it updates the live status, records the
// acting admin, appends a history entry carrying the note, and, on the
// first transition into the terminal Resolved stage, stamps
// actualResolutionDate and increments the submitter's resolved counter.
// A later transition into Resolved never overwrites the first stamp.
//
// Transitions are permitted from any state; workflow order is advisory.
func (s *AdminService) UpdateStatus(ctx context.Context, adminID, complaintID string, in StatusUpdateInput) (*domain.Complaint, error) {
	tr := otel.Tracer("services/AdminService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("complaint.id", complaintID),
			attribute.String("user.id", adminID),
			attribute.String("status.id", in.StatusID),
		),
	)
	defer span.End()

	in.Notes = strings.TrimSpace(in.Notes)
	if n := utf8.RuneCountInString(in.Notes); n > maxHistoryNoteLen || n > maxResolutionNotesLen {
		return nil, fmt.Errorf("%w: notes must be at most %d characters", ErrValidation, maxHistoryNoteLen)
	}

	var prev, next *domain.Status
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := repo.GetStatus(ctx, tx, in.StatusID)
		if err != nil {
			if isNotFound(err) {
				return ErrStatusNotFound
			}
			return err
		}
		next = target

		c, err := repo.GetComplaint(ctx, tx, complaintID, false)
		if err != nil {
			if isNotFound(err) {
				return ErrComplaintNotFound
			}
			return err
		}
		prev = c.Status

		now := time.Now().UTC()
		fields := map[string]any{
			"status_id": target.ID,
			"admin_id":  adminID,
		}
		if in.Notes != "" {
			fields["resolution_notes"] = in.Notes
		}
		if in.EstimatedResolutionDate != nil {
			fields["estimated_resolution_date"] = *in.EstimatedResolutionDate
		}

		firstResolution := domain.StateOf(target.Name) == domain.StateResolved &&
			c.ActualResolutionDate == nil
		if firstResolution {
			fields["actual_resolution_date"] = now
		}

		if err := repo.UpdateComplaintFields(tx, complaintID, fields); err != nil {
			return err
		}
		if _, err := repo.AppendStatusChange(tx, complaintID, target.ID, adminID, in.Notes, now); err != nil {
			return err
		}
		if firstResolution {
			if err := repo.IncrementComplaintsResolved(tx, c.UserID); err != nil && !isNotFound(err) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := repo.GetComplaint(ctx, s.DB, complaintID, true)
	if err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.StatusChanged(ctx, out, prev, next, adminID)
	}
	return out, nil
}

// Assign sets the admin responsible for a complaint. The target account
// must exist and hold an administrative role.
func (s *AdminService) Assign(ctx context.Context, complaintID, adminID string) (*domain.Complaint, error) {
	tr := otel.Tracer("services/AdminService")
	ctx, span := tr.Start(ctx, "Assign",
		trace.WithAttributes(
			attribute.String("complaint.id", complaintID),
			attribute.String("assignee.id", adminID),
		),
	)
	defer span.End()

	target, err := repo.GetUser(ctx, s.DB, adminID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidAssignee
		}
		return nil, err
	}
	if !domain.IsAdminRole(target.Role) {
		return nil, ErrInvalidAssignee
	}

	if err := repo.UpdateComplaintFields(s.DB.WithContext(ctx), complaintID, map[string]any{"admin_id": adminID}); err != nil {
		if isNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return repo.GetComplaint(ctx, s.DB, complaintID, false)
}
