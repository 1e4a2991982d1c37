// Package services – PublicService
//
// This file implements the PublicService, the unauthenticated read surface.
// Every query is restricted to complaints flagged public; field redaction
// (status history, resolution notes, admin and submitter identifiers) is a
// rendering concern handled at the transport layer.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// searchableStatuses are the workflow stages exposed through public search.
var searchableStatuses = []string{
	string(domain.StateResolved),
	string(domain.StateInProgress),
}

// PublicListOptions narrows and pages the public listing.
type PublicListOptions struct {
	Page       int
	Limit      int
	CategoryID string
	StatusID   string
	City       string
	Sort       string
}

// PublicService implements the unauthenticated read-only use-cases.
type PublicService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// List returns a page of publicly visible complaints.
func (s *PublicService) List(ctx context.Context, opts PublicListOptions) ([]domain.Complaint, int64, error) {
	tr := otel.Tracer("services/PublicService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", opts.Page),
			attribute.Int("limit", opts.Limit),
		),
	)
	defer span.End()

	page, limit := normalizePage(opts.Page, opts.Limit)
	f := repo.ComplaintFilter{
		PublicOnly: true,
		CategoryID: opts.CategoryID,
		StatusID:   opts.StatusID,
		City:       strings.TrimSpace(opts.City),
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

// Get returns one publicly visible complaint. Complaints flagged private
// are indistinguishable from missing ones. A successful read bumps the
// view counter.
func (s *PublicService) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	tr := otel.Tracer("services/PublicService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("complaint.id", id)),
	)
	defer span.End()

	c, err := repo.GetComplaint(ctx, s.DB, id, false)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if !c.IsPublic {
		return nil, ErrComplaintNotFound
	}

	if err := repo.IncrementViewCount(ctx, s.DB, id); err != nil {
		log.Warn().Err(err).Str("complaint_id", id).Msg("view counter increment failed")
	} else {
		c.ViewCount++
	}
	return c, nil
}

// Search matches publicly visible complaints against q, case-insensitively,
// over title, description, complaint number, and tags. Only complaints in
// the Resolved or In Progress stages are searchable.
func (s *PublicService) Search(ctx context.Context, q string, page, limit int) ([]domain.Complaint, int64, error) {
	tr := otel.Tracer("services/PublicService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.Int("page", page)),
	)
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, 0, fmt.Errorf("%w: search query is required", ErrValidation)
	}

	statusIDs, err := repo.ListStatusIDsByName(ctx, s.DB, searchableStatuses)
	if err != nil {
		return nil, 0, err
	}
	if len(statusIDs) == 0 {
		return []domain.Complaint{}, 0, nil
	}

	page, limit = normalizePage(page, limit)
	f := repo.ComplaintFilter{
		PublicOnly: true,
		StatusIDs:  statusIDs,
		Search:     q,
	}

	total, err := repo.CountComplaints(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Complaint{}, 0, nil
	}
	items, err := repo.ListComplaintsPage(ctx, s.DB, f, "", (page-1)*limit, limit)
	return items, total, err
}
