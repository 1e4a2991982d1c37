// Package services – ComplaintService
//
// This file implements the ComplaintService, which owns the citizen-facing
// complaint lifecycle: creation with unique number assignment, owner-scoped
// reads and listings, state-gated edits and deletion, and voting. All
// multi-step effects (complaint insert + first history entry + counter
// increments; deletion + counter reversal) run inside a single database
// transaction so the aggregate and its derived counters cannot drift apart.
//
// Service-level errors (e.g. ErrValidation, ErrComplaintNotFound,
// ErrNotOwner, ErrStateConflict) are returned for predictable cases so
// handlers can map them to HTTP results consistently.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// complaint/user identifiers where applicable.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/notify"
	"github.com/civicconnect/go-complaints-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// firstHistoryNote is the note on the history entry written with creation.
	firstHistoryNote = "Complaint submitted"

	defaultPageSize = 10
	maxPageSize     = 100
)

// pincodeRE matches the 6-digit postal codes accepted on a location.
var pincodeRE = regexp.MustCompile(`^[0-9]{6}$`)

// PhotoInput is one externally hosted photo reference supplied on create
// or edit. Order in the slice is the display order.
type PhotoInput struct {
	URL      string
	PublicID string
	Caption  string
}

// CreateComplaintInput carries the citizen-supplied fields for a new
// complaint. Priority defaults to Medium; IsPublic defaults to true.
type CreateComplaintInput struct {
	Title       string
	Description string
	CategoryID  string
	Priority    string
	Location    domain.Location
	Photos      []PhotoInput
	Tags        []string
	IsPublic    *bool
	IsAnonymous bool
}

// UpdateComplaintInput carries an owner edit. Nil pointers mean "leave
// unchanged"; Tags and Photos replace the stored sets when non-nil.
type UpdateComplaintInput struct {
	Title       *string
	Description *string
	Priority    *string
	Location    *domain.Location
	Tags        []string
	Photos      []PhotoInput
	IsPublic    *bool
	IsAnonymous *bool
}

// ListOptions narrows and pages an owner-scoped listing.
type ListOptions struct {
	Page       int
	Limit      int
	StatusID   string
	CategoryID string
	Priority   string
	Sort       string
}

// ComplaintService implements the citizen-facing lifecycle use-cases.
type ComplaintService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Notifier receives lifecycle events after a successful commit.
	Notifier notify.Notifier
}

// Create validates the input, assigns the next complaint number for the
// current UTC day, and persists the complaint together with its first
// history entry and the submitter/category counter increments, all in one
// transaction. A numbering collision under concurrent creation is retried
// once with a recomputed sequence.
//
// The returned complaint has category/status/submitter references resolved
// but no status history: history stays internal until explicitly requested.
func (s *ComplaintService) Create(ctx context.Context, userID string, in CreateComplaintInput) (*domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat, err := repo.GetCategory(ctx, tx, in.CategoryID)
		if err != nil {
			if isNotFound(err) {
				return ErrCategoryNotFound
			}
			return err
		}
		if !cat.IsActive {
			return ErrCategoryNotFound
		}

		submitted, err := repo.GetStatusByName(ctx, tx, string(domain.StateSubmitted))
		if err != nil {
			if isNotFound(err) {
				return ErrRegistryNotSeeded
			}
			return err
		}

		now := time.Now().UTC()
		c := &domain.Complaint{
			ID:          id,
			Title:       in.Title,
			Description: in.Description,
			CategoryID:  cat.ID,
			StatusID:    submitted.ID,
			Priority:    in.Priority,
			Location:    in.Location,
			UserID:      userID,
			IsPublic:    in.IsPublic == nil || *in.IsPublic,
			IsAnonymous: in.IsAnonymous,
			Tags:        in.Tags,
		}
		for i, p := range in.Photos {
			c.Photos = append(c.Photos, domain.ComplaintPhoto{
				ID:       uuid.NewString(),
				URL:      p.URL,
				PublicID: p.PublicID,
				Caption:  p.Caption,
				Position: i,
			})
		}

		// Assign the number from the atomic day counter; one retry on the
		// off chance the unique index still trips.
		for attempt := 0; ; attempt++ {
			seq, err := repo.NextComplaintSequence(tx, now)
			if err != nil {
				return err
			}
			c.ComplaintNumber = repo.FormatComplaintNumber(now, seq)
			if err := repo.CreateComplaint(tx, c); err != nil {
				if isDuplicate(err) && attempt == 0 {
					continue
				}
				return err
			}
			break
		}

		if _, err := repo.AppendStatusChange(tx, c.ID, submitted.ID, userID, firstHistoryNote, now); err != nil {
			return err
		}
		if err := repo.IncrementComplaintsSubmitted(tx, userID, 1); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		return repo.IncrementCategoryCount(tx, cat.ID, 1)
	})
	if err != nil {
		return nil, err
	}

	out, err := repo.GetComplaint(ctx, s.DB, id, false)
	if err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.ComplaintCreated(ctx, out)
	}
	return out, nil
}

// Get returns a single complaint with its status history resolved. Citizens
// may only read their own complaints; administrative roles may read any.
// A successful read bumps the view counter as a side effect.
func (s *ComplaintService) Get(ctx context.Context, actorID, role, id string) (*domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("complaint.id", id),
			attribute.String("user.id", actorID),
		),
	)
	defer span.End()

	c, err := repo.GetComplaint(ctx, s.DB, id, true)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if !domain.IsAdminRole(role) && c.UserID != actorID {
		return nil, ErrNotOwner
	}

	if err := repo.IncrementViewCount(ctx, s.DB, id); err != nil {
		// Engagement counters are best-effort; the read still succeeds.
		log.Warn().Err(err).Str("complaint_id", id).Msg("view counter increment failed")
	} else {
		c.ViewCount++
	}
	return c, nil
}

// ListMine returns a page of the caller's own complaints plus the total
// match count. Invalid page/limit values fall back to defaults; limit is
// capped.
func (s *ComplaintService) ListMine(ctx context.Context, userID string, opts ListOptions) ([]domain.Complaint, int64, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "ListMine",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", opts.Page),
			attribute.Int("limit", opts.Limit),
		),
	)
	defer span.End()

	page, limit := normalizePage(opts.Page, opts.Limit)
	f := repo.ComplaintFilter{
		UserID:     userID,
		StatusID:   opts.StatusID,
		CategoryID: opts.CategoryID,
		Priority:   opts.Priority,
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

// Update applies an owner edit. Permitted only while the complaint is in
// a state that still allows owner edits (Submitted or Under Review).
// Tags and Photos, when provided, replace the stored sets.
func (s *ComplaintService) Update(ctx context.Context, userID, id string, in UpdateComplaintInput) (*domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("complaint.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	fields, err := validateUpdate(&in)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetComplaint(ctx, tx, id, false)
		if err != nil {
			if isNotFound(err) {
				return ErrComplaintNotFound
			}
			return err
		}
		if c.UserID != userID {
			return ErrNotOwner
		}
		if c.Status == nil || !domain.StateOf(c.Status.Name).AllowsOwnerEdit() {
			return ErrStateConflict
		}

		if in.Tags != nil {
			fields["tags"] = datatypes.JSONSlice[string](in.Tags)
		}
		if len(fields) > 0 {
			if err := repo.UpdateComplaintFields(tx, id, fields); err != nil {
				return err
			}
		}
		if in.Photos != nil {
			if err := tx.Where("complaint_id = ?", id).Delete(&domain.ComplaintPhoto{}).Error; err != nil {
				return err
			}
			for i, p := range in.Photos {
				photo := domain.ComplaintPhoto{
					ID:          uuid.NewString(),
					ComplaintID: id,
					URL:         p.URL,
					PublicID:    p.PublicID,
					Caption:     p.Caption,
					Position:    i,
				}
				if err := tx.Create(&photo).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repo.GetComplaint(ctx, s.DB, id, false)
}

// Delete removes a complaint by its owner. Permitted only while the status
// is still Submitted. The category counter and the submitter's submission
// counter are reversed in the same transaction; both floor at zero.
func (s *ComplaintService) Delete(ctx context.Context, userID, id string) error {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("complaint.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetComplaint(ctx, tx, id, false)
		if err != nil {
			if isNotFound(err) {
				return ErrComplaintNotFound
			}
			return err
		}
		if c.UserID != userID {
			return ErrNotOwner
		}
		if c.Status == nil || !domain.StateOf(c.Status.Name).AllowsOwnerDelete() {
			return ErrStateConflict
		}

		if err := repo.DeleteComplaint(tx, id); err != nil {
			return err
		}
		if err := repo.IncrementCategoryCount(tx, c.CategoryID, -1); err != nil && !isNotFound(err) {
			return err
		}
		if err := repo.IncrementComplaintsSubmitted(tx, userID, -1); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
}

// Vote increments the requested counter on a complaint. Direction must be
// "up" or "down". Votes are not deduplicated per actor.
func (s *ComplaintService) Vote(ctx context.Context, id, direction string) (up, down int64, err error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "Vote",
		trace.WithAttributes(
			attribute.String("complaint.id", id),
			attribute.String("vote.direction", direction),
		),
	)
	defer span.End()

	var column string
	switch direction {
	case "up":
		column = "upvotes"
	case "down":
		column = "downvotes"
	default:
		return 0, 0, ErrInvalidVote
	}

	up, down, err = repo.IncrementVote(ctx, s.DB, id, column)
	if err != nil {
		if isNotFound(err) {
			return 0, 0, ErrComplaintNotFound
		}
		return 0, 0, err
	}
	return up, down, nil
}

// validateCreate checks and normalizes a creation payload in place.
func validateCreate(in *CreateComplaintInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)

	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Title) > 100 {
		return fmt.Errorf("%w: title must be at most 100 characters", ErrValidation)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Description) > 1000 {
		return fmt.Errorf("%w: description must be at most 1000 characters", ErrValidation)
	}
	if in.CategoryID == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}

	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(in.Priority) {
		return fmt.Errorf("%w: priority must be one of Low, Medium, High, Critical", ErrValidation)
	}

	if err := validateLocation(&in.Location); err != nil {
		return err
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return err
	}
	in.Tags = tags

	return validatePhotos(in.Photos)
}

// validateUpdate checks an edit payload and returns the column updates for
// the fields it actually carries.
func validateUpdate(in *UpdateComplaintInput) (map[string]any, error) {
	fields := map[string]any{}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidation)
		}
		if utf8.RuneCountInString(t) > 100 {
			return nil, fmt.Errorf("%w: title must be at most 100 characters", ErrValidation)
		}
		fields["title"] = t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			return nil, fmt.Errorf("%w: description is required", ErrValidation)
		}
		if utf8.RuneCountInString(d) > 1000 {
			return nil, fmt.Errorf("%w: description must be at most 1000 characters", ErrValidation)
		}
		fields["description"] = d
	}
	if in.Priority != nil {
		if !domain.ValidPriority(*in.Priority) {
			return nil, fmt.Errorf("%w: priority must be one of Low, Medium, High, Critical", ErrValidation)
		}
		fields["priority"] = *in.Priority
	}
	if in.Location != nil {
		if err := validateLocation(in.Location); err != nil {
			return nil, err
		}
		fields["location_lat"] = in.Location.Lat
		fields["location_lng"] = in.Location.Lng
		fields["location_address"] = in.Location.Address
		fields["location_city"] = in.Location.City
		fields["location_state"] = in.Location.State
		fields["location_pincode"] = in.Location.Pincode
	}
	if in.Tags != nil {
		tags, err := normalizeTags(in.Tags)
		if err != nil {
			return nil, err
		}
		in.Tags = tags
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}
	if in.IsAnonymous != nil {
		fields["is_anonymous"] = *in.IsAnonymous
	}
	if err := validatePhotos(in.Photos); err != nil {
		return nil, err
	}
	return fields, nil
}

// validateLocation checks the embedded address block; all sub-fields are
// required together.
func validateLocation(loc *domain.Location) error {
	loc.Address = strings.TrimSpace(loc.Address)
	loc.City = strings.TrimSpace(loc.City)
	loc.State = strings.TrimSpace(loc.State)
	loc.Pincode = strings.TrimSpace(loc.Pincode)

	if loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrValidation)
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrValidation)
	}
	if loc.Address == "" || loc.City == "" || loc.State == "" || loc.Pincode == "" {
		return fmt.Errorf("%w: location address, city, state, and pincode are required", ErrValidation)
	}
	if utf8.RuneCountInString(loc.Address) > 200 {
		return fmt.Errorf("%w: address must be at most 200 characters", ErrValidation)
	}
	if utf8.RuneCountInString(loc.City) > 50 {
		return fmt.Errorf("%w: city must be at most 50 characters", ErrValidation)
	}
	if utf8.RuneCountInString(loc.State) > 50 {
		return fmt.Errorf("%w: state must be at most 50 characters", ErrValidation)
	}
	if !pincodeRE.MatchString(loc.Pincode) {
		return fmt.Errorf("%w: pincode must be a 6-digit number", ErrValidation)
	}
	return nil
}

// normalizeTags trims tags, drops empties, and enforces the per-tag cap.
func normalizeTags(tags []string) ([]string, error) {
	if tags == nil {
		return nil, nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > 20 {
			return nil, fmt.Errorf("%w: tags must be at most 20 characters each", ErrValidation)
		}
		out = append(out, t)
	}
	return out, nil
}

// validatePhotos checks each photo reference.
func validatePhotos(photos []PhotoInput) error {
	for _, p := range photos {
		if strings.TrimSpace(p.URL) == "" {
			return fmt.Errorf("%w: photo url is required", ErrValidation)
		}
		if utf8.RuneCountInString(p.Caption) > 100 {
			return fmt.Errorf("%w: photo caption must be at most 100 characters", ErrValidation)
		}
	}
	return nil
}

// normalizePage applies listing defaults and the page-size cap.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way. It also checks gorm.ErrRecordNotFound for safety.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
