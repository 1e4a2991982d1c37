// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Complaint
// aggregate and its status history.
//
// All functions accept a *gorm.DB handle, making them safe for use within
// transactions or connection-scoped operations. They follow the "thin
// repository" approach: no business logic, only CRUD persistence and query
// composition.
//
// Error semantics:
//   - When a complaint is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

// CreateComplaint inserts a complaint row together with its photo rows.
// The caller is responsible for populating ID, ComplaintNumber, and
// StatusID before calling.
func CreateComplaint(db *gorm.DB, c *domain.Complaint) error {
	return db.Create(c).Error
}

// AppendStatusChange adds one entry to a complaint's status history.
// Entries are insert-only; nothing in this package updates or deletes them.
func AppendStatusChange(db *gorm.DB, complaintID, statusID, actorID, notes string, at time.Time) (*domain.StatusChange, error) {
	sc := &domain.StatusChange{
		ID:          uuid.NewString(),
		ComplaintID: complaintID,
		StatusID:    statusID,
		ChangedByID: actorID,
		ChangedAt:   at,
		Notes:       notes,
	}
	return sc, db.Create(sc).Error
}

// GetComplaint fetches a complaint with category/status/submitter/admin and
// photos resolved. When withHistory is set, the status history is loaded in
// append order with its own status and actor references resolved.
func GetComplaint(ctx context.Context, db *gorm.DB, id string, withHistory bool) (*domain.Complaint, error) {
	q := db.WithContext(ctx).
		Preload("Category").
		Preload("Status").
		Preload("User").
		Preload("Admin").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		})
	if withHistory {
		q = q.
			Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
				return db.Order("changed_at ASC, id ASC")
			}).
			Preload("StatusHistory.Status").
			Preload("StatusHistory.ChangedBy")
	}
	var c domain.Complaint
	if err := q.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateComplaintFields applies a partial column update to a complaint.
// Returns ErrNotFound when no row matches.
func UpdateComplaintFields(db *gorm.DB, id string, fields map[string]any) error {
	res := db.Model(&domain.Complaint{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComplaint removes a complaint row together with its photos and
// history entries. The children are deleted explicitly rather than left to
// ON DELETE CASCADE: CASCADE only fires on connections with the
// foreign_keys pragma active, and a DB handle opened without it would
// silently strand orphans. Returns ErrNotFound when no complaint matches.
func DeleteComplaint(db *gorm.DB, id string) error {
	if err := db.Where("complaint_id = ?", id).Delete(&domain.ComplaintPhoto{}).Error; err != nil {
		return err
	}
	if err := db.Where("complaint_id = ?", id).Delete(&domain.StatusChange{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&domain.Complaint{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViewCount bumps a complaint's view counter by one. View counts
// are best-effort engagement data; callers may ignore the error.
func IncrementViewCount(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}

// IncrementVote bumps either upvotes or downvotes by one and returns the
// fresh counter pair.
func IncrementVote(ctx context.Context, db *gorm.DB, id, column string) (up, down int64, err error) {
	res := db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, 0, ErrNotFound
	}
	var row struct {
		Upvotes   int64
		Downvotes int64
	}
	err = db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Select("upvotes", "downvotes").
		Where("id = ?", id).
		Scan(&row).Error
	return row.Upvotes, row.Downvotes, err
}

// ComplaintFilter narrows complaint listings. Zero values mean "no filter".
type ComplaintFilter struct {
	UserID     string   // scope to one submitter ("my complaints")
	StatusID   string   // equality
	StatusIDs  []string // membership (public search status gate)
	CategoryID string   // equality
	Priority   string   // equality
	City       string   // case-insensitive substring
	State      string   // case-insensitive substring
	Search     string   // case-insensitive OR over title/description/number/tags
	PublicOnly bool     // restrict to isPublic rows
}

// applyComplaintFilter composes the WHERE clauses for f onto q.
func applyComplaintFilter(q *gorm.DB, f ComplaintFilter) *gorm.DB {
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.StatusID != "" {
		q = q.Where("status_id = ?", f.StatusID)
	}
	if len(f.StatusIDs) > 0 {
		q = q.Where("status_id IN ?", f.StatusIDs)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.City != "" {
		q = q.Where("location_city LIKE ? COLLATE NOCASE", "%"+f.City+"%")
	}
	if f.State != "" {
		q = q.Where("location_state LIKE ? COLLATE NOCASE", "%"+f.State+"%")
	}
	if f.PublicOnly {
		q = q.Where("is_public = ?", true)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where(
			"(title LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE OR complaint_number LIKE ? COLLATE NOCASE OR tags LIKE ? COLLATE NOCASE)",
			like, like, like, like,
		)
	}
	return q
}

// CountComplaints returns the number of complaints matching f.
func CountComplaints(ctx context.Context, db *gorm.DB, f ComplaintFilter) (int64, error) {
	var total int64
	err := applyComplaintFilter(db.WithContext(ctx).Model(&domain.Complaint{}), f).
		Count(&total).Error
	return total, err
}

// ListComplaintsPage returns a page of complaints matching f, with
// category/status/submitter/admin references and photos resolved. Status
// history is intentionally left unloaded: listings never expose it.
func ListComplaintsPage(ctx context.Context, db *gorm.DB, f ComplaintFilter, sort string, offset, limit int) ([]domain.Complaint, error) {
	var out []domain.Complaint
	err := applyComplaintFilter(db.WithContext(ctx), f).
		Preload("Category").
		Preload("Status").
		Preload("User").
		Preload("Admin").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Order(SanitizeSort(sort)).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// sortColumns is the whitelist of caller-selectable sort keys, mapped to
// their column names. Anything else falls back to newest-first.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"priority":   "priority",
	"view_count": "view_count",
	"upvotes":    "upvotes",
}

// SanitizeSort maps a caller-supplied sort key ("created_at" ascending,
// "-created_at" descending) to a safe ORDER BY clause. Unknown keys yield
// the default newest-first ordering; a stable id tiebreak is always added.
func SanitizeSort(sort string) string {
	dir := "ASC"
	key := strings.TrimSpace(sort)
	if strings.HasPrefix(key, "-") {
		dir = "DESC"
		key = key[1:]
	}
	col, ok := sortColumns[key]
	if !ok {
		col, dir = "created_at", "DESC"
	}
	return col + " " + dir + ", id ASC"
}
