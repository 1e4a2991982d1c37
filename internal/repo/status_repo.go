// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Status
// registry. The registry is seeded once at startup and read-only from the
// lifecycle core's perspective.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

// GetStatus fetches a status by ID, or ErrNotFound if missing.
func GetStatus(ctx context.Context, db *gorm.DB, id string) (*domain.Status, error) {
	var st domain.Status
	if err := db.WithContext(ctx).Where("id = ?", id).First(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStatusByName fetches a status by its unique workflow name, or
// ErrNotFound if missing.
func GetStatusByName(ctx context.Context, db *gorm.DB, name string) (*domain.Status, error) {
	var st domain.Status
	if err := db.WithContext(ctx).Where("name = ?", name).First(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStatuses returns all statuses in workflow order.
func ListStatuses(ctx context.Context, db *gorm.DB) ([]domain.Status, error) {
	var out []domain.Status
	err := db.WithContext(ctx).
		Order("workflow_order asc").
		Find(&out).Error
	return out, err
}

// ListStatusIDsByName returns the IDs of statuses whose names are in names.
// Used by public search, which only exposes a subset of workflow stages.
func ListStatusIDsByName(ctx context.Context, db *gorm.DB, names []string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Status{}).
		Where("name IN ?", names).
		Pluck("id", &ids).Error
	return ids, err
}
