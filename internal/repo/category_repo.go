// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Category
// registry.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetCategory fetches a category by ID, or ErrNotFound if missing.
func GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error) {
	var cat domain.Category
	if err := db.WithContext(ctx).Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListActiveCategories returns all active categories ordered by name.
func ListActiveCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&out).Error
	return out, err
}

// IncrementCategoryCount adjusts a category's derived complaint counter by
// delta. Negative deltas floor at zero so a delete can never push the
// counter below the number of remaining complaints.
func IncrementCategoryCount(db *gorm.DB, id string, delta int64) error {
	res := db.Model(&domain.Category{}).
		Where("id = ?", id).
		Update("complaint_count", gorm.Expr("MAX(complaint_count + ?, 0)", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
