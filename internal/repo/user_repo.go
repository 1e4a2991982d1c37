// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the user
// directory: identity/role reads and aggregate counter increments.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

// GetUser fetches a user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// IncrementComplaintsSubmitted adjusts a user's submission counter by
// delta, flooring at zero.
func IncrementComplaintsSubmitted(db *gorm.DB, userID string, delta int64) error {
	res := db.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("complaints_submitted", gorm.Expr("MAX(complaints_submitted + ?, 0)", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementComplaintsResolved bumps a user's resolved counter by one.
// Called on the first transition of one of their complaints into Resolved.
func IncrementComplaintsResolved(db *gorm.DB, userID string) error {
	res := db.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("complaints_resolved", gorm.Expr("complaints_resolved + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
