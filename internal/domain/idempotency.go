// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency records the outcome of a previously processed complaint
// submission, keyed by (user_id, key). It lets POST /complaints be retried
// safely: a replay returns the originally created complaint instead of
// filing a duplicate.
type Idempotency struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:1"`
	Key         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:2"`
	ComplaintID string    `gorm:"type:TEXT NOT NULL"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
