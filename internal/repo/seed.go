// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file seeds the category and status registries with
// the built-in civic taxonomy. Seeding is idempotent: rows are matched by
// name and never overwritten, so operator edits survive restarts.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
)

var seedCategories = []domain.Category{
	{Name: "Roads & Infrastructure", Description: "Potholes, road damage, street lighting, traffic signals", Icon: "fas fa-road", Color: "#EF4444"},
	{Name: "Waste Management", Description: "Garbage collection, litter, waste disposal issues", Icon: "fas fa-trash", Color: "#10B981"},
	{Name: "Water & Sewage", Description: "Water supply, drainage, sewage problems", Icon: "fas fa-tint", Color: "#3B82F6"},
	{Name: "Public Safety", Description: "Street safety, crime, emergency services", Icon: "fas fa-shield-alt", Color: "#F59E0B"},
	{Name: "Environment", Description: "Air quality, noise pollution, green spaces", Icon: "fas fa-leaf", Color: "#22C55E"},
	{Name: "Transportation", Description: "Public transport, parking, traffic management", Icon: "fas fa-bus", Color: "#8B5CF6"},
	{Name: "Utilities", Description: "Electricity, internet, cable services", Icon: "fas fa-bolt", Color: "#F97316"},
	{Name: "Other", Description: "Other civic issues not covered above", Icon: "fas fa-question-circle", Color: "#6B7280"},
}

var seedStatuses = []domain.Status{
	{Name: "Submitted", Description: "Complaint has been submitted and is under review", Order: 1, Color: "#6B7280", Icon: "fas fa-paper-plane", RequiresAdminAction: true},
	{Name: "Under Review", Description: "Complaint is being reviewed by authorities", Order: 2, Color: "#3B82F6", Icon: "fas fa-search", RequiresAdminAction: true},
	{Name: "In Progress", Description: "Work has started on resolving the complaint", Order: 3, Color: "#F59E0B", Icon: "fas fa-tools"},
	{Name: "Resolved", Description: "Complaint has been successfully resolved", Order: 4, Color: "#10B981", Icon: "fas fa-check-circle", IsFinal: true},
	{Name: "Rejected", Description: "Complaint has been rejected due to invalid information", Order: 5, Color: "#EF4444", Icon: "fas fa-times-circle", IsFinal: true, RequiresAdminAction: true},
	{Name: "Duplicate", Description: "Complaint is a duplicate of an existing issue", Order: 6, Color: "#8B5CF6", Icon: "fas fa-copy", IsFinal: true, RequiresAdminAction: true},
}

// SeedRegistries inserts the built-in categories and workflow statuses,
// skipping any row whose name already exists.
func SeedRegistries(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range seedCategories {
			var n int64
			if err := tx.Model(&domain.Category{}).Where("name = ?", c.Name).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			row := c
			row.ID = uuid.NewString()
			row.IsActive = true
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, s := range seedStatuses {
			var n int64
			if err := tx.Model(&domain.Status{}).Where("name = ?", s.Name).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			row := s
			row.ID = uuid.NewString()
			row.IsActive = true
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
