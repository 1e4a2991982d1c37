// Package services – RegistryService
//
// Read access to the category and status registries. Registries are seeded
// at startup and mutated only through counter maintenance; this service
// exposes them for client rendering (category pickers, workflow legends).
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/repo"

	"go.opentelemetry.io/otel"
)

// RegistryService exposes read-only registry lookups.
type RegistryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Categories returns the active categories ordered by name, including their
// running complaint counts.
func (s *RegistryService) Categories(ctx context.Context) ([]domain.Category, error) {
	tr := otel.Tracer("services/RegistryService")
	ctx, span := tr.Start(ctx, "Categories")
	defer span.End()

	return repo.ListActiveCategories(ctx, s.DB)
}

// Statuses returns every workflow status in progression order.
func (s *RegistryService) Statuses(ctx context.Context) ([]domain.Status, error) {
	tr := otel.Tracer("services/RegistryService")
	ctx, span := tr.Start(ctx, "Statuses")
	defer span.End()

	return repo.ListStatuses(ctx, s.DB)
}
