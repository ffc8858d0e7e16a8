package repositories

import (
	"context"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// DoctorRepository exposes the read-only view of doctors the booking core
// needs; doctor management itself lives in another subsystem.
type DoctorRepository interface {
	// GetByID retrieves a doctor by ID
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// List retrieves all active doctors (resync and seeding)
	List(ctx context.Context) ([]*entities.Doctor, error)
}
