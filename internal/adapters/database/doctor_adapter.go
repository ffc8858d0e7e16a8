package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

var doctorColumns = []interface{}{
	"id", "name", "email", "specialization",
	"default_patient_limit", "is_active", "created_at", "updated_at",
}

// DoctorAdapter implements the read-only DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a doctor by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor := &entities.Doctor{}
	err = querierFrom(ctx, a.client).QueryRowContext(ctx, query, args...).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Email,
		&doctor.Specialization,
		&doctor.DefaultPatientLimit,
		&doctor.IsActive,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// List retrieves all active doctors
func (a *DoctorAdapter) List(ctx context.Context) ([]*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := querierFrom(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	var doctors []*entities.Doctor
	for rows.Next() {
		doctor := &entities.Doctor{}
		err := rows.Scan(
			&doctor.ID,
			&doctor.Name,
			&doctor.Email,
			&doctor.Specialization,
			&doctor.DefaultPatientLimit,
			&doctor.IsActive,
			&doctor.CreatedAt,
			&doctor.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, doctor)
	}
	return doctors, rows.Err()
}
