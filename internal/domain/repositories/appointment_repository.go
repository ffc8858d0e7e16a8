package repositories

import (
	"context"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// AppointmentRepository is the ledger of appointment records; records are
// never deleted, only transitioned.
type AppointmentRepository interface {
	// Create stores a new appointment
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// UpdateStatus persists a status change; transition validity is the
	// caller's responsibility
	UpdateStatus(ctx context.Context, id string, status entities.AppointmentStatus) error

	// FindActiveBySlot returns all appointments on a slot with status in
	// {pending, scheduled}
	FindActiveBySlot(ctx context.Context, key entities.SlotKey) ([]*entities.Appointment, error)

	// FindActiveByPatientSlot returns the patient's active appointment on a
	// slot, or nil when none exists (used for duplicate detection)
	FindActiveByPatientSlot(ctx context.Context, patientID string, key entities.SlotKey) (*entities.Appointment, error)

	// ListByPatient retrieves appointments for a patient
	ListByPatient(ctx context.Context, patientID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// ListByDoctor retrieves appointments for a doctor
	ListByDoctor(ctx context.Context, doctorID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// CountByDoctorStatus returns per-status appointment counts for a doctor
	CountByDoctorStatus(ctx context.Context, doctorID string) (map[entities.AppointmentStatus]int, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Status   entities.AppointmentStatus
	FromDate string
	ToDate   string
	Limit    int
	Offset   int
}
