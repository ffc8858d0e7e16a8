package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

var appointmentColumns = []interface{}{
	"id", "doctor_id", "patient_id", "date", "time",
	"type", "symptoms", "status", "created_at", "updated_at",
}

var activeStatuses = []entities.AppointmentStatus{
	entities.AppointmentStatusPending,
	entities.AppointmentStatusScheduled,
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"id":         appointment.ID,
		"doctor_id":  appointment.DoctorID,
		"patient_id": appointment.PatientID,
		"date":       appointment.Date,
		"time":       appointment.Time,
		"type":       appointment.Type,
		"symptoms":   appointment.Symptoms,
		"status":     appointment.Status,
		"created_at": appointment.CreatedAt,
		"updated_at": appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := querierFrom(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}
	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(querierFrom(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, entities.NewAppointmentNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// UpdateStatus persists a status change
func (a *AppointmentAdapter) UpdateStatus(ctx context.Context, id string, status entities.AppointmentStatus) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := querierFrom(ctx, a.client).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update appointment status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return entities.NewAppointmentNotFoundError(id)
	}
	return nil
}

// FindActiveBySlot returns all active appointments on a slot
func (a *AppointmentAdapter) FindActiveBySlot(ctx context.Context, key entities.SlotKey) ([]*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(
			goqu.Ex{
				"doctor_id": key.DoctorID,
				"date":      key.Date,
				"time":      key.Time,
			},
			goqu.C("status").In(activeStatuses),
		).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

// FindActiveByPatientSlot returns the patient's active appointment on a slot,
// or nil when none exists
func (a *AppointmentAdapter) FindActiveByPatientSlot(ctx context.Context, patientID string, key entities.SlotKey) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(
			goqu.Ex{
				"doctor_id":  key.DoctorID,
				"patient_id": patientID,
				"date":       key.Date,
				"time":       key.Time,
			},
			goqu.C("status").In(activeStatuses),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(querierFrom(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find appointment", err)
	}
	return appointment, nil
}

// ListByPatient retrieves appointments for a patient
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"patient_id": patientID})

	query, args, err := applyFilter(ds, filter).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}
	return a.queryAppointments(ctx, query, args)
}

// ListByDoctor retrieves appointments for a doctor
func (a *AppointmentAdapter) ListByDoctor(ctx context.Context, doctorID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"doctor_id": doctorID})

	query, args, err := applyFilter(ds, filter).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}
	return a.queryAppointments(ctx, query, args)
}

// CountByDoctorStatus returns per-status appointment counts for a doctor
func (a *AppointmentAdapter) CountByDoctorStatus(ctx context.Context, doctorID string) (map[entities.AppointmentStatus]int, error) {
	query, args, err := a.db.Select("status", goqu.COUNT("*").As("count")).
		From("appointments").
		Where(goqu.Ex{"doctor_id": doctorID}).
		GroupBy("status").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build count query", err)
	}

	rows, err := querierFrom(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count appointments", err)
	}
	defer rows.Close()

	counts := make(map[entities.AppointmentStatus]int)
	for rows.Next() {
		var status entities.AppointmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan count", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (a *AppointmentAdapter) queryAppointments(ctx context.Context, query string, args []interface{}) ([]*entities.Appointment, error) {
	rows, err := querierFrom(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func applyFilter(ds *goqu.SelectDataset, filter repositories.AppointmentFilter) *goqu.SelectDataset {
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.FromDate != "" {
		ds = ds.Where(goqu.C("date").Gte(filter.FromDate))
	}
	if filter.ToDate != "" {
		ds = ds.Where(goqu.C("date").Lte(filter.ToDate))
	}

	ds = ds.Order(goqu.I("date").Asc(), goqu.I("time").Asc(), goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return ds
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	err := row.Scan(
		&appointment.ID,
		&appointment.DoctorID,
		&appointment.PatientID,
		&appointment.Date,
		&appointment.Time,
		&appointment.Type,
		&appointment.Symptoms,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return appointment, nil
}
