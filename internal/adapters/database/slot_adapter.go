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

var slotColumns = []interface{}{
	"doctor_id", "date", "time", "is_available", "is_booked",
	"patient_limit", "current_bookings", "created_at", "updated_at",
}

// SlotAdapter implements the SlotRepository interface against Postgres.
// AdjustBookings is a single conditional UPDATE, so the capacity bound holds
// even without the per-slot lock.
type SlotAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSlotAdapter creates a new slot adapter
func NewSlotAdapter(client *postgres.Client) repositories.SlotRepository {
	return &SlotAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Get retrieves a slot by its identity key
func (a *SlotAdapter) Get(ctx context.Context, key entities.SlotKey) (*entities.Slot, error) {
	query, args, err := a.db.Select(slotColumns...).
		From("slots").
		Where(keyEx(key)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	slot, err := scanSlot(querierFrom(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, entities.NewSlotNotFoundError(key)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get slot", err)
	}
	return slot, nil
}

// ListByDoctor retrieves persisted slots for a doctor in [fromDate, toDate]
func (a *SlotAdapter) ListByDoctor(ctx context.Context, doctorID, fromDate, toDate string) ([]*entities.Slot, error) {
	ds := a.db.Select(slotColumns...).
		From("slots").
		Where(goqu.Ex{"doctor_id": doctorID})

	if fromDate != "" {
		ds = ds.Where(goqu.C("date").Gte(fromDate))
	}
	if toDate != "" {
		ds = ds.Where(goqu.C("date").Lte(toDate))
	}

	ds = ds.Order(goqu.I("date").Asc(), goqu.I("time").Asc())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := querierFrom(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list slots", err)
	}
	defer rows.Close()

	var slots []*entities.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan slot", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Upsert inserts or replaces a single slot
func (a *SlotAdapter) Upsert(ctx context.Context, slot *entities.Slot) error {
	return a.upsert(ctx, querierFrom(ctx, a.client), slot)
}

// UpsertMany inserts or replaces a batch of slots
func (a *SlotAdapter) UpsertMany(ctx context.Context, slots []*entities.Slot) error {
	q := querierFrom(ctx, a.client)
	for _, slot := range slots {
		if err := a.upsert(ctx, q, slot); err != nil {
			return err
		}
	}
	return nil
}

func (a *SlotAdapter) upsert(ctx context.Context, q querier, slot *entities.Slot) error {
	now := time.Now()
	record := goqu.Record{
		"doctor_id":        slot.DoctorID,
		"date":             slot.Date,
		"time":             slot.Time,
		"is_available":     slot.IsAvailable,
		"is_booked":        slot.IsBooked,
		"patient_limit":    slot.PatientLimit,
		"current_bookings": slot.CurrentBookings,
		"created_at":       now,
		"updated_at":       now,
	}

	query, args, err := a.db.Insert("slots").
		Rows(record).
		OnConflict(goqu.DoUpdate("doctor_id, date, time", goqu.Record{
			"is_available":     slot.IsAvailable,
			"is_booked":        slot.IsBooked,
			"patient_limit":    slot.PatientLimit,
			"current_bookings": slot.CurrentBookings,
			"updated_at":       now,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert slot", err)
	}
	return nil
}

// AdjustBookings applies a delta to current_bookings in one conditional
// UPDATE. Decrements floor at zero; an increment past patient_limit matches
// no row and surfaces as a slot-full error.
func (a *SlotAdapter) AdjustBookings(ctx context.Context, key entities.SlotKey, delta int) (*entities.Slot, error) {
	ds := a.db.Update("slots").
		Set(goqu.Record{
			"current_bookings": goqu.L("GREATEST(current_bookings + ?, 0)", delta),
			"is_booked":        goqu.L("GREATEST(current_bookings + ?, 0) >= patient_limit", delta),
			"updated_at":       time.Now(),
		}).
		Where(keyEx(key))

	if delta > 0 {
		ds = ds.Where(goqu.L("current_bookings + ? <= patient_limit", delta))
	}

	query, args, err := ds.Returning(slotColumns...).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build adjust query", err)
	}

	slot, err := scanSlot(querierFrom(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		// Either the slot does not exist or the guard rejected the increment
		if _, getErr := a.Get(ctx, key); getErr != nil {
			return nil, getErr
		}
		return nil, entities.NewSlotFullError(key)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to adjust bookings", err)
	}
	return slot, nil
}

// SetBookings overwrites current_bookings with an authoritative count
func (a *SlotAdapter) SetBookings(ctx context.Context, key entities.SlotKey, count int) (*entities.Slot, error) {
	if count < 0 {
		count = 0
	}

	query, args, err := a.db.Update("slots").
		Set(goqu.Record{
			"current_bookings": count,
			"is_booked":        goqu.L("? >= patient_limit", count),
			"updated_at":       time.Now(),
		}).
		Where(keyEx(key)).
		Returning(slotColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build set query", err)
	}

	slot, err := scanSlot(querierFrom(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, entities.NewSlotNotFoundError(key)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to set bookings", err)
	}
	return slot, nil
}

func keyEx(key entities.SlotKey) goqu.Ex {
	return goqu.Ex{
		"doctor_id": key.DoctorID,
		"date":      key.Date,
		"time":      key.Time,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*entities.Slot, error) {
	slot := &entities.Slot{}
	err := row.Scan(
		&slot.DoctorID,
		&slot.Date,
		&slot.Time,
		&slot.IsAvailable,
		&slot.IsBooked,
		&slot.PatientLimit,
		&slot.CurrentBookings,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return slot, nil
}
