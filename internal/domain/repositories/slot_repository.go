package repositories

import (
	"context"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// SlotRepository is the authoritative store of published slots per doctor.
// current_bookings is only ever mutated through AdjustBookings/SetBookings so
// the capacity invariant can be enforced in one place.
type SlotRepository interface {
	// Get retrieves a slot by its identity key; not-found is an error
	Get(ctx context.Context, key entities.SlotKey) (*entities.Slot, error)

	// ListByDoctor retrieves persisted slots for a doctor in [fromDate, toDate]
	ListByDoctor(ctx context.Context, doctorID, fromDate, toDate string) ([]*entities.Slot, error)

	// Upsert inserts or replaces a single slot
	Upsert(ctx context.Context, slot *entities.Slot) error

	// UpsertMany inserts or replaces a batch of slots
	UpsertMany(ctx context.Context, slots []*entities.Slot) error

	// AdjustBookings applies a delta to current_bookings and refreshes
	// is_booked, failing if the result would leave [0, patient_limit]
	AdjustBookings(ctx context.Context, key entities.SlotKey, delta int) (*entities.Slot, error)

	// SetBookings overwrites current_bookings with an authoritative count,
	// clamped to [0, patient_limit] by the caller (used by reconciliation)
	SetBookings(ctx context.Context, key entities.SlotKey, count int) (*entities.Slot, error)
}
