package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// CapacityReconciler keeps slot booking counts consistent with the
// appointment ledger: it translates validated status transitions into count
// deltas on the steady-state path, and recomputes counts wholesale on the
// repair path.
type CapacityReconciler struct {
	slotRepo        repositories.SlotRepository
	appointmentRepo repositories.AppointmentRepository
}

// NewCapacityReconciler creates a new capacity reconciler
func NewCapacityReconciler(
	slotRepo repositories.SlotRepository,
	appointmentRepo repositories.AppointmentRepository,
) *CapacityReconciler {
	return &CapacityReconciler{
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
	}
}

// Apply applies the capacity effect of a validated transition to the slot.
// No-op transitions leave the slot untouched.
func (r *CapacityReconciler) Apply(ctx context.Context, key entities.SlotKey, transition entities.Transition) (*entities.Slot, error) {
	if transition.NoOp || transition.Delta == 0 {
		return r.slotRepo.Get(ctx, key)
	}
	return r.slotRepo.AdjustBookings(ctx, key, transition.Delta)
}

// ResyncDoctor recomputes current_bookings for every persisted slot of the
// doctor in [fromDate, toDate] as the count of active appointments on its
// key, correcting any drift. Running it twice produces the same result as
// running it once. Returns the number of slots corrected.
func (r *CapacityReconciler) ResyncDoctor(ctx context.Context, doctorID, fromDate, toDate string) (int, error) {
	slots, err := r.slotRepo.ListByDoctor(ctx, doctorID, fromDate, toDate)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, slot := range slots {
		active, err := r.appointmentRepo.FindActiveBySlot(ctx, slot.Key())
		if err != nil {
			return corrected, err
		}

		want := len(active)
		if want > slot.PatientLimit {
			// Ledger shows more active appointments than the slot can hold;
			// the count is clamped to keep the capacity invariant, the
			// overbooking itself needs operator attention.
			log.Error().
				Str("doctor_id", doctorID).
				Str("date", slot.Date).
				Str("time", slot.Time).
				Int("active_appointments", want).
				Int("patient_limit", slot.PatientLimit).
				Msg("slot overbooked beyond capacity, clamping count")
			want = slot.PatientLimit
		}

		if want == slot.CurrentBookings {
			continue
		}

		if _, err := r.slotRepo.SetBookings(ctx, slot.Key(), want); err != nil {
			return corrected, err
		}
		corrected++

		log.Info().
			Str("doctor_id", doctorID).
			Str("date", slot.Date).
			Str("time", slot.Time).
			Int("previous", slot.CurrentBookings).
			Int("corrected", want).
			Msg("slot booking count corrected")
	}

	return corrected, nil
}
