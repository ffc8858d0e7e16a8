package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/adapters/memory"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

func newBookingFixture(t *testing.T) (*BookingService, *memory.SlotStore, *memory.AppointmentStore) {
	t.Helper()
	slots := memory.NewSlotStore()
	appointments := memory.NewAppointmentStore()
	locks := NewSlotLockManager(2 * time.Second)
	service := NewBookingService(slots, appointments, locks, memory.NewTxProvider())
	return service, slots, appointments
}

func seedSlot(t *testing.T, slots *memory.SlotStore, doctorID, date, timeLabel string, limit int, available bool) {
	t.Helper()
	err := slots.Upsert(context.Background(), &entities.Slot{
		DoctorID:     doctorID,
		Date:         date,
		Time:         timeLabel,
		IsAvailable:  available,
		PatientLimit: limit,
	})
	require.NoError(t, err)
}

func TestBookingService_Book(t *testing.T) {
	ctx := context.Background()

	t.Run("books an available slot", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 3, true)

		apt, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00",
			entities.AppointmentDetails{Type: "consultation", Symptoms: "headache"})

		require.NoError(t, err)
		assert.NotEmpty(t, apt.ID)
		assert.Equal(t, entities.AppointmentStatusScheduled, apt.Status)
		assert.Equal(t, "consultation", apt.Type)

		slot, err := slots.Get(ctx, entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"})
		require.NoError(t, err)
		assert.Equal(t, 1, slot.CurrentBookings)
		assert.False(t, slot.IsBooked)
	})

	t.Run("marks slot booked at capacity", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 1, true)

		_, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)

		slot, err := slots.Get(ctx, entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"})
		require.NoError(t, err)
		assert.True(t, slot.IsBooked)
		assert.Equal(t, 1, slot.CurrentBookings)
	})

	t.Run("normalizes date and time forms", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "09:00", 2, true)

		apt, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10T00:00:00Z", "9:00", entities.AppointmentDetails{})

		require.NoError(t, err)
		assert.Equal(t, "2026-09-10", apt.Date)
		assert.Equal(t, "09:00", apt.Time)
	})

	t.Run("rejects a missing slot", func(t *testing.T) {
		service, _, _ := newBookingFixture(t)

		_, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})

		assert.True(t, apperrors.HasCode(err, entities.CodeSlotNotFound))
	})

	t.Run("rejects an unavailable slot", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 3, false)

		_, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})

		assert.True(t, apperrors.HasCode(err, entities.CodeSlotNotFound))
	})

	t.Run("rejects a duplicate booking by the same patient", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 3, true)

		_, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)

		_, err = service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		assert.True(t, apperrors.HasCode(err, entities.CodeDuplicateAppointment))

		slot, err := slots.Get(ctx, entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"})
		require.NoError(t, err)
		assert.Equal(t, 1, slot.CurrentBookings)
	})

	t.Run("rejects a full slot", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 1, true)

		_, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)

		_, err = service.Book(ctx, "doc-1", "pat-2", "2026-09-10", "10:00", entities.AppointmentDetails{})
		assert.True(t, apperrors.HasCode(err, entities.CodeSlotFull))
	})
}

func TestBookingService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels an active appointment and frees capacity", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 1, true)

		apt, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)

		cancelled, err := service.Cancel(ctx, apt.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusCancelled, cancelled.Status)

		slot, err := slots.Get(ctx, entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"})
		require.NoError(t, err)
		assert.Equal(t, 0, slot.CurrentBookings)
		assert.False(t, slot.IsBooked)
	})

	t.Run("rejects cancelling a cancelled appointment", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 1, true)

		apt, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)

		_, err = service.Cancel(ctx, apt.ID)
		require.NoError(t, err)

		_, err = service.Cancel(ctx, apt.ID)
		assert.True(t, apperrors.HasCode(err, entities.CodeInvalidTransition))
	})

	t.Run("rejects an unknown appointment", func(t *testing.T) {
		service, _, _ := newBookingFixture(t)

		_, err := service.Cancel(ctx, "missing")

		assert.True(t, apperrors.HasCode(err, entities.CodeAppointmentNotFound))
	})

	t.Run("freed capacity is bookable again", func(t *testing.T) {
		service, slots, _ := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 1, true)

		first, err := service.Book(ctx, "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)

		_, err = service.Cancel(ctx, first.ID)
		require.NoError(t, err)

		second, err := service.Book(ctx, "doc-1", "pat-2", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		slot, err := slots.Get(ctx, entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"})
		require.NoError(t, err)
		assert.Equal(t, 1, slot.CurrentBookings)
	})
}

func TestBookingService_ConcurrentBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("two callers on a capacity-one slot", func(t *testing.T) {
		service, slots, appointments := newBookingFixture(t)
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 1, true)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, patient := range []string{"pat-1", "pat-2"} {
			wg.Add(1)
			go func(i int, patient string) {
				defer wg.Done()
				_, errs[i] = service.Book(ctx, "doc-1", patient, "2026-09-10", "10:00", entities.AppointmentDetails{})
			}(i, patient)
		}
		wg.Wait()

		succeeded := 0
		full := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case apperrors.HasCode(err, entities.CodeSlotFull):
				full++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, full)

		key := entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"}
		slot, err := slots.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, slot.CurrentBookings)

		active, err := appointments.FindActiveBySlot(ctx, key)
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("hundred callers on a capacity-three slot", func(t *testing.T) {
		slots := memory.NewSlotStore()
		appointments := memory.NewAppointmentStore()
		locks := NewSlotLockManager(10 * time.Second)
		service := NewBookingService(slots, appointments, locks, memory.NewTxProvider())
		seedSlot(t, slots, "doc-1", "2026-09-10", "10:00", 3, true)

		const callers = 100
		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				patient := fmt.Sprintf("pat-%03d", i)
				_, errs[i] = service.Book(ctx, "doc-1", patient, "2026-09-10", "10:00", entities.AppointmentDetails{})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			if !apperrors.HasCode(err, entities.CodeSlotFull) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 3, succeeded)

		key := entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"}
		slot, err := slots.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 3, slot.CurrentBookings)

		active, err := appointments.FindActiveBySlot(ctx, key)
		require.NoError(t, err)
		assert.Len(t, active, 3)
	})
}
