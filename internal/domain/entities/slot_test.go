package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

func TestNormalizeDate(t *testing.T) {
	t.Run("accepts canonical day", func(t *testing.T) {
		got, err := entities.NormalizeDate("2024-06-01")
		require.NoError(t, err)
		assert.Equal(t, "2024-06-01", got)
	})

	t.Run("normalizes RFC3339 timestamps", func(t *testing.T) {
		got, err := entities.NormalizeDate("2024-06-01T14:30:00Z")
		require.NoError(t, err)
		assert.Equal(t, "2024-06-01", got)
	})

	t.Run("rejects everything else", func(t *testing.T) {
		_, err := entities.NormalizeDate("06/01/2024")
		assert.Error(t, err)
	})
}

func TestNormalizeTime(t *testing.T) {
	got, err := entities.NormalizeTime("9:00")
	require.NoError(t, err)
	assert.Equal(t, "09:00", got)

	_, err = entities.NormalizeTime("nine")
	assert.Error(t, err)
}

func TestSlot_FullAndRecomputeBooked(t *testing.T) {
	slot := &entities.Slot{
		DoctorID:        "doc-1",
		Date:            "2024-06-01",
		Time:            "09:00",
		PatientLimit:    2,
		CurrentBookings: 1,
	}

	assert.False(t, slot.Full())
	slot.RecomputeBooked()
	assert.False(t, slot.IsBooked)

	slot.CurrentBookings = 2
	assert.True(t, slot.Full())
	slot.RecomputeBooked()
	assert.True(t, slot.IsBooked)
}

func TestSlot_Validate(t *testing.T) {
	t.Run("rejects zero patient limit", func(t *testing.T) {
		slot := &entities.Slot{PatientLimit: 0}
		err := slot.Validate()
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, entities.CodeInvalidCapacity))
	})

	t.Run("rejects bookings above the limit", func(t *testing.T) {
		slot := &entities.Slot{PatientLimit: 1, CurrentBookings: 2}
		assert.Error(t, slot.Validate())
	})

	t.Run("accepts bookings within bounds", func(t *testing.T) {
		slot := &entities.Slot{PatientLimit: 3, CurrentBookings: 3}
		assert.NoError(t, slot.Validate())
	})
}

func TestSlotKey_String(t *testing.T) {
	key := entities.SlotKey{DoctorID: "doc-1", Date: "2024-06-01", Time: "09:00"}
	assert.Equal(t, "doc-1:2024-06-01:09:00", key.String())
}
