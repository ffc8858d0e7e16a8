package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

func newMockAdapter(t *testing.T) (*SlotAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := postgres.NewClientFromDB(db)
	return NewSlotAdapter(client).(*SlotAdapter), mock
}

func slotRows(bookings, limit int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"doctor_id", "date", "time", "is_available", "is_booked",
		"patient_limit", "current_bookings", "created_at", "updated_at",
	}).AddRow("doc-1", "2026-09-10", "10:00", true, bookings >= limit, limit, bookings, now, now)
}

func TestSlotAdapter_Get(t *testing.T) {
	ctx := context.Background()
	key := entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"}

	t.Run("returns the stored slot", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)
		mock.ExpectQuery(`SELECT .+ FROM "slots" WHERE`).
			WillReturnRows(slotRows(1, 3))

		slot, err := adapter.Get(ctx, key)

		require.NoError(t, err)
		assert.Equal(t, "doc-1", slot.DoctorID)
		assert.Equal(t, 1, slot.CurrentBookings)
		assert.Equal(t, 3, slot.PatientLimit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing row to slot-not-found", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)
		mock.ExpectQuery(`SELECT .+ FROM "slots" WHERE`).
			WillReturnRows(sqlmock.NewRows([]string{"doctor_id"}))

		_, err := adapter.Get(ctx, key)

		assert.True(t, apperrors.HasCode(err, entities.CodeSlotNotFound))
	})
}

func TestSlotAdapter_AdjustBookings(t *testing.T) {
	ctx := context.Background()
	key := entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"}

	t.Run("increments under the capacity guard", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)
		mock.ExpectQuery(`UPDATE "slots" SET .+ RETURNING`).
			WillReturnRows(slotRows(2, 3))

		slot, err := adapter.AdjustBookings(ctx, key, 1)

		require.NoError(t, err)
		assert.Equal(t, 2, slot.CurrentBookings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("a guarded increment on a full slot reports slot-full", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)
		// The guarded UPDATE matches no row, the follow-up read finds the slot
		mock.ExpectQuery(`UPDATE "slots" SET .+ RETURNING`).
			WillReturnRows(sqlmock.NewRows([]string{"doctor_id"}))
		mock.ExpectQuery(`SELECT .+ FROM "slots" WHERE`).
			WillReturnRows(slotRows(3, 3))

		_, err := adapter.AdjustBookings(ctx, key, 1)

		assert.True(t, apperrors.HasCode(err, entities.CodeSlotFull))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("an increment on a missing slot reports slot-not-found", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)
		mock.ExpectQuery(`UPDATE "slots" SET .+ RETURNING`).
			WillReturnRows(sqlmock.NewRows([]string{"doctor_id"}))
		mock.ExpectQuery(`SELECT .+ FROM "slots" WHERE`).
			WillReturnRows(sqlmock.NewRows([]string{"doctor_id"}))

		_, err := adapter.AdjustBookings(ctx, key, 1)

		assert.True(t, apperrors.HasCode(err, entities.CodeSlotNotFound))
	})
}

func TestSlotAdapter_SetBookings(t *testing.T) {
	ctx := context.Background()
	key := entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"}

	t.Run("overwrites the count", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)
		mock.ExpectQuery(`UPDATE "slots" SET .+ RETURNING`).
			WillReturnRows(slotRows(2, 3))

		slot, err := adapter.SetBookings(ctx, key, 2)

		require.NoError(t, err)
		assert.Equal(t, 2, slot.CurrentBookings)
	})

	t.Run("a missing slot reports slot-not-found", func(t *testing.T) {
		adapter, mock := newMockAdapter(t)
		mock.ExpectQuery(`UPDATE "slots" SET .+ RETURNING`).
			WillReturnRows(sqlmock.NewRows([]string{"doctor_id"}))

		_, err := adapter.SetBookings(ctx, key, 0)

		assert.True(t, apperrors.HasCode(err, entities.CodeSlotNotFound))
	})
}
