package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

type availabilityResponse struct {
	Slots []*entities.Slot `json:"slots"`
	Count int              `json:"count"`
}

func TestAvailabilityHandler_GetAvailability(t *testing.T) {
	t.Run("merges stored slots into the grid", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedSlot(t, 2)

		req := httptest.NewRequest("GET", "/api/doctors/doc-1/availability?from=2026-09-10&to=2026-09-10", nil)
		req.SetPathValue("id", "doc-1")
		w := httptest.NewRecorder()

		f.availabilityHandler.GetAvailability(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp availabilityResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		// One day at one slot per hour from 09:00 through 17:00
		assert.Equal(t, 9, resp.Count)

		available := 0
		for _, slot := range resp.Slots {
			if slot.IsAvailable {
				available++
				assert.Equal(t, "10:00", slot.Time)
				assert.Equal(t, 2, slot.PatientLimit)
			}
		}
		assert.Equal(t, 1, available)
	})

	t.Run("malformed range returns 400", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := httptest.NewRequest("GET", "/api/doctors/doc-1/availability?from=not-a-date", nil)
		req.SetPathValue("id", "doc-1")
		w := httptest.NewRecorder()

		f.availabilityHandler.GetAvailability(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAvailabilityHandler_UpdateAvailability(t *testing.T) {
	payload := map[string]interface{}{
		"slots": []map[string]interface{}{
			{"date": "2026-09-10", "time": "10:00", "is_available": true, "patient_limit": 3},
		},
	}

	t.Run("owner updates the calendar", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := httptest.NewRequest("PUT", "/api/doctors/doc-1/availability", jsonBody(t, payload))
		req.SetPathValue("id", "doc-1")
		w := httptest.NewRecorder()

		f.availabilityHandler.UpdateAvailability(w, asDoctor(req, "doc-1"))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp availabilityResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, 3, resp.Slots[0].PatientLimit)
		assert.True(t, resp.Slots[0].IsAvailable)
	})

	t.Run("another doctor gets 403", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := httptest.NewRequest("PUT", "/api/doctors/doc-1/availability", jsonBody(t, payload))
		req.SetPathValue("id", "doc-1")
		w := httptest.NewRecorder()

		f.availabilityHandler.UpdateAvailability(w, asDoctor(req, "doc-2"))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("patients get 403", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := httptest.NewRequest("PUT", "/api/doctors/doc-1/availability", jsonBody(t, payload))
		req.SetPathValue("id", "doc-1")
		w := httptest.NewRecorder()

		f.availabilityHandler.UpdateAvailability(w, asPatient(req, "pat-1"))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("shrinking below live bookings returns 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedSlot(t, 2)

		_, err := f.booking.Book(context.Background(), "doc-1", "pat-1", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)
		_, err = f.booking.Book(context.Background(), "doc-1", "pat-2", "2026-09-10", "10:00", entities.AppointmentDetails{})
		require.NoError(t, err)

		shrink := map[string]interface{}{
			"slots": []map[string]interface{}{
				{"date": "2026-09-10", "time": "10:00", "is_available": true, "patient_limit": 1},
			},
		}

		req := httptest.NewRequest("PUT", "/api/doctors/doc-1/availability", jsonBody(t, shrink))
		req.SetPathValue("id", "doc-1")
		w := httptest.NewRecorder()

		f.availabilityHandler.UpdateAvailability(w, asDoctor(req, "doc-1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, entities.CodeInvalidCapacity, resp["code"])
	})
}
