package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/docpoint/docpoint-backend/internal/api/middleware"
	"github.com/docpoint/docpoint-backend/internal/application/services"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// AvailabilityHandler handles doctor availability HTTP requests
type AvailabilityHandler struct {
	availability *services.AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availability *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
	}
}

// GetAvailability handles GET /api/doctors/{id}/availability
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	fromDate := r.URL.Query().Get("from")
	toDate := r.URL.Query().Get("to")

	slots, err := h.availability.GetSlots(r.Context(), doctorID, fromDate, toDate)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"slots": slots,
		"count": len(slots),
	})
}

// updateAvailabilityRequest is the PUT payload
type updateAvailabilityRequest struct {
	Slots []*entities.Slot `json:"slots"`
}

// UpdateAvailability handles PUT /api/doctors/{id}/availability. Only the
// doctor who owns the calendar may edit it.
func (h *AvailabilityHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if identity.Role != middleware.RoleDoctor || identity.Subject != doctorID {
		respondWithError(w, http.StatusForbidden, "only the calendar owner can edit availability")
		return
	}

	var req updateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(req.Slots) == 0 {
		respondWithError(w, http.StatusBadRequest, "slots are required")
		return
	}

	updated, err := h.availability.BulkUpdate(r.Context(), doctorID, req.Slots)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"slots": updated,
		"count": len(updated),
	})
}
