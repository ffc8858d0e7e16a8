package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/docpoint/docpoint-backend/internal/api/middleware"
	"github.com/docpoint/docpoint-backend/internal/application/services"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// AppointmentHandler handles appointment HTTP requests
type AppointmentHandler struct {
	booking      *services.BookingService
	appointments *services.AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(booking *services.BookingService, appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		booking:      booking,
		appointments: appointments,
	}
}

// bookRequest is the POST /api/appointments payload. The patient identity
// comes from the verified token, never from the body.
type bookRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Type     string `json:"type"`
	Symptoms string `json:"symptoms"`
}

// BookAppointment handles POST /api/appointments
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.DoctorID == "" || req.Date == "" || req.Time == "" {
		respondWithError(w, http.StatusBadRequest, "doctor_id, date and time are required")
		return
	}

	appointment, err := h.booking.Book(r.Context(), req.DoctorID, identity.Subject, req.Date, req.Time,
		entities.AppointmentDetails{Type: req.Type, Symptoms: req.Symptoms})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// CancelAppointment handles POST /api/appointments/{id}/cancel
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID := r.PathValue("id")
	if appointmentID == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	appointment, err := h.appointments.GetByID(r.Context(), appointmentID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if !canTouch(identity, appointment) {
		respondWithError(w, http.StatusForbidden, "not your appointment")
		return
	}

	cancelled, err := h.booking.Cancel(r.Context(), appointmentID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cancelled)
}

// statusRequest is the PATCH /api/appointments/{id}/status payload
type statusRequest struct {
	Status entities.AppointmentStatus `json:"status"`
}

// UpdateStatus handles PATCH /api/appointments/{id}/status. Only the doctor
// side moves appointments through the state machine.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	appointmentID := r.PathValue("id")
	if appointmentID == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if identity.Role != middleware.RoleDoctor {
		respondWithError(w, http.StatusForbidden, "only doctors can update appointment status")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Status == "" {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	appointment, err := h.appointments.GetByID(r.Context(), appointmentID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if appointment.DoctorID != identity.Subject {
		respondWithError(w, http.StatusForbidden, "not your appointment")
		return
	}

	updated, err := h.appointments.SetStatus(r.Context(), appointmentID, req.Status)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// checkDuplicateRequest is the POST /api/appointments/check-duplicate payload
type checkDuplicateRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// CheckDuplicate handles POST /api/appointments/check-duplicate. Advisory:
// booking re-checks authoritatively.
func (h *AppointmentHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req checkDuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.DoctorID == "" || req.Date == "" || req.Time == "" {
		respondWithError(w, http.StatusBadRequest, "doctor_id, date and time are required")
		return
	}

	duplicate, err := h.appointments.CheckDuplicate(r.Context(), identity.Subject, req.DoctorID, req.Date, req.Time)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"duplicate": duplicate})
}

// ListAppointments handles GET /api/appointments, returning the dashboard
// view matching the caller's role
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter := repositories.AppointmentFilter{
		Status:   entities.AppointmentStatus(r.URL.Query().Get("status")),
		FromDate: r.URL.Query().Get("from"),
		ToDate:   r.URL.Query().Get("to"),
	}

	if identity.Role == middleware.RoleDoctor {
		view, err := h.appointments.ListForDoctor(r.Context(), identity.Subject, filter)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, view)
		return
	}

	view, err := h.appointments.ListForPatient(r.Context(), identity.Subject, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// GetDoctorStats handles GET /api/doctors/{id}/stats
func (h *AppointmentHandler) GetDoctorStats(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	stats, err := h.appointments.Stats(r.Context(), doctorID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func canTouch(identity middleware.Identity, appointment *entities.Appointment) bool {
	if identity.Role == middleware.RoleDoctor {
		return appointment.DoctorID == identity.Subject
	}
	return appointment.PatientID == identity.Subject
}
