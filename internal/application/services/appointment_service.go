package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// AppointmentService handles status transitions and ledger queries. Status
// changes go through the appointment state machine, and any change that
// affects slot capacity is applied to the slot in the same transaction.
type AppointmentService struct {
	slotRepo        repositories.SlotRepository
	appointmentRepo repositories.AppointmentRepository
	locks           *SlotLockManager
	tx              providers.TransactionProvider
	reconciler      *CapacityReconciler
	eventBus        providers.EventBus
	notifications   *NotificationService
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	slotRepo repositories.SlotRepository,
	appointmentRepo repositories.AppointmentRepository,
	locks *SlotLockManager,
	tx providers.TransactionProvider,
	reconciler *CapacityReconciler,
) *AppointmentService {
	return &AppointmentService{
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		locks:           locks,
		tx:              tx,
		reconciler:      reconciler,
	}
}

// SetEventBus enables slot update events after status changes
func (s *AppointmentService) SetEventBus(eventBus providers.EventBus) {
	s.eventBus = eventBus
}

// SetNotificationService enables fire-and-forget status notifications
func (s *AppointmentService) SetNotificationService(notifications *NotificationService) {
	s.notifications = notifications
}

// GetByID retrieves an appointment by ID
func (s *AppointmentService) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.appointmentRepo.GetByID(ctx, id)
}

// SetStatus moves an appointment along the state machine. A reactivation
// (cancelled to scheduled) re-passes the capacity check under the slot lock;
// the status write and the count adjustment commit in one transaction.
// Same-status no-ops on terminal states succeed without touching the slot.
func (s *AppointmentService) SetStatus(ctx context.Context, appointmentID string, status entities.AppointmentStatus) (*entities.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	key := appointment.SlotKey()

	release, err := s.locks.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock so the transition is validated against the
	// current status, not the one observed before waiting
	appointment, err = s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	transition, err := entities.ValidateTransition(appointment.Status, status)
	if err != nil {
		return nil, err
	}

	if transition.NoOp {
		return appointment, nil
	}

	if transition.Delta > 0 {
		slot, err := s.slotRepo.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !slot.IsAvailable {
			return nil, entities.NewSlotNotFoundError(key)
		}
		if slot.Full() {
			return nil, entities.NewSlotFullError(key)
		}
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appointmentRepo.UpdateStatus(txCtx, appointmentID, status); err != nil {
			return err
		}
		_, err := s.reconciler.Apply(txCtx, key, transition)
		return err
	})
	if err != nil {
		return nil, err
	}

	previous := appointment.Status
	appointment.Status = status
	appointment.UpdatedAt = time.Now()

	log.Info().
		Str("appointment_id", appointmentID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("appointment status changed")

	s.publish(ctx, key, appointmentID)
	s.notify(appointment)

	return appointment, nil
}

// CheckDuplicate reports whether the patient already holds an active
// appointment on the slot. Advisory only: Book re-checks under the lock, so
// this result can go stale but never substitutes for the authoritative check.
func (s *AppointmentService) CheckDuplicate(ctx context.Context, patientID, doctorID, date, timeLabel string) (bool, error) {
	key, err := normalizeKey(doctorID, date, timeLabel)
	if err != nil {
		return false, err
	}

	existing, err := s.appointmentRepo.FindActiveByPatientSlot(ctx, patientID, key)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// ListForPatient returns the patient's appointments split into upcoming and
// previous relative to today
func (s *AppointmentService) ListForPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) (*PatientAppointments, error) {
	appointments, err := s.appointmentRepo.ListByPatient(ctx, patientID, filter)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format(entities.DateLayout)
	out := &PatientAppointments{}
	for _, apt := range appointments {
		if apt.Date >= today && apt.Status.Active() {
			out.Upcoming = append(out.Upcoming, apt)
		} else {
			out.Previous = append(out.Previous, apt)
		}
	}
	return out, nil
}

// ListForDoctor returns the doctor's appointments split into today, upcoming
// and history views
func (s *AppointmentService) ListForDoctor(ctx context.Context, doctorID string, filter repositories.AppointmentFilter) (*DoctorAppointments, error) {
	appointments, err := s.appointmentRepo.ListByDoctor(ctx, doctorID, filter)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format(entities.DateLayout)
	out := &DoctorAppointments{}
	for _, apt := range appointments {
		switch {
		case apt.Date == today && apt.Status.Active():
			out.Today = append(out.Today, apt)
		case apt.Date > today && apt.Status.Active():
			out.Upcoming = append(out.Upcoming, apt)
		default:
			out.History = append(out.History, apt)
		}
	}
	return out, nil
}

// Stats returns the doctor's appointment counts by status
func (s *AppointmentService) Stats(ctx context.Context, doctorID string) (*DoctorStats, error) {
	counts, err := s.appointmentRepo.CountByDoctorStatus(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	stats := &DoctorStats{
		Completed: counts[entities.AppointmentStatusCompleted],
		Pending:   counts[entities.AppointmentStatusPending] + counts[entities.AppointmentStatusScheduled],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// PatientAppointments is the patient dashboard view of the ledger
type PatientAppointments struct {
	Upcoming []*entities.Appointment `json:"upcoming"`
	Previous []*entities.Appointment `json:"previous"`
}

// DoctorAppointments is the doctor dashboard view of the ledger
type DoctorAppointments struct {
	Today    []*entities.Appointment `json:"today"`
	Upcoming []*entities.Appointment `json:"upcoming"`
	History  []*entities.Appointment `json:"history"`
}

// DoctorStats summarizes a doctor's ledger
type DoctorStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

func (s *AppointmentService) publish(ctx context.Context, key entities.SlotKey, appointmentID string) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewSlotEvent(key, entities.SlotEventTypeStatusChanged, appointmentID)
	publishSlotEvent(ctx, s.eventBus, event)
}

func (s *AppointmentService) notify(appointment *entities.Appointment) {
	if s.notifications == nil {
		return
	}

	apt := *appointment
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifications.Send(ctx, &apt, entities.NotificationStatusUpdate); err != nil {
			log.Warn().Err(err).Str("appointment_id", apt.ID).Msg("failed to send notification")
		}
	}()
}
