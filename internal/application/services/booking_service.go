package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// BookingService is the single authoritative path for creating and
// cancelling reservations. All mutations of a slot's booking count happen
// under the slot's exclusive lock and inside one storage transaction, so the
// count always equals the number of active appointments on the slot.
type BookingService struct {
	slotRepo        repositories.SlotRepository
	appointmentRepo repositories.AppointmentRepository
	locks           *SlotLockManager
	tx              providers.TransactionProvider
	eventBus        providers.EventBus
	notifications   *NotificationService
}

// NewBookingService creates a new booking service
func NewBookingService(
	slotRepo repositories.SlotRepository,
	appointmentRepo repositories.AppointmentRepository,
	locks *SlotLockManager,
	tx providers.TransactionProvider,
) *BookingService {
	return &BookingService{
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		locks:           locks,
		tx:              tx,
	}
}

// SetEventBus enables slot update events after successful mutations
func (s *BookingService) SetEventBus(eventBus providers.EventBus) {
	s.eventBus = eventBus
}

// SetNotificationService enables fire-and-forget booking notifications
func (s *BookingService) SetNotificationService(notifications *NotificationService) {
	s.notifications = notifications
}

// Book reserves a slot for a patient. It fails with a slot-not-found error
// when the cell is missing or withdrawn, a duplicate-appointment error when
// the patient already holds an active appointment on the key, and a
// slot-full error when capacity is exhausted. On success the appointment is
// created with status scheduled and the slot count is incremented in the
// same transaction.
func (s *BookingService) Book(ctx context.Context, doctorID, patientID, date, timeLabel string, details entities.AppointmentDetails) (*entities.Appointment, error) {
	key, err := normalizeKey(doctorID, date, timeLabel)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	slot, err := s.slotRepo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !slot.IsAvailable {
		return nil, entities.NewSlotNotFoundError(key)
	}

	existing, err := s.appointmentRepo.FindActiveByPatientSlot(ctx, patientID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, entities.NewDuplicateAppointmentError(patientID, key)
	}

	if slot.Full() {
		return nil, entities.NewSlotFullError(key)
	}

	now := time.Now()
	appointment := &entities.Appointment{
		ID:        uuid.New().String(),
		DoctorID:  key.DoctorID,
		PatientID: patientID,
		Date:      key.Date,
		Time:      key.Time,
		Type:      details.Type,
		Symptoms:  details.Symptoms,
		Status:    entities.AppointmentStatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appointmentRepo.Create(txCtx, appointment); err != nil {
			return err
		}
		_, err := s.slotRepo.AdjustBookings(txCtx, key, +1)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("appointment_id", appointment.ID).
		Str("doctor_id", key.DoctorID).
		Str("patient_id", patientID).
		Str("date", key.Date).
		Str("time", key.Time).
		Msg("appointment booked")

	s.publish(ctx, key, entities.SlotEventTypeBookingCreated, appointment.ID)
	s.notify(appointment, entities.NotificationBookingConfirmation)

	return appointment, nil
}

// Cancel cancels an appointment, requiring an active status, and releases
// one unit of slot capacity in the same transaction.
func (s *BookingService) Cancel(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
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

	// Re-read under the lock: the status may have moved while waiting
	appointment, err = s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !appointment.Status.Active() {
		return nil, entities.NewInvalidTransitionError(appointment.Status, entities.AppointmentStatusCancelled)
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appointmentRepo.UpdateStatus(txCtx, appointmentID, entities.AppointmentStatusCancelled); err != nil {
			return err
		}
		_, err := s.slotRepo.AdjustBookings(txCtx, key, -1)
		return err
	})
	if err != nil {
		return nil, err
	}

	appointment.Status = entities.AppointmentStatusCancelled

	log.Info().
		Str("appointment_id", appointmentID).
		Str("doctor_id", key.DoctorID).
		Str("date", key.Date).
		Str("time", key.Time).
		Msg("appointment cancelled")

	s.publish(ctx, key, entities.SlotEventTypeBookingCancelled, appointmentID)
	s.notify(appointment, entities.NotificationCancellation)

	return appointment, nil
}

func (s *BookingService) publish(ctx context.Context, key entities.SlotKey, eventType entities.SlotEventType, appointmentID string) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewSlotEvent(key, eventType, appointmentID)
	publishSlotEvent(ctx, s.eventBus, event)
}

// notify delivers outside the booking transaction; a delivery failure never
// fails the booking
func (s *BookingService) notify(appointment *entities.Appointment, notificationType entities.NotificationType) {
	if s.notifications == nil {
		return
	}

	apt := *appointment
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifications.Send(ctx, &apt, notificationType); err != nil {
			log.Warn().Err(err).Str("appointment_id", apt.ID).Msg("failed to send notification")
		}
	}()
}

func normalizeKey(doctorID, date, timeLabel string) (entities.SlotKey, error) {
	day, err := entities.NormalizeDate(date)
	if err != nil {
		return entities.SlotKey{}, entities.NewInvalidCapacityError(err.Error())
	}
	label, err := entities.NormalizeTime(timeLabel)
	if err != nil {
		return entities.SlotKey{}, entities.NewInvalidCapacityError(err.Error())
	}
	return entities.SlotKey{DoctorID: doctorID, Date: day, Time: label}, nil
}
