package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// NotificationService sends booking lifecycle notices to patients. Each
// attempt is recorded before delivery so failed sends are visible and
// retriable; delivery failures never propagate into booking outcomes.
type NotificationService struct {
	sender           providers.NotificationSender
	notificationRepo repositories.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	sender providers.NotificationSender,
	notificationRepo repositories.NotificationRepository,
) *NotificationService {
	return &NotificationService{
		sender:           sender,
		notificationRepo: notificationRepo,
	}
}

// Send renders and delivers a notification for the appointment, recording
// the attempt and its outcome.
func (s *NotificationService) Send(ctx context.Context, appointment *entities.Appointment, notificationType entities.NotificationType) error {
	record := &entities.AppointmentNotification{
		ID:               uuid.New().String(),
		AppointmentID:    appointment.ID,
		NotificationType: notificationType,
		Recipient:        appointment.PatientID,
		Status:           entities.NotificationStatusPending,
	}
	if err := s.notificationRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	subject, body := renderNotification(appointment, notificationType)

	if _, err := s.sender.Send(ctx, record.Recipient, subject, body); err != nil {
		if markErr := s.notificationRepo.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
			log.Warn().Err(markErr).Str("notification_id", record.ID).Msg("failed to mark notification as failed")
		}
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if err := s.notificationRepo.MarkSent(ctx, record.ID); err != nil {
		log.Warn().Err(err).Str("notification_id", record.ID).Msg("failed to mark notification as sent")
	}

	return nil
}

// History returns the delivery record for an appointment
func (s *NotificationService) History(ctx context.Context, appointmentID string) ([]*entities.AppointmentNotification, error) {
	return s.notificationRepo.ListByAppointment(ctx, appointmentID)
}

func renderNotification(appointment *entities.Appointment, notificationType entities.NotificationType) (string, string) {
	when := fmt.Sprintf("%s at %s", appointment.Date, appointment.Time)

	switch notificationType {
	case entities.NotificationBookingConfirmation:
		return "Appointment confirmed",
			fmt.Sprintf("Your appointment on %s has been confirmed.", when)
	case entities.NotificationCancellation:
		return "Appointment cancelled",
			fmt.Sprintf("Your appointment on %s has been cancelled.", when)
	case entities.NotificationStatusUpdate:
		return "Appointment updated",
			fmt.Sprintf("Your appointment on %s is now %s.", when, appointment.Status)
	default:
		return "Appointment update",
			fmt.Sprintf("There is an update for your appointment on %s.", when)
	}
}
