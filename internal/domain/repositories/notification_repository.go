package repositories

import (
	"context"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// NotificationRepository records outbound notification attempts
type NotificationRepository interface {
	// Create stores a new notification record in pending state
	Create(ctx context.Context, notification *entities.AppointmentNotification) error

	// MarkSent records a successful delivery
	MarkSent(ctx context.Context, id string) error

	// MarkFailed records a failed delivery with the error message
	MarkFailed(ctx context.Context, id string, errorMessage string) error

	// ListByAppointment retrieves the notification history for an appointment
	ListByAppointment(ctx context.Context, appointmentID string) ([]*entities.AppointmentNotification, error)
}
