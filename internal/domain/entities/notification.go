package entities

import "time"

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationBookingConfirmation NotificationType = "booking_confirmation"
	NotificationCancellation        NotificationType = "cancellation"
	NotificationStatusUpdate        NotificationType = "status_update"
)

// NotificationStatus represents the delivery status
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// AppointmentNotification tracks outbound notifications. Delivery is
// fire-and-forget and never part of the booking transaction.
type AppointmentNotification struct {
	ID               string             `json:"id" db:"id"`
	AppointmentID    string             `json:"appointment_id" db:"appointment_id"`
	NotificationType NotificationType   `json:"notification_type" db:"notification_type"`
	Recipient        string             `json:"recipient" db:"recipient"`
	Status           NotificationStatus `json:"status" db:"status"`
	ErrorMessage     *string            `json:"error_message,omitempty" db:"error_message"`
	SentAt           *time.Time         `json:"sent_at,omitempty" db:"sent_at"`
	FailedAt         *time.Time         `json:"failed_at,omitempty" db:"failed_at"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}
