package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

// NotificationAdapter implements the NotificationRepository interface
type NotificationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewNotificationAdapter creates a new notification adapter
func NewNotificationAdapter(client *postgres.Client) repositories.NotificationRepository {
	return &NotificationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a new notification record
func (a *NotificationAdapter) Create(ctx context.Context, notification *entities.AppointmentNotification) error {
	now := time.Now()
	record := goqu.Record{
		"id":                notification.ID,
		"appointment_id":    notification.AppointmentID,
		"notification_type": notification.NotificationType,
		"recipient":         notification.Recipient,
		"status":            notification.Status,
		"created_at":        now,
		"updated_at":        now,
	}

	query, args, err := a.db.Insert("appointment_notifications").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := querierFrom(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create notification", err)
	}
	return nil
}

// MarkSent records a successful delivery
func (a *NotificationAdapter) MarkSent(ctx context.Context, id string) error {
	now := time.Now()
	return a.update(ctx, id, goqu.Record{
		"status":     entities.NotificationStatusSent,
		"sent_at":    now,
		"updated_at": now,
	})
}

// MarkFailed records a failed delivery with the error message
func (a *NotificationAdapter) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	now := time.Now()
	return a.update(ctx, id, goqu.Record{
		"status":        entities.NotificationStatusFailed,
		"error_message": errorMessage,
		"failed_at":     now,
		"updated_at":    now,
	})
}

func (a *NotificationAdapter) update(ctx context.Context, id string, record goqu.Record) error {
	query, args, err := a.db.Update("appointment_notifications").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := querierFrom(ctx, a.client).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update notification", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError("notification not found: " + id)
	}
	return nil
}

// ListByAppointment retrieves the notification history for an appointment
func (a *NotificationAdapter) ListByAppointment(ctx context.Context, appointmentID string) ([]*entities.AppointmentNotification, error) {
	query, args, err := a.db.Select(
		"id", "appointment_id", "notification_type", "recipient", "status",
		"error_message", "sent_at", "failed_at", "created_at", "updated_at",
	).From("appointment_notifications").
		Where(goqu.Ex{"appointment_id": appointmentID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := querierFrom(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list notifications", err)
	}
	defer rows.Close()

	var notifications []*entities.AppointmentNotification
	for rows.Next() {
		n := &entities.AppointmentNotification{}
		err := rows.Scan(
			&n.ID,
			&n.AppointmentID,
			&n.NotificationType,
			&n.Recipient,
			&n.Status,
			&n.ErrorMessage,
			&n.SentAt,
			&n.FailedAt,
			&n.CreatedAt,
			&n.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan notification", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
