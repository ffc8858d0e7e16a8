package memory

import (
	"context"
	"sync"
	"time"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

// NotificationStore implements repositories.NotificationRepository in memory
type NotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]*entities.AppointmentNotification
}

// NewNotificationStore creates an empty in-memory notification store
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		notifications: make(map[string]*entities.AppointmentNotification),
	}
}

// Create stores a new notification record
func (s *NotificationStore) Create(ctx context.Context, notification *entities.AppointmentNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *notification
	now := time.Now()
	copied.CreatedAt = now
	copied.UpdatedAt = now
	s.notifications[notification.ID] = &copied
	return nil
}

// MarkSent records a successful delivery
func (s *NotificationStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return apperrors.NewNotFoundError("notification not found: " + id)
	}
	now := time.Now()
	n.Status = entities.NotificationStatusSent
	n.SentAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkFailed records a failed delivery with the error message
func (s *NotificationStore) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return apperrors.NewNotFoundError("notification not found: " + id)
	}
	now := time.Now()
	n.Status = entities.NotificationStatusFailed
	n.ErrorMessage = &errorMessage
	n.FailedAt = &now
	n.UpdatedAt = now
	return nil
}

// ListByAppointment retrieves the notification history for an appointment
func (s *NotificationStore) ListByAppointment(ctx context.Context, appointmentID string) ([]*entities.AppointmentNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.AppointmentNotification
	for _, n := range s.notifications {
		if n.AppointmentID == appointmentID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

var _ repositories.NotificationRepository = (*NotificationStore)(nil)
