package providers

import (
	"context"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SlotEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SlotEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelSlotUpdates is the channel for all slot updates
	EventChannelSlotUpdates = "slots:updates"

	// EventChannelDoctorPrefix is the prefix for doctor-specific channels
	EventChannelDoctorPrefix = "doctor:"
)

// GetDoctorChannel returns the channel name for a specific doctor
func GetDoctorChannel(doctorID string) string {
	return EventChannelDoctorPrefix + doctorID
}
