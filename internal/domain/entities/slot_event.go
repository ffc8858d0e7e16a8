package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SlotEventType represents the type of slot event
type SlotEventType string

const (
	SlotEventTypeAvailabilityUpdate SlotEventType = "availability_update"
	SlotEventTypeBookingCreated     SlotEventType = "booking_created"
	SlotEventTypeBookingCancelled   SlotEventType = "booking_cancelled"
	SlotEventTypeStatusChanged      SlotEventType = "status_changed"
	SlotEventTypeResync             SlotEventType = "resync"
)

// SlotEvent is a real-time update published after a slot mutation so clients
// re-fetch authoritative state instead of mirroring it optimistically.
type SlotEvent struct {
	ID            string        `json:"id"`
	DoctorID      string        `json:"doctor_id"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	EventType     SlotEventType `json:"event_type"`
	Timestamp     time.Time     `json:"timestamp"`
	AppointmentID string        `json:"appointment_id,omitempty"`
}

// NewSlotEvent creates a new slot event for the given key
func NewSlotEvent(key SlotKey, eventType SlotEventType, appointmentID string) *SlotEvent {
	return &SlotEvent{
		ID:            generateEventID(),
		DoctorID:      key.DoctorID,
		Date:          key.Date,
		Time:          key.Time,
		EventType:     eventType,
		Timestamp:     time.Now(),
		AppointmentID: appointmentID,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
