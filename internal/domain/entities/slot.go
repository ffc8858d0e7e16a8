package entities

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-day form used everywhere in the core.
// Mixed representations (RFC3339 timestamps, native dates) are normalized to
// this at the ingress boundary.
const DateLayout = "2006-01-02"

// TimeLayout is the canonical hour-of-day label for a slot cell.
const TimeLayout = "15:04"

// Slot represents a bookable (doctor, date, time) cell with a patient capacity
type Slot struct {
	DoctorID        string    `json:"doctor_id" db:"doctor_id"`
	Date            string    `json:"date" db:"date"`
	Time            string    `json:"time" db:"time"`
	IsAvailable     bool      `json:"is_available" db:"is_available"`
	IsBooked        bool      `json:"is_booked" db:"is_booked"`
	PatientLimit    int       `json:"patient_limit" db:"patient_limit"`
	CurrentBookings int       `json:"current_bookings" db:"current_bookings"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// SlotKey identifies a slot cell. It is the serialization boundary for all
// booking, cancellation and status-transition operations.
type SlotKey struct {
	DoctorID string
	Date     string
	Time     string
}

// String returns the canonical lock/cache key form
func (k SlotKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.DoctorID, k.Date, k.Time)
}

// Key returns the identity key of the slot
func (s *Slot) Key() SlotKey {
	return SlotKey{DoctorID: s.DoctorID, Date: s.Date, Time: s.Time}
}

// Full reports whether the slot has reached its patient capacity
func (s *Slot) Full() bool {
	return s.CurrentBookings >= s.PatientLimit
}

// RecomputeBooked refreshes the derived is_booked flag from the counts
func (s *Slot) RecomputeBooked() {
	s.IsBooked = s.Full()
}

// Validate checks the slot capacity invariant: 0 <= current_bookings <= patient_limit
func (s *Slot) Validate() error {
	if s.PatientLimit < 1 {
		return NewInvalidCapacityError(fmt.Sprintf("patient limit must be at least 1, got %d", s.PatientLimit))
	}
	if s.CurrentBookings < 0 || s.CurrentBookings > s.PatientLimit {
		return NewInvalidCapacityError(fmt.Sprintf("current bookings %d outside [0, %d]", s.CurrentBookings, s.PatientLimit))
	}
	return nil
}

// NormalizeDate converts the accepted date representations (canonical day,
// RFC3339 timestamp) to the canonical YYYY-MM-DD form
func NormalizeDate(value string) (string, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t.Format(DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(DateLayout), nil
	}
	return "", fmt.Errorf("unrecognized date %q, expected %s or RFC3339", value, DateLayout)
}

// NormalizeTime converts hour labels such as "9:00" to the canonical "09:00" form
func NormalizeTime(value string) (string, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return "", fmt.Errorf("unrecognized time %q, expected HH:MM", value)
	}
	return t.Format(TimeLayout), nil
}
