package entities

import (
	"fmt"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusScheduled,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Active reports whether the status counts toward slot capacity
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusScheduled
}

// Appointment represents a patient's reservation of a doctor's slot
type Appointment struct {
	ID        string            `json:"id" db:"id"`
	DoctorID  string            `json:"doctor_id" db:"doctor_id"`
	PatientID string            `json:"patient_id" db:"patient_id"`
	Date      string            `json:"date" db:"date"`
	Time      string            `json:"time" db:"time"`
	Type      string            `json:"type" db:"type"`
	Symptoms  string            `json:"symptoms" db:"symptoms"`
	Status    AppointmentStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// SlotKey returns the key of the slot this appointment occupies
func (a *Appointment) SlotKey() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}

// JoinWindowMargin is how far around the slot start a video join is considered open
const JoinWindowMargin = 30 * time.Minute

// WithinJoinWindow reports whether now falls inside the join window of the
// appointment's slot. Exposed for clients; no endpoint enforces it.
func (a *Appointment) WithinJoinWindow(now time.Time) bool {
	start, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, now.Location())
	if err != nil {
		return false
	}
	diff := now.Sub(start)
	return diff >= -JoinWindowMargin && diff <= JoinWindowMargin
}

// Transition describes the capacity effect of a validated status change
type Transition struct {
	From  AppointmentStatus
	To    AppointmentStatus
	Delta int
	NoOp  bool
}

// ValidateTransition checks a status edge against the appointment state
// machine and returns its effect on the slot's booking count.
//
//	pending/scheduled -> completed   -1
//	pending/scheduled -> cancelled   -1
//	cancelled         -> scheduled   +1 (reactivation, re-passes capacity check)
//	cancelled         -> cancelled   no-op
//	completed         -> completed   no-op
//
// Every other edge is rejected.
func ValidateTransition(from, to AppointmentStatus) (Transition, error) {
	if !to.Valid() {
		return Transition{}, NewInvalidTransitionError(from, to)
	}

	switch {
	case from.Active() && to == AppointmentStatusCompleted:
		return Transition{From: from, To: to, Delta: -1}, nil
	case from.Active() && to == AppointmentStatusCancelled:
		return Transition{From: from, To: to, Delta: -1}, nil
	case from == AppointmentStatusCancelled && to == AppointmentStatusScheduled:
		return Transition{From: from, To: to, Delta: +1}, nil
	case from == AppointmentStatusCancelled && to == AppointmentStatusCancelled:
		return Transition{From: from, To: to, NoOp: true}, nil
	case from == AppointmentStatusCompleted && to == AppointmentStatusCompleted:
		return Transition{From: from, To: to, NoOp: true}, nil
	}

	return Transition{}, NewInvalidTransitionError(from, to)
}

// AppointmentDetails carries the caller-supplied fields of a new booking
type AppointmentDetails struct {
	Type     string `json:"type"`
	Symptoms string `json:"symptoms"`
}

func (d AppointmentDetails) String() string {
	return fmt.Sprintf("type=%s", d.Type)
}
