package entities

import (
	"fmt"

	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

// Stable error codes for the booking core. Handlers surface these to callers;
// none of the conditions below are silently swallowed or retried.
const (
	CodeSlotNotFound         = "SLOT_NOT_FOUND"
	CodeSlotFull             = "SLOT_FULL"
	CodeDuplicateAppointment = "DUPLICATE_APPOINTMENT"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeInvalidCapacity      = "INVALID_CAPACITY"
	CodeSlotInUse            = "SLOT_IN_USE"
	CodeLockTimeout          = "LOCK_TIMEOUT"
	CodeAppointmentNotFound  = "APPOINTMENT_NOT_FOUND"
)

// NewSlotNotFoundError indicates the slot cell does not exist or is not published
func NewSlotNotFoundError(key SlotKey) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("slot %s not found or not available", key)).
		WithCode(CodeSlotNotFound)
}

// NewSlotFullError indicates the slot has reached its patient capacity
func NewSlotFullError(key SlotKey) *apperrors.AppError {
	return apperrors.NewConflictError(fmt.Sprintf("slot %s is fully booked", key)).
		WithCode(CodeSlotFull)
}

// NewDuplicateAppointmentError indicates the patient already holds an active
// appointment on the slot
func NewDuplicateAppointmentError(patientID string, key SlotKey) *apperrors.AppError {
	return apperrors.NewConflictError(fmt.Sprintf("patient %s already has an active appointment on slot %s", patientID, key)).
		WithCode(CodeDuplicateAppointment)
}

// NewInvalidTransitionError indicates a status edge outside the state machine
func NewInvalidTransitionError(from, to AppointmentStatus) *apperrors.AppError {
	return apperrors.NewValidationError(fmt.Sprintf("invalid status transition %s -> %s", from, to)).
		WithCode(CodeInvalidTransition)
}

// NewInvalidCapacityError indicates a slot update that violates the capacity invariant
func NewInvalidCapacityError(message string) *apperrors.AppError {
	return apperrors.NewValidationError(message).WithCode(CodeInvalidCapacity)
}

// NewSlotInUseError indicates an attempt to withdraw a slot with active bookings
func NewSlotInUseError(key SlotKey) *apperrors.AppError {
	return apperrors.NewConflictError(fmt.Sprintf("slot %s has active bookings and cannot be withdrawn", key)).
		WithCode(CodeSlotInUse)
}

// NewLockTimeoutError indicates the per-slot lock could not be acquired in time
func NewLockTimeoutError(key SlotKey) *apperrors.AppError {
	return apperrors.NewTimeoutError(fmt.Sprintf("timed out waiting for slot %s", key)).
		WithCode(CodeLockTimeout)
}

// IsSlotNotFound reports whether err is the slot-not-found condition
func IsSlotNotFound(err error) bool {
	return apperrors.HasCode(err, CodeSlotNotFound)
}

// NewAppointmentNotFoundError indicates an unknown appointment id
func NewAppointmentNotFoundError(id string) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("appointment %s not found", id)).
		WithCode(CodeAppointmentNotFound)
}
