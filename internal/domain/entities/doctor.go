package entities

import "time"

// Doctor is owned by the doctor-management subsystem; the booking core only
// reads its identity and capacity defaults to scope slots.
type Doctor struct {
	ID                  string    `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Email               string    `json:"email" db:"email"`
	Specialization      string    `json:"specialization" db:"specialization"`
	DefaultPatientLimit int       `json:"default_patient_limit" db:"default_patient_limit"`
	IsActive            bool      `json:"is_active" db:"is_active"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}
