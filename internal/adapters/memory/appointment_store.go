package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// AppointmentStore implements repositories.AppointmentRepository in memory
type AppointmentStore struct {
	mu           sync.RWMutex
	appointments map[string]*entities.Appointment
}

// NewAppointmentStore creates an empty in-memory appointment ledger
func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{
		appointments: make(map[string]*entities.Appointment),
	}
}

// Create stores a new appointment
func (s *AppointmentStore) Create(ctx context.Context, appointment *entities.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *appointment
	s.appointments[appointment.ID] = &copied
	return nil
}

// GetByID retrieves an appointment by ID
func (s *AppointmentStore) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apt, ok := s.appointments[id]
	if !ok {
		return nil, entities.NewAppointmentNotFoundError(id)
	}
	copied := *apt
	return &copied, nil
}

// UpdateStatus persists a status change
func (s *AppointmentStore) UpdateStatus(ctx context.Context, id string, status entities.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	apt, ok := s.appointments[id]
	if !ok {
		return entities.NewAppointmentNotFoundError(id)
	}

	apt.Status = status
	apt.UpdatedAt = time.Now()
	return nil
}

// FindActiveBySlot returns all active appointments on a slot
func (s *AppointmentStore) FindActiveBySlot(ctx context.Context, key entities.SlotKey) ([]*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.Appointment
	for _, apt := range s.appointments {
		if apt.SlotKey() == key && apt.Status.Active() {
			copied := *apt
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindActiveByPatientSlot returns the patient's active appointment on a slot,
// or nil when none exists
func (s *AppointmentStore) FindActiveByPatientSlot(ctx context.Context, patientID string, key entities.SlotKey) (*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, apt := range s.appointments {
		if apt.PatientID == patientID && apt.SlotKey() == key && apt.Status.Active() {
			copied := *apt
			return &copied, nil
		}
	}
	return nil, nil
}

// ListByPatient retrieves appointments for a patient
func (s *AppointmentStore) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.Appointment
	for _, apt := range s.appointments {
		if apt.PatientID == patientID && matchesFilter(apt, filter) {
			copied := *apt
			out = append(out, &copied)
		}
	}

	return paginate(sortByDate(out), filter), nil
}

// ListByDoctor retrieves appointments for a doctor
func (s *AppointmentStore) ListByDoctor(ctx context.Context, doctorID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.Appointment
	for _, apt := range s.appointments {
		if apt.DoctorID == doctorID && matchesFilter(apt, filter) {
			copied := *apt
			out = append(out, &copied)
		}
	}

	return paginate(sortByDate(out), filter), nil
}

// CountByDoctorStatus returns per-status appointment counts for a doctor
func (s *AppointmentStore) CountByDoctorStatus(ctx context.Context, doctorID string) (map[entities.AppointmentStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[entities.AppointmentStatus]int)
	for _, apt := range s.appointments {
		if apt.DoctorID == doctorID {
			counts[apt.Status]++
		}
	}
	return counts, nil
}

func matchesFilter(apt *entities.Appointment, filter repositories.AppointmentFilter) bool {
	if filter.Status != "" && apt.Status != filter.Status {
		return false
	}
	if filter.FromDate != "" && apt.Date < filter.FromDate {
		return false
	}
	if filter.ToDate != "" && apt.Date > filter.ToDate {
		return false
	}
	return true
}

func sortByDate(appointments []*entities.Appointment) []*entities.Appointment {
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		if appointments[i].Time != appointments[j].Time {
			return appointments[i].Time < appointments[j].Time
		}
		return appointments[i].ID < appointments[j].ID
	})
	return appointments
}

func paginate(appointments []*entities.Appointment, filter repositories.AppointmentFilter) []*entities.Appointment {
	if filter.Offset > 0 {
		if filter.Offset >= len(appointments) {
			return nil
		}
		appointments = appointments[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(appointments) {
		appointments = appointments[:filter.Limit]
	}
	return appointments
}

var _ repositories.AppointmentRepository = (*AppointmentStore)(nil)
