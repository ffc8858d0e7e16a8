package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

// DoctorStore implements repositories.DoctorRepository in memory
type DoctorStore struct {
	mu      sync.RWMutex
	doctors map[string]*entities.Doctor
}

// NewDoctorStore creates an in-memory doctor store seeded with the given doctors
func NewDoctorStore(doctors ...*entities.Doctor) *DoctorStore {
	store := &DoctorStore{doctors: make(map[string]*entities.Doctor)}
	for _, d := range doctors {
		copied := *d
		store.doctors[d.ID] = &copied
	}
	return store
}

// GetByID retrieves a doctor by ID
func (s *DoctorStore) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doctor, ok := s.doctors[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", id))
	}
	copied := *doctor
	return &copied, nil
}

// List retrieves all active doctors
func (s *DoctorStore) List(ctx context.Context) ([]*entities.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.Doctor
	for _, doctor := range s.doctors {
		if doctor.IsActive {
			copied := *doctor
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ repositories.DoctorRepository = (*DoctorStore)(nil)
