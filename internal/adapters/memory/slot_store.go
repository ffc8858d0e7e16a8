// Package memory provides in-process repository implementations backed by
// maps and a mutex. They serve local development and the concurrency tests;
// the Postgres adapters are the production path.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// SlotStore implements repositories.SlotRepository in memory
type SlotStore struct {
	mu    sync.RWMutex
	slots map[entities.SlotKey]*entities.Slot
}

// NewSlotStore creates an empty in-memory slot store
func NewSlotStore() *SlotStore {
	return &SlotStore{
		slots: make(map[entities.SlotKey]*entities.Slot),
	}
}

// Get retrieves a slot by its identity key
func (s *SlotStore) Get(ctx context.Context, key entities.SlotKey) (*entities.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[key]
	if !ok {
		return nil, entities.NewSlotNotFoundError(key)
	}
	copied := *slot
	return &copied, nil
}

// ListByDoctor retrieves persisted slots for a doctor in [fromDate, toDate]
func (s *SlotStore) ListByDoctor(ctx context.Context, doctorID, fromDate, toDate string) ([]*entities.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.Slot
	for key, slot := range s.slots {
		if key.DoctorID != doctorID {
			continue
		}
		if fromDate != "" && key.Date < fromDate {
			continue
		}
		if toDate != "" && key.Date > toDate {
			continue
		}
		copied := *slot
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})

	return out, nil
}

// Upsert inserts or replaces a single slot
func (s *SlotStore) Upsert(ctx context.Context, slot *entities.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(slot)
}

// UpsertMany inserts or replaces a batch of slots
func (s *SlotStore) UpsertMany(ctx context.Context, slots []*entities.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range slots {
		if err := s.upsertLocked(slot); err != nil {
			return err
		}
	}
	return nil
}

func (s *SlotStore) upsertLocked(slot *entities.Slot) error {
	copied := *slot
	now := time.Now()
	if existing, ok := s.slots[slot.Key()]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = now
	}
	copied.UpdatedAt = now
	s.slots[slot.Key()] = &copied
	return nil
}

// AdjustBookings applies a delta to current_bookings, flooring decrements at
// zero and rejecting increments past the patient limit
func (s *SlotStore) AdjustBookings(ctx context.Context, key entities.SlotKey, delta int) (*entities.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[key]
	if !ok {
		return nil, entities.NewSlotNotFoundError(key)
	}

	next := slot.CurrentBookings + delta
	if next > slot.PatientLimit {
		return nil, entities.NewSlotFullError(key)
	}
	if next < 0 {
		next = 0
	}

	slot.CurrentBookings = next
	slot.RecomputeBooked()
	slot.UpdatedAt = time.Now()

	copied := *slot
	return &copied, nil
}

// SetBookings overwrites current_bookings with an authoritative count
func (s *SlotStore) SetBookings(ctx context.Context, key entities.SlotKey, count int) (*entities.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[key]
	if !ok {
		return nil, entities.NewSlotNotFoundError(key)
	}

	if count < 0 {
		count = 0
	}
	slot.CurrentBookings = count
	slot.RecomputeBooked()
	slot.UpdatedAt = time.Now()

	copied := *slot
	return &copied, nil
}

var _ repositories.SlotRepository = (*SlotStore)(nil)
