package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
	"github.com/docpoint/docpoint-backend/internal/domain/scheduling"
)

// AvailabilityService exposes a doctor's slot grid and applies bulk
// availability edits. Reads merge persisted slots over the generated grid so
// callers always see the full horizon; writes go through per-slot locks so an
// edit can never race a booking on the same cell.
type AvailabilityService struct {
	calendar *scheduling.Calendar
	slotRepo repositories.SlotRepository
	locks    *SlotLockManager
	eventBus providers.EventBus
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	calendar *scheduling.Calendar,
	slotRepo repositories.SlotRepository,
	locks *SlotLockManager,
) *AvailabilityService {
	return &AvailabilityService{
		calendar: calendar,
		slotRepo: slotRepo,
		locks:    locks,
	}
}

// SetEventBus enables slot update events after availability changes
func (s *AvailabilityService) SetEventBus(eventBus providers.EventBus) {
	s.eventBus = eventBus
}

// GetSlots returns the doctor's full grid over [fromDate, toDate], with
// persisted slots taking their stored state and every other cell synthesized
// as unavailable with no bookings. An empty range falls back to the
// configured horizon starting today.
func (s *AvailabilityService) GetSlots(ctx context.Context, doctorID, fromDate, toDate string) ([]*entities.Slot, error) {
	from, to, err := s.resolveRange(fromDate, toDate)
	if err != nil {
		return nil, err
	}

	persisted, err := s.slotRepo.ListByDoctor(ctx,
		doctorID,
		from.Format(entities.DateLayout),
		to.Format(entities.DateLayout),
	)
	if err != nil {
		return nil, err
	}

	return s.calendar.GenerateRange(doctorID, from, to, persisted), nil
}

// BulkUpdate validates and upserts the doctor's slot edits. Each slot's
// stored booking count is authoritative: the incoming payload can change
// availability and capacity but never the count itself. A slot with active
// bookings cannot shrink below its count or be withdrawn.
func (s *AvailabilityService) BulkUpdate(ctx context.Context, doctorID string, updates []*entities.Slot) ([]*entities.Slot, error) {
	// Normalize and reject malformed payloads before touching any slot
	for _, update := range updates {
		date, err := entities.NormalizeDate(update.Date)
		if err != nil {
			return nil, entities.NewInvalidCapacityError(err.Error())
		}
		timeLabel, err := entities.NormalizeTime(update.Time)
		if err != nil {
			return nil, entities.NewInvalidCapacityError(err.Error())
		}
		update.DoctorID = doctorID
		update.Date = date
		update.Time = timeLabel

		if update.PatientLimit < 1 {
			return nil, entities.NewInvalidCapacityError("patient_limit must be at least 1")
		}
	}

	result := make([]*entities.Slot, 0, len(updates))
	for _, update := range updates {
		applied, err := s.applyUpdate(ctx, update)
		if err != nil {
			return nil, err
		}
		result = append(result, applied)
	}

	log.Info().
		Str("doctor_id", doctorID).
		Int("slots", len(result)).
		Msg("availability updated")

	s.publish(ctx, doctorID)

	return result, nil
}

// applyUpdate upserts one slot under its key lock. At most one lock is held
// at a time, so a multi-slot update cannot deadlock against bookings.
func (s *AvailabilityService) applyUpdate(ctx context.Context, update *entities.Slot) (*entities.Slot, error) {
	key := update.Key()

	release, err := s.locks.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	bookings := 0
	existing, err := s.slotRepo.Get(ctx, key)
	if err == nil {
		bookings = existing.CurrentBookings
	} else if !entities.IsSlotNotFound(err) {
		return nil, err
	}

	if update.PatientLimit < bookings {
		return nil, entities.NewInvalidCapacityError(
			"patient_limit cannot be lower than current bookings")
	}
	if !update.IsAvailable && bookings > 0 {
		return nil, entities.NewSlotInUseError(key)
	}

	slot := &entities.Slot{
		DoctorID:        key.DoctorID,
		Date:            key.Date,
		Time:            key.Time,
		IsAvailable:     update.IsAvailable,
		PatientLimit:    update.PatientLimit,
		CurrentBookings: bookings,
		UpdatedAt:       time.Now(),
	}
	slot.RecomputeBooked()

	if err := s.slotRepo.Upsert(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *AvailabilityService) resolveRange(fromDate, toDate string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, s.calendar.HorizonDays()-1)

	if fromDate != "" {
		day, err := entities.NormalizeDate(fromDate)
		if err != nil {
			return time.Time{}, time.Time{}, entities.NewInvalidCapacityError(err.Error())
		}
		from, _ = time.Parse(entities.DateLayout, day)
		to = from.AddDate(0, 0, s.calendar.HorizonDays()-1)
	}
	if toDate != "" {
		day, err := entities.NormalizeDate(toDate)
		if err != nil {
			return time.Time{}, time.Time{}, entities.NewInvalidCapacityError(err.Error())
		}
		to, _ = time.Parse(entities.DateLayout, day)
	}

	return from, to, nil
}

func (s *AvailabilityService) publish(ctx context.Context, doctorID string) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewSlotEvent(
		entities.SlotKey{DoctorID: doctorID},
		entities.SlotEventTypeAvailabilityUpdate,
		"",
	)
	publishSlotEvent(ctx, s.eventBus, event)
}
