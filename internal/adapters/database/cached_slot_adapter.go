package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
)

// CachedSlotAdapter wraps a SlotRepository with read-through caching of
// doctor slot lists. Single-slot reads and booking-count mutations always
// hit the store: they sit inside booking critical sections where a stale
// value would break the capacity check. Only the availability grid reads,
// which tolerate brief staleness, are cached.
type CachedSlotAdapter struct {
	adapter repositories.SlotRepository
	cache   providers.CacheProvider
}

// NewCachedSlotAdapter creates a new cached slot adapter
func NewCachedSlotAdapter(adapter repositories.SlotRepository, cache providers.CacheProvider) repositories.SlotRepository {
	return &CachedSlotAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// slotListTTL is the cache lifetime of doctor slot lists in seconds
const slotListTTL = 60

func slotListCacheKey(doctorID, fromDate, toDate string) string {
	return fmt.Sprintf("slots:doctor:%s:%s:%s", doctorID, fromDate, toDate)
}

func slotListCachePattern(doctorID string) string {
	return fmt.Sprintf("slots:doctor:%s:*", doctorID)
}

// Get retrieves a slot by its identity key, bypassing the cache
func (a *CachedSlotAdapter) Get(ctx context.Context, key entities.SlotKey) (*entities.Slot, error) {
	return a.adapter.Get(ctx, key)
}

// ListByDoctor retrieves persisted slots for a doctor with caching
func (a *CachedSlotAdapter) ListByDoctor(ctx context.Context, doctorID, fromDate, toDate string) ([]*entities.Slot, error) {
	cacheKey := slotListCacheKey(doctorID, fromDate, toDate)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var slots []*entities.Slot
		unmarshalErr := json.Unmarshal(cached, &slots)
		if unmarshalErr == nil {
			return slots, nil
		}
		log.Warn().Err(unmarshalErr).Str("doctor_id", doctorID).Msg("failed to unmarshal cached slot list")
	}

	slots, err := a.adapter.ListByDoctor(ctx, doctorID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(slots); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, slotListTTL); err != nil {
				log.Warn().Err(err).Str("doctor_id", doctorID).Msg("failed to cache slot list")
			}
		}
	}()

	return slots, nil
}

// Upsert inserts or replaces a single slot and invalidates the doctor's lists
func (a *CachedSlotAdapter) Upsert(ctx context.Context, slot *entities.Slot) error {
	if err := a.adapter.Upsert(ctx, slot); err != nil {
		return err
	}
	a.invalidate(slot.DoctorID)
	return nil
}

// UpsertMany inserts or replaces a batch of slots and invalidates the
// affected doctors' lists
func (a *CachedSlotAdapter) UpsertMany(ctx context.Context, slots []*entities.Slot) error {
	if err := a.adapter.UpsertMany(ctx, slots); err != nil {
		return err
	}

	seen := make(map[string]struct{}, 1)
	for _, slot := range slots {
		if _, ok := seen[slot.DoctorID]; ok {
			continue
		}
		seen[slot.DoctorID] = struct{}{}
		a.invalidate(slot.DoctorID)
	}
	return nil
}

// AdjustBookings applies a delta to current_bookings and invalidates the
// doctor's lists
func (a *CachedSlotAdapter) AdjustBookings(ctx context.Context, key entities.SlotKey, delta int) (*entities.Slot, error) {
	slot, err := a.adapter.AdjustBookings(ctx, key, delta)
	if err != nil {
		return nil, err
	}
	a.invalidate(key.DoctorID)
	return slot, nil
}

// SetBookings overwrites current_bookings and invalidates the doctor's lists
func (a *CachedSlotAdapter) SetBookings(ctx context.Context, key entities.SlotKey, count int) (*entities.Slot, error) {
	slot, err := a.adapter.SetBookings(ctx, key, count)
	if err != nil {
		return nil, err
	}
	a.invalidate(key.DoctorID)
	return slot, nil
}

func (a *CachedSlotAdapter) invalidate(doctorID string) {
	go func() {
		bgCtx := context.Background()
		if err := a.cache.DeletePattern(bgCtx, slotListCachePattern(doctorID)); err != nil {
			log.Warn().Err(err).Str("doctor_id", doctorID).Msg("failed to invalidate slot list cache")
		}
	}()
}
