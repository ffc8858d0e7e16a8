package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/adapters/memory"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

type stubCache struct {
	mu       sync.RWMutex
	data     map[string][]byte
	patterns []string
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (c *stubCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if val, ok := c.data[key]; ok {
		return val, nil
	}
	return nil, fmt.Errorf("key not found: %s", key)
}

func (c *stubCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *stubCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *stubCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	return nil
}

func (c *stubCache) deletedPatterns() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.patterns...)
}

func TestCachedSlotAdapter_ListByDoctor(t *testing.T) {
	storedSlot := &entities.Slot{
		DoctorID:     "doc-1",
		Date:         "2026-09-10",
		Time:         "10:00",
		IsAvailable:  true,
		PatientLimit: 2,
	}

	t.Run("serves the cached list without hitting the store", func(t *testing.T) {
		cache := newStubCache()
		data, err := json.Marshal([]*entities.Slot{storedSlot})
		require.NoError(t, err)
		require.NoError(t, cache.Set(context.Background(),
			slotListCacheKey("doc-1", "2026-09-10", "2026-09-10"), data, slotListTTL))

		adapter := NewCachedSlotAdapter(memory.NewSlotStore(), cache)

		slots, err := adapter.ListByDoctor(context.Background(), "doc-1", "2026-09-10", "2026-09-10")
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "10:00", slots[0].Time)
	})

	t.Run("falls back to the store when the cached entry is corrupt", func(t *testing.T) {
		var buf bytes.Buffer
		orig := log.Logger
		log.Logger = zerolog.New(&buf)
		defer func() { log.Logger = orig }()

		cache := newStubCache()
		require.NoError(t, cache.Set(context.Background(),
			slotListCacheKey("doc-1", "2026-09-10", "2026-09-10"), []byte("{not json"), slotListTTL))

		store := memory.NewSlotStore()
		require.NoError(t, store.Upsert(context.Background(), storedSlot))
		adapter := NewCachedSlotAdapter(store, cache)

		slots, err := adapter.ListByDoctor(context.Background(), "doc-1", "2026-09-10", "2026-09-10")
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "doc-1", slots[0].DoctorID)

		// The warning must name the decode failure, not a nil error
		assert.Contains(t, buf.String(), "failed to unmarshal cached slot list")
		assert.Contains(t, buf.String(), `"error":`)
	})

	t.Run("drops the doctor's lists after a booking count change", func(t *testing.T) {
		cache := newStubCache()
		store := memory.NewSlotStore()
		require.NoError(t, store.Upsert(context.Background(), storedSlot))
		adapter := NewCachedSlotAdapter(store, cache)

		_, err := adapter.AdjustBookings(context.Background(), storedSlot.Key(), +1)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			patterns := cache.deletedPatterns()
			return len(patterns) == 1 && strings.HasPrefix(patterns[0], "slots:doctor:doc-1:")
		}, time.Second, 10*time.Millisecond)
	})
}
