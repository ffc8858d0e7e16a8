package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/application/services"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
)

type mockCacheProvider struct {
	mu       sync.RWMutex
	data     map[string][]byte
	patterns []string
}

func newMockCacheProvider() *mockCacheProvider {
	return &mockCacheProvider{data: make(map[string][]byte)}
}

func (m *mockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, nil
}

func (m *mockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	return nil
}

func (m *mockCacheProvider) deletedPatterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.patterns...)
}

type stubEventBus struct {
	mu          sync.Mutex
	subscribers map[string]chan *entities.SlotEvent
}

func newStubEventBus() *stubEventBus {
	return &stubEventBus{subscribers: make(map[string]chan *entities.SlotEvent)}
}

func (b *stubEventBus) Publish(ctx context.Context, channel string, event *entities.SlotEvent) error {
	b.mu.Lock()
	ch, ok := b.subscribers[channel]
	b.mu.Unlock()
	if ok {
		ch <- event
	}
	return nil
}

func (b *stubEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SlotEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.SlotEvent, 10)
	b.subscribers[channel] = ch
	return ch, nil
}

func (b *stubEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, channel)
	return nil
}

func (b *stubEventBus) Close() error { return nil }

func TestCacheInvalidationService(t *testing.T) {
	t.Run("drops the doctor's slot lists when a slot event arrives", func(t *testing.T) {
		cache := newMockCacheProvider()
		eventBus := newStubEventBus()

		service := services.NewCacheInvalidationService(cache, eventBus)
		require.NoError(t, service.Start())
		defer service.Stop()

		event := entities.NewSlotEvent(
			entities.SlotKey{DoctorID: "doc-1", Date: "2026-09-10", Time: "10:00"},
			entities.SlotEventTypeBookingCreated,
			"apt-1",
		)
		require.NoError(t, eventBus.Publish(context.Background(), providers.EventChannelSlotUpdates, event))

		require.Eventually(t, func() bool {
			return len(cache.deletedPatterns()) == 1
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, "slots:doctor:doc-1:*", cache.deletedPatterns()[0])
	})

	t.Run("invalidates a doctor on demand", func(t *testing.T) {
		cache := newMockCacheProvider()
		service := services.NewCacheInvalidationService(cache, newStubEventBus())

		require.NoError(t, service.InvalidateDoctorSlots(context.Background(), "doc-9"))

		assert.Equal(t, []string{"slots:doctor:doc-9:*"}, cache.deletedPatterns())
	})
}
