package services

import (
	"context"
	"sync"
	"time"

	"github.com/docpoint/docpoint-backend/internal/domain/entities"
)

// SlotLockManager serializes booking, cancellation and status-transition
// operations per (doctor, date, time) key. Each operation holds at most one
// slot lock, so no cross-slot deadlock is possible.
type SlotLockManager struct {
	mu      sync.Mutex
	locks   map[string]*slotLock
	maxWait time.Duration
}

type slotLock struct {
	sem  chan struct{}
	refs int
}

// NewSlotLockManager creates a lock manager with the given bounded wait.
// Acquire fails with a lock-timeout error once the wait expires.
func NewSlotLockManager(maxWait time.Duration) *SlotLockManager {
	if maxWait <= 0 {
		maxWait = 2 * time.Second
	}
	return &SlotLockManager{
		locks:   make(map[string]*slotLock),
		maxWait: maxWait,
	}
}

// Acquire takes the exclusive lock for key, waiting at most the configured
// bound. The returned release function must be called exactly once.
func (m *SlotLockManager) Acquire(ctx context.Context, key entities.SlotKey) (func(), error) {
	id := key.String()

	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &slotLock{sem: make(chan struct{}, 1)}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			m.release(id, l)
		}, nil
	case <-timer.C:
		m.release(id, l)
		return nil, entities.NewLockTimeoutError(key)
	case <-ctx.Done():
		m.release(id, l)
		return nil, entities.NewLockTimeoutError(key)
	}
}

// release drops one reference and evicts the entry once nobody holds or
// waits on it, so the map does not grow with every key ever seen
func (m *SlotLockManager) release(id string, l *slotLock) {
	m.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, id)
	}
	m.mu.Unlock()
}
