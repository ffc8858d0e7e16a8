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
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

func slotKey(doctorID string) entities.SlotKey {
	return entities.SlotKey{DoctorID: doctorID, Date: "2024-06-01", Time: "09:00"}
}

func TestSlotLockManager_SerializesSameKey(t *testing.T) {
	locks := services.NewSlotLockManager(time.Second)
	key := slotKey("doc-1")

	var inCritical int
	var maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(context.Background(), key)
			require.NoError(t, err)
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxInCritical)
}

func TestSlotLockManager_DifferentKeysDoNotBlock(t *testing.T) {
	locks := services.NewSlotLockManager(50 * time.Millisecond)

	releaseA, err := locks.Acquire(context.Background(), slotKey("doc-1"))
	require.NoError(t, err)
	defer releaseA()

	// A second key must be acquirable while the first is held
	releaseB, err := locks.Acquire(context.Background(), slotKey("doc-2"))
	require.NoError(t, err)
	releaseB()
}

func TestSlotLockManager_TimesOut(t *testing.T) {
	locks := services.NewSlotLockManager(20 * time.Millisecond)
	key := slotKey("doc-1")

	release, err := locks.Acquire(context.Background(), key)
	require.NoError(t, err)
	defer release()

	_, err = locks.Acquire(context.Background(), key)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, entities.CodeLockTimeout))
}

func TestSlotLockManager_ReleaseAllowsNextWaiter(t *testing.T) {
	locks := services.NewSlotLockManager(500 * time.Millisecond)
	key := slotKey("doc-1")

	release, err := locks.Acquire(context.Background(), key)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r, err := locks.Acquire(context.Background(), key)
		assert.NoError(t, err)
		if err == nil {
			r()
		}
	}()

	time.Sleep(10 * time.Millisecond)
	release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock after release")
	}
}
