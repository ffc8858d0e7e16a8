//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpoint/docpoint-backend/internal/adapters/events"
	"github.com/docpoint/docpoint-backend/internal/domain/entities"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.GetDoctorChannel("doc-redis-1")
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewSlotEvent(
		entities.SlotKey{DoctorID: "doc-redis-1", Date: "2026-09-10", Time: "10:00"},
		entities.SlotEventTypeBookingCreated,
		"apt-redis-1",
	)

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForSlotEvent(t, sub1)
	received2 := waitForSlotEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.SlotEventTypeBookingCreated, received1.EventType)
	assert.Equal(t, "apt-redis-1", received1.AppointmentID)
}
