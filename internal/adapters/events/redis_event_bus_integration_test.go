//go:build integration

package events_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevoice/backend/internal/adapters/events"
	"github.com/carevoice/backend/internal/domain/entities"
	"github.com/carevoice/backend/internal/domain/providers"
	"github.com/carevoice/backend/internal/infrastructure/clients/redis"
	"github.com/carevoice/backend/pkg/config"
)

func TestRedisEventBus_FanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelCheckins
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.CheckInEvent{
		ID:        "evt-redis-1",
		Type:      entities.CheckInEventProcessed,
		CheckinID: "call_vapi-1",
		CallID:    "vapi-1",
		UserID:    "user-1",
		Timestamp: time.Now(),
	}

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForCheckInEvent(t, sub1)
	received2 := waitForCheckInEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.CheckinID, received1.CheckinID)
	assert.Equal(t, event.ID, received2.ID)
}

func TestRedisEventBus_UserChannelIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.GetUserChannel("user-77")
	sub, err := eventBus.Subscribe(context.Background(), channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.CheckInEvent{
		ID:        "evt-redis-2",
		Type:      entities.CheckInEventProcessed,
		CheckinID: "call_vapi-2",
		CallID:    "vapi-2",
		UserID:    "user-77",
		Timestamp: time.Now(),
	}
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	received := waitForCheckInEvent(t, sub)
	assert.Equal(t, "user-77", received.UserID)
}

func TestRedisEventBus_UnsubscribeClosesChannelIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelCheckins
	sub, err := eventBus.Subscribe(context.Background(), channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, eventBus.Unsubscribe(context.Background(), channel))

	select {
	case _, ok := <-sub:
		assert.False(t, ok, "subscriber channel should be closed after unsubscribe")
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel not closed after unsubscribe")
	}
}

func waitForCheckInEvent(t *testing.T, ch <-chan *entities.CheckInEvent) *entities.CheckInEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host:     getTestEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getTestEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getTestEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getTestEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func getTestEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getTestEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
