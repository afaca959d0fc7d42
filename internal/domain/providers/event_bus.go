package providers

import (
	"context"

	"github.com/carevoice/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to pipeline events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.CheckInEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CheckInEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelCheckins is the channel for processed check-in events
	EventChannelCheckins = "checkins:processed"

	// EventChannelUserPrefix is the prefix for per-user channels
	EventChannelUserPrefix = "checkins:user:"
)

// GetUserChannel returns the channel name for a specific user
func GetUserChannel(userID string) string {
	return EventChannelUserPrefix + userID
}
