// Package events delivers domain events drained from the Trip aggregate to
// downstream consumers, in-process or over RabbitMQ.
package events

import (
	"context"
	"errors"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// ErrQueueFull is returned when a subscriber's buffer cannot take an event.
var ErrQueueFull = errors.New("event queue full")

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("publisher closed")

// Publisher sends events. Publish is called once per use-case with the events
// returned by Trip.PopEvents, in order.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
	Close() error
}
