package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// ChannelBus fans events out to in-process subscribers over buffered Go
// channels. Publish never blocks: a subscriber whose buffer is full misses the
// event and Publish reports ErrQueueFull.
type ChannelBus struct {
	bufferSize int

	mu     sync.RWMutex
	subs   map[uuid.UUID]chan domain.Event
	closed bool
}

// NewChannelBus creates a bus. bufferSize <= 0 gives each subscriber a
// buffer of 64 events.
func NewChannelBus(bufferSize int) *ChannelBus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &ChannelBus{bufferSize: bufferSize, subs: make(map[uuid.UUID]chan domain.Event)}
}

var _ Publisher = (*ChannelBus)(nil)

// Subscribe registers a new subscriber.
func (b *ChannelBus) Subscribe() (uuid.UUID, <-chan domain.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return uuid.Nil, nil, ErrClosed
	}
	id := uuid.New()
	ch := make(chan domain.Event, b.bufferSize)
	b.subs[id] = ch
	return id, ch, nil
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *ChannelBus) Unsubscribe(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[id]
	if !ok {
		return fmt.Errorf("subscriber %s not found", id)
	}
	delete(b.subs, id)
	close(ch)
	return nil
}

func (b *ChannelBus) Publish(ctx context.Context, evs ...domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	var errs []error
	for _, e := range evs {
		if err := ctx.Err(); err != nil {
			return err
		}
		for id, ch := range b.subs {
			select {
			case ch <- e:
			default:
				errs = append(errs, fmt.Errorf("%w: subscriber %s dropped %s", ErrQueueFull, id, e.EventName()))
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every subscriber channel. Further publishes fail with ErrClosed.
func (b *ChannelBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	return nil
}
