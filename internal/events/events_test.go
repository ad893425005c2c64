package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/events"
)

func created(tripID uuid.UUID) domain.TripCreated {
	return domain.TripCreated{
		EventMeta: domain.EventMeta{EventID: uuid.New(), TripID: tripID, At: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		CreatorID: "u-1",
		Name:      "Lisbon",
	}
}

func added(tripID uuid.UUID) domain.TripMemberAdded {
	return domain.TripMemberAdded{
		EventMeta: domain.EventMeta{EventID: uuid.New(), TripID: tripID, At: time.Now().UTC()},
		UserID:    "u-2",
		Role:      domain.RoleMember,
		AddedBy:   "u-1",
	}
}

func TestChannelBus_DeliversInOrderToEverySubscriber(t *testing.T) {
	bus := events.NewChannelBus(4)
	t.Cleanup(func() { _ = bus.Close() })
	_, a, err := bus.Subscribe()
	require.NoError(t, err)
	_, b, err := bus.Subscribe()
	require.NoError(t, err)
	tripID := uuid.New()

	require.NoError(t, bus.Publish(context.Background(), created(tripID), added(tripID)))

	for _, ch := range []<-chan domain.Event{a, b} {
		assert.Equal(t, "trip.created", (<-ch).EventName())
		assert.Equal(t, "trip.member_added", (<-ch).EventName())
	}
}

func TestChannelBus_FullBufferDoesNotBlock(t *testing.T) {
	bus := events.NewChannelBus(1)
	t.Cleanup(func() { _ = bus.Close() })
	_, ch, err := bus.Subscribe()
	require.NoError(t, err)
	tripID := uuid.New()

	err = bus.Publish(context.Background(), created(tripID), added(tripID))

	assert.ErrorIs(t, err, events.ErrQueueFull)
	assert.Equal(t, "trip.created", (<-ch).EventName())
	assert.Len(t, ch, 0)
}

func TestChannelBus_Unsubscribe(t *testing.T) {
	bus := events.NewChannelBus(1)
	id, ch, err := bus.Subscribe()
	require.NoError(t, err)

	require.NoError(t, bus.Unsubscribe(id))
	_, open := <-ch
	assert.False(t, open)
	assert.Error(t, bus.Unsubscribe(id))

	// no subscribers: nothing to drop
	assert.NoError(t, bus.Publish(context.Background(), created(uuid.New())))
}

func TestChannelBus_Closed(t *testing.T) {
	bus := events.NewChannelBus(1)
	_, ch, err := bus.Subscribe()
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, open := <-ch
	assert.False(t, open)
	assert.ErrorIs(t, bus.Publish(context.Background(), created(uuid.New())), events.ErrClosed)
	_, _, err = bus.Subscribe()
	assert.ErrorIs(t, err, events.ErrClosed)
}

// fakeChannel records what the publisher sends.
type fakeChannel struct {
	declared  []string
	published []publishCall
	failOn    string
	closed    bool
}

type publishCall struct {
	exchange, key string
	msg           amqp.Publishing
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if key == f.failOn {
		return errors.New("channel closed")
	}
	f.published = append(f.published, publishCall{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitPublisher_PublishesJSONWithRoutingKey(t *testing.T) {
	ch := &fakeChannel{}
	p, err := events.NewRabbitPublisher(ch, "")
	require.NoError(t, err)
	tripID := uuid.New()

	require.NoError(t, p.Publish(context.Background(), created(tripID), added(tripID)))

	assert.Equal(t, []string{events.DefaultExchange + ":topic"}, ch.declared)
	require.Len(t, ch.published, 2)
	first := ch.published[0]
	assert.Equal(t, events.DefaultExchange, first.exchange)
	assert.Equal(t, "trip.created", first.key)
	assert.Equal(t, "application/json", first.msg.ContentType)
	assert.Equal(t, tripID.String(), first.msg.Headers["trip_id"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(first.msg.Body, &body))
	assert.Equal(t, tripID.String(), body["trip_id"])
	assert.Equal(t, "Lisbon", body["name"])
	assert.Equal(t, "trip.member_added", ch.published[1].key)
}

func TestRabbitPublisher_StopsAtFirstFailure(t *testing.T) {
	ch := &fakeChannel{failOn: "trip.created"}
	p, err := events.NewRabbitPublisher(ch, "trips")
	require.NoError(t, err)
	tripID := uuid.New()

	err = p.Publish(context.Background(), created(tripID), added(tripID))

	assert.ErrorContains(t, err, "trip.created")
	assert.Empty(t, ch.published)
}

func TestRabbitPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p, err := events.NewRabbitPublisher(ch, "trips")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.True(t, ch.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), created(uuid.New())), events.ErrClosed)
}
