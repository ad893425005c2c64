package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// DefaultExchange receives every trip event; consumers bind queues to it
// with routing keys such as "trip.*" or "trip.activity_added".
const DefaultExchange = "trip_events_exchange"

const publishTimeout = 5 * time.Second

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes each event as JSON to a topic exchange, using the
// event name as routing key.
type RabbitPublisher struct {
	mu       sync.Mutex
	ch       amqpChannel
	exchange string
}

// Dial connects to RabbitMQ and returns a publisher on a fresh channel. The
// connection is closed together with the publisher.
func Dial(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events.Dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events.Dial: open channel: %w", err)
	}
	p, err := NewRabbitPublisher(&connChannel{Channel: ch, conn: conn}, exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// connChannel closes the owning connection with the channel.
type connChannel struct {
	*amqp.Channel
	conn *amqp.Connection
}

func (c *connChannel) Close() error {
	_ = c.Channel.Close()
	return c.conn.Close()
}

// NewRabbitPublisher declares a durable topic exchange on ch.
func NewRabbitPublisher(ch amqpChannel, exchange string) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("events.NewRabbitPublisher: declare exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange}, nil
}

var _ Publisher = (*RabbitPublisher)(nil)

// Publish sends events in order and stops at the first failure.
// amqp channels are not safe for concurrent publishing, so calls serialize.
func (p *RabbitPublisher) Publish(ctx context.Context, evs ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrClosed
	}

	for _, e := range evs {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("events.RabbitPublisher.Publish: marshal %s: %w", e.EventName(), err)
		}
		msg := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.OccurredAt(),
			Type:         e.EventName(),
			Headers:      amqp.Table{"trip_id": e.AggregateID().String()},
			Body:         body,
		}
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = p.ch.PublishWithContext(pctx, p.exchange, e.EventName(), false, false, msg)
		cancel()
		if err != nil {
			return fmt.Errorf("events.RabbitPublisher.Publish: %s: %w", e.EventName(), err)
		}
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}
