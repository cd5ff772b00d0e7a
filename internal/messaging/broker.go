// Package messaging owns the AMQP connection and the event publisher.
// The connection is a process-wide resource: opened once at startup,
// closed once at shutdown, and handed to callers explicitly.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/safar/order-management/internal/events"
	"go.uber.org/zap"
)

type Broker struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

// Connect dials the broker, opens the shared publishing channel and declares
// both durable queues so publishes never race queue creation.
func Connect(url string, logger *zap.Logger) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, queue := range []string{events.OrderCreatedQueue, events.OrderCancelledQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}

	logger.Info("connected to broker")

	return &Broker{conn: conn, ch: ch, logger: logger}, nil
}

// Publish serializes the event to JSON and hands it to the broker as a
// persistent message on the named queue. Delivery is at-least-once; ordering
// is guaranteed only within one queue. Safe for concurrent use: every call
// builds its own message, nothing mutable is shared.
func (b *Broker) Publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := newPublishing(body)
	if err := b.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}

	b.logger.Debug("published event",
		zap.String("queue", queue),
		zap.String("message_id", msg.MessageId))

	return nil
}

// Channel opens a fresh channel on the shared connection. Consumer workers
// need their own channel so the prefetch limit applies per worker.
func (b *Broker) Channel() (*amqp.Channel, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

func (b *Broker) Close() error {
	if err := b.ch.Close(); err != nil {
		b.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	if err := b.conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

func newPublishing(body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
}
