// Package consumer processes integration events from the broker. One worker
// per event type, each on its own channel with a prefetch of exactly one
// in-flight message: processing is strictly serialized per worker and
// throughput scales by adding workers, not by pipelining within one.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one message body. A body that can never be parsed is
// reported as *PayloadError; any other error is treated as transient and
// retried.
type HandlerFunc func(ctx context.Context, body []byte) error

// PayloadError marks a malformed message. It is never retried: the payload
// will not become parseable on a second attempt.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return "malformed payload: " + e.Err.Error()
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

type ChannelOpener interface {
	Channel() (*amqp.Channel, error)
}

type Worker struct {
	queue          string
	handle         HandlerFunc
	broker         ChannelOpener
	logger         *zap.Logger
	maxAttempts    int
	initialBackoff time.Duration
}

func NewWorker(queue string, handle HandlerFunc, broker ChannelOpener, logger *zap.Logger, maxAttempts int, initialBackoff time.Duration) *Worker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Worker{
		queue:          queue,
		handle:         handle,
		broker:         broker,
		logger:         logger.With(zap.String("queue", queue)),
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
	}
}

// Run consumes until ctx is cancelled. Cancellation is cooperative: it is
// checked at iteration boundaries, so an in-flight message drains before the
// worker stops.
func (w *Worker) Run(ctx context.Context) error {
	ch, err := w.broker.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.ConsumeWithContext(ctx, w.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	w.logger.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Info("delivery channel closed")
				return nil
			}
			w.process(ctx, delivery)
		}
	}
}

// process acknowledges the message only after the handler has succeeded.
// Malformed payloads and exhausted retries are rejected without requeue,
// which routes the message to the dead-letter side; replaying it is a manual
// operation.
func (w *Worker) process(ctx context.Context, delivery amqp.Delivery) {
	messageID := delivery.MessageId
	if messageID == "" {
		messageID = uuid.NewString()
	}
	logger := w.logger.With(zap.String("message_id", messageID))

	attempt := 0
	operation := func() error {
		attempt++
		err := w.handle(ctx, delivery.Body)
		if err == nil {
			return nil
		}

		var payloadErr *PayloadError
		if errors.As(err, &payloadErr) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(w.newBackoff(), uint64(w.maxAttempts-1)), ctx)
	notify := func(err error, delay time.Duration) {
		logger.Warn("retrying message",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		var payloadErr *PayloadError
		switch {
		case errors.As(err, &payloadErr):
			logger.Error("rejecting malformed message", zap.Error(err))

		case ctx.Err() != nil:
			// Cancellation aborted the retry sequence with attempts left.
			// The message is still live, so it goes back on the queue for
			// redelivery after restart instead of to the dead-letter side.
			logger.Warn("requeueing message interrupted by shutdown",
				zap.Int("attempts", attempt),
				zap.Error(err))
			if nackErr := delivery.Nack(false, true); nackErr != nil {
				logger.Error("nack failed", zap.Error(nackErr))
			}
			return

		default:
			logger.Error("dead-lettering message after exhausted retries",
				zap.Int("attempts", attempt),
				zap.Error(err))
		}

		if nackErr := delivery.Nack(false, false); nackErr != nil {
			logger.Error("nack failed", zap.Error(nackErr))
		}
		return
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		logger.Error("ack failed", zap.Error(ackErr))
		return
	}

	logger.Info("message processed", zap.Int("attempts", attempt))
}

func (w *Worker) newBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.initialBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	return policy
}
