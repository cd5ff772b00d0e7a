package consumer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/safar/order-management/internal/events"
	"github.com/safar/order-management/internal/notification"
)

// OrderCreatedHandler decodes an OrderCreatedEvent and sends the order
// confirmation.
func OrderCreatedHandler(sender notification.Sender) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var event events.OrderCreatedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return &PayloadError{Err: err}
		}

		return sender.SendOrderConfirmation(ctx, event.CustomerEmail, event.CustomerName, event.OrderNumber, event.TotalAmount)
	}
}

// OrderCancelledHandler decodes an OrderCancelledEvent and sends the
// cancellation notice. The event carries no customer name, so the local part
// of the email address stands in for it.
func OrderCancelledHandler(sender notification.Sender) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var event events.OrderCancelledEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return &PayloadError{Err: err}
		}

		customerName, _, _ := strings.Cut(event.CustomerEmail, "@")

		return sender.SendOrderCancellation(ctx, event.CustomerEmail, customerName, event.OrderNumber)
	}
}
