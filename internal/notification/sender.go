package notification

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sender delivers customer notifications for order lifecycle changes.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, email, name, orderNumber string, totalAmount decimal.Decimal) error
	SendOrderCancellation(ctx context.Context, email, name, orderNumber string) error
}

// LogSender records notifications in the log instead of delivering them.
// Used in development and tests.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOrderConfirmation(ctx context.Context, email, name, orderNumber string, totalAmount decimal.Decimal) error {
	s.logger.Info("order confirmation email",
		zap.String("to", email),
		zap.String("customer", name),
		zap.String("order_number", orderNumber),
		zap.String("total_amount", totalAmount.StringFixed(2)))
	return nil
}

func (s *LogSender) SendOrderCancellation(ctx context.Context, email, name, orderNumber string) error {
	s.logger.Info("order cancellation email",
		zap.String("to", email),
		zap.String("customer", name),
		zap.String("order_number", orderNumber))
	return nil
}
