package notification

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/shopspring/decimal"
)

// SMTPSender sends plain-text notifications over SMTP without
// authentication, as used against a local relay.
type SMTPSender struct {
	Host     string
	Port     string
	From     string
	FromName string
}

func (s *SMTPSender) SendOrderConfirmation(ctx context.Context, email, name, orderNumber string, totalAmount decimal.Decimal) error {
	subject := fmt.Sprintf("Order Confirmation - %s", orderNumber)
	body := fmt.Sprintf("Hello %s,\n\nYour order %s for %s has been received and is being processed.\n",
		name, orderNumber, totalAmount.StringFixed(2))
	return s.send(email, subject, body)
}

func (s *SMTPSender) SendOrderCancellation(ctx context.Context, email, name, orderNumber string) error {
	subject := fmt.Sprintf("Order Cancelled - %s", orderNumber)
	body := fmt.Sprintf("Hello %s,\n\nYour order %s has been cancelled.\n", name, orderNumber)
	return s.send(email, subject, body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.FromName, s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := net.JoinHostPort(s.Host, s.Port)
	if err := smtp.SendMail(addr, nil, s.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
