package service

import (
	"context"
	"fmt"
	"time"

	"likesio/internal/models"
	"likesio/pkg/mailer"
)

// EmailService sends customer-facing order emails. A nil mailer disables sending (tests,
// installs without SMTP configured) without changing caller code.
type EmailService struct {
	mailer *mailer.Mailer
}

func NewEmailService(m *mailer.Mailer) *EmailService {
	return &EmailService{mailer: m}
}

func (s *EmailService) SendOrderConfirmation(order *models.Order) error {
	if s.mailer == nil || order.Email == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	subject := fmt.Sprintf("Order #%d confirmed", order.ID)
	body := fmt.Sprintf(
		"Thanks for your purchase!\n\nOrder #%d — %d %s %s for %s\nTotal: %.2f %s\n\nDelivery has started; you can track progress on the order status page.\n",
		order.ID, order.Quantity, order.Platform, order.ServiceType, order.Link, order.Price, order.Currency)
	return s.mailer.Send(ctx, order.Email, subject, body)
}

func (s *EmailService) SendPaymentFailed(order *models.Order) error {
	if s.mailer == nil || order.Email == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	subject := fmt.Sprintf("Payment failed for order #%d", order.ID)
	body := fmt.Sprintf(
		"Your payment for order #%d (%d %s %s) did not go through.\nNo charge was applied. You can retry checkout at any time.\n",
		order.ID, order.Quantity, order.Platform, order.ServiceType)
	return s.mailer.Send(ctx, order.Email, subject, body)
}
