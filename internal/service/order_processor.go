package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"likesio/internal/domain"
	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/pkg/smm"
)

// OrderProcessor applies the terminal outcome of a payment webhook: payment and order
// status transitions first, then the best-effort side effects (coupon redemption, upstream
// delivery order, confirmation email). Side-effect failures are logged and never unwind the
// committed status change — the money has already moved.
type OrderProcessor struct {
	orderRepo   *repository.OrderRepository
	paymentRepo *repository.PaymentRepository
	serviceRepo *repository.ServiceRepository
	auditRepo   *repository.AuditLogRepository
	coupons     *CouponService
	emails      *EmailService
	notifSvc    *NotificationService
	panel       *smm.Client
}

func NewOrderProcessor(
	orderRepo *repository.OrderRepository,
	paymentRepo *repository.PaymentRepository,
	serviceRepo *repository.ServiceRepository,
	auditRepo *repository.AuditLogRepository,
	coupons *CouponService,
	emails *EmailService,
	notifSvc *NotificationService,
	panel *smm.Client,
) *OrderProcessor {
	return &OrderProcessor{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		serviceRepo: serviceRepo,
		auditRepo:   auditRepo,
		coupons:     coupons,
		emails:      emails,
		notifSvc:    notifSvc,
		panel:       panel,
	}
}

// HandleSuccess moves payment to SUCCESS and order to PROCESSING, then runs side effects.
// Redeliveries of the same terminal webhook are no-ops: the payment is already SUCCESS, so
// no second upstream order, redemption or email is produced.
func (p *OrderProcessor) HandleSuccess(ctx context.Context, payment *models.Payment, rawPayload []byte) error {
	if payment.Status == domain.PaymentStatusSuccess {
		log.Printf("[Processor] payment %d already SUCCESS — ignoring redelivery", payment.ID)
		return nil
	}
	order, err := p.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", payment.OrderID, err)
	}
	if order.IsTerminal() {
		log.Printf("[Processor] order %d already %s — ignoring webhook for payment %d", order.ID, order.Status, payment.ID)
		return nil
	}

	now := time.Now()
	payment.Status = domain.PaymentStatusSuccess
	payment.CompletedAt = &now
	payment.WebhookData = mergeWebhookData(payment.WebhookData, rawPayload)
	if err := p.paymentRepo.Update(payment); err != nil {
		return fmt.Errorf("update payment %d: %w", payment.ID, err)
	}
	order.Status = domain.OrderStatusProcessing
	if err := p.orderRepo.Update(order); err != nil {
		return fmt.Errorf("update order %d: %w", order.ID, err)
	}
	log.Printf("[Processor] payment %d SUCCESS, order %d -> PROCESSING", payment.ID, order.ID)

	// Everything below is best-effort: the paid state is already committed.
	if err := p.coupons.RecordRedemption(order, payment); err != nil {
		log.Printf("[Processor] coupon redemption for order %d: %v", order.ID, err)
	}
	p.placeUpstreamOrder(ctx, order)
	if err := p.emails.SendOrderConfirmation(order); err != nil {
		log.Printf("[Processor] confirmation email for order %d: %v", order.ID, err)
	}
	if order.UserID != nil {
		_ = p.notifSvc.NotifyOrderProcessing(*order.UserID, order.ID)
	}
	_ = p.auditRepo.Create(&models.AuditLog{
		UserID:     order.UserID,
		Action:     "payment_success",
		Resource:   "order",
		ResourceID: fmt.Sprintf("%d", order.ID),
		Detail:     fmt.Sprintf("gateway=%s txn=%s amount=%.2f", payment.Gateway, payment.TransactionID, payment.Amount),
	})
	return nil
}

// HandleFailure moves payment and order to FAILED. Orders already terminal are untouched.
func (p *OrderProcessor) HandleFailure(ctx context.Context, payment *models.Payment, rawPayload []byte) error {
	if payment.Status == domain.PaymentStatusFailed {
		log.Printf("[Processor] payment %d already FAILED — ignoring redelivery", payment.ID)
		return nil
	}
	order, err := p.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", payment.OrderID, err)
	}
	if order.IsTerminal() {
		log.Printf("[Processor] order %d already %s — ignoring failure webhook", order.ID, order.Status)
		return nil
	}

	payment.Status = domain.PaymentStatusFailed
	payment.WebhookData = mergeWebhookData(payment.WebhookData, rawPayload)
	if err := p.paymentRepo.Update(payment); err != nil {
		return fmt.Errorf("update payment %d: %w", payment.ID, err)
	}
	order.Status = domain.OrderStatusFailed
	if err := p.orderRepo.Update(order); err != nil {
		return fmt.Errorf("update order %d: %w", order.ID, err)
	}
	log.Printf("[Processor] payment %d FAILED, order %d -> FAILED", payment.ID, order.ID)

	if err := p.emails.SendPaymentFailed(order); err != nil {
		log.Printf("[Processor] failure email for order %d: %v", order.ID, err)
	}
	if order.UserID != nil {
		_ = p.notifSvc.NotifyOrderFailed(*order.UserID, order.ID)
	}
	_ = p.auditRepo.Create(&models.AuditLog{
		UserID:     order.UserID,
		Action:     "payment_failed",
		Resource:   "order",
		ResourceID: fmt.Sprintf("%d", order.ID),
		Detail:     fmt.Sprintf("gateway=%s txn=%s", payment.Gateway, payment.TransactionID),
	})
	return nil
}

// StorePendingSnapshot keeps the latest non-terminal payload on the payment without any
// side effects, so intermediate gateway states are visible for support.
func (p *OrderProcessor) StorePendingSnapshot(payment *models.Payment, rawPayload []byte) {
	payment.WebhookData = mergeWebhookData(payment.WebhookData, rawPayload)
	if err := p.paymentRepo.Update(payment); err != nil {
		log.Printf("[Processor] store pending snapshot for payment %d: %v", payment.ID, err)
	}
}

// RetryFulfillment re-attempts the upstream delivery order for a PROCESSING order that has
// no upstream id yet (the manual recovery path after a mid-sequence crash or panel outage).
func (p *OrderProcessor) RetryFulfillment(ctx context.Context, order *models.Order) error {
	if order.Status != domain.OrderStatusProcessing {
		return fmt.Errorf("order %d is %s, not PROCESSING", order.ID, order.Status)
	}
	if order.JapOrderID != "" {
		return fmt.Errorf("order %d already has upstream order %s", order.ID, order.JapOrderID)
	}
	return p.placeUpstreamOrderErr(ctx, order)
}

// RefreshUpstreamStatus polls the panel for a delivered order and marks the order
// COMPLETED when the panel reports completion.
func (p *OrderProcessor) RefreshUpstreamStatus(ctx context.Context, order *models.Order) error {
	if order.JapOrderID == "" {
		return fmt.Errorf("order %d has no upstream order", order.ID)
	}
	st, err := p.panel.GetOrderStatus(ctx, order.JapOrderID)
	if err != nil {
		return err
	}
	order.JapStatus = st.Status
	if st.Status == "Completed" && order.Status == domain.OrderStatusProcessing {
		order.Status = domain.OrderStatusCompleted
		log.Printf("[Processor] order %d completed upstream", order.ID)
	}
	return p.orderRepo.Update(order)
}

func (p *OrderProcessor) placeUpstreamOrder(ctx context.Context, order *models.Order) {
	if err := p.placeUpstreamOrderErr(ctx, order); err != nil {
		// Order stays PROCESSING; an operator can retry fulfillment from the admin panel.
		log.Printf("[Processor] upstream order for order %d: %v", order.ID, err)
	}
}

func (p *OrderProcessor) placeUpstreamOrderErr(ctx context.Context, order *models.Order) error {
	svc, err := p.serviceRepo.GetByID(order.ServiceID)
	if err != nil {
		return fmt.Errorf("load service %d: %w", order.ServiceID, err)
	}
	if svc.JapServiceID == 0 {
		log.Printf("[Processor] service %d has no upstream id — skipping fulfillment for order %d", svc.ID, order.ID)
		return nil
	}
	if order.Link == "" {
		log.Printf("[Processor] order %d has no target link — skipping fulfillment", order.ID)
		return nil
	}
	res, err := p.panel.CreateOrder(ctx, svc.JapServiceID, order.Link, order.Quantity)
	if err != nil {
		return err
	}
	order.JapOrderID = fmt.Sprintf("%d", res.Order)
	order.JapStatus = res.Status
	if err := p.orderRepo.Update(order); err != nil {
		return fmt.Errorf("store upstream order id for order %d: %w", order.ID, err)
	}
	log.Printf("[Processor] order %d placed upstream as %s (status=%s)", order.ID, order.JapOrderID, res.Status)
	return nil
}

// mergeWebhookData keeps the coupon metadata seeded at checkout while recording the latest
// raw webhook payload alongside it.
func mergeWebhookData(existing string, rawPayload []byte) string {
	data := map[string]json.RawMessage{}
	if existing != "" {
		_ = json.Unmarshal([]byte(existing), &data)
	}
	if len(rawPayload) > 0 && json.Valid(rawPayload) {
		data["last_webhook"] = json.RawMessage(rawPayload)
	}
	out, err := json.Marshal(data)
	if err != nil {
		return existing
	}
	return string(out)
}
