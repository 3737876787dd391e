package handler

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"likesio/config"
	"likesio/internal/domain"
	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/internal/service"
	"likesio/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	cfg         *config.Config
	orderRepo   *repository.OrderRepository
	paymentRepo *repository.PaymentRepository
	serviceRepo *repository.ServiceRepository
	coupons     *service.CouponService
	providers   map[string]gateway.Provider
}

func NewOrderHandler(
	cfg *config.Config,
	orderRepo *repository.OrderRepository,
	paymentRepo *repository.PaymentRepository,
	serviceRepo *repository.ServiceRepository,
	coupons *service.CouponService,
	providers map[string]gateway.Provider,
) *OrderHandler {
	return &OrderHandler{
		cfg:         cfg,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		serviceRepo: serviceRepo,
		coupons:     coupons,
		providers:   providers,
	}
}

type createOrderRequest struct {
	ServiceID  uint   `json:"service_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Link       string `json:"link" binding:"required,url"`
	Email      string `json:"email" binding:"required,email"`
	Gateway    string `json:"gateway" binding:"required"`
	CouponCode string `json:"coupon_code"`
	UserID     *uint  `json:"user_id"` // set by the storefront for signed-in customers
}

// Create handles POST /orders: creates a PENDING_PAYMENT order, opens a checkout session at
// the chosen gateway and stores the PENDING payment row keyed by the gateway's transaction id.
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	provider, ok := h.providers[strings.ToUpper(req.Gateway)]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported gateway"})
		return
	}
	svc, err := h.serviceRepo.GetByID(req.ServiceID)
	if err != nil || !svc.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service not available"})
		return
	}
	if req.Quantity < svc.MinQuantity || (svc.MaxQuantity > 0 && req.Quantity > svc.MaxQuantity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity out of range for this service"})
		return
	}

	// Rate is per 1000 units, mirroring the upstream panel.
	amount := round2(svc.FinalPrice * float64(req.Quantity) / 1000)
	var discount float64
	var meta service.CouponMeta
	if req.CouponCode != "" {
		result, err := h.coupons.Validate(req.CouponCode, amount, svc.ServiceType, req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "coupon validation failed"})
			return
		}
		if !result.Valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": result.Message})
			return
		}
		discount = round2(result.Coupon.Discount(amount))
		meta = service.CouponMeta{CouponCode: result.Coupon.Code, DiscountAmount: discount}
	}
	total := round2(amount - discount)

	order := &models.Order{
		UserID:      req.UserID,
		ServiceID:   svc.ID,
		Platform:    svc.Platform,
		ServiceType: svc.ServiceType,
		Quantity:    req.Quantity,
		Price:       total,
		Currency:    h.cfg.App.Currency,
		Status:      domain.OrderStatusPendingPayment,
		Link:        req.Link,
		Email:       req.Email,
	}
	if err := h.orderRepo.Create(order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	// The merchant reference embeds the order id, so gateways that echo only the
	// reference in their callbacks can still be correlated.
	ref := strconv.FormatUint(uint64(order.ID), 10) + "-" + uuid.NewString()
	session, err := provider.CreateCheckout(c.Request.Context(), gateway.CheckoutRequest{
		OrderRef:      ref,
		Amount:        total,
		Currency:      order.Currency,
		Description:   svc.Name,
		CustomerEmail: req.Email,
		SuccessURL:    h.cfg.App.BaseURL + "/order/" + strconv.FormatUint(uint64(order.ID), 10) + "/success",
		CancelURL:     h.cfg.App.BaseURL + "/order/" + strconv.FormatUint(uint64(order.ID), 10) + "/cancelled",
		CallbackURL:   h.cfg.App.BaseURL + "/api/v1/webhooks/" + strings.ToLower(provider.Name()),
	})
	if err != nil {
		log.Printf("[Orders] checkout session for order %d via %s: %v", order.ID, provider.Name(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create checkout session"})
		return
	}

	// Coupon metadata rides in WebhookData so the webhook handler can book the redemption;
	// the gateways do not echo custom fields reliably.
	var webhookData string
	if meta.CouponCode != "" {
		b, _ := json.Marshal(meta)
		webhookData = string(b)
	}
	payment := &models.Payment{
		OrderID:       order.ID,
		Gateway:       provider.Name(),
		TransactionID: session.ID,
		Amount:        total,
		Currency:      order.Currency,
		Status:        domain.PaymentStatusPending,
		WebhookData:   webhookData,
	}
	if err := h.paymentRepo.Create(payment); err != nil {
		log.Printf("[Orders] payment row for order %d: %v", order.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"payment_id":   payment.ID,
		"amount":       total,
		"discount":     discount,
		"currency":     order.Currency,
		"checkout_url": session.CheckoutURL,
		"expires_at":   session.ExpiresAt,
	})
}

// GetStatus handles GET /orders/:id/status. Ownership is deliberately not enforced: guest
// orders have no owner and the success page polls with nothing but the opaque order id.
func (h *OrderHandler) GetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	order, err := h.orderRepo.GetWithDetails(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	var payment *models.Payment
	if len(order.Payments) > 0 {
		payment = &order.Payments[len(order.Payments)-1]
	}
	resp := gin.H{
		"id":           order.ID,
		"status":       order.Status,
		"jap_order_id": order.JapOrderID,
		"jap_status":   order.JapStatus,
		"quantity":     order.Quantity,
		"price":        order.Price,
		"platform":     order.Platform,
		"service_type": order.ServiceType,
		"service":      order.Service,
	}
	if payment != nil {
		resp["payment"] = gin.H{
			"id":       payment.ID,
			"gateway":  payment.Gateway,
			"status":   payment.Status,
			"amount":   payment.Amount,
			"currency": payment.Currency,
		}
	}
	c.JSON(http.StatusOK, gin.H{"order": resp})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
