package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"likesio/internal/domain"
	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/internal/service"
	"likesio/pkg/gateway"

	"github.com/gin-gonic/gin"
)

type BigPayMeWebhookHandler struct {
	client      *gateway.BigPayMeClient
	paymentRepo *repository.PaymentRepository
	processor   *service.OrderProcessor
}

func NewBigPayMeWebhookHandler(client *gateway.BigPayMeClient, paymentRepo *repository.PaymentRepository, processor *service.OrderProcessor) *BigPayMeWebhookHandler {
	return &BigPayMeWebhookHandler{client: client, paymentRepo: paymentRepo, processor: processor}
}

type bigPayMeCallback struct {
	Data struct {
		ID       string  `json:"id"`
		OrderID  string  `json:"order_id"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Status   string  `json:"status"`
		Metadata struct {
			OrderID string `json:"orderId"`
		} `json:"metadata"`
	} `json:"data"`
}

// Handle processes BigPayMe callbacks, authenticated by the x-bigpayme-signature header
// (HMAC-SHA256 of the raw body, hex).
func (h *BigPayMeWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !h.client.VerifySignature(body, c.GetHeader("x-bigpayme-signature")) {
		log.Printf("[BigPayMe webhook] invalid signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var payload bigPayMeCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	log.Printf("[BigPayMe webhook] id=%s status=%s amount=%.2f %s",
		payload.Data.ID, payload.Data.Status, payload.Data.Amount, payload.Data.Currency)
	if payload.Data.ID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	p, err := h.paymentRepo.GetByGatewayTxn(domain.GatewayBigPayMe, payload.Data.ID)
	if err != nil {
		// Some event types omit the session id and echo only the merchant reference.
		p = h.paymentByMerchantRef(payload.Data.Metadata.OrderID, payload.Data.OrderID)
	}
	if p == nil {
		log.Printf("[BigPayMe webhook] no payment for id=%s — acknowledging", payload.Data.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	switch gateway.ClassifyBigPayMeStatus(payload.Data.Status) {
	case "success":
		if err := h.processor.HandleSuccess(c.Request.Context(), p, body); err != nil {
			log.Printf("[BigPayMe webhook] payment %d: %v", p.ID, err)
		}
	case "failed":
		if err := h.processor.HandleFailure(c.Request.Context(), p, body); err != nil {
			log.Printf("[BigPayMe webhook] payment %d: %v", p.ID, err)
		}
	default:
		h.processor.StorePendingSnapshot(p, body)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// paymentByMerchantRef resolves a payment from the merchant reference issued at checkout
// (metadata.orderId, falling back to data.order_id). The reference is "<orderID>-<nonce>".
func (h *BigPayMeWebhookHandler) paymentByMerchantRef(refs ...string) *models.Payment {
	for _, ref := range refs {
		prefix, _, _ := strings.Cut(ref, "-")
		orderID, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil || orderID == 0 {
			continue
		}
		p, err := h.paymentRepo.GetLatestByOrderID(uint(orderID))
		if err != nil || p.Gateway != domain.GatewayBigPayMe {
			continue
		}
		return p
	}
	return nil
}
