package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"likesio/internal/domain"
	"likesio/internal/repository"
	"likesio/internal/service"
	"likesio/pkg/gateway"

	"github.com/gin-gonic/gin"
)

type CryptomusWebhookHandler struct {
	client      *gateway.CryptomusClient
	paymentRepo *repository.PaymentRepository
	processor   *service.OrderProcessor
}

func NewCryptomusWebhookHandler(client *gateway.CryptomusClient, paymentRepo *repository.PaymentRepository, processor *service.OrderProcessor) *CryptomusWebhookHandler {
	return &CryptomusWebhookHandler{client: client, paymentRepo: paymentRepo, processor: processor}
}

type cryptomusCallback struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	UUID          string `json:"uuid"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// Handle processes Cryptomus payment callbacks. The `sign` header is
// MD5(base64(body) + apiKey); anything that fails that check is rejected before any state
// is touched. Unknown transaction ids are acknowledged with 200 so the provider stops
// retrying stale or foreign events.
func (h *CryptomusWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !h.client.VerifySign(body, c.GetHeader("sign")) {
		log.Printf("[Cryptomus webhook] invalid signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var payload cryptomusCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	log.Printf("[Cryptomus webhook] uuid=%s order_id=%s status=%s amount=%s %s",
		payload.UUID, payload.OrderID, payload.PaymentStatus, payload.Amount, payload.Currency)
	if payload.UUID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	p, err := h.paymentRepo.GetByGatewayTxn(domain.GatewayCryptomus, payload.UUID)
	if err != nil {
		log.Printf("[Cryptomus webhook] no payment for uuid=%s — acknowledging", payload.UUID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	switch gateway.ClassifyCryptomusStatus(payload.PaymentStatus) {
	case "success":
		if err := h.processor.HandleSuccess(c.Request.Context(), p, body); err != nil {
			log.Printf("[Cryptomus webhook] payment %d: %v", p.ID, err)
		}
	case "failed":
		if err := h.processor.HandleFailure(c.Request.Context(), p, body); err != nil {
			log.Printf("[Cryptomus webhook] payment %d: %v", p.ID, err)
		}
	default:
		// Intermediate states (check, wait_for_payment, confirm_check): snapshot only.
		h.processor.StorePendingSnapshot(p, body)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
