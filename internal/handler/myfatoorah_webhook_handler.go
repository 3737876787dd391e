package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"likesio/internal/domain"
	"likesio/internal/repository"
	"likesio/internal/service"
	"likesio/pkg/gateway"

	"github.com/gin-gonic/gin"
)

type MyFatoorahWebhookHandler struct {
	client      *gateway.MyFatoorahClient
	paymentRepo *repository.PaymentRepository
	processor   *service.OrderProcessor
}

func NewMyFatoorahWebhookHandler(client *gateway.MyFatoorahClient, paymentRepo *repository.PaymentRepository, processor *service.OrderProcessor) *MyFatoorahWebhookHandler {
	return &MyFatoorahWebhookHandler{client: client, paymentRepo: paymentRepo, processor: processor}
}

type myFatoorahCallback struct {
	Data struct {
		InvoiceID         int64  `json:"InvoiceId"`
		TransactionStatus string `json:"TransactionStatus"`
	} `json:"Data"`
}

// Handle processes MyFatoorah callbacks. The myfatoorah-signature header is
// base64(HMAC-SHA256(body, base64-decoded secret)); a single tampered byte fails the check
// and nothing is touched.
func (h *MyFatoorahWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !h.client.VerifySignature(body, c.GetHeader("myfatoorah-signature")) {
		log.Printf("[MyFatoorah webhook] invalid signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var payload myFatoorahCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	log.Printf("[MyFatoorah webhook] invoice=%d status=%s", payload.Data.InvoiceID, payload.Data.TransactionStatus)
	if payload.Data.InvoiceID == 0 {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	txnID := strconv.FormatInt(payload.Data.InvoiceID, 10)
	p, err := h.paymentRepo.GetByGatewayTxn(domain.GatewayMyFatoorah, txnID)
	if err != nil {
		log.Printf("[MyFatoorah webhook] no payment for invoice=%s — acknowledging", txnID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	switch gateway.ClassifyMyFatoorahStatus(payload.Data.TransactionStatus) {
	case "success":
		if err := h.processor.HandleSuccess(c.Request.Context(), p, body); err != nil {
			log.Printf("[MyFatoorah webhook] payment %d: %v", p.ID, err)
		}
	case "failed":
		if err := h.processor.HandleFailure(c.Request.Context(), p, body); err != nil {
			log.Printf("[MyFatoorah webhook] payment %d: %v", p.ID, err)
		}
	default:
		h.processor.StorePendingSnapshot(p, body)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
