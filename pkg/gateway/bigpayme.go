package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// BigPayMeClient handles card payments via the BigPayMe API. Webhooks carry an
// x-bigpayme-signature header: HMAC-SHA256 of the raw body, hex encoded.
type BigPayMeClient struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	client        *http.Client
}

func NewBigPayMeClient(baseURL, apiKey, webhookSecret string) *BigPayMeClient {
	if baseURL == "" {
		baseURL = "https://api.bigpayme.com"
	}
	return &BigPayMeClient{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *BigPayMeClient) Name() string { return "BIGPAYME" }

// BigPayMeSignature computes HMAC-SHA256(body, secret) hex.
func BigPayMeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *BigPayMeClient) VerifySignature(body []byte, signature string) bool {
	expected := BigPayMeSignature(body, c.WebhookSecret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

type bigPayMeCheckoutReq struct {
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description,omitempty"`
	SuccessURL  string            `json:"success_url,omitempty"`
	CancelURL   string            `json:"cancel_url,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type bigPayMeCheckoutResp struct {
	Data struct {
		ID          string `json:"id"`
		CheckoutURL string `json:"checkout_url"`
		ExpiresAt   string `json:"expires_at"`
		Status      string `json:"status"`
	} `json:"data"`
	Error string `json:"error"`
}

func (c *BigPayMeClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	payload := bigPayMeCheckoutReq{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		CallbackURL: req.CallbackURL,
		Metadata:    map[string]string{"orderId": req.OrderRef},
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/checkout", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	log.Printf("[BigPayMe] POST /v1/checkout order=%s amount=%.2f %s", req.OrderRef, req.Amount, req.Currency)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bigpayme checkout: %d %s", resp.StatusCode, string(respBody))
	}
	var out bigPayMeCheckoutResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("bigpayme checkout: empty id (error=%s)", out.Error)
	}
	expires, _ := time.Parse(time.RFC3339, out.Data.ExpiresAt)
	return &CheckoutSession{ID: out.Data.ID, CheckoutURL: out.Data.CheckoutURL, ExpiresAt: expires}, nil
}

// ClassifyBigPayMeStatus maps the provider status onto the local three-way outcome.
func ClassifyBigPayMeStatus(status string) string {
	switch status {
	case "completed", "paid":
		return "success"
	case "failed", "cancelled", "expired":
		return "failed"
	default:
		return "pending"
	}
}
