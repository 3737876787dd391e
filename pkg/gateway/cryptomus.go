package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// CryptomusClient handles crypto payments via the Cryptomus merchant API.
// Requests and webhooks are signed with MD5(base64(body) + apiKey).
type CryptomusClient struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	client     *http.Client
}

func NewCryptomusClient(baseURL, merchantID, apiKey string) *CryptomusClient {
	if baseURL == "" {
		baseURL = "https://api.cryptomus.com"
	}
	return &CryptomusClient{
		BaseURL:    baseURL,
		MerchantID: merchantID,
		APIKey:     apiKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *CryptomusClient) Name() string { return "CRYPTOMUS" }

// CryptomusSign computes MD5(base64(body) + apiKey) hex, the scheme Cryptomus uses for both
// outbound request signing and inbound webhook verification.
func CryptomusSign(body []byte, apiKey string) string {
	encoded := base64.StdEncoding.EncodeToString(body)
	sum := md5.Sum([]byte(encoded + apiKey))
	return hex.EncodeToString(sum[:])
}

// VerifySign checks an inbound webhook signature against the raw request body.
func (c *CryptomusClient) VerifySign(body []byte, sign string) bool {
	expected := CryptomusSign(body, c.APIKey)
	return hmac.Equal([]byte(sign), []byte(expected))
}

type cryptomusPaymentReq struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	URLReturn   string `json:"url_return,omitempty"`
	URLSuccess  string `json:"url_success,omitempty"`
	URLCallback string `json:"url_callback,omitempty"`
}

type cryptomusPaymentResp struct {
	State  int `json:"state"`
	Result struct {
		UUID      string `json:"uuid"`
		OrderID   string `json:"order_id"`
		Amount    string `json:"amount"`
		URL       string `json:"url"`
		ExpiredAt int64  `json:"expired_at"`
		Status    string `json:"payment_status"`
	} `json:"result"`
	Message string `json:"message"`
}

// CreateCheckout creates a hosted payment page. The returned session ID is the Cryptomus
// payment uuid, which later webhooks echo back.
func (c *CryptomusClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	payload := cryptomusPaymentReq{
		Amount:      fmt.Sprintf("%.2f", req.Amount),
		Currency:    req.Currency,
		OrderID:     req.OrderRef,
		URLReturn:   req.CancelURL,
		URLSuccess:  req.SuccessURL,
		URLCallback: req.CallbackURL,
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/payment", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("merchant", c.MerchantID)
	httpReq.Header.Set("sign", CryptomusSign(body, c.APIKey))
	log.Printf("[Cryptomus] POST /v1/payment order_id=%s amount=%s %s", req.OrderRef, payload.Amount, req.Currency)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cryptomus payment: %d %s", resp.StatusCode, string(respBody))
	}
	var out cryptomusPaymentResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.Result.UUID == "" {
		return nil, fmt.Errorf("cryptomus payment: empty uuid (state=%d message=%s)", out.State, out.Message)
	}
	return &CheckoutSession{
		ID:          out.Result.UUID,
		CheckoutURL: out.Result.URL,
		ExpiresAt:   time.Unix(out.Result.ExpiredAt, 0),
	}, nil
}

// ClassifyCryptomusStatus maps the provider status vocabulary onto the local three-way
// outcome: "success", "failed" or "pending". Intermediate states like wait_for_payment and
// confirm_check stay pending and must cause no side effects.
func ClassifyCryptomusStatus(status string) string {
	switch status {
	case "paid", "paid_over":
		return "success"
	case "fail", "cancel", "system_fail":
		return "failed"
	default:
		return "pending"
	}
}
