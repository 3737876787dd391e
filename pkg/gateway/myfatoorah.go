package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// MyFatoorahClient handles payments via the MyFatoorah v2 API. The webhook secret is issued
// base64-encoded and must be decoded to raw bytes before HMAC-SHA256; the signature itself
// is base64 encoded.
type MyFatoorahClient struct {
	BaseURL       string
	APIToken      string
	WebhookSecret string
	client        *http.Client
}

func NewMyFatoorahClient(baseURL, apiToken, webhookSecret string) *MyFatoorahClient {
	if baseURL == "" {
		baseURL = "https://api.myfatoorah.com"
	}
	return &MyFatoorahClient{
		BaseURL:       baseURL,
		APIToken:      apiToken,
		WebhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *MyFatoorahClient) Name() string { return "MYFATOORAH" }

// MyFatoorahSignature computes base64(HMAC-SHA256(body, base64-decode(secret))).
func MyFatoorahSignature(body []byte, encodedSecret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(encodedSecret)
	if err != nil {
		return "", fmt.Errorf("myfatoorah: decode webhook secret: %w", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (c *MyFatoorahClient) VerifySignature(body []byte, signature string) bool {
	expected, err := MyFatoorahSignature(body, c.WebhookSecret)
	if err != nil {
		log.Printf("[MyFatoorah] signature: %v", err)
		return false
	}
	return hmac.Equal([]byte(signature), []byte(expected))
}

type myFatoorahSendPaymentReq struct {
	InvoiceValue       float64 `json:"InvoiceValue"`
	CustomerName       string  `json:"CustomerName"`
	CustomerEmail      string  `json:"CustomerEmail,omitempty"`
	DisplayCurrencyIso string  `json:"DisplayCurrencyIso"`
	NotificationOption string  `json:"NotificationOption"`
	CallBackURL        string  `json:"CallBackUrl,omitempty"`
	ErrorURL           string  `json:"ErrorUrl,omitempty"`
	CustomerReference  string  `json:"CustomerReference,omitempty"`
	ExpiryDate         string  `json:"ExpiryDate,omitempty"`
}

type myFatoorahSendPaymentResp struct {
	IsSuccess bool   `json:"IsSuccess"`
	Message   string `json:"Message"`
	Data      struct {
		InvoiceID  int64  `json:"InvoiceId"`
		InvoiceURL string `json:"InvoiceURL"`
	} `json:"Data"`
}

// CreateCheckout creates an invoice via SendPayment. The invoice id is the correlation key
// later webhooks carry in Data.InvoiceId.
func (c *MyFatoorahClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	expiry := time.Now().Add(30 * time.Minute)
	payload := myFatoorahSendPaymentReq{
		InvoiceValue:       req.Amount,
		CustomerName:       "Guest",
		CustomerEmail:      req.CustomerEmail,
		DisplayCurrencyIso: req.Currency,
		NotificationOption: "LNK",
		CallBackURL:        req.SuccessURL,
		ErrorURL:           req.CancelURL,
		CustomerReference:  req.OrderRef,
		ExpiryDate:         expiry.Format("2006-01-02T15:04:05"),
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/SendPayment", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIToken)
	log.Printf("[MyFatoorah] POST /v2/SendPayment ref=%s amount=%.2f %s", req.OrderRef, req.Amount, req.Currency)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("myfatoorah SendPayment: %d %s", resp.StatusCode, string(respBody))
	}
	var out myFatoorahSendPaymentResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if !out.IsSuccess || out.Data.InvoiceID == 0 {
		return nil, fmt.Errorf("myfatoorah SendPayment: %s", out.Message)
	}
	return &CheckoutSession{
		ID:          fmt.Sprintf("%d", out.Data.InvoiceID),
		CheckoutURL: out.Data.InvoiceURL,
		ExpiresAt:   expiry,
	}, nil
}

// ClassifyMyFatoorahStatus maps TransactionStatus onto the local three-way outcome.
func ClassifyMyFatoorahStatus(status string) string {
	switch status {
	case "Success", "SUCCESS":
		return "success"
	case "Failed", "FAILED", "Canceled", "Expired":
		return "failed"
	default:
		return "pending"
	}
}
