package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"
)

// CheckoutComClient creates Checkout.com hosted payment sessions. This gateway confirms
// synchronously on the return URL, so there is no webhook handler for it.
type CheckoutComClient struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewCheckoutComClient(baseURL, secretKey string) *CheckoutComClient {
	if baseURL == "" {
		baseURL = "https://api.checkout.com"
	}
	return &CheckoutComClient{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *CheckoutComClient) Name() string { return "CHECKOUT" }

type checkoutComSessionReq struct {
	Amount     int64  `json:"amount"` // minor units
	Currency   string `json:"currency"`
	Reference  string `json:"reference"`
	SuccessURL string `json:"success_url,omitempty"`
	FailureURL string `json:"failure_url,omitempty"`
}

type checkoutComSessionResp struct {
	ID    string `json:"id"`
	Links struct {
		Redirect struct {
			Href string `json:"href"`
		} `json:"redirect"`
	} `json:"_links"`
}

func (c *CheckoutComClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	payload := checkoutComSessionReq{
		Amount:     int64(math.Round(req.Amount * 100)),
		Currency:   req.Currency,
		Reference:  req.OrderRef,
		SuccessURL: req.SuccessURL,
		FailureURL: req.CancelURL,
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/hosted-payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.SecretKey)
	log.Printf("[Checkout.com] POST /hosted-payments reference=%s amount=%.2f %s", req.OrderRef, req.Amount, req.Currency)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checkout.com hosted-payments: %d %s", resp.StatusCode, string(respBody))
	}
	var out checkoutComSessionResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("checkout.com hosted-payments: empty id")
	}
	return &CheckoutSession{
		ID:          out.ID,
		CheckoutURL: out.Links.Redirect.Href,
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}, nil
}
