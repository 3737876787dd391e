package smm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a JAP-style SMM panel: one endpoint, form-encoded key+action requests.
type Client struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// OrderResult is the panel's answer to an order placement.
type OrderResult struct {
	Order  int64  `json:"order"`
	Status string `json:"status"`
}

// UpstreamService is one catalogue entry. The panel returns most numbers as strings.
type UpstreamService struct {
	Service  json.Number `json:"service"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Category string      `json:"category"`
	Rate     string      `json:"rate"`
	Min      string      `json:"min"`
	Max      string      `json:"max"`
}

// ID returns the numeric service id.
func (s UpstreamService) ID() int {
	n, _ := strconv.Atoi(s.Service.String())
	return n
}

// RateFloat returns the per-1000 rate as a float, 0 when unparsable.
func (s UpstreamService) RateFloat() float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s.Rate), 64)
	return f
}

// OrderStatus is the panel's view of a placed order.
type OrderStatus struct {
	Charge     string `json:"charge"`
	StartCount string `json:"start_count"`
	Status     string `json:"status"`
	Remains    string `json:"remains"`
	Currency   string `json:"currency"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, form url.Values) ([]byte, error) {
	form.Set("key", c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("smm panel: %d %s", resp.StatusCode, string(body))
	}
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return nil, fmt.Errorf("smm panel: %s", apiErr.Error)
	}
	return body, nil
}

// CreateOrder places a delivery order for serviceID against link.
func (c *Client) CreateOrder(ctx context.Context, serviceID int, link string, quantity int) (*OrderResult, error) {
	form := url.Values{}
	form.Set("action", "add")
	form.Set("service", strconv.Itoa(serviceID))
	form.Set("link", link)
	form.Set("quantity", strconv.Itoa(quantity))
	log.Printf("[SMM] add service=%d quantity=%d link=%s", serviceID, quantity, link)
	body, err := c.post(ctx, form)
	if err != nil {
		return nil, err
	}
	var out OrderResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.Order == 0 {
		return nil, fmt.Errorf("smm panel: no order id in response %s", string(body))
	}
	if out.Status == "" {
		out.Status = "Pending"
	}
	return &out, nil
}

// Services fetches the full live catalogue for local reconciliation.
func (c *Client) Services(ctx context.Context) ([]UpstreamService, error) {
	form := url.Values{}
	form.Set("action", "services")
	body, err := c.post(ctx, form)
	if err != nil {
		return nil, err
	}
	var out []UpstreamService
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrderStatus fetches the panel's current view of an order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	form := url.Values{}
	form.Set("action", "status")
	form.Set("order", orderID)
	body, err := c.post(ctx, form)
	if err != nil {
		return nil, err
	}
	var out OrderStatus
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
