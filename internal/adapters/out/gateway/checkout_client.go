// internal/adapters/out/gateway/checkout_client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	usecase "github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
)

const (
	sessionPath = "/v1/checkout/sessions"
	maxErrBody  = 1 << 20
)

// Client implements the CheckoutGateway port against the hosted payment
// page provider. On a non-success status the response body is surfaced as
// the error so the caller can show the provider's reason.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithHTTP is useful for tests.
func NewClientWithHTTP(baseURL, apiKey string, hc *http.Client) *Client {
	c := NewClient(baseURL, apiKey)
	if hc != nil {
		c.client = hc
	}
	return c
}

var _ usecase.CheckoutGateway = (*Client)(nil)

// CreateCheckoutSession posts the line items and return URLs and returns
// the provider's redirect target.
func (c *Client) CreateCheckoutSession(ctx context.Context, in usecase.GatewaySessionInput) (*usecase.GatewaySessionResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("gateway: base url is empty")
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("gateway: no items")
	}

	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionPath, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrBody))
		return nil, fmt.Errorf("gateway: create session failed status=%d body=%s",
			res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out usecase.GatewaySessionResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gateway: decode session response: %w", err)
	}
	return &out, nil
}
