// internal/adapters/out/cartapi/client.go
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cartdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/cart"
)

const (
	defaultTimeout = 8 * time.Second
	maxErrBody     = 1 << 20
)

// GuestCookieName is the cookie the commerce API reads the guest session
// from. Every call carries it, authenticated or not, so the API can always
// resolve some cart identity.
const GuestCookieName = "pnoh_guest"

// Client is the stateless wrapper around the commerce cart API. It holds
// no cart state of its own; identity travels per call in Credentials.
type Client struct {
	baseURL    string
	cookieName string
	client     *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cookieName: GuestCookieName,
		client:     &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithHTTP is useful for tests.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	c := NewClient(baseURL)
	if hc != nil {
		c.client = hc
	}
	return c
}

var _ cartdom.RemoteClient = (*Client)(nil)

// GetCart reads the canonical cart. A 404 means "no cart yet" and is
// returned as an empty cart, not an error.
func (c *Client) GetCart(ctx context.Context, cred cartdom.Credentials) (*cartdom.Cart, error) {
	res, err := c.do(ctx, cred, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return &cartdom.Cart{Items: []cartdom.Line{}}, nil
	}
	if err := checkStatus(res); err != nil {
		return nil, err
	}

	var cart cartdom.Cart
	if err := json.NewDecoder(res.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("cartapi: decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []cartdom.Line{}
	}
	return &cart, nil
}

// AddLine creates or increments the line for a product.
func (c *Client) AddLine(ctx context.Context, cred cartdom.Credentials, productID string, quantity int) error {
	pid := strings.TrimSpace(productID)
	if pid == "" || quantity <= 0 {
		return fmt.Errorf("cartapi: invalid add-line arguments")
	}

	body := map[string]int{"quantity": quantity}
	res, err := c.do(ctx, cred, http.MethodPost, "/cart/"+url.PathEscape(pid), body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

// RemoveLine deletes the line for a product.
func (c *Client) RemoveLine(ctx context.Context, cred cartdom.Credentials, productID string) error {
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return fmt.Errorf("cartapi: product id is empty")
	}

	res, err := c.do(ctx, cred, http.MethodDelete, "/cart/"+url.PathEscape(pid), nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

// UpdateLineQuantity sets the quantity of an existing line.
func (c *Client) UpdateLineQuantity(ctx context.Context, cred cartdom.Credentials, lineID string, quantity int) error {
	lid := strings.TrimSpace(lineID)
	if lid == "" || quantity <= 0 {
		return fmt.Errorf("cartapi: invalid update-quantity arguments")
	}

	body := map[string]int{"quantity": quantity}
	res, err := c.do(ctx, cred, http.MethodPatch, "/cart/items/"+url.PathEscape(lid), body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

// MergeGuestCart unions the cookie-identified guest cart into the
// bearer-identified user cart. Requires a bearer token; the server is
// idempotent for an already-merged guest session.
func (c *Client) MergeGuestCart(ctx context.Context, cred cartdom.Credentials) error {
	if !cred.Authenticated() {
		return fmt.Errorf("cartapi: merge requires a bearer token")
	}

	res, err := c.do(ctx, cred, http.MethodPost, "/cart/merge", nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

func (c *Client) do(ctx context.Context, cred cartdom.Credentials, method, path string, body any) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("cartapi: base url is empty")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("cartapi: encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+cred.BearerToken)
	}
	// The guest cookie travels on every call, authenticated or not.
	if cred.GuestSession != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: cred.GuestSession})
	}

	return c.client.Do(req)
}

func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrBody))
	return fmt.Errorf("cartapi: %s %s failed status=%d body=%s",
		res.Request.Method, res.Request.URL.Path, res.StatusCode, strings.TrimSpace(string(body)))
}
