// Package paystack implements the payment gateway adapter against a
// Paystack-style transaction API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ajayishaq/rromisim/internal/domain/order"
)

// DefaultBaseURL is the production gateway endpoint.
const DefaultBaseURL = "https://api.paystack.co"

var _ order.PaymentGateway = (*Client)(nil)

// Config holds the credentials and tuning for the gateway client.
type Config struct {
	// SecretKey is sent as a bearer token on every request.
	SecretKey string
	// BaseURL overrides the vendor endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each vendor call. Zero means 10s.
	Timeout time.Duration
}

// Client calls the payment vendor over HTTPS. All failures, from network
// errors to vendor-side rejections, collapse into
// *order.GatewayError carrying the vendor message for diagnostics.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// New creates a gateway client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type initializeRequest struct {
	Email     string                `json:"email"`
	Amount    int64                 `json:"amount"`
	Reference string                `json:"reference"`
	Metadata  order.PaymentMetadata `json:"metadata"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// Initialize opens a transaction and returns the customer authorization URL.
// The amount is in minor currency units.
func (c *Client) Initialize(ctx context.Context, email string, amountMinor int64, reference string, meta order.PaymentMetadata) (string, error) {
	body, err := json.Marshal(initializeRequest{
		Email:     email,
		Amount:    amountMinor,
		Reference: reference,
		Metadata:  meta,
	})
	if err != nil {
		return "", &order.GatewayError{Message: fmt.Sprintf("encode initialize request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", &order.GatewayError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	var out initializeResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return "", &order.GatewayError{Message: vendorMessage(out.Message, "transaction initialize rejected")}
	}
	return out.Data.AuthorizationURL, nil
}

// Verify reports whether the vendor confirms the referenced transaction as
// paid. Only the literal vendor status "success" maps to true; failed,
// pending, abandoned and every other status is not-yet-payable.
func (c *Client) Verify(ctx context.Context, reference string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return false, &order.GatewayError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	var out verifyResponse
	if err := c.do(req, &out); err != nil {
		return false, err
	}
	return out.Data.Status == "success", nil
}

// do executes the request and decodes the JSON response, mapping transport
// and HTTP-level failures to *order.GatewayError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &order.GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &order.GatewayError{Message: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &order.GatewayError{Message: fmt.Sprintf("vendor returned %d: %s", resp.StatusCode, vendorDetail(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &order.GatewayError{Message: fmt.Sprintf("malformed vendor response: %v", err)}
	}
	return nil
}

// vendorDetail extracts the vendor "message" field from an error body, or
// truncates the raw body for diagnostics.
func vendorDetail(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}

func vendorMessage(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
