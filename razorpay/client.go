package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.razorpay.com"
	defaultTimeout = 30 * time.Second

	endpointPaymentLinks = "/v1/payment_links"
	endpointPaymentLink  = "/v1/payment_links/%s"
	endpointQRCodes      = "/v1/payments/qr_codes"
	endpointQRCode       = "/v1/payments/qr_codes/%s"
	endpointAccount      = "/v2/accounts/%s"
)

// Config holds the credentials and transport settings of a gateway client
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the Razorpay REST API with basic auth. It holds no global
// state, so one instance is built at startup and shared by the services.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewClient creates a new gateway client
func NewClient(cfg Config) (*Client, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, errors.New("razorpay: key id and key secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// CreatePaymentLink creates a hosted payment link
func (c *Client) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	var link PaymentLink
	if err := c.do(ctx, http.MethodPost, endpointPaymentLinks, req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// FetchPaymentLink returns the current state of a payment link
func (c *Client) FetchPaymentLink(ctx context.Context, id string) (*PaymentLink, error) {
	var link PaymentLink
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(endpointPaymentLink, url.PathEscape(id)), nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateQRCode creates a UPI QR code
func (c *Client) CreateQRCode(ctx context.Context, req QRCodeRequest) (*QRCode, error) {
	var qr QRCode
	if err := c.do(ctx, http.MethodPost, endpointQRCodes, req, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// FetchQRCode returns the current state of a QR code
func (c *Client) FetchQRCode(ctx context.Context, id string) (*QRCode, error) {
	var qr QRCode
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(endpointQRCode, url.PathEscape(id)), nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// FetchAccount returns the gateway-side details of a linked merchant account
func (c *Client) FetchAccount(ctx context.Context, accountID string) (map[string]any, error) {
	var details map[string]any
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(endpointAccount, url.PathEscape(accountID)), nil, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("razorpay: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("razorpay: failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "CarePay/1.0")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &GatewayError{Description: err.Error(), err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("razorpay: failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseGatewayError(resp.StatusCode, respBody)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("razorpay: failed to parse response: %w", err)
	}
	return nil
}
