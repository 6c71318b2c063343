package sms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// gatewayRequest is the JSON body submitted per segment.
type gatewayRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// gatewayResponse is the provider's per-segment answer.
type gatewayResponse struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// HTTPProvider submits segments to an HTTP SMS gateway.
type HTTPProvider struct {
	client *resty.Client
}

// HTTPProviderOptions configures the gateway client.
type HTTPProviderOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // defaults to 10s
}

// NewHTTPProvider creates a gateway-backed Provider.
func NewHTTPProvider(opts HTTPProviderOptions) *HTTPProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}
	return &HTTPProvider{client: client}
}

// Send submits one segment and returns the provider's message id.
func (p *HTTPProvider) Send(ctx context.Context, phone, text string) (string, error) {
	var out gatewayResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(gatewayRequest{To: phone, Body: text}).
		SetResult(&out).
		Post("/messages")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("sms gateway status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.OK {
		return "", fmt.Errorf("sms gateway rejected segment: %s", out.Error)
	}
	return out.MessageID, nil
}
