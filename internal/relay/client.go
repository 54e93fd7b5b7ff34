// Package relay forwards booking requests to a FormSubmit-style form relay,
// which mails them to the operations team.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"aerolease/internal/booking"
)

// ErrNoEndpoint is returned when no relay endpoint is configured.
var ErrNoEndpoint = errors.New("relay endpoint not configured")

// Client posts booking requests to the relay's AJAX endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit throttles outgoing submissions. A zero rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient constructs a client for endpoint.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// message is the relay payload: the request fields plus relay directives.
type message struct {
	*booking.Request
	Subject      string `json:"_subject"`
	Template     string `json:"_template"`
	AutoResponse string `json:"_autoresponse"`
}

type response struct {
	Success json.RawMessage `json:"success"`
	Message string          `json:"message"`
}

// accepted reports whether success is true or "true"; the relay uses both.
func (r response) accepted() bool {
	switch string(bytes.TrimSpace(r.Success)) {
	case "true", `"true"`:
		return true
	}
	return false
}

// Submit sends req to the relay. Any non-2xx status or a response without
// success=true is an error.
func (c *Client) Submit(ctx context.Context, req *booking.Request) error {
	if c.endpoint == "" {
		return ErrNoEndpoint
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("relay rate limit: %w", err)
		}
	}

	body := message{
		Request:      req,
		Subject:      req.Subject(),
		Template:     "table",
		AutoResponse: req.AutoResponse(),
	}
	var resp response
	if err := c.doPost(ctx, body, &resp); err != nil {
		return fmt.Errorf("relay %s: %w", req.RequestID, err)
	}
	if !resp.accepted() {
		msg := resp.Message
		if msg == "" {
			msg = "submission failed"
		}
		return fmt.Errorf("relay %s: %s", req.RequestID, msg)
	}
	return nil
}

func (c *Client) doPost(ctx context.Context, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
