// internal/domain/payment/client.go
package payment

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

	"github.com/sony/gobreaker/v2"
)

// Client is the shared HTTP client for outbound provider calls. Every
// request runs through a circuit breaker so a failing provider stops
// consuming request time budget quickly.
type Client struct {
	provider   Provider
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	authorize  func(*http.Request)
}

// NewClient creates a provider HTTP client. The authorize hook sets
// provider-specific auth headers on each request.
func NewClient(provider Provider, baseURL string, timeout time.Duration, authorize func(*http.Request)) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        string(provider),
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		authorize:  authorize,
	}
}

// PostForm sends a form-encoded POST and decodes the JSON response into out
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	return c.call(ctx, http.MethodPost, path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), out)
}

// PostJSON sends a JSON POST and decodes the JSON response into out
func (c *Client) PostJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{Provider: c.provider, Err: err}
	}
	return c.call(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), out)
}

// GetJSON sends a GET and decodes the JSON response into out
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) call(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.authorize != nil {
			c.authorize(req)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data, 256))
		}
		return data, nil
	})
	if err != nil {
		return &ProviderError{Provider: c.provider, Err: err}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &ProviderError{Provider: c.provider, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}
