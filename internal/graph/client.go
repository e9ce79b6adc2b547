// Package graph is the HTTP client for the Microsoft Graph API, covering
// the mailbox (mail gateway) and To Do (task gateway) surfaces the
// service consumes.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"smsbridge/internal/config"
	"smsbridge/pkg/circuitbreaker"
	"smsbridge/pkg/metrics"
)

// APIError is a non-2xx response from Graph.
type APIError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph %s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

// StatusCode returns the HTTP status, for retry classification.
func (e *APIError) StatusCode() int { return e.Code }

// Client calls Graph on behalf of a single user. All requests run behind
// a circuit breaker so a flapping remote fails fast instead of stalling
// every poll cycle.
type Client struct {
	baseURL    string
	userID     string
	folder     string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient wires a Graph client from an authenticated HTTP client.
func NewClient(cfg config.GraphConfig, mail config.MailConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		userID:     cfg.UserID,
		folder:     mail.Folder,
		httpClient: httpClient,
		cb:         circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:     logger,
	}
}

// get performs a GET under breaker protection and decodes JSON into out.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	return c.cb.Execute(func() error {
		return c.do(ctx, endpoint, http.MethodGet, path, query, nil, out)
	})
}

// post performs a POST under breaker protection and decodes JSON into out
// when out is non-nil.
func (c *Client) post(ctx context.Context, endpoint, path string, body, out any) error {
	return c.cb.Execute(func() error {
		return c.do(ctx, endpoint, http.MethodPost, path, nil, body, out)
	})
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		metrics.RecordGraphCall(endpoint, "error", latency)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordGraphCall(endpoint, fmt.Sprintf("%d", resp.StatusCode), latency)
		// Keep only the head of the body; Graph error payloads can be long.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Graph call rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", latency),
		)
		return &APIError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(snippet)}
	}
	metrics.RecordGraphCall(endpoint, "success", latency)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("graph %s: failed to decode response: %w", endpoint, err)
	}
	return nil
}

// userPath prefixes path with the configured user.
func (c *Client) userPath(path string) string {
	return "/users/" + url.PathEscape(c.userID) + path
}
