// Package backend talks to the remote chat backend over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/meeting-agent/chatwidget/internal/config"
	"github.com/meeting-agent/chatwidget/internal/model/chat"
)

const chatPath = "/chat"

// Client posts queries to a fixed backend base URL.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	strictStatus bool
	logger       *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithStrictStatus makes non-2xx replies fail with a KindStatus error.
func WithStrictStatus(strict bool) Option {
	return func(c *Client) { c.strictStatus = strict }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the backend section of the config.
func NewFromConfig(cfg config.BackendConfig, logger *zap.Logger) *Client {
	return New(cfg.BaseURL,
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithStrictStatus(cfg.StrictStatus),
		WithLogger(logger),
	)
}

// BaseURL returns the backend address the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends one query and decodes the reply. Any JSON value is accepted.
// Transport failures, bodies that are not JSON and (in strict mode) non-2xx
// statuses come back as *Error.
func (c *Client) Chat(ctx context.Context, req chat.Request) (chat.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return chat.Response{}, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return chat.Response{}, &Error{Kind: KindNetwork, Err: err}
	}
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return chat.Response{}, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Response{}, &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}

	if c.strictStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return chat.Response{}, &Error{
			Kind:   KindStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var out chat.Response
	if err := json.Unmarshal(body, &out); err != nil {
		return chat.Response{}, &Error{Kind: KindDecode, Status: resp.StatusCode, Err: err}
	}

	c.logger.Debug("backend replied",
		zap.Int("status", resp.StatusCode),
		zap.Int("text_len", len(out.Text)),
		zap.Int("retrieved", len(out.Retrieved)),
	)
	return out, nil
}
