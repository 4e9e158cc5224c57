package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"routerswitcher/internal/types"
)

// defaultRequestTimeout applies to requests whose context has no deadline.
const defaultRequestTimeout = 10 * time.Second

// Client calls a running daemon's API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the daemon listening on addr (host:port).
func NewClient(addr string) *Client {
	if addr == "" {
		addr = DefaultAddress
	}
	return &Client{
		baseURL: "http://" + addr + "/" + APIVersion,
		http:    &http.Client{},
	}
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Code, e.Message)
}

// GetConfig fetches the stored config.
func (c *Client) GetConfig(ctx context.Context) (types.Config, error) {
	var cfg types.Config
	err := c.do(ctx, http.MethodGet, "/config", nil, &cfg)
	return cfg, err
}

// UpdateConfig replaces the stored config. A validation failure wraps ErrInvalid.
// The daemon answers only after any in-flight apply, so callers should allow
// for a DHCP exchange in ctx.
func (c *Client) UpdateConfig(ctx context.Context, cfg types.Config) (types.Config, error) {
	var saved types.Config
	err := c.do(ctx, http.MethodPut, "/config", cfg, &saved)
	return saved, err
}

// GetStatus fetches the engine status.
func (c *Client) GetStatus(ctx context.Context) (types.Status, error) {
	var st types.Status
	err := c.do(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

// SetMode forces "static" or "dhcp", or returns to automatic switching with
// ModeAuto. It returns the daemon's status afterwards.
func (c *Client) SetMode(ctx context.Context, mode string) (types.Status, error) {
	var st types.Status
	err := c.do(ctx, http.MethodPut, "/mode", ModeRequest{Mode: mode}, &st)
	return st, err
}

// Evaluate requests an immediate re-evaluation.
func (c *Client) Evaluate(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/evaluate", nil, nil)
}

// History fetches up to limit recent switch attempts.
func (c *Client) History(ctx context.Context, limit int) ([]types.SwitchEvent, error) {
	path := "/history"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var resp HistoryResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp.Events, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultRequestTimeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		statusErr := &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
		if resp.StatusCode == http.StatusBadRequest && method == http.MethodPut {
			return fmt.Errorf("%w: %w", types.ErrInvalid, statusErr)
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
