// Package client translates dashboard intents into calls against the
// database administration backend.
//
// Every operation issues exactly one HTTP request and returns either the
// decoded response body or an *Error. Identical concurrent reads are
// coalesced into a single backend call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dbconsole/dbconsole/internal/metrics"
)

const (
	// DefaultTimeout bounds every backend call unless configured otherwise.
	DefaultTimeout = 30 * time.Second

	maxResponseSize = 10 << 20 // 10 MB
	maxMessageLen   = 512
)

// Error is returned by every operation that fails. Status is the HTTP status
// of the backend response, or 0 when no response was received.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the human-readable part of err, without the operation
// prefix when err came from this package.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// Client talks to one administration backend.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client

	metrics *metrics.Collector
	group   singleflight.Group
}

// New creates a client for the backend at baseURL. A nil collector disables
// metrics.
func New(baseURL string, timeout time.Duration, m *metrics.Collector) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

// Reconfigure swaps the backend address and timeout. Calls already in flight
// finish against the old settings.
func (c *Client) Reconfigure(baseURL string, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.httpClient = &http.Client{Timeout: timeout}
}

// BaseURL returns the current backend address.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) snapshot() (string, *http.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.httpClient
}

// request describes one backend call.
type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
}

// do runs req and returns the raw response body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	base, hc := c.snapshot()
	endpoint := base + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	if req.method != http.MethodGet {
		return c.send(ctx, hc, endpoint, req)
	}

	// Only the caller whose function runs is the leader; the channel
	// receive below orders the write before the read.
	var leader bool
	ch := c.group.DoChan(endpoint, func() (any, error) {
		leader = true
		return c.send(context.WithoutCancel(ctx), hc, endpoint, req)
	})
	select {
	case res := <-ch:
		if res.Shared && !leader && c.metrics != nil {
			c.metrics.RequestCoalesced(req.op)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, &Error{Op: req.op, Message: req.fallback + ": " + ctx.Err().Error(), Err: ctx.Err()}
	}
}

func (c *Client) send(ctx context.Context, hc *http.Client, endpoint string, req request) ([]byte, error) {
	resp, err := c.open(ctx, hc, endpoint, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Op: req.op, Status: resp.StatusCode, Message: req.fallback + ": reading response: " + err.Error(), Err: err}
	}
	return body, nil
}

// open issues req and returns the response when it is 2xx. The caller owns
// the body.
func (c *Client) open(ctx context.Context, hc *http.Client, endpoint string, req request) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, &Error{Op: req.op, Message: req.fallback + ": encoding request: " + err.Error(), Err: err}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, &Error{Op: req.op, Message: req.fallback + ": " + err.Error(), Err: err}
	}
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(req, 0, elapsed)
		slog.Warn("backend call failed", "op", req.op, "err", err)
		return nil, &Error{Op: req.op, Message: req.fallback + ": " + err.Error(), Err: err}
	}
	c.observe(req, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		msg := serverMessage(data)
		if msg == "" {
			msg = fmt.Sprintf("%s: %s", req.fallback, http.StatusText(resp.StatusCode))
		}
		slog.Warn("backend returned error", "op", req.op, "status", resp.StatusCode, "message", msg)
		return nil, &Error{Op: req.op, Status: resp.StatusCode, Message: msg}
	}

	slog.Debug("backend call", "op", req.op, "status", resp.StatusCode, "duration", elapsed)
	return resp, nil
}

func (c *Client) observe(req request, status int, d time.Duration) {
	if c.metrics != nil {
		c.metrics.BackendRequest(req.op, req.method, status, d)
	}
}

// serverMessage extracts the error text the backend put in a failed
// response: an "error" or "message" field, a bare JSON string, or the text
// body itself.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var obj map[string]any
	if json.Unmarshal(body, &obj) == nil {
		for _, k := range []string{"error", "message", "detail"} {
			if s, ok := obj[k].(string); ok && s != "" {
				return truncate(s)
			}
		}
		return truncate(string(body))
	}

	var s string
	if json.Unmarshal(body, &s) == nil {
		return truncate(s)
	}
	return truncate(string(body))
}

// decodeMessage reads the acknowledgement text of a successful mutation.
func decodeMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var obj struct {
		Message string `json:"message"`
	}
	if body[0] == '{' && json.Unmarshal(body, &obj) == nil && obj.Message != "" {
		return obj.Message
	}

	var s string
	if json.Unmarshal(body, &s) == nil {
		return s
	}
	return string(body)
}

func decodeJSON[T any](op string, body []byte) (T, error) {
	var v T
	if len(bytes.TrimSpace(body)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, &Error{Op: op, Status: http.StatusOK, Message: "unexpected response: " + err.Error(), Err: err}
	}
	return v, nil
}

func truncate(s string) string {
	if len(s) > maxMessageLen {
		return s[:maxMessageLen] + "..."
	}
	return s
}

// withTarget merges the target connection's parameters with extra.
func withTarget(target url.Values, extra url.Values) url.Values {
	q := url.Values{}
	for k, v := range target {
		q[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		q[k] = append([]string(nil), v...)
	}
	return q
}
