// Package health probes the administration backend so the dashboard can show
// whether it is reachable before a user submits a form.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dbconsole/dbconsole/internal/config"
	"github.com/dbconsole/dbconsole/internal/metrics"
)

// Status represents the health status of the backend.
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// BackendHealth holds the latest probe result.
type BackendHealth struct {
	Status              Status    `json:"status"`
	URL                 string    `json:"url"`
	LastCheck           time.Time `json:"last_check"`
	Latency             string    `json:"latency,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// Checker performs periodic HTTP probes against the backend.
type Checker struct {
	mu      sync.RWMutex
	state   BackendHealth
	metrics *metrics.Collector

	url              string
	interval         time.Duration
	failureThreshold int
	httpClient       *http.Client

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewChecker creates a checker for the backend described by backend and hcCfg.
func NewChecker(backend config.BackendConfig, hcCfg config.HealthCheckConfig, m *metrics.Collector) *Checker {
	c := &Checker{
		metrics: m,
		stopCh:  make(chan struct{}),
	}
	c.apply(backend, hcCfg)
	return c
}

// Reconfigure points the checker at a new backend. The health state is reset
// when the probe URL changes.
func (c *Checker) Reconfigure(backend config.BackendConfig, hcCfg config.HealthCheckConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.url
	c.apply(backend, hcCfg)
	if old != c.url {
		slog.Info("health checker retargeted", "url", c.url)
	}
}

// apply must be called with mu held, or before the checker is shared.
func (c *Checker) apply(backend config.BackendConfig, hcCfg config.HealthCheckConfig) {
	probe := strings.TrimRight(backend.BaseURL, "/") + backend.HealthPath
	if probe != c.url {
		c.state = BackendHealth{Status: StatusUnknown, URL: probe}
	}
	c.url = probe
	c.interval = hcCfg.Interval
	c.failureThreshold = hcCfg.FailureThreshold
	if c.failureThreshold < 1 {
		c.failureThreshold = 1
	}
	c.httpClient = &http.Client{
		Timeout: hcCfg.Timeout,
		// A redirect is still an answer from a live backend.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Start begins periodic health checking.
func (c *Checker) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run()
	}()
	slog.Info("health checker started", "url", c.URL(), "interval", c.interval, "threshold", c.failureThreshold)
}

// Stop stops the health checker. Safe to call multiple times.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
	slog.Info("health checker stopped")
}

func (c *Checker) run() {
	c.Check(context.Background())

	c.mu.RLock()
	interval := c.interval
	c.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Check(context.Background())
		case <-c.stopCh:
			return
		}
	}
}

// Check probes the backend once and records the result.
func (c *Checker) Check(ctx context.Context) BackendHealth {
	c.mu.RLock()
	url, hc := c.url, c.httpClient
	c.mu.RUnlock()

	start := time.Now()
	err := probe(ctx, hc, url)
	elapsed := time.Since(start)

	if err != nil && c.metrics != nil {
		c.metrics.HealthCheckError(reason(err))
	}
	if c.metrics != nil {
		c.metrics.HealthCheckCompleted(elapsed, err == nil)
	}
	return c.updateStatus(url, err, elapsed)
}

// probe treats any response below 500 as a live backend: the probe path may
// well be unmapped or protected.
func probe(ctx context.Context, hc *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 500 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return fmt.Sprintf("backend answered %d %s", e.code, http.StatusText(e.code))
}

func reason(err error) string {
	var se *statusError
	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.As(err, &se):
		return "server_error"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &opErr):
		return "connection_refused"
	default:
		return "request_error"
	}
}

func (c *Checker) updateStatus(url string, err error, elapsed time.Duration) BackendHealth {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Discard results for a target replaced while the probe was running.
	if url != c.url {
		return c.state
	}

	th := &c.state
	th.LastCheck = time.Now()
	th.Latency = elapsed.Round(time.Millisecond).String()

	if err == nil {
		if th.ConsecutiveFailures > 0 {
			slog.Info("backend recovered", "url", url, "failures", th.ConsecutiveFailures)
		}
		th.Status = StatusHealthy
		th.ConsecutiveFailures = 0
		th.LastError = ""
	} else {
		th.ConsecutiveFailures++
		th.LastError = err.Error()
		if th.ConsecutiveFailures >= c.failureThreshold {
			if th.Status != StatusUnhealthy {
				slog.Warn("backend marked unhealthy", "url", url, "failures", th.ConsecutiveFailures, "error", th.LastError)
			}
			th.Status = StatusUnhealthy
		}
	}
	return *th
}

// IsHealthy returns whether the backend is healthy. Unknown counts as healthy
// so the dashboard does not warn before the first probe completes.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Status != StatusUnhealthy
}

// GetStatus returns the latest probe result.
func (c *Checker) GetStatus() BackendHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// URL returns the probe target.
func (c *Checker) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}
