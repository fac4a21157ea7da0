package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dbconsole/dbconsole/internal/config"
	"github.com/dbconsole/dbconsole/internal/metrics"
)

var testHealthCfg = config.HealthCheckConfig{
	Interval:         30 * time.Second,
	FailureThreshold: 3,
	Timeout:          2 * time.Second,
}

func backendAt(url string) config.BackendConfig {
	return config.BackendConfig{BaseURL: url, HealthPath: "/"}
}

func TestCheckerInitialState(t *testing.T) {
	c := NewChecker(backendAt("http://127.0.0.1:1"), testHealthCfg, nil)

	if !c.IsHealthy() {
		t.Error("unknown backend should be treated as healthy")
	}
	if s := c.GetStatus(); s.Status != StatusUnknown {
		t.Errorf("expected StatusUnknown, got %v", s.Status)
	}
	if c.URL() != "http://127.0.0.1:1/" {
		t.Errorf("unexpected probe url %q", c.URL())
	}
}

func TestCheckerUpdateStatus(t *testing.T) {
	c := NewChecker(backendAt("http://backend"), testHealthCfg, nil)
	url := c.URL()

	c.updateStatus(url, nil, time.Millisecond)
	if s := c.GetStatus(); s.Status != StatusHealthy {
		t.Errorf("expected StatusHealthy, got %v", s.Status)
	}

	c.updateStatus(url, errors.New("refused"), time.Millisecond)
	if !c.IsHealthy() {
		t.Error("should still be healthy after one failure")
	}
	s := c.GetStatus()
	if s.ConsecutiveFailures != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", s.ConsecutiveFailures)
	}
	if s.LastError != "refused" {
		t.Errorf("expected last error to be recorded, got %q", s.LastError)
	}
}

func TestCheckerThreshold(t *testing.T) {
	c := NewChecker(backendAt("http://backend"), testHealthCfg, nil)
	url := c.URL()

	for i := 0; i < 3; i++ {
		c.updateStatus(url, errors.New("refused"), time.Millisecond)
	}
	if c.IsHealthy() {
		t.Error("should be unhealthy after reaching the failure threshold")
	}

	c.updateStatus(url, nil, time.Millisecond)
	s := c.GetStatus()
	if s.Status != StatusHealthy || s.ConsecutiveFailures != 0 || s.LastError != "" {
		t.Errorf("expected full recovery, got %+v", s)
	}
}

func TestCheckProbesBackend(t *testing.T) {
	var code atomic.Int32
	code.Store(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/actuator/health" {
			t.Errorf("unexpected probe path %s", r.URL.Path)
		}
		w.WriteHeader(int(code.Load()))
	}))
	defer srv.Close()

	m := metrics.New()
	cfg := testHealthCfg
	cfg.FailureThreshold = 1
	c := NewChecker(config.BackendConfig{BaseURL: srv.URL, HealthPath: "/actuator/health"}, cfg, m)

	// An unmapped path still proves the backend is up.
	if s := c.Check(context.Background()); s.Status != StatusHealthy {
		t.Fatalf("expected healthy on 404, got %+v", s)
	}

	code.Store(http.StatusServiceUnavailable)
	s := c.Check(context.Background())
	if s.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy on 503, got %+v", s)
	}
	if s.LastError == "" {
		t.Error("expected last error on 503")
	}
}

func TestCheckUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testHealthCfg
	cfg.FailureThreshold = 2
	c := NewChecker(backendAt(url), cfg, nil)

	c.Check(context.Background())
	if !c.IsHealthy() {
		t.Error("one failure must not cross a threshold of 2")
	}
	c.Check(context.Background())
	if c.IsHealthy() {
		t.Error("expected unhealthy after two refused probes")
	}
}

func TestReconfigureResetsState(t *testing.T) {
	c := NewChecker(backendAt("http://old"), testHealthCfg, nil)
	old := c.URL()
	for i := 0; i < 3; i++ {
		c.updateStatus(old, errors.New("refused"), time.Millisecond)
	}
	if c.IsHealthy() {
		t.Fatal("precondition: should be unhealthy")
	}

	c.Reconfigure(backendAt("http://new"), testHealthCfg)
	if s := c.GetStatus(); s.Status != StatusUnknown || s.URL != "http://new/" {
		t.Errorf("expected fresh state for new target, got %+v", s)
	}

	// A probe of the old target finishing late must not leak into the new state.
	c.updateStatus(old, errors.New("refused"), time.Millisecond)
	if s := c.GetStatus(); s.ConsecutiveFailures != 0 {
		t.Errorf("stale result applied: %+v", s)
	}
}

func TestStartStop(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewChecker(backendAt(srv.URL), testHealthCfg, nil)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	c.Stop()
	c.Stop()

	if hits.Load() == 0 {
		t.Error("expected an immediate probe on start")
	}
	if !c.IsHealthy() {
		t.Error("expected healthy after successful probe")
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusUnknown, "unknown"},
		{StatusHealthy, "healthy"},
		{StatusUnhealthy, "unhealthy"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
