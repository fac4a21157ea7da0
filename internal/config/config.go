package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// DefaultBackendURL is the administration backend used when none is configured.
const DefaultBackendURL = "http://localhost:8080"

// Config is the top-level configuration for dbconsole.
type Config struct {
	Listen      ListenConfig      `yaml:"listen"`
	Backend     BackendConfig     `yaml:"backend"`
	Session     SessionConfig     `yaml:"session"`
	State       StateConfig       `yaml:"state"`
	HealthCheck HealthCheckConfig `yaml:"health_check"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ListenConfig defines where the dashboard listens.
type ListenConfig struct {
	Port    int    `yaml:"port"`
	Bind    string `yaml:"bind"`
	APIKey  string `yaml:"api_key"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

// BackendConfig points at the administration backend.
type BackendConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	HealthPath string        `yaml:"health_path"`
}

// SessionConfig controls the browser session, which holds the client id and
// active connection. The cookie carries only the session id; values are kept
// in encrypted files under Dir.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	MaxAge     time.Duration `yaml:"max_age"`
	Secure     bool          `yaml:"secure"`
	Dir        string        `yaml:"dir"`
}

// StateConfig locates the terminal profile database used by the CLI.
type StateConfig struct {
	Path   string `yaml:"path"`
	Secret string `yaml:"secret"`
}

// HealthCheckConfig defines backend probe parameters.
type HealthCheckConfig struct {
	Interval         time.Duration `yaml:"interval"`
	FailureThreshold int           `yaml:"failure_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// LoggingConfig selects the log level, format and optional rotating file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TLSEnabled returns true if both TLS cert and key paths are configured.
func (lc ListenConfig) TLSEnabled() bool {
	return lc.TLSCert != "" && lc.TLSKey != ""
}

// Redacted returns a copy of the Config with secrets masked.
func (c Config) Redacted() Config {
	r := c
	mask := func(s *string) {
		if *s != "" {
			*s = "***REDACTED***"
		}
	}
	mask(&r.Listen.APIKey)
	mask(&r.Session.Secret)
	mask(&r.State.Secret)
	return r
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		if val, ok := os.LookupEnv(string(varName)); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file with env var substitution.
// A missing file at path yields the defaults, so dbconsole runs without one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML config bytes, applying env substitution and defaults.
func Parse(data []byte) (*Config, error) {
	data = substituteEnvVars(data)

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Listen.Port == 0 {
		cfg.Listen.Port = 3000
	}
	if cfg.Listen.Bind == "" {
		cfg.Listen.Bind = "127.0.0.1"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = DefaultBackendURL
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.HealthPath == "" {
		cfg.Backend.HealthPath = "/"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "dbconsole"
	}
	if cfg.Session.MaxAge == 0 {
		cfg.Session.MaxAge = 365 * 24 * time.Hour
	}
	if cfg.State.Path == "" {
		cfg.State.Path = defaultStatePath()
	}
	if cfg.Session.Dir == "" {
		cfg.Session.Dir = filepath.Join(filepath.Dir(cfg.State.Path), "sessions")
	}
	if cfg.HealthCheck.Interval == 0 {
		cfg.HealthCheck.Interval = 30 * time.Second
	}
	if cfg.HealthCheck.FailureThreshold == 0 {
		cfg.HealthCheck.FailureThreshold = 3
	}
	if cfg.HealthCheck.Timeout == 0 {
		cfg.HealthCheck.Timeout = 5 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 7
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return dir + string(os.PathSeparator) + "dbconsole" + string(os.PathSeparator) + "state.db"
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url: unsupported scheme %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("backend.base_url: host is required")
	}
	if !strings.HasPrefix(cfg.Backend.HealthPath, "/") {
		return fmt.Errorf("backend.health_path: must start with /")
	}
	if cfg.Listen.Port < 1 || cfg.Listen.Port > 65535 {
		return fmt.Errorf("listen.port: %d out of range", cfg.Listen.Port)
	}
	if (cfg.Listen.TLSCert == "") != (cfg.Listen.TLSKey == "") {
		return fmt.Errorf("listen: tls_cert and tls_key must be set together")
	}
	if cfg.HealthCheck.FailureThreshold < 1 {
		return fmt.Errorf("health_check.failure_threshold: must be at least 1")
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: must be text or json")
	}
	return nil
}

// Watcher watches a config file for changes and calls the callback with the new config.
type Watcher struct {
	path     string
	callback func(*Config)
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new config file watcher.
func NewWatcher(path string, callback func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching config file: %w", err)
	}

	cw := &Watcher{
		path:     path,
		callback: callback,
		watcher:  w,
		stopCh:   make(chan struct{}),
	}

	go cw.run()
	return cw, nil
}

func (cw *Watcher) run() {
	// Debounce timer to avoid rapid reloads
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					cw.reload()
				})
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "err", err)
		case <-cw.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

func (cw *Watcher) reload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cfg, err := Load(cw.path)
	if err != nil {
		slog.Error("config hot-reload failed", "path", cw.path, "err", err)
		return
	}

	slog.Info("configuration reloaded", "path", cw.path)
	cw.callback(cfg)
}

// Stop stops the config watcher. Safe to call more than once.
func (cw *Watcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.stopCh)
		err = cw.watcher.Close()
	})
	return err
}
