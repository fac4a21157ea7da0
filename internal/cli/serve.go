package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/config"
	"github.com/dbconsole/dbconsole/internal/health"
	"github.com/dbconsole/dbconsole/internal/metrics"
	"github.com/dbconsole/dbconsole/internal/web"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command, which runs the web dashboard.
func NewServeCommand() *cobra.Command {
	var port int
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Long: `Run the web dashboard. Browsers talk to dbconsole, dbconsole talks to the
backend. Backend address and health check settings are reloaded when the
config file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			if cmd.Flags().Changed("port") {
				cfg.Listen.Port = port
			}
			if cmd.Flags().Changed("bind") {
				cfg.Listen.Bind = bind
			}
			configPath, _ := cmd.Flags().GetString("config")
			backendOverride, _ := cmd.Flags().GetString("backend")
			return runServe(cfg, configPath, backendOverride)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to listen on (overrides listen.port)")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind (overrides listen.bind)")
	return cmd
}

func runServe(cfg *config.Config, configPath, backendOverride string) error {
	slog.Info("dbconsole starting", "version", Version, "backend", cfg.Backend.BaseURL)

	m := metrics.New()
	c := client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, m)
	hc := health.NewChecker(cfg.Backend, cfg.HealthCheck, m)
	hc.Start()

	srv, err := web.NewServer(c, hc, m, cfg)
	if err != nil {
		hc.Stop()
		return fmt.Errorf("building dashboard: %w", err)
	}
	if err := srv.Start(); err != nil {
		hc.Stop()
		return fmt.Errorf("starting dashboard: %w", err)
	}

	var watcher *config.Watcher
	if _, statErr := os.Stat(configPath); statErr == nil {
		watcher, err = config.NewWatcher(configPath, func(newCfg *config.Config) {
			if backendOverride != "" {
				newCfg.Backend.BaseURL = backendOverride
			}
			c.Reconfigure(newCfg.Backend.BaseURL, newCfg.Backend.Timeout)
			hc.Reconfigure(newCfg.Backend, newCfg.HealthCheck)
			slog.Info("backend settings reloaded", "backend", newCfg.Backend.BaseURL)
		})
		if err != nil {
			slog.Warn("config hot-reload not available", "err", err)
		}
	} else {
		slog.Info("no config file, using defaults", "path", configPath)
	}

	slog.Info("dbconsole ready",
		"addr", fmt.Sprintf("%s:%d", cfg.Listen.Bind, cfg.Listen.Port),
		"tls", cfg.Listen.TLSEnabled())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	done := make(chan struct{})
	go func() {
		if watcher != nil {
			watcher.Stop()
		}
		if err := srv.Stop(); err != nil {
			slog.Warn("dashboard shutdown", "err", err)
		}
		hc.Stop()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("dbconsole stopped")
		return nil
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", shutdownTimeout)
	}
}
