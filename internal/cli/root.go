// Package cli implements the dbconsole command line: the dashboard server and
// a terminal client over the same backend actions.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/config"
	"github.com/dbconsole/dbconsole/internal/logging"
)

// Version is set at build time.
var Version = "dev"

type configKey struct{}

// Global flag values, bound to the root command.
type globalFlags struct {
	configPath string
	backendURL string
	statePath  string
	logLevel   string
	json       bool
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var flags globalFlags
	var logCloser io.Closer

	rootCmd := &cobra.Command{
		Use:   "dbconsole",
		Short: "Web and terminal console for a database administration backend",
		Long: `dbconsole manages database connections, users, roles, tablespaces,
encryption, performance reports and backups through an administration
backend. Run "dbconsole serve" for the web dashboard, or use the
resource commands directly from a terminal.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.backendURL != "" {
				cfg.Backend.BaseURL = flags.backendURL
			}
			if flags.statePath != "" {
				cfg.State.Path = flags.statePath
			}
			if flags.logLevel != "" {
				cfg.Logging.Level = flags.logLevel
			}

			logCloser = logging.Setup(cfg.Logging)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "dbconsole.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&flags.backendURL, "backend", "", "Backend base URL (overrides backend.base_url)")
	rootCmd.PersistentFlags().StringVar(&flags.statePath, "state", "", "Terminal profile database (overrides state.path)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Print listings as JSON")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewConnectionsCommand())
	rootCmd.AddCommand(NewUsersCommand())
	rootCmd.AddCommand(NewRolesCommand())
	rootCmd.AddCommand(NewTablespacesCommand())
	rootCmd.AddCommand(NewSecurityCommand())
	rootCmd.AddCommand(NewPerfCommand())
	rootCmd.AddCommand(NewBackupCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Default()
}
