package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/model"
)

// NewBackupCommand creates the backup command group. Backups are managed by
// the backend itself and need no active connection.
func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Run, schedule and restore backups",
	}
	cmd.AddCommand(newBackupRunCommand())
	cmd.AddCommand(newBackupHistoryCommand())
	cmd.AddCommand(newBackupRestoreCommand())
	cmd.AddCommand(newBackupScheduleCommand())
	return cmd
}

func newBackupRunCommand() *cobra.Command {
	var incremental bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a backup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				msg, err := cc.Client.RunBackup(cmd.Context(), incremental)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&incremental, "incremental", false, "Incremental instead of full backup")
	return cmd
}

func newBackupHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the backup history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				history, err := cc.Client.BackupHistory(cmd.Context())
				if err != nil {
					return err
				}
				if strings.TrimSpace(history) == "" {
					cc.Printf("No backups recorded")
					return nil
				}
				cc.Printf("%s", strings.TrimRight(history, "\n"))
				return nil
			})
		},
	}
}

func newBackupRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "restore <YYYY-MM-DDTHH:MM:SS>",
		Short:   "Restore the database to a point in time",
		Example: `  dbconsole backup restore 2024-05-01T13:30:00`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := padSeconds(args[0])
			if err := model.ValidateRestoreDate(date); err != nil {
				return err
			}
			return withProfile(cmd, func(cc *CommandContext) error {
				msg, err := cc.Client.Restore(cmd.Context(), date)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}
}

func newBackupScheduleCommand() *cobra.Command {
	var incremental bool

	cmd := &cobra.Command{
		Use:     "schedule <YYYY-MM-DDTHH:MM[:SS]>",
		Short:   "Schedule a backup",
		Example: `  dbconsole backup schedule 2024-05-02T02:00 --incremental=false`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when := padSeconds(args[0])
			if _, err := time.Parse("2006-01-02T15:04:05", when); err != nil {
				return err
			}
			return withProfile(cmd, func(cc *CommandContext) error {
				msg, err := cc.Client.ScheduleBackup(cmd.Context(), when, incremental)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&incremental, "incremental", true, "Incremental instead of full backup")
	return cmd
}

// padSeconds completes a minute-precision timestamp to seconds.
func padSeconds(s string) string {
	if _, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return s + ":00"
	}
	return s
}
