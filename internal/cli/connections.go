package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/model"
)

// NewConnectionsCommand creates the connections command group.
func NewConnectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage saved database connections",
		Long: `Manage the database connections saved for this terminal profile.

Every other resource command acts on the active connection, chosen with
"dbconsole connections use <name>".`,
	}

	cmd.AddCommand(newConnectionsListCommand())
	cmd.AddCommand(newConnectionsCreateCommand())
	cmd.AddCommand(newConnectionsDeleteCommand())
	cmd.AddCommand(newConnectionsTestCommand())
	cmd.AddCommand(newConnectionsUseCommand())
	cmd.AddCommand(newConnectionsCurrentCommand())
	cmd.AddCommand(newConnectionsClearCommand())
	return cmd
}

func newConnectionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the connections saved by this profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				return runConnectionsList(cmd.Context(), cc)
			})
		},
	}
}

func runConnectionsList(ctx context.Context, cc *CommandContext) error {
	conns, err := ownConnections(ctx, cc)
	if err != nil {
		return err
	}

	l := listing{
		header: []any{"", "Name", "Address", "User", "Status", "Created"},
		raw:    redactAll(conns),
	}
	for _, c := range conns {
		marker := ""
		if cc.Store.IsActive(c) {
			marker = "*"
		}
		created := "-"
		if t := c.Created(); !t.IsZero() {
			created = humanize.Time(t)
		}
		status := c.Status
		if status == "" {
			status = "untested"
		}
		l.add(marker, c.ConnectionName, c.Address(), c.Username, status, created)
	}
	return cc.render(l)
}

func redactAll(conns []model.Connection) []model.Connection {
	out := make([]model.Connection, len(conns))
	for i, c := range conns {
		out[i] = c.Redacted()
	}
	return out
}

func ownConnections(ctx context.Context, cc *CommandContext) ([]model.Connection, error) {
	clientID, err := cc.Store.ClientID()
	if err != nil {
		return nil, err
	}
	return cc.Client.ListClientConnections(ctx, clientID)
}

// findConnection looks a connection up by name among this profile's
// connections. Other clients' connections are never matched.
func findConnection(ctx context.Context, cc *CommandContext, name string) (model.Connection, error) {
	conns, err := ownConnections(ctx, cc)
	if err != nil {
		return model.Connection{}, err
	}
	for _, c := range conns {
		if c.ConnectionName == name {
			return c, nil
		}
	}
	return model.Connection{}, fmt.Errorf("no connection named %q", name)
}

func newConnectionsCreateCommand() *cobra.Command {
	var conn model.Connection
	var activate bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a new connection",
		Example: `  dbconsole connections create --ip 10.0.0.5 --port 1521 --service ORCLPDB1 \
    --username admin --password secret --name prod --use`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				return runConnectionsCreate(cmd.Context(), cc, conn, activate)
			})
		},
	}

	cmd.Flags().StringVar(&conn.ConnectionName, "name", "", "Connection name (default conn-<unix millis>)")
	cmd.Flags().StringVar(&conn.IP, "ip", "", "Database host")
	cmd.Flags().StringVar(&conn.Port, "port", "", "Database port")
	cmd.Flags().StringVar(&conn.ServiceName, "service", "", "Service name")
	cmd.Flags().StringVar(&conn.Username, "username", "", "Database user")
	cmd.Flags().StringVar(&conn.Password, "password", "", "Database password")
	cmd.Flags().BoolVar(&activate, "use", false, "Make the new connection active")
	return cmd
}

func runConnectionsCreate(ctx context.Context, cc *CommandContext, conn model.Connection, activate bool) error {
	if conn.ConnectionName == "" {
		conn.ConnectionName = model.DefaultConnectionName(time.Now())
	}
	clientID, err := cc.Store.ClientID()
	if err != nil {
		return err
	}
	conn.ClientID = clientID

	if err := conn.Validate(); err != nil {
		return err
	}

	saved, err := cc.Client.CreateConnection(ctx, conn)
	if err != nil {
		return err
	}
	// Some backends answer the save with an empty body.
	if saved == nil || saved.IP == "" {
		saved = &conn
	}
	cc.Printf("Saved connection %s (%s)", saved.ConnectionName, saved.Address())

	if activate {
		if err := cc.Store.SetActiveConnection(*saved); err != nil {
			return err
		}
		cc.Printf("Active connection: %s", saved.ConnectionName)
	}
	return nil
}

func newConnectionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				return runConnectionsDelete(cmd.Context(), cc, args[0])
			})
		},
	}
}

func runConnectionsDelete(ctx context.Context, cc *CommandContext, name string) error {
	conn, err := findConnection(ctx, cc, name)
	if err != nil {
		return err
	}
	msg, err := cc.Client.DeleteConnection(ctx, conn.ID)
	if err != nil {
		return err
	}
	cc.Printf("%s", msg)

	if cc.Store.IsActive(conn) {
		if err := cc.Store.ClearActiveConnection(); err != nil {
			return err
		}
		cc.Printf("Cleared active connection")
	}
	return nil
}

func newConnectionsTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Check that the backend can reach a saved connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				conn, err := findConnection(cmd.Context(), cc, args[0])
				if err != nil {
					return err
				}
				result, err := cc.Client.TestConnection(cmd.Context(), conn)
				if err != nil {
					return fmt.Errorf("connection %s failed: %w", conn.ConnectionName, err)
				}
				if !strings.EqualFold(strings.TrimSpace(result), model.StatusSuccess) {
					return fmt.Errorf("connection %s failed: %s", conn.ConnectionName, result)
				}
				cc.Printf("Connection %s OK", conn.ConnectionName)
				return nil
			})
		},
	}
}

func newConnectionsUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Make a saved connection the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				conn, err := findConnection(cmd.Context(), cc, args[0])
				if err != nil {
					return err
				}
				if err := cc.Store.SetActiveConnection(conn); err != nil {
					return err
				}
				cc.Printf("Active connection: %s (%s)", conn.ConnectionName, conn.Address())
				return nil
			})
		},
	}
}

func newConnectionsCurrentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				active := cc.Store.ActiveConnection()
				if cc.JSON {
					if active == nil {
						return renderJSON(cc.Out, nil)
					}
					return renderJSON(cc.Out, active.Redacted())
				}
				if active == nil {
					cc.Printf("No active connection")
					return nil
				}
				cc.Printf("%s (%s as %s)", active.ConnectionName, active.Address(), active.Username)
				return nil
			})
		},
	}
}

func newConnectionsClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the active connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProfile(cmd, func(cc *CommandContext) error {
				if err := cc.Store.ClearActiveConnection(); err != nil {
					return err
				}
				cc.Printf("Cleared active connection")
				return nil
			})
		},
	}
}
