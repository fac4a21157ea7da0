package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/model"
)

// NewRolesCommand creates the roles command group.
func NewRolesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage roles and their privileges on the active connection",
	}
	cmd.AddCommand(newRolesListCommand())
	cmd.AddCommand(newRoleCommand("create", "Create a role", (*client.Client).CreateRole))
	cmd.AddCommand(newRoleCommand("delete", "Drop a role", (*client.Client).DeleteRole))
	cmd.AddCommand(newPrivilegeCommand("grant"))
	cmd.AddCommand(newPrivilegeCommand("revoke"))
	return cmd
}

func newRolesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles with their system and object privileges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				roles, err := cc.Client.ListRoles(cmd.Context(), target)
				if err != nil {
					return err
				}
				l := listing{
					header: []any{"Role", "System privileges", "Object privileges"},
					raw:    roles,
				}
				for _, r := range roles {
					l.add(r.Name, joinOrDash(r.SystemPrivileges), joinOrDash(objectGrants(r)))
				}
				return cc.render(l)
			})
		},
	}
}

// objectGrants pairs each object privilege with its table, "SELECT on T".
func objectGrants(r model.Role) []string {
	out := make([]string, 0, len(r.ObjectPrivileges))
	for i, p := range r.ObjectPrivileges {
		if i < len(r.TableNames) && r.TableNames[i] != "" {
			p += " on " + r.TableNames[i]
		}
		out = append(out, p)
	}
	return out
}

type roleFunc func(*client.Client, context.Context, model.Connection, string) (string, error)

func newRoleCommand(use, short string, fn roleFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <role>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				msg, err := fn(cc.Client, cmd.Context(), target, args[0])
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}
}

func newPrivilegeCommand(action string) *cobra.Command {
	var kind, table string

	cmd := &cobra.Command{
		Use:   action + " <role> <privilege>",
		Short: strings.ToUpper(action[:1]) + action[1:] + " a system or object privilege",
		Example: fmt.Sprintf(`  dbconsole roles %[1]s APP_READ "CREATE SESSION"
  dbconsole roles %[1]s APP_READ SELECT --kind object --table ORDERS`, action),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := client.PrivilegeKind(kind)
			switch k {
			case client.SystemPrivilege:
			case client.ObjectPrivilege:
				if strings.TrimSpace(table) == "" {
					return fmt.Errorf("--table is required for object privileges")
				}
			default:
				return fmt.Errorf("--kind must be %q or %q", client.SystemPrivilege, client.ObjectPrivilege)
			}

			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				apply := cc.Client.Grant
				if action == "revoke" {
					apply = cc.Client.Revoke
				}
				msg, err := apply(cmd.Context(), target, k, args[0], args[1], table)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(client.SystemPrivilege), "Privilege kind: system or object")
	cmd.Flags().StringVar(&table, "table", "", "Table name for object privileges")
	return cmd
}
