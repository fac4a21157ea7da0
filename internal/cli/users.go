package cli

import (
	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/model"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage database users on the active connection",
	}
	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersDeleteCommand())
	return cmd
}

func newUsersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List database users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				users, err := cc.Client.ListUsers(cmd.Context(), target)
				if err != nil {
					return err
				}
				l := listing{
					header: []any{"Username", "Role", "Quota", "Default tablespace", "Temporary tablespace"},
					raw:    users,
				}
				for _, u := range users {
					l.add(u.Username, u.Role, u.Quota, u.DefaultTablespace, u.TemporaryTablespace)
				}
				return cc.render(l)
			})
		},
	}
}

func newUsersCreateCommand() *cobra.Command {
	var u model.User

	cmd := &cobra.Command{
		Use:     "create <username>",
		Short:   "Create a database user",
		Example: `  dbconsole users create APP_USER --password s3cret --role CONNECT --quota 100MB --default-tablespace USERS --temporary-tablespace TEMP`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u.Username = args[0]
			if err := u.Validate(); err != nil {
				return err
			}
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				msg, err := cc.Client.CreateUser(cmd.Context(), target, u)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&u.Password, "password", "", "Password")
	cmd.Flags().StringVar(&u.Role, "role", "", "Role to grant")
	cmd.Flags().StringVar(&u.Quota, "quota", "", "Quota on the default tablespace, e.g. 100MB or 2GB")
	cmd.Flags().StringVar(&u.DefaultTablespace, "default-tablespace", "", "Default tablespace")
	cmd.Flags().StringVar(&u.TemporaryTablespace, "temporary-tablespace", "", "Temporary tablespace")
	return cmd
}

func newUsersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Drop a database user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				msg, err := cc.Client.DeleteUser(cmd.Context(), target, args[0])
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}
}
