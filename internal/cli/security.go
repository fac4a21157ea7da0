package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/model"
)

// NewSecurityCommand creates the security command group.
func NewSecurityCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "security",
		Short: "Configure encryption on the active connection",
	}
	cmd.AddCommand(newSecurityTDECommand())
	return cmd
}

func newSecurityTDECommand() *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "tde <tablespace>",
		Short: "Enable transparent data encryption on a tablespace",
		Long: "Enable transparent data encryption on a tablespace.\n\nSupported algorithms: " +
			strings.Join(model.EncryptionAlgorithms, ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tablespace := strings.TrimSpace(args[0])
			if tablespace == "" {
				return errors.New("tablespace name is required")
			}
			if err := model.ValidateEncryptionAlgorithm(algorithm); err != nil {
				return err
			}
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				msg, err := cc.Client.ConfigureTDE(cmd.Context(), target, tablespace, algorithm)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "AES256", "Encryption algorithm")
	return cmd
}
