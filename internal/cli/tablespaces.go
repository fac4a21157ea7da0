package cli

import (
	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/model"
)

// NewTablespacesCommand creates the tablespaces command group.
func NewTablespacesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tablespaces",
		Aliases: []string{"ts"},
		Short:   "Manage tablespaces on the active connection",
	}
	cmd.AddCommand(newTablespacesListCommand())
	cmd.AddCommand(newTablespacesCreateCommand())
	cmd.AddCommand(newTablespacesFilesCommand())
	cmd.AddCommand(newTablespacesDeleteCommand())
	return cmd
}

func newTablespacesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tablespaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				infos, err := cc.Client.ListTablespaces(cmd.Context(), target)
				if err != nil {
					return err
				}
				l := listing{
					header: []any{"Name", "Contents", "Status", "Block size", "Extent management", "Allocation", "Segment space"},
					raw:    infos,
				}
				for _, ts := range infos {
					l.add(ts.Name, ts.Contents, ts.Status, bytesOrDash(ts.BlockSize),
						ts.ExtentManagement, ts.AllocationType, ts.SegmentSpaceManagement)
				}
				return cc.render(l)
			})
		},
	}
}

func newTablespacesCreateCommand() *cobra.Command {
	var ts model.Tablespace

	cmd := &cobra.Command{
		Use:     "create <name>",
		Short:   "Create a tablespace",
		Example: `  dbconsole tablespaces create APP_DATA --datafile /u01/oradata/app01.dbf --size 100M --autoextend --next 10M --max-size 1G`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts.Name = args[0]
			if err := ts.Validate(); err != nil {
				return err
			}
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				msg, err := cc.Client.CreateTablespace(cmd.Context(), target, ts)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&ts.DataFilePath, "datafile", "", "Data file path")
	cmd.Flags().StringVar(&ts.Size, "size", "", "Initial size, e.g. 100M")
	cmd.Flags().StringVar(&ts.MaxSize, "max-size", "", "Maximum size when autoextend is on")
	cmd.Flags().BoolVar(&ts.AutoExtend, "autoextend", false, "Grow the data file automatically")
	cmd.Flags().StringVar(&ts.IncrementSize, "next", "", "Autoextend increment, e.g. 10M")
	return cmd
}

func newTablespacesFilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "files <name>",
		Short: "Show the data files of a tablespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				files, err := cc.Client.TablespaceFileUsage(cmd.Context(), target, args[0])
				if err != nil {
					return err
				}
				l := listing{
					header: []any{"File", "Size", "Max size", "Autoextend"},
					raw:    files,
				}
				for _, f := range files {
					l.add(f.FileName, megabytes(f.SizeMB), megabytes(f.MaxSizeMB), f.AutoExtensible)
				}
				return cc.render(l)
			})
		},
	}
}

func newTablespacesDeleteCommand() *cobra.Command {
	var includingContents bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Drop a tablespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				msg, err := cc.Client.DeleteTablespace(cmd.Context(), target, args[0], includingContents)
				if err != nil {
					return err
				}
				cc.Printf("%s", msg)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&includingContents, "including-contents", false, "Also drop contents and data files")
	return cmd
}
