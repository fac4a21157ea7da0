package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/model"
)

// NewPerfCommand creates the perf command group.
func NewPerfCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "perf",
		Aliases: []string{"performance"},
		Short:   "Slow queries, the tuning advisor and performance reports",
	}
	cmd.AddCommand(newPerfSlowCommand())
	cmd.AddCommand(newPerfTuneCommand())
	cmd.AddCommand(newPerfReportCommand())
	return cmd
}

func newPerfSlowCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "slow",
		Short: "List slow queries on the active connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				queries, err := cc.Client.SlowQueries(cmd.Context(), target)
				if err != nil {
					return err
				}
				queries = model.FilterSlowQueries(queries, filter)
				l := listing{
					header: []any{"SQL ID", "Elapsed (s)", "Executions", "Last run", "Query"},
					raw:    queries,
				}
				for _, q := range queries {
					l.add(q.SQLID, humanize.FtoaWithDigits(q.ExecutionTime, 2),
						humanize.Comma(q.NumberOfExecutions), q.LastExecutionTime, clip(q.QueryText, 60))
				}
				return cc.render(l)
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only show queries whose id or text contains this")
	return cmd
}

func newPerfTuneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tune <sql-id>...",
		Short: "Run the tuning advisor on one or more statements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTarget(cmd, func(cc *CommandContext, target model.Connection) error {
				var results []*model.TuningResult
				var failed int
				for _, id := range args {
					res, err := cc.Client.TuneQuery(cmd.Context(), target, id)
					if err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
						continue
					}
					results = append(results, res)
				}

				if cc.JSON {
					if err := renderJSON(cc.Out, results); err != nil {
						return err
					}
				} else {
					for _, res := range results {
						printTuning(cc.Out, res)
					}
				}
				if failed > 0 {
					return fmt.Errorf("tuning failed for %d of %d statements", failed, len(args))
				}
				return nil
			})
		},
	}
}

func printTuning(w io.Writer, res *model.TuningResult) {
	fmt.Fprintf(w, "== %s\n", res.SQLID)
	fmt.Fprintln(w, "Recommendations:")
	printBullets(w, res.Recommendations)
	fmt.Fprintln(w, "Execution plan improvements:")
	printBullets(w, res.ExecutionPlanImprovements)
}

func printBullets(w io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func newPerfReportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "report <awr|ash>",
		Short:     "Download an AWR or ASH report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.ReportAWR), string(model.ReportASH)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := model.ReportKind(strings.ToLower(args[0]))
			if err := model.ValidateReportKind(kind); err != nil {
				return err
			}
			return withProfile(cmd, func(cc *CommandContext) error {
				report, err := cc.Client.Report(cmd.Context(), kind)
				if err != nil {
					return err
				}
				defer report.Body.Close()

				if output == "-" {
					_, err := io.Copy(cc.Out, report.Body)
					return err
				}
				path := output
				if path == "" {
					path = report.Filename
				}
				n, err := writeFile(path, report.Body)
				if err != nil {
					return err
				}
				cc.Printf("Saved %s (%s)", path, humanize.IBytes(uint64(n)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file (default the report's file name, "-" for stdout)`)
	return cmd
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}
