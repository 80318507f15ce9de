package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/speaking-eye/internal/adapters/tui"
)

var statsPeriod string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show work time per day and per application for a period",
	Long: `Display a bar chart of the work time per day followed by the totals per
application. The sqlite index is used when enabled, otherwise the raw data
files are replayed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		from, to, err := periodRange(statsPeriod, time.Now())
		if err != nil {
			return err
		}

		report, err := app.reports.Report(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		if jsonOutput {
			return outputReportJSON(cmd, report)
		}

		totals, err := app.reports.DailyTotals(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to get daily totals: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, tui.RenderDailyTotals(totals, tui.TerminalWidth(), &app.config.Theme))
		fmt.Fprintln(out)
		fmt.Fprint(out, tui.RenderReport(report, &app.config.Theme))
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "week", "Time period: week, month or all")
	rootCmd.AddCommand(statsCmd)
}
