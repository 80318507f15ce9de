package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/speaking-eye/internal/adapters/tui"
	"github.com/xvierd/speaking-eye/internal/domain"
)

var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "Show the time spent per application on a day",
	Long: `Show the work and off time per configured application for a day.
The date is YYYY-MM-DD, "today" (default) or "yesterday".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayArg(args, time.Now())
		if err != nil {
			return err
		}

		report, err := app.reports.DayReport(context.Background(), day)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}

		if jsonOutput {
			return outputReportJSON(cmd, report)
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(report, &app.config.Theme))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

type reportRowJSON struct {
	Title         string `json:"title"`
	WorkTime      string `json:"work_time"`
	OffTime       string `json:"off_time"`
	IsDistracting bool   `json:"is_distracting"`
}

type reportJSON struct {
	From                string          `json:"from"`
	To                  string          `json:"to"`
	TotalWorkTime       string          `json:"total_work_time"`
	TotalOffTime        string          `json:"total_off_time"`
	DistractingWorkTime string          `json:"distracting_work_time"`
	Applications        []reportRowJSON `json:"applications"`
}

func outputReportJSON(cmd *cobra.Command, report *domain.DayReport) error {
	out := reportJSON{
		From:                report.From.String(),
		To:                  report.To.String(),
		TotalWorkTime:       domain.FormatDuration(report.TotalWorkTime),
		TotalOffTime:        domain.FormatDuration(report.TotalOffTime),
		DistractingWorkTime: domain.FormatDuration(report.DistractingWorkTime),
		Applications:        []reportRowJSON{},
	}
	for _, row := range report.Rows {
		out.Applications = append(out.Applications, reportRowJSON{
			Title:         row.Title,
			WorkTime:      domain.FormatDuration(row.WorkTime),
			OffTime:       domain.FormatDuration(row.OffTime),
			IsDistracting: row.IsDistracting,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
