package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/speaking-eye/internal/services"
)

var (
	exportFormat string
	exportPeriod string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export activities to CSV or Markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		format, err := services.ParseExportFormat(exportFormat)
		if err != nil {
			return err
		}
		from, to, err := periodRange(exportPeriod, time.Now())
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := app.reports.Export(ctx, w, from, to, format); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		if exportOutput != "" {
			app.logger.Successf("Exported %s - %s to %s", from, to, exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Export format: csv or md")
	exportCmd.Flags().StringVarP(&exportPeriod, "period", "p", "week", "Time period: day, week, month or all")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
