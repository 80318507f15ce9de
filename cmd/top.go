package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/xvierd/speaking-eye/internal/adapters/tui"
	"github.com/xvierd/speaking-eye/internal/domain"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Live dashboard of today's activities",
	Long: `Open a dashboard with today's time per application. It refreshes when
the tracker writes to the raw data file and once a minute.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watcher, err := tui.NewFileWatcher(app.files.Dir())
		if err != nil {
			app.logger.Warnf("Live refresh disabled: %v", err)
			watcher = nil
		} else {
			defer watcher.Close()
		}

		fetch := func(day domain.Date) (*domain.DayReport, error) {
			return app.reports.DayReport(context.Background(), day)
		}
		model := tui.NewModel(fetch, watcher, app.config.TimeLimits.WorkTimeLimit(), &app.config.Theme)

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
}
