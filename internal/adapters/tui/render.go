package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/xvierd/speaking-eye/internal/config"
	"github.com/xvierd/speaking-eye/internal/domain"
)

// RenderReport formats a report as an aligned table followed by totals.
// Rows without any time are skipped.
func RenderReport(report *domain.DayReport, theme *config.ThemeConfig) string {
	st := newStyles(resolveTheme(theme))

	titleWidth := len("Application")
	for _, row := range report.Rows {
		if len(row.Title) > titleWidth {
			titleWidth = len(row.Title)
		}
	}

	var b strings.Builder
	b.WriteString(st.title.Render("Speaking Eye report for "+report.Label()) + "\n\n")
	b.WriteString(st.help.Render(fmt.Sprintf("%-*s  %10s  %10s", titleWidth, "Application", "Work time", "Off time")) + "\n")

	for _, row := range report.Rows {
		if row.WorkTime == 0 && row.OffTime == 0 {
			continue
		}
		line := fmt.Sprintf("%-*s  %10s  %10s", titleWidth, row.Title, formatClock(row.WorkTime), formatClock(row.OffTime))
		if row.IsDistracting {
			line = st.distracting.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(st.work.Render(fmt.Sprintf("Total work time: %s", formatClock(report.TotalWorkTime))) + "\n")
	b.WriteString(st.off.Render(fmt.Sprintf("Total off time:  %s", formatClock(report.TotalOffTime))) + "\n")
	if report.DistractingWorkTime > 0 {
		b.WriteString(st.distracting.Render(fmt.Sprintf("Distracting:     %s", formatClock(report.DistractingWorkTime))) + "\n")
	}
	return b.String()
}

// RenderDailyTotals draws one horizontal bar per day scaled to the
// longest work day.
func RenderDailyTotals(totals []domain.DayTotal, width int, theme *config.ThemeConfig) string {
	st := newStyles(resolveTheme(theme))

	var longest time.Duration
	for _, total := range totals {
		if total.WorkTime > longest {
			longest = total.WorkTime
		}
	}

	barWidth := width - 32
	if barWidth < 10 {
		barWidth = 10
	}

	var b strings.Builder
	var sum time.Duration
	for _, total := range totals {
		sum += total.WorkTime
		filled := 0
		if longest > 0 {
			filled = int(float64(barWidth) * float64(total.WorkTime) / float64(longest))
		}
		bar := st.work.Render(strings.Repeat("█", filled)) + st.help.Render(strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(&b, "%s  %s  %s\n", total.Day, bar, formatClock(total.WorkTime))
	}

	if len(totals) > 0 {
		avg := sum / time.Duration(len(totals))
		b.WriteString("\n" + st.title.Render(fmt.Sprintf("Total %s, average %s per day", formatClock(sum), formatClock(avg))) + "\n")
	}
	return b.String()
}

// formatClock formats a duration as H:MM rounded down to the minute.
func formatClock(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
