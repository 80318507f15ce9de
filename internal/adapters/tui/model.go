package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/xvierd/speaking-eye/internal/config"
	"github.com/xvierd/speaking-eye/internal/domain"
)

// tickMsg is sent on every refresh tick.
type tickMsg time.Time

// reportMsg carries a freshly loaded report.
type reportMsg struct {
	report *domain.DayReport
	err    error
}

// FetchFunc loads the report for a day.
type FetchFunc func(day domain.Date) (*domain.DayReport, error)

// Model is the live dashboard of today's work.
type Model struct {
	fetch     FetchFunc
	watcher   *FileWatcher
	now       func() time.Time
	workLimit time.Duration

	day     domain.Date
	follow  bool
	report  *domain.DayReport
	err     error
	updated time.Time

	table    table.Model
	progress progress.Model
	width    int
	height   int
	theme    config.ThemeConfig
	styles   styles
}

// NewModel creates a dashboard model. The watcher is optional.
func NewModel(fetch FetchFunc, watcher *FileWatcher, workLimit time.Duration, theme *config.ThemeConfig) Model {
	resolved := resolveTheme(theme)
	width := TerminalWidth()

	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Bold(true).Foreground(lipgloss.Color(resolved.ColorTitle))
	ts.Selected = ts.Selected.Foreground(lipgloss.Color(resolved.ColorWork)).Bold(true)
	t.SetStyles(ts)

	bar := progress.New(progress.WithGradient(resolved.GradientStart, resolved.GradientEnd))
	bar.Width = width - 16

	return Model{
		fetch:     fetch,
		watcher:   watcher,
		now:       time.Now,
		workLimit: workLimit,
		follow:    true,
		table:     t,
		progress:  bar,
		width:     width,
		theme:     resolved,
		styles:    newStyles(resolved),
	}
}

func columns(width int) []table.Column {
	titleWidth := width - 30
	if titleWidth < 16 {
		titleWidth = 16
	}
	return []table.Column{
		{Title: "Application", Width: titleWidth},
		{Title: "Work", Width: 8},
		{Title: "Off", Width: 8},
		{Title: "", Width: 2},
	}
}

// Init loads the first report and starts the refresh loop.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchCmd(domain.DateOf(m.now())), tickCmd()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait())
	}
	return tea.Batch(cmds...)
}

func (m Model) fetchCmd(day domain.Date) tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		report, err := fetch(day)
		return reportMsg{report: report, err: err}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd(m.shownDay())
		case "left", "h":
			m.day = m.shownDay().AddDays(-1)
			m.follow = false
			return m, m.fetchCmd(m.day)
		case "right", "l":
			today := domain.DateOf(m.now())
			if !m.shownDay().Before(today) {
				return m, nil
			}
			m.day = m.shownDay().AddDays(1)
			m.follow = m.day == today
			return m, m.fetchCmd(m.day)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.progress.Width = msg.Width - 16
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(m.shownDay()), tickCmd())

	case fileChangedMsg:
		var cmds []tea.Cmd
		if m.watcher != nil {
			cmds = append(cmds, m.watcher.wait())
		}
		if m.follow {
			cmds = append(cmds, m.fetchCmd(m.shownDay()))
		}
		return m, tea.Batch(cmds...)

	case watchErrMsg:
		m.err = msg.err
		return m, nil

	case reportMsg:
		m.err = msg.err
		if msg.err == nil && msg.report != nil && msg.report.From == m.shownDay() {
			m.report = msg.report
			m.updated = m.now()
			m.table.SetRows(rows(msg.report))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// shownDay is today while following, else the day picked by the user.
func (m Model) shownDay() domain.Date {
	if m.follow || m.day.IsZero() {
		return domain.DateOf(m.now())
	}
	return m.day
}

func rows(report *domain.DayReport) []table.Row {
	result := make([]table.Row, 0, len(report.Rows))
	for _, row := range report.Rows {
		if row.WorkTime == 0 && row.OffTime == 0 {
			continue
		}
		mark := ""
		if row.IsDistracting {
			mark = "!"
		}
		result = append(result, table.Row{row.Title, formatClock(row.WorkTime), formatClock(row.OffTime), mark})
	}
	return result
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	header := "Speaking Eye"
	if m.report != nil {
		header += " · " + m.report.Label()
	}
	b.WriteString(m.styles.title.Render(header) + "\n\n")

	if m.report == nil {
		if m.err != nil {
			b.WriteString(m.styles.distracting.Render("Error: "+m.err.Error()) + "\n")
		} else {
			b.WriteString(m.styles.help.Render("Loading...") + "\n")
		}
		return b.String()
	}

	b.WriteString(m.styles.work.Render(fmt.Sprintf("Work %s", formatClock(m.report.TotalWorkTime))))
	b.WriteString("   ")
	b.WriteString(m.styles.off.Render(fmt.Sprintf("Off %s", formatClock(m.report.TotalOffTime))))
	if m.report.DistractingWorkTime > 0 {
		b.WriteString("   ")
		b.WriteString(m.styles.distracting.Render(fmt.Sprintf("Distracting %s", formatClock(m.report.DistractingWorkTime))))
	}
	b.WriteString("\n")

	if m.workLimit > 0 {
		b.WriteString(m.progress.ViewAs(m.limitProgress()))
		b.WriteString(" " + m.styles.help.Render(formatClock(m.workLimit)) + "\n")
	}
	b.WriteString("\n" + m.table.View() + "\n\n")

	if m.err != nil {
		b.WriteString(m.styles.distracting.Render("Error: "+m.err.Error()) + "\n")
	}
	help := "←/→ day • r refresh • q quit"
	if !m.updated.IsZero() {
		help = "updated " + m.updated.Format("15:04:05") + " • " + help
	}
	b.WriteString(m.styles.help.Render(help))
	return b.String()
}

func (m Model) limitProgress() float64 {
	if m.report == nil || m.workLimit <= 0 {
		return 0
	}
	p := float64(m.report.TotalWorkTime) / float64(m.workLimit)
	if p > 1 {
		return 1
	}
	return p
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
