// Package tui provides the terminal rendering of reports and the live
// dashboard using lipgloss and the Bubbletea framework.
package tui

import (
	"os"
	"reflect"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/xvierd/speaking-eye/internal/config"
)

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

type styles struct {
	title       lipgloss.Style
	work        lipgloss.Style
	off         lipgloss.Style
	distracting lipgloss.Style
	help        lipgloss.Style
}

func newStyles(theme config.ThemeConfig) styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorTitle)),
		work:        lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorWork)),
		off:         lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorOff)),
		distracting: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorDistracting)),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorHelp)),
	}
}

// TerminalWidth returns the current terminal width, defaulting to 80.
func TerminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w < 40 {
		return 80
	}
	return w
}
