// Package logging provides the leveled, colored logger used across Speaking Eye.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

var (
	colorDebug   = color.New(color.FgCyan).SprintfFunc()
	colorInfo    = color.New(color.FgGreen).SprintfFunc()
	colorWarning = color.New(color.FgYellow).SprintfFunc()
	colorError   = color.New(color.FgRed, color.Bold).SprintfFunc()
	colorSuccess = color.New(color.FgGreen, color.Bold).SprintfFunc()
)

// Logger writes leveled messages. Debug messages are dropped unless enabled.
type Logger struct {
	out   *log.Logger
	debug bool
}

// New creates a logger writing to w.
func New(w io.Writer, debug bool) *Logger {
	return &Logger{
		out:   log.New(w, "", log.LstdFlags),
		debug: debug,
	}
}

// Default creates a logger writing to stderr.
func Default() *Logger {
	return New(os.Stderr, false)
}

// Discard creates a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, false)
}

// SetDebug enables or disables debug messages.
func (l *Logger) SetDebug(enabled bool) {
	l.debug = enabled
}

// Debugf logs a message only in debug mode.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.debug {
		l.out.Print(colorDebug("[DEBUG] "+format, args...))
	}
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.out.Print(colorInfo("[INFO] "+format, args...))
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.out.Print(colorWarning("[WARNING] "+format, args...))
}

// Errorf logs an error.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.out.Print(colorError("[ERROR] "+format, args...))
}

// Successf logs a success message.
func (l *Logger) Successf(format string, args ...interface{}) {
	l.out.Print(colorSuccess("[SUCCESS] "+format, args...))
}
