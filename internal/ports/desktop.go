package ports

import (
	"context"
	"time"
)

// WindowEvent reports the window that has focus.
// An empty WmClass means no window is active.
type WindowEvent struct {
	WmClass    string
	WindowName string
	Time       time.Time
}

// WindowWatcher observes the active window.
// This is a driven port (implemented by adapters).
type WindowWatcher interface {
	// Watch sends an event for the initial window and for every change
	// of the active window or its title until ctx is done.
	Watch(ctx context.Context, events chan<- WindowEvent) error

	// Close releases the display connection.
	Close() error
}

// LockEvent reports a screen saver state change.
type LockEvent struct {
	Locked bool
	Time   time.Time
}

// ScreenLocker observes and controls the screen lock.
// This is a driven port (implemented by adapters).
type ScreenLocker interface {
	// Watch sends an event whenever the screen is locked or unlocked.
	Watch(ctx context.Context, events chan<- LockEvent) error

	// Lock asks the screen saver to lock the screen.
	Lock(ctx context.Context) error

	// Close releases the bus connection.
	Close() error
}

// Notifier shows tracker notifications to the user.
// This is a driven port (implemented by adapters).
type Notifier interface {
	// NotifyStart is shown when tracking begins.
	NotifyStart(at time.Time) error

	// NotifyFinish is shown when tracking stops.
	NotifyFinish(at time.Time, worked time.Duration) error

	// NotifyNewDay is shown when activities start going to a new day file.
	NotifyNewDay(day string) error

	// NotifyOvertime is shown when total work time reaches the limit.
	NotifyOvertime(limit time.Duration) error

	// NotifyBreak reminds the user to take a break.
	NotifyBreak() error

	// NotifyDistracting is shown when a distracting app exceeds its limit.
	NotifyDistracting(title string, spent time.Duration) error
}
