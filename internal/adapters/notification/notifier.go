// Package notification provides desktop notification utilities.
package notification

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/xvierd/speaking-eye/internal/config"
	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
)

const appTitle = "Speaking Eye"

var (
	breakEmojis       = []string{"☕", "🚶", "🧘", "🍵", "🌳"}
	distractingEmojis = []string{"👀", "⏰", "🙈", "🐌"}
)

// Notifier handles desktop notifications.
type Notifier struct {
	cfg  *config.NotificationConfig
	send func(title, message string) error
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)

// New creates a new notifier with the given configuration.
func New(cfg *config.NotificationConfig) *Notifier {
	return &Notifier{cfg: cfg, send: notify}
}

// Notify displays a desktop notification if enabled.
func (n *Notifier) Notify(message string) error {
	if !n.IsEnabled() {
		return nil
	}
	return n.send(appTitle, message)
}

// NotifyStart displays a notification when tracking begins.
func (n *Notifier) NotifyStart(at time.Time) error {
	return n.Notify(fmt.Sprintf("Start time: %s", at.Format(time.TimeOnly)))
}

// NotifyFinish displays a notification when tracking stops.
func (n *Notifier) NotifyFinish(at time.Time, worked time.Duration) error {
	return n.Notify(fmt.Sprintf("Finish time: %s; Work time: %s",
		at.Format(time.TimeOnly), domain.FormatDuration(worked.Truncate(time.Second))))
}

// NotifyNewDay displays a notification when a new day file is opened.
func (n *Notifier) NotifyNewDay(day string) error {
	return n.Notify(fmt.Sprintf("New day %s has started. Work time is switched off", day))
}

// NotifyOvertime displays a notification when the work limit is reached.
func (n *Notifier) NotifyOvertime(limit time.Duration) error {
	return n.Notify(fmt.Sprintf("You have been working for more than %s. It is time to finish work",
		domain.FormatHoursMinutes(limit)))
}

// NotifyBreak reminds the user to take a break.
func (n *Notifier) NotifyBreak() error {
	return n.Notify(fmt.Sprintf("%s It is time to take a break", pick(breakEmojis)))
}

// NotifyDistracting displays a notification when a distracting app exceeds its limit.
func (n *Notifier) NotifyDistracting(title string, spent time.Duration) error {
	return n.Notify(fmt.Sprintf("%s You have spent %d minutes in %s today",
		pick(distractingEmojis), int(spent/time.Minute), title))
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled
}

func notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

func pick(items []string) string {
	return items[rand.IntN(len(items))]
}
