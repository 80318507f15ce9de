package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/xvierd/speaking-eye/internal/config"
)

type sent struct {
	title, message string
}

func newTestNotifier(enabled bool) (*Notifier, *[]sent) {
	var log []sent
	n := New(&config.NotificationConfig{Enabled: enabled})
	n.send = func(title, message string) error {
		log = append(log, sent{title: title, message: message})
		return nil
	}
	return n, &log
}

func TestNotifier_Disabled(t *testing.T) {
	n, log := newTestNotifier(false)
	if err := n.NotifyBreak(); err != nil {
		t.Fatalf("NotifyBreak() error = %v", err)
	}
	if len(*log) != 0 {
		t.Errorf("disabled notifier sent %d notifications", len(*log))
	}

	var nilCfg Notifier
	if nilCfg.IsEnabled() {
		t.Error("notifier without config should be disabled")
	}
}

func TestNotifier_Messages(t *testing.T) {
	at := time.Date(2020, 7, 21, 18, 30, 5, 0, time.Local)

	tests := []struct {
		name   string
		notify func(n *Notifier) error
		want   string
	}{
		{"start", func(n *Notifier) error { return n.NotifyStart(at) }, "Start time: 18:30:05"},
		{"finish", func(n *Notifier) error { return n.NotifyFinish(at, 8*time.Hour+1500*time.Millisecond) }, "Work time: 8:00:01"},
		{"new day", func(n *Notifier) error { return n.NotifyNewDay("2020-07-22") }, "New day 2020-07-22"},
		{"overtime", func(n *Notifier) error { return n.NotifyOvertime(9 * time.Hour) }, "more than 9:00"},
		{"break", func(n *Notifier) error { return n.NotifyBreak() }, "take a break"},
		{"distracting", func(n *Notifier) error { return n.NotifyDistracting("YouTube", 16*time.Minute) }, "16 minutes in YouTube"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, log := newTestNotifier(true)
			if err := tt.notify(n); err != nil {
				t.Fatalf("notify error = %v", err)
			}
			if len(*log) != 1 {
				t.Fatalf("expected 1 notification, got %d", len(*log))
			}
			got := (*log)[0]
			if got.title != appTitle {
				t.Errorf("title = %q, want %q", got.title, appTitle)
			}
			if !strings.Contains(got.message, tt.want) {
				t.Errorf("message = %q, want it to contain %q", got.message, tt.want)
			}
		})
	}
}
