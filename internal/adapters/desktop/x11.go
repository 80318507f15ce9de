// Package desktop observes the desktop session: the focused window
// (X11 or sway) and the screen saver lock state (D-Bus).
package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// X11Watcher polls the EWMH active window.
type X11Watcher struct {
	X        *xgbutil.XUtil
	interval time.Duration
	logger   *logging.Logger
}

// Ensure X11Watcher implements ports.WindowWatcher.
var _ ports.WindowWatcher = (*X11Watcher)(nil)

// NewX11Watcher connects to the X server named by $DISPLAY.
func NewX11Watcher(interval time.Duration, logger *logging.Logger) (*X11Watcher, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	X, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	// _NET_ACTIVE_WINDOW and _NET_WM_NAME need EWMH.
	if _, err := ewmh.CurrentDesktopGet(X); err != nil {
		logger.Warnf("EWMH is potentially not supported by the window manager: %v", err)
	}

	return &X11Watcher{X: X, interval: interval, logger: logger}, nil
}

// Watch polls the active window every interval and sends an event
// for the initial window and every change.
func (w *X11Watcher) Watch(ctx context.Context, events chan<- ports.WindowEvent) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last focus
	first := true
	for {
		current, err := w.activeWindow()
		if err != nil {
			w.logger.Debugf("Could not get active window: %v", err)
		} else if first || current != last {
			event := ports.WindowEvent{WmClass: current.wmClass, WindowName: current.windowName, Time: time.Now()}
			select {
			case events <- event:
				last, first = current, false
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the X connection.
func (w *X11Watcher) Close() error {
	w.X.Conn().Close()
	return nil
}

type focus struct {
	wmClass    string
	windowName string
}

// activeWindow returns an empty focus when no window is active.
func (w *X11Watcher) activeWindow() (focus, error) {
	activeWinID, err := ewmh.ActiveWindowGet(w.X)
	if err != nil {
		return focus{}, fmt.Errorf("could not get active window ID: %w", err)
	}
	if activeWinID == 0 {
		return focus{}, nil
	}

	// _NET_WM_NAME preferred, WM_NAME as fallback
	title, err := ewmh.WmNameGet(w.X, activeWinID)
	if err != nil || title == "" {
		title, _ = icccm.WmNameGet(w.X, activeWinID)
	}

	var wmClass string
	if hints, err := icccm.WmClassGet(w.X, activeWinID); err == nil && hints != nil {
		wmClass = hints.Class
	}

	return focus{wmClass: wmClass, windowName: title}, nil
}
