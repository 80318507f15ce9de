package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuarubin/go-sway"

	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// SwayWatcher follows focus and title changes over the sway IPC socket.
type SwayWatcher struct {
	logger *logging.Logger
}

// Ensure SwayWatcher implements ports.WindowWatcher.
var _ ports.WindowWatcher = (*SwayWatcher)(nil)

// NewSwayWatcher creates a watcher for the session named by $SWAYSOCK.
func NewSwayWatcher(logger *logging.Logger) *SwayWatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SwayWatcher{logger: logger}
}

// Watch sends the focused window and then every focus or title change.
func (w *SwayWatcher) Watch(ctx context.Context, events chan<- ports.WindowEvent) error {
	client, err := sway.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to sway: %w", err)
	}

	tree, err := client.GetTree(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sway tree: %w", err)
	}

	handler := &swayHandler{events: events, logger: w.logger}
	handler.send(ctx, tree.FocusedNode())

	return sway.Subscribe(ctx, handler, sway.EventTypeWorkspace, sway.EventTypeWindow)
}

// Close is a no-op; the IPC connection ends with the Watch context.
func (w *SwayWatcher) Close() error {
	return nil
}

var swayWindowChanges = map[string]bool{
	"focus": true,
	"title": true,
}

type swayHandler struct {
	sway.EventHandler

	events chan<- ports.WindowEvent
	logger *logging.Logger
	last   *ports.WindowEvent
}

func (h *swayHandler) Workspace(ctx context.Context, e sway.WorkspaceEvent) {
	if e.Change != "focus" || e.Current == nil {
		return
	}
	h.send(ctx, e.Current.FocusedNode())
}

func (h *swayHandler) Window(ctx context.Context, e sway.WindowEvent) {
	if swayWindowChanges[e.Change] {
		h.send(ctx, &e.Container)
	}
}

func (h *swayHandler) send(ctx context.Context, node *sway.Node) {
	event := windowEventFromNode(node, time.Now())
	if h.last != nil && h.last.WmClass == event.WmClass && h.last.WindowName == event.WindowName {
		return
	}
	select {
	case h.events <- event:
		h.last = &event
	case <-ctx.Done():
	}
}

// windowEventFromNode maps a sway container to a window event. Anything
// that is not a container means no window has focus.
func windowEventFromNode(node *sway.Node, now time.Time) ports.WindowEvent {
	event := ports.WindowEvent{Time: now}
	if node == nil || node.Type != "con" {
		return event
	}

	if node.WindowProperties != nil {
		event.WmClass = node.WindowProperties.Class
	}
	if node.AppID != nil && *node.AppID != "" {
		event.WmClass = *node.AppID
	}
	event.WindowName = node.Name
	return event
}
