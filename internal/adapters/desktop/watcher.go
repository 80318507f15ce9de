package desktop

import (
	"fmt"
	"os"
	"time"

	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// Window watcher backends.
const (
	BackendAuto = "auto"
	BackendX11  = "x11"
	BackendSway = "sway"
)

// NewWindowWatcher creates the watcher for backend. The auto backend
// picks sway when $SWAYSOCK is set and X11 otherwise.
func NewWindowWatcher(backend string, interval time.Duration, logger *logging.Logger) (ports.WindowWatcher, error) {
	switch resolveBackend(backend, os.Getenv) {
	case BackendSway:
		return NewSwayWatcher(logger), nil
	case BackendX11:
		return NewX11Watcher(interval, logger)
	default:
		return nil, fmt.Errorf("unknown window watcher backend %q", backend)
	}
}

func resolveBackend(backend string, getenv func(string) string) string {
	if backend != "" && backend != BackendAuto {
		return backend
	}
	if getenv("SWAYSOCK") != "" {
		return BackendSway
	}
	return BackendX11
}
