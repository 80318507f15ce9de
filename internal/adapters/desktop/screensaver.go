package desktop

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

const (
	dbusInterface       = "org.freedesktop.DBus"
	dbusListNamesMethod = dbusInterface + ".ListNames"

	// freedesktopScreenSaver is an interface without a Lock implementation.
	freedesktopScreenSaver = "org.freedesktop.ScreenSaver"
	activeChangedMember    = "ActiveChanged"
)

var screenSaverNameRe = regexp.MustCompile(`^org\..*\.ScreenSaver$`)

// ScreenSaver watches every ScreenSaver service on the session bus.
type ScreenSaver struct {
	conn   *dbus.Conn
	names  []string
	logger *logging.Logger
}

// Ensure ScreenSaver implements ports.ScreenLocker.
var _ ports.ScreenLocker = (*ScreenSaver)(nil)

// NewScreenSaver connects to the session bus and discovers screen saver services.
func NewScreenSaver(logger *logging.Logger) (*ScreenSaver, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var names []string
	if err := conn.BusObject().Call(dbusListNamesMethod, 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}

	saverNames := screenSaverNames(names)
	if len(saverNames) == 0 {
		conn.Close()
		return nil, errors.New("no screen saver service found on the session bus")
	}
	logger.Debugf("Screen saver services: %s", strings.Join(saverNames, ", "))

	return &ScreenSaver{conn: conn, names: saverNames, logger: logger}, nil
}

// Watch subscribes to ActiveChanged and sends lock events until ctx is done.
func (s *ScreenSaver) Watch(ctx context.Context, events chan<- ports.LockEvent) error {
	for _, name := range s.names {
		err := s.conn.AddMatchSignalContext(ctx,
			dbus.WithMatchInterface(name),
			dbus.WithMatchMember(activeChangedMember),
		)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", name, err)
		}
	}

	signals := make(chan *dbus.Signal, 10)
	s.conn.Signal(signals)
	defer s.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return errors.New("session bus connection closed")
			}
			event, ok := lockEventFromSignal(sig, time.Now())
			if !ok {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Lock asks every screen saver service except the freedesktop stub to lock.
// It fails only when no service could lock the screen.
func (s *ScreenSaver) Lock(ctx context.Context) error {
	var errs []error
	locked := false
	for _, name := range s.names {
		if name == freedesktopScreenSaver {
			continue
		}
		call := s.conn.Object(name, objectPathFor(name)).CallWithContext(ctx, name+".Lock", 0)
		if call.Err != nil {
			s.logger.Warnf("Lock screen error from %s: %v", name, call.Err)
			errs = append(errs, call.Err)
			continue
		}
		locked = true
	}
	if !locked {
		return fmt.Errorf("failed to lock screen: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes the bus connection.
func (s *ScreenSaver) Close() error {
	return s.conn.Close()
}

func screenSaverNames(names []string) []string {
	var result []string
	for _, name := range names {
		if screenSaverNameRe.MatchString(name) {
			result = append(result, name)
		}
	}
	return result
}

// objectPathFor maps org.gnome.ScreenSaver to /org/gnome/ScreenSaver.
func objectPathFor(busName string) dbus.ObjectPath {
	return dbus.ObjectPath("/" + strings.ReplaceAll(busName, ".", "/"))
}

func lockEventFromSignal(sig *dbus.Signal, now time.Time) (ports.LockEvent, bool) {
	if sig == nil || !strings.HasSuffix(sig.Name, "."+activeChangedMember) || len(sig.Body) != 1 {
		return ports.LockEvent{}, false
	}
	if !screenSaverNameRe.MatchString(strings.TrimSuffix(sig.Name, "."+activeChangedMember)) {
		return ports.LockEvent{}, false
	}
	locked, ok := sig.Body[0].(bool)
	if !ok {
		return ports.LockEvent{}, false
	}
	return ports.LockEvent{Locked: locked, Time: now}, true
}
