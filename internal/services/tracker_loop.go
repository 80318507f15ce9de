package services

import (
	"context"
	"time"

	"github.com/xvierd/speaking-eye/internal/ports"
)

// TrackerEvents groups the inputs of the tracking loop.
// Nil channels are never selected.
type TrackerEvents struct {
	Windows <-chan ports.WindowEvent
	Locks   <-chan ports.LockEvent
	Toggles <-chan struct{}
	Breaks  <-chan struct{}
	Ticks   <-chan time.Time
}

// Run feeds events to the tracker until ctx is done. Failed writes are
// returned; the caller is expected to Stop the tracker afterwards.
func (s *TrackerService) Run(ctx context.Context, events TrackerEvents, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events.Windows:
			if !ok {
				events.Windows = nil
				continue
			}
			at := ev.Time
			if at.IsZero() {
				at = now()
			}
			if err := s.OnWindowChanged(ctx, ev.WmClass, ev.WindowName, at); err != nil {
				return err
			}

		case ev, ok := <-events.Locks:
			if !ok {
				events.Locks = nil
				continue
			}
			at := ev.Time
			if at.IsZero() {
				at = now()
			}
			if err := s.OnLockChanged(ctx, ev.Locked, at); err != nil {
				return err
			}

		case _, ok := <-events.Toggles:
			if !ok {
				events.Toggles = nil
				continue
			}
			if err := s.ToggleWorkTime(ctx, now()); err != nil {
				return err
			}
			s.logger.Infof("Work time: %t", s.IsWorkTime())

		case _, ok := <-events.Breaks:
			if !ok {
				events.Breaks = nil
				continue
			}
			if err := s.TakeBreak(ctx); err != nil {
				s.logger.Warnf("Failed to lock the screen: %v", err)
			}

		case t, ok := <-events.Ticks:
			if !ok {
				events.Ticks = nil
				continue
			}
			s.Tick(t)
		}
	}
}
