package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// Limits configures the tracker reminders.
type Limits struct {
	WorkTime         time.Duration
	BreaksInterval   time.Duration
	Distracting      time.Duration
	ReminderInterval time.Duration
}

// DefaultLimits returns 9h of work, a break every 3h, 15m per
// distracting app and reminders every 15m.
func DefaultLimits() Limits {
	return Limits{
		WorkTime:         9 * time.Hour,
		BreaksInterval:   3 * time.Hour,
		Distracting:      15 * time.Minute,
		ReminderInterval: 15 * time.Minute,
	}
}

// TrackerSnapshot is a consistent view of the tracker state.
type TrackerSnapshot struct {
	Started       time.Time
	IsWorkTime    bool
	Locked        bool
	Current       *domain.Activity
	TotalWorkTime time.Duration
	TotalOffTime  time.Duration
	Stats         []domain.TitleStat
}

// Summary is returned when tracking stops.
type Summary struct {
	Started  time.Time
	Finished time.Time
	Worked   time.Duration
	Stats    []domain.TitleStat
}

type window struct {
	wmClass    string
	windowName string
}

// TrackerService turns window, lock and work time events into finished
// activities and keeps today's statistics. Events are expected from a
// single goroutine; snapshots may be taken concurrently.
type TrackerService struct {
	mu sync.Mutex

	sink     ports.ActivitySink
	source   ports.ActivitySource
	matcher  *domain.ApplicationInfoMatcher
	notifier ports.Notifier
	locker   ports.ScreenLocker
	limits   Limits
	logger   *logging.Logger

	holder        *domain.StatHolder
	current       *domain.Activity
	started       time.Time
	isWorkTime    bool
	workTimeSince time.Time
	locked        bool
	beforeLock    *window

	lastBreakTime     time.Time
	lastBreakReminder time.Time
	lastOvertime      time.Time
	distractingShown  bool
}

// NewTrackerService creates a tracker service.
func NewTrackerService(sink ports.ActivitySink, source ports.ActivitySource, matcher *domain.ApplicationInfoMatcher,
	notifier ports.Notifier, limits Limits, logger *logging.Logger) *TrackerService {
	if logger == nil {
		logger = logging.Discard()
	}
	if matcher == nil {
		matcher = domain.NewApplicationInfoMatcher(nil, nil)
	}
	return &TrackerService{
		sink:     sink,
		source:   source,
		matcher:  matcher,
		notifier: notifier,
		limits:   limits,
		logger:   logger,
	}
}

// SetLocker sets the screen locker used by TakeBreak.
func (s *TrackerService) SetLocker(locker ports.ScreenLocker) {
	s.locker = locker
}

// Start loads today's activities and begins tracking in the given work state.
// A corrupt day file is logged and the day starts fresh.
func (s *TrackerService) Start(ctx context.Context, now time.Time, isWorkTime bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	holder, err := s.loadHolder(ctx, domain.DateOf(now))
	if err != nil {
		return err
	}

	s.holder = holder
	s.started = now
	s.isWorkTime = isWorkTime
	s.workTimeSince = now
	if isWorkTime {
		s.lastBreakTime = now
	}

	s.logger.Debugf("Set user work time limit to [%s]", s.limits.WorkTime)
	s.logger.Debugf("Set user breaks interval to [%s]", s.limits.BreaksInterval)
	s.notify(s.notifier.NotifyStart(now))
	return nil
}

// loadHolder replays the raw data of day into a fresh holder. A corrupt
// day file is logged and the day starts empty.
func (s *TrackerService) loadHolder(ctx context.Context, day domain.Date) (*domain.StatHolder, error) {
	activities, err := s.source.Read(ctx, day)
	if errors.Is(err, domain.ErrFormat) {
		s.logger.Warnf("Raw data of %s is corrupted, starting the day fresh: %v", day, err)
		activities = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read activities of %s: %w", day, err)
	}

	for _, a := range activities {
		s.matcher.SetIfMatched(a)
	}
	holder, err := domain.NewStatHolder(activities)
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics: %w", err)
	}
	holder.InitializeStats(s.matcher.Detailed())
	holder.InitializeStats(s.matcher.Distracting())
	return holder, nil
}

// eventTime clamps now to the start of the current activity. Events are
// stamped when polled and may be handled out of order.
func (s *TrackerService) eventTime(now time.Time) time.Time {
	if s.current != nil && now.Before(s.current.Start()) {
		s.logger.Debugf("Event at %s predates the current activity, using %s",
			domain.FormatTimestamp(now), domain.FormatTimestamp(s.current.Start()))
		return s.current.Start()
	}
	return now
}

// OnWindowChanged switches to the focused window. An empty wm_class
// means no window is active. While the screen is locked the window is
// only remembered for the unlock.
func (s *TrackerService) OnWindowChanged(ctx context.Context, wmClass, windowName string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wmClass == "" {
		wmClass, windowName = domain.WmClassDesktop, ""
	}

	if s.locked {
		s.beforeLock = &window{wmClass: wmClass, windowName: windowName}
		return nil
	}
	now = s.eventTime(now)

	if s.current != nil && s.current.WmClass == wmClass && s.current.WindowName == windowName {
		return nil
	}

	return s.changeActivity(ctx, domain.NewActivity(wmClass, windowName, now, s.isWorkTime), now)
}

// OnLockChanged accounts locked time to the lock screen. Unlocking
// during work time counts as a break.
func (s *TrackerService) OnLockChanged(ctx context.Context, locked bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locked == s.locked {
		return nil
	}
	now = s.eventTime(now)

	if locked {
		if s.current != nil {
			s.beforeLock = &window{wmClass: s.current.WmClass, windowName: s.current.WindowName}
		}
		next := domain.NewActivity(domain.WmClassLockScreen, "", now, s.isWorkTime)
		if err := s.changeActivity(ctx, next, now); err != nil {
			return err
		}
		s.locked = true
		return nil
	}

	s.locked = false
	if s.isWorkTime {
		s.lastBreakTime = now
	}

	restore := window{wmClass: domain.WmClassDesktop}
	if s.beforeLock != nil {
		restore = *s.beforeLock
		s.beforeLock = nil
	}
	return s.changeActivity(ctx, domain.NewActivity(restore.wmClass, restore.windowName, now, s.isWorkTime), now)
}

// SetWorkTime switches between work and off time. The current activity
// is split at now. Entering work time resets the reminders.
func (s *TrackerService) SetWorkTime(ctx context.Context, isWorkTime bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setWorkTime(ctx, isWorkTime, now)
}

// ToggleWorkTime flips the work time state.
func (s *TrackerService) ToggleWorkTime(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setWorkTime(ctx, !s.isWorkTime, now)
}

func (s *TrackerService) setWorkTime(ctx context.Context, isWorkTime bool, now time.Time) error {
	if isWorkTime == s.isWorkTime {
		s.logger.Debugf("Trying to change work time to the same value")
		return nil
	}

	now = s.eventTime(now)
	s.isWorkTime = isWorkTime
	if s.current != nil {
		next := domain.NewActivity(s.current.WmClass, s.current.WindowName, now, isWorkTime)
		if err := s.changeActivity(ctx, next, now); err != nil {
			return err
		}
	}
	s.workTimeSince = now
	s.logger.Debugf("Set work time to [%t]", isWorkTime)

	if isWorkTime {
		s.lastBreakTime = now
		s.lastBreakReminder = time.Time{}
		s.lastOvertime = time.Time{}
	}
	return nil
}

// changeActivity finishes and writes the current activity and makes next
// current. A write that rolls over to a new day switches work time off.
func (s *TrackerService) changeActivity(ctx context.Context, next *domain.Activity, now time.Time) error {
	var outcome domain.WriteOutcome
	if prev := s.current; prev != nil {
		if err := prev.Finish(now); err != nil {
			return fmt.Errorf("failed to finish activity: %w", err)
		}
		var err error
		outcome, err = s.sink.Write(ctx, prev)
		if err != nil {
			return fmt.Errorf("failed to write activity: %w", err)
		}
		if err := s.holder.UpdateStat(prev); err != nil {
			return fmt.Errorf("failed to update statistics: %w", err)
		}
		s.logger.Debugf("%s -> %s|%s", prev, next.WmClass, next.WindowName)
	}

	s.matcher.SetIfMatched(next)
	s.current = next
	s.distractingShown = false

	if outcome.RolledOver() {
		return s.onNewDay(ctx, now)
	}
	return nil
}

// onNewDay reloads the statistics from the new day's file, which already
// holds the part of the previous activity past midnight, and switches work
// time off.
func (s *TrackerService) onNewDay(ctx context.Context, now time.Time) error {
	day := domain.DateOf(now)
	s.logger.Infof("New day %s has started", day)
	s.notify(s.notifier.NotifyNewDay(day.String()))

	holder, err := s.loadHolder(ctx, day)
	if err != nil {
		return err
	}
	s.holder = holder

	if s.isWorkTime {
		// The new activity started at now, flip it instead of splitting.
		s.isWorkTime = false
		s.current.IsWorkTime = false
		s.workTimeSince = now
	}
	return nil
}

// Tick checks the overtime, break and distracting app reminders.
// It is meant to be called once a minute.
func (s *TrackerService) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.isWorkTime {
		return
	}

	if s.needOvertimeReminder(now) {
		s.notify(s.notifier.NotifyOvertime(s.limits.WorkTime))
		s.lastOvertime = now
	}
	if s.needBreakReminder(now) {
		s.notify(s.notifier.NotifyBreak())
		s.lastBreakReminder = now
	}
	if title, spent, ok := s.distractingOvertime(now); ok {
		s.notify(s.notifier.NotifyDistracting(title, spent))
		s.distractingShown = true
	}
}

func (s *TrackerService) needOvertimeReminder(now time.Time) bool {
	if s.locked {
		return false
	}
	total := s.holder.TotalWorkTime + now.Sub(s.current.Start())
	if total < s.limits.WorkTime {
		return false
	}
	return s.lastOvertime.IsZero() || now.Sub(s.lastOvertime) >= s.limits.ReminderInterval
}

func (s *TrackerService) needBreakReminder(now time.Time) bool {
	if s.locked {
		return false
	}
	lastBreak := s.lastBreakTime
	if lastBreak.IsZero() {
		lastBreak = s.workTimeSince
	}
	if now.Sub(lastBreak) < s.limits.BreaksInterval {
		return false
	}

	lastReminder := s.lastBreakReminder
	if lastReminder.IsZero() {
		lastReminder = s.workTimeSince
	}
	return now.Sub(lastReminder) >= s.limits.ReminderInterval
}

func (s *TrackerService) distractingOvertime(now time.Time) (string, time.Duration, bool) {
	if s.distractingShown || !s.current.IsDistracting() {
		return "", 0, false
	}
	title := s.current.Title()
	stat, _ := s.holder.Get(title)
	spent := now.Sub(s.current.Start()) + stat.WorkTime
	if spent < s.limits.Distracting {
		return "", 0, false
	}
	return title, spent, true
}

// TakeBreak locks the screen.
func (s *TrackerService) TakeBreak(ctx context.Context) error {
	if s.locker == nil {
		return errors.New("screen locker is not available")
	}
	return s.locker.Lock(ctx)
}

// Stop finishes and writes the current activity, closes the sink and
// returns the day summary.
func (s *TrackerService) Stop(ctx context.Context, now time.Time) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.current != nil {
		now = s.eventTime(now)
		if err := s.current.Finish(now); err != nil {
			errs = append(errs, fmt.Errorf("failed to finish activity: %w", err))
		} else if _, err := s.sink.Write(ctx, s.current); err != nil {
			errs = append(errs, fmt.Errorf("failed to write activity: %w", err))
		} else if s.holder != nil {
			if err := s.holder.UpdateStat(s.current); err != nil {
				errs = append(errs, fmt.Errorf("failed to update statistics: %w", err))
			}
		}
		s.current = nil
	}
	if err := s.sink.Close(); err != nil {
		errs = append(errs, err)
	}

	summary := &Summary{
		Started:  s.started,
		Finished: now,
		Worked:   now.Sub(s.started).Truncate(time.Second),
	}
	if s.holder != nil {
		summary.Stats = s.holder.Sorted()
	}
	s.notify(s.notifier.NotifyFinish(now, summary.Worked))

	return summary, errors.Join(errs...)
}

// Snapshot returns the current state with the open activity counted up to now.
func (s *TrackerService) Snapshot(now time.Time) TrackerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := TrackerSnapshot{
		Started:    s.started,
		IsWorkTime: s.isWorkTime,
		Locked:     s.locked,
	}
	if s.holder == nil {
		return snapshot
	}

	snapshot.TotalWorkTime = s.holder.TotalWorkTime
	snapshot.TotalOffTime = s.holder.TotalOffTime
	snapshot.Stats = s.holder.Sorted()

	if s.current != nil {
		current := *s.current
		snapshot.Current = &current
		if elapsed := now.Sub(s.current.Start()); elapsed > 0 {
			if s.current.IsWorkTime {
				snapshot.TotalWorkTime += elapsed
			} else {
				snapshot.TotalOffTime += elapsed
			}
		}
	}
	return snapshot
}

// IsWorkTime reports the current work time state.
func (s *TrackerService) IsWorkTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isWorkTime
}

func (s *TrackerService) notify(err error) {
	if err != nil {
		s.logger.Warnf("Failed to show notification: %v", err)
	}
}
