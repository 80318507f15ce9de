package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
)

func testMatcher(t *testing.T) *domain.ApplicationInfoMatcher {
	t.Helper()
	terminal, err := domain.NewApplicationInfo("Terminal", "term", "", false)
	if err != nil {
		t.Fatalf("NewApplicationInfo() error = %v", err)
	}
	fun, err := domain.NewApplicationInfo("Fun", "game", "", true)
	if err != nil {
		t.Fatalf("NewApplicationInfo() error = %v", err)
	}
	return domain.NewApplicationInfoMatcher(
		[]*domain.ApplicationInfo{terminal, domain.BreakTimeApplicationInfo()},
		[]*domain.ApplicationInfo{fun},
	)
}

func newTestTracker(t *testing.T, log *memLog, limits Limits) (*TrackerService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	return NewTrackerService(log, log, testMatcher(t), notifier, limits, nil), notifier
}

func mustStart(t *testing.T, s *TrackerService, now time.Time, isWorkTime bool) {
	t.Helper()
	if err := s.Start(context.Background(), now, isWorkTime); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func mustWindow(t *testing.T, s *TrackerService, wmClass, windowName string, now time.Time) {
	t.Helper()
	if err := s.OnWindowChanged(context.Background(), wmClass, windowName, now); err != nil {
		t.Fatalf("OnWindowChanged() error = %v", err)
	}
}

func findStat(stats []domain.TitleStat, title string) (domain.TitleStat, bool) {
	for _, s := range stats {
		if s.Title == title {
			return s, true
		}
	}
	return domain.TitleStat{}, false
}

func TestTrackerService_WindowChanges(t *testing.T) {
	log := newMemLog()
	tracker, notifier := newTestTracker(t, log, DefaultLimits())
	ctx := context.Background()

	mustStart(t, tracker, at(9, 0), true)
	mustWindow(t, tracker, "term", "vim", at(9, 0))
	mustWindow(t, tracker, "term", "vim", at(9, 10))
	mustWindow(t, tracker, "game", "level 1", at(9, 30))

	if len(log.written) != 1 {
		t.Fatalf("written = %d activities, want 1", len(log.written))
	}
	if d, _ := log.written[0].Duration(); d != 30*time.Minute {
		t.Errorf("first activity duration = %v, want 30m", d)
	}

	summary, err := tracker.Stop(ctx, at(10, 0))
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !log.closed {
		t.Error("Stop() should close the sink")
	}
	if len(log.written) != 2 {
		t.Fatalf("written = %d activities, want 2", len(log.written))
	}
	if summary.Worked != time.Hour {
		t.Errorf("Worked = %v, want 1h", summary.Worked)
	}

	for _, title := range []string{"Terminal", "Fun"} {
		stat, ok := findStat(summary.Stats, title)
		if !ok {
			t.Fatalf("summary has no %q row", title)
		}
		if stat.WorkTime != 30*time.Minute {
			t.Errorf("%s work time = %v, want 30m", title, stat.WorkTime)
		}
	}
	if _, ok := findStat(summary.Stats, domain.TitleBreakTime); !ok {
		t.Error("configured titles should be present with zero time")
	}

	if notifier.count("start") != 1 || notifier.count("finish") != 1 {
		t.Errorf("notifications = %+v, want one start and one finish", notifier.sent)
	}
}

func TestTrackerService_EmptyWindowIsDesktop(t *testing.T) {
	log := newMemLog()
	tracker, _ := newTestTracker(t, log, DefaultLimits())

	mustStart(t, tracker, at(9, 0), false)
	mustWindow(t, tracker, "", "", at(9, 0))

	snapshot := tracker.Snapshot(at(9, 5))
	if snapshot.Current == nil || snapshot.Current.WmClass != domain.WmClassDesktop {
		t.Fatalf("current = %+v, want Desktop", snapshot.Current)
	}
	if snapshot.TotalOffTime != 5*time.Minute {
		t.Errorf("TotalOffTime = %v, want 5m", snapshot.TotalOffTime)
	}
}

func TestTrackerService_LockScreen(t *testing.T) {
	log := newMemLog()
	tracker, _ := newTestTracker(t, log, DefaultLimits())
	ctx := context.Background()

	mustStart(t, tracker, at(9, 0), true)
	mustWindow(t, tracker, "term", "vim", at(9, 0))

	if err := tracker.OnLockChanged(ctx, true, at(9, 10)); err != nil {
		t.Fatalf("OnLockChanged(true) error = %v", err)
	}
	if err := tracker.OnLockChanged(ctx, true, at(9, 11)); err != nil {
		t.Fatalf("OnLockChanged(true) again error = %v", err)
	}
	mustWindow(t, tracker, "code", "main.go", at(9, 15))
	if len(log.written) != 1 {
		t.Fatalf("window changes while locked should not be written, got %d", len(log.written))
	}

	if err := tracker.OnLockChanged(ctx, false, at(9, 20)); err != nil {
		t.Fatalf("OnLockChanged(false) error = %v", err)
	}
	if len(log.written) != 2 {
		t.Fatalf("written = %d activities, want 2", len(log.written))
	}

	locked := log.written[1]
	if locked.WmClass != domain.WmClassLockScreen || locked.WindowName != "" {
		t.Errorf("locked activity = %s, want LockScreen", locked)
	}
	if locked.Title() != domain.TitleBreakTime {
		t.Errorf("locked activity title = %q, want %q", locked.Title(), domain.TitleBreakTime)
	}
	if d, _ := locked.Duration(); d != 10*time.Minute {
		t.Errorf("locked duration = %v, want 10m", d)
	}

	current := tracker.Snapshot(at(9, 20)).Current
	if current == nil || current.WmClass != "code" || current.WindowName != "main.go" {
		t.Errorf("current after unlock = %+v, want the window focused while locked", current)
	}
}

func TestTrackerService_SetWorkTime(t *testing.T) {
	log := newMemLog()
	tracker, _ := newTestTracker(t, log, DefaultLimits())
	ctx := context.Background()

	mustStart(t, tracker, at(9, 0), false)
	mustWindow(t, tracker, "term", "vim", at(9, 0))

	if err := tracker.SetWorkTime(ctx, false, at(9, 10)); err != nil {
		t.Fatalf("SetWorkTime(false) error = %v", err)
	}
	if len(log.written) != 0 {
		t.Fatalf("same value should not split, written = %d", len(log.written))
	}

	if err := tracker.SetWorkTime(ctx, true, at(9, 30)); err != nil {
		t.Fatalf("SetWorkTime(true) error = %v", err)
	}
	if len(log.written) != 1 {
		t.Fatalf("written = %d, want 1", len(log.written))
	}
	if log.written[0].IsWorkTime {
		t.Error("split activity should keep the previous work state")
	}

	current := tracker.Snapshot(at(9, 30)).Current
	if current == nil || !current.IsWorkTime || current.WmClass != "term" {
		t.Errorf("current = %+v, want work time term", current)
	}

	if err := tracker.ToggleWorkTime(ctx, at(9, 45)); err != nil {
		t.Fatalf("ToggleWorkTime() error = %v", err)
	}
	if tracker.IsWorkTime() {
		t.Error("ToggleWorkTime() should switch work time off")
	}
}

func TestTrackerService_NewDay(t *testing.T) {
	log := newMemLog()
	tracker, notifier := newTestTracker(t, log, DefaultLimits())

	mustStart(t, tracker, at(23, 50), true)
	mustWindow(t, tracker, "term", "vim", at(23, 50))
	mustWindow(t, tracker, "game", "", at(23, 50).Add(20*time.Minute))

	if got := notifier.count("new_day"); got != 1 {
		t.Fatalf("new day notifications = %d, want 1", got)
	}
	if notifier.sent[len(notifier.sent)-1].title != "2024-03-12" {
		t.Errorf("new day = %q, want 2024-03-12", notifier.sent[len(notifier.sent)-1].title)
	}
	if tracker.IsWorkTime() {
		t.Error("a new day should switch work time off")
	}

	snapshot := tracker.Snapshot(at(23, 50).Add(30 * time.Minute))
	if snapshot.Current == nil || snapshot.Current.IsWorkTime {
		t.Errorf("current = %+v, want off time activity", snapshot.Current)
	}
	// term ran 23:50..00:10, so 10 minutes of it belong to the new day.
	if snapshot.TotalWorkTime != 10*time.Minute {
		t.Errorf("TotalWorkTime = %v, want the 10m after midnight", snapshot.TotalWorkTime)
	}
	if snapshot.TotalOffTime != 10*time.Minute {
		t.Errorf("TotalOffTime = %v, want 10m", snapshot.TotalOffTime)
	}
	if stat, ok := findStat(snapshot.Stats, "Terminal"); !ok || stat.WorkTime != 10*time.Minute {
		t.Errorf("Terminal = %+v, want 10m of work", stat)
	}

	replayed, err := log.Read(context.Background(), domain.DateOf(at(23, 50).Add(20*time.Minute)))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	holder, err := domain.NewStatHolder(replayed)
	if err != nil {
		t.Fatalf("NewStatHolder() error = %v", err)
	}
	if holder.TotalWorkTime != snapshot.TotalWorkTime {
		t.Errorf("live TotalWorkTime = %v, replay of the new day = %v", snapshot.TotalWorkTime, holder.TotalWorkTime)
	}
}

func TestTrackerService_OutOfOrderEvents(t *testing.T) {
	log := newMemLog()
	tracker, _ := newTestTracker(t, log, DefaultLimits())
	ctx := context.Background()

	mustStart(t, tracker, at(10, 0), true)
	mustWindow(t, tracker, "term", "vim", at(10, 0))

	if err := tracker.ToggleWorkTime(ctx, at(10, 5)); err != nil {
		t.Fatalf("ToggleWorkTime() error = %v", err)
	}
	// Polled at 10:04 but handled after the toggle.
	if err := tracker.OnWindowChanged(ctx, "game", "", at(10, 4)); err != nil {
		t.Fatalf("OnWindowChanged() error = %v", err)
	}
	if err := tracker.OnLockChanged(ctx, true, at(10, 3)); err != nil {
		t.Fatalf("OnLockChanged() error = %v", err)
	}

	current := tracker.Snapshot(at(10, 10)).Current
	if current == nil || current.WmClass != domain.WmClassLockScreen || !current.Start().Equal(at(10, 5)) {
		t.Errorf("current = %+v, want lock screen from 10:05", current)
	}

	if _, err := tracker.Stop(ctx, at(10, 1)); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	activities, _ := log.Read(ctx, domain.DateOf(at(10, 0)))
	if len(activities) != 4 {
		t.Fatalf("wrote %d activities, want 4", len(activities))
	}
	for i, a := range activities[1:] {
		if d, _ := a.Duration(); d != 0 {
			t.Errorf("activity %d duration = %v, want 0", i+1, d)
		}
	}
}

func TestTrackerService_OvertimeReminder(t *testing.T) {
	log := newMemLog()
	limits := Limits{WorkTime: time.Hour, BreaksInterval: 10 * time.Hour, Distracting: time.Hour, ReminderInterval: 15 * time.Minute}
	tracker, notifier := newTestTracker(t, log, limits)

	mustStart(t, tracker, at(9, 0), true)
	mustWindow(t, tracker, "term", "vim", at(9, 0))

	for _, tick := range []time.Time{at(9, 59), at(10, 0), at(10, 10), at(10, 15)} {
		tracker.Tick(tick)
	}
	if got := notifier.count("overtime"); got != 2 {
		t.Errorf("overtime reminders = %d, want 2", got)
	}
}

func TestTrackerService_BreakReminder(t *testing.T) {
	log := newMemLog()
	limits := Limits{WorkTime: 10 * time.Hour, BreaksInterval: time.Hour, Distracting: time.Hour, ReminderInterval: 15 * time.Minute}
	tracker, notifier := newTestTracker(t, log, limits)
	ctx := context.Background()

	mustStart(t, tracker, at(9, 0), true)
	mustWindow(t, tracker, "term", "vim", at(9, 0))

	tracker.Tick(at(9, 59))
	tracker.Tick(at(10, 0))
	tracker.Tick(at(10, 5))
	if got := notifier.count("break"); got != 1 {
		t.Fatalf("break reminders = %d, want 1", got)
	}

	if err := tracker.OnLockChanged(ctx, true, at(10, 10)); err != nil {
		t.Fatalf("OnLockChanged() error = %v", err)
	}
	tracker.Tick(at(10, 20))
	if got := notifier.count("break"); got != 1 {
		t.Errorf("break reminders while locked = %d, want 1", got)
	}

	if err := tracker.OnLockChanged(ctx, false, at(10, 30)); err != nil {
		t.Fatalf("OnLockChanged() error = %v", err)
	}
	tracker.Tick(at(11, 0))
	if got := notifier.count("break"); got != 1 {
		t.Errorf("unlocking should count as a break, reminders = %d", got)
	}
	tracker.Tick(at(11, 30))
	if got := notifier.count("break"); got != 2 {
		t.Errorf("break reminders = %d, want 2", got)
	}
}

func TestTrackerService_DistractingReminder(t *testing.T) {
	log := newMemLog()
	log.add(t, "game", "level 1", at(8, 0), at(8, 10), true)
	limits := Limits{WorkTime: 10 * time.Hour, BreaksInterval: 10 * time.Hour, Distracting: 15 * time.Minute, ReminderInterval: 15 * time.Minute}
	tracker, notifier := newTestTracker(t, log, limits)

	mustStart(t, tracker, at(9, 0), true)
	mustWindow(t, tracker, "game", "level 2", at(9, 0))

	tracker.Tick(at(9, 4))
	if got := notifier.count("distracting"); got != 0 {
		t.Fatalf("distracting reminders = %d, want 0", got)
	}
	tracker.Tick(at(9, 5))
	tracker.Tick(at(9, 10))
	if got := notifier.count("distracting"); got != 1 {
		t.Fatalf("distracting reminders = %d, want 1", got)
	}
	last := notifier.sent[len(notifier.sent)-1]
	if last.title != "Fun" || last.value != 15*time.Minute {
		t.Errorf("distracting reminder = %+v, want Fun after 15m", last)
	}

	mustWindow(t, tracker, "game", "level 3", at(9, 11))
	tracker.Tick(at(9, 12))
	if got := notifier.count("distracting"); got != 2 {
		t.Errorf("a new distracting activity should be reminded again, got %d", got)
	}
}

func TestTrackerService_StartWithCorruptDay(t *testing.T) {
	t.Run("format error starts fresh", func(t *testing.T) {
		log := newMemLog()
		log.readErr = fmt.Errorf("%w: bad line", domain.ErrFormat)
		tracker, _ := newTestTracker(t, log, DefaultLimits())

		if err := tracker.Start(context.Background(), at(9, 0), true); err != nil {
			t.Errorf("Start() error = %v, want nil", err)
		}
	})

	t.Run("other errors fail", func(t *testing.T) {
		log := newMemLog()
		log.readErr = errors.New("disk on fire")
		tracker, _ := newTestTracker(t, log, DefaultLimits())

		if err := tracker.Start(context.Background(), at(9, 0), true); err == nil {
			t.Error("Start() should fail")
		}
	})
}

func TestTrackerService_TakeBreak(t *testing.T) {
	tracker, _ := newTestTracker(t, newMemLog(), DefaultLimits())
	if err := tracker.TakeBreak(context.Background()); err == nil {
		t.Error("TakeBreak() without a locker should fail")
	}

	locker := &fakeLocker{}
	tracker.SetLocker(locker)
	if err := tracker.TakeBreak(context.Background()); err != nil {
		t.Fatalf("TakeBreak() error = %v", err)
	}
	if locker.locks != 1 {
		t.Errorf("locks = %d, want 1", locker.locks)
	}
}

func TestTrackerService_Run(t *testing.T) {
	log := newMemLog()
	tracker, _ := newTestTracker(t, log, DefaultLimits())
	mustStart(t, tracker, at(9, 0), false)

	windows := make(chan ports.WindowEvent)
	locks := make(chan ports.LockEvent)
	toggles := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- tracker.Run(ctx, TrackerEvents{Windows: windows, Locks: locks, Toggles: toggles}, func() time.Time { return at(9, 30) })
	}()

	windows <- ports.WindowEvent{WmClass: "term", WindowName: "vim", Time: at(9, 0)}
	windows <- ports.WindowEvent{WmClass: "game", WindowName: "", Time: at(9, 10)}
	toggles <- struct{}{}
	locks <- ports.LockEvent{Locked: true, Time: at(9, 40)}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !tracker.IsWorkTime() {
		t.Error("toggle should switch work time on")
	}
	if len(log.written) != 3 {
		t.Fatalf("written = %d activities, want 3", len(log.written))
	}
	if log.written[2].WmClass != "game" || !log.written[2].IsWorkTime {
		t.Errorf("last written = %s, want work time game", log.written[2])
	}
}
