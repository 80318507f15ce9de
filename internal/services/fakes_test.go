package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
)

func at(h, m int) time.Time {
	return time.Date(2024, time.March, 11, h, m, 0, 0, time.Local)
}

// memLog keeps written segments per day and reports rollover like the
// file writer does.
type memLog struct {
	mu      sync.Mutex
	days    map[domain.Date][]*domain.Activity
	written []*domain.Activity
	current domain.Date
	closed  bool
	readErr error
}

func newMemLog() *memLog {
	return &memLog{days: make(map[domain.Date][]*domain.Activity)}
}

func (m *memLog) Write(_ context.Context, a *domain.Activity) (domain.WriteOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	segments, err := domain.SplitByDay(a)
	if err != nil {
		return "", err
	}
	rolled := false
	for _, seg := range segments {
		if m.current != seg.Day {
			if !m.current.IsZero() {
				rolled = true
			}
			m.current = seg.Day
		}
		m.days[seg.Day] = append(m.days[seg.Day], seg.Activity)
	}
	m.written = append(m.written, a)
	if rolled {
		return domain.WriteOutcomeWrittenAndRolledOver, nil
	}
	return domain.WriteOutcomeWritten, nil
}

func (m *memLog) Close() error {
	m.closed = true
	return nil
}

func (m *memLog) Read(_ context.Context, day domain.Date) ([]*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	stored := m.days[day]
	result := make([]*domain.Activity, 0, len(stored))
	for _, a := range stored {
		end, _ := a.End()
		copied, err := domain.NewFinishedActivity(a.WmClass, a.WindowName, a.Start(), end, a.IsWorkTime)
		if err != nil {
			return nil, err
		}
		result = append(result, copied)
	}
	return result, nil
}

func (m *memLog) Days(_ context.Context) ([]domain.Date, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	days := make([]domain.Date, 0, len(m.days))
	for day := range m.days {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func (m *memLog) add(t *testing.T, wmClass, windowName string, start, end time.Time, isWorkTime bool) {
	a, err := domain.NewFinishedActivity(wmClass, windowName, start, end, isWorkTime)
	if err != nil {
		t.Fatalf("NewFinishedActivity() error = %v", err)
	}
	day := domain.DateOf(start)
	m.days[day] = append(m.days[day], a)
}

type notification struct {
	kind  string
	title string
	value time.Duration
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) record(kind, title string, value time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: kind, title: title, value: value})
	return nil
}

func (n *recordingNotifier) NotifyStart(time.Time) error { return n.record("start", "", 0) }
func (n *recordingNotifier) NotifyFinish(_ time.Time, worked time.Duration) error {
	return n.record("finish", "", worked)
}
func (n *recordingNotifier) NotifyNewDay(day string) error { return n.record("new_day", day, 0) }
func (n *recordingNotifier) NotifyOvertime(limit time.Duration) error {
	return n.record("overtime", "", limit)
}
func (n *recordingNotifier) NotifyBreak() error { return n.record("break", "", 0) }
func (n *recordingNotifier) NotifyDistracting(title string, spent time.Duration) error {
	return n.record("distracting", title, spent)
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.kind == kind {
			c++
		}
	}
	return c
}

type fakeLocker struct {
	locks int
}

func (l *fakeLocker) Watch(ctx context.Context, _ chan<- ports.LockEvent) error {
	<-ctx.Done()
	return nil
}

func (l *fakeLocker) Lock(context.Context) error {
	l.locks++
	return nil
}

func (l *fakeLocker) Close() error { return nil }
