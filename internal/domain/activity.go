package domain

import (
	"fmt"
	"time"
)

// Span is the lifecycle state of an Activity.
// It is either an OpenSpan or a FinishedSpan.
type Span interface {
	StartTime() time.Time
	isSpan()
}

// OpenSpan is an activity that has started but not ended yet.
type OpenSpan struct {
	Start time.Time
}

// FinishedSpan is an activity with both bounds set.
// Duration is always End - Start.
type FinishedSpan struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

func (s OpenSpan) StartTime() time.Time     { return s.Start }
func (s FinishedSpan) StartTime() time.Time { return s.Start }
func (OpenSpan) isSpan()                    {}
func (FinishedSpan) isSpan()                {}

// Activity is one contiguous span of focus on a single window,
// tagged as work or off time.
type Activity struct {
	ID         string
	WmClass    string
	WindowName string
	IsWorkTime bool

	span    Span
	appInfo *ApplicationInfo
}

// NewActivity creates an open activity starting at start.
// Timestamps are kept with microsecond precision.
func NewActivity(wmClass, windowName string, start time.Time, isWorkTime bool) *Activity {
	return &Activity{
		ID:         generateID(),
		WmClass:    wmClass,
		WindowName: windowName,
		IsWorkTime: isWorkTime,
		span:       OpenSpan{Start: start.Truncate(time.Microsecond)},
	}
}

// NewFinishedActivity creates an activity and finishes it at end.
func NewFinishedActivity(wmClass, windowName string, start, end time.Time, isWorkTime bool) (*Activity, error) {
	a := NewActivity(wmClass, windowName, start, isWorkTime)
	if err := a.Finish(end); err != nil {
		return nil, err
	}
	return a, nil
}

// Finish sets the end time. An end before the start is rejected
// and the activity keeps its current state.
func (a *Activity) Finish(end time.Time) error {
	start := a.span.StartTime()
	end = end.Truncate(time.Microsecond)
	if end.Before(start) {
		return fmt.Errorf("%w: end time [%s] should not be before start time [%s]",
			ErrValidation, FormatTimestamp(end), FormatTimestamp(start))
	}

	a.span = FinishedSpan{Start: start, End: end, Duration: end.Sub(start)}
	return nil
}

// Span returns the lifecycle state.
func (a *Activity) Span() Span {
	return a.span
}

// Start returns the start time.
func (a *Activity) Start() time.Time {
	return a.span.StartTime()
}

// End returns the end time if the activity is finished.
func (a *Activity) End() (time.Time, bool) {
	f, ok := a.span.(FinishedSpan)
	return f.End, ok
}

// Duration returns the activity time if the activity is finished.
func (a *Activity) Duration() (time.Duration, bool) {
	f, ok := a.span.(FinishedSpan)
	return f.Duration, ok
}

// IsFinished returns true once an end time has been set.
func (a *Activity) IsFinished() bool {
	_, ok := a.span.(FinishedSpan)
	return ok
}

// finished returns the finished span or a validation error naming op.
func (a *Activity) finished(op string) (FinishedSpan, error) {
	f, ok := a.span.(FinishedSpan)
	if !ok {
		return FinishedSpan{}, fmt.Errorf("%w: activity [%s|%s] started at [%s] should be finished before %s",
			ErrValidation, a.WmClass, a.WindowName, FormatTimestamp(a.Start()), op)
	}
	return f, nil
}

// ApplicationInfo returns the matched rule, or nil.
func (a *Activity) ApplicationInfo() *ApplicationInfo {
	return a.appInfo
}

// SetApplicationInfo attaches a matched rule, replacing any previous one.
func (a *Activity) SetApplicationInfo(info *ApplicationInfo) {
	a.appInfo = info
}

// Title returns the matched rule's title or TitleOthers.
func (a *Activity) Title() string {
	if a.appInfo == nil {
		return TitleOthers
	}
	return a.appInfo.Title
}

// IsDistracting reports whether the matched rule is distracting.
func (a *Activity) IsDistracting() bool {
	return a.appInfo != nil && a.appInfo.IsDistracting
}

// Rebuild returns a finished copy of a with new bounds.
// The matched rule is not carried over.
func (a *Activity) Rebuild(start, end time.Time) (*Activity, error) {
	return NewFinishedActivity(a.WmClass, a.WindowName, start, end, a.IsWorkTime)
}

// Equal compares activities by value. IDs are ignored.
func (a *Activity) Equal(other *Activity) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.WmClass != other.WmClass || a.WindowName != other.WindowName || a.IsWorkTime != other.IsWorkTime {
		return false
	}
	if !a.appInfo.Equal(other.appInfo) {
		return false
	}

	switch s := a.span.(type) {
	case OpenSpan:
		o, ok := other.span.(OpenSpan)
		return ok && s.Start.Equal(o.Start)
	case FinishedSpan:
		o, ok := other.span.(FinishedSpan)
		return ok && s.Start.Equal(o.Start) && s.End.Equal(o.End) && s.Duration == o.Duration
	}
	return false
}

func (a *Activity) String() string {
	end := "..."
	if e, ok := a.End(); ok {
		end = FormatTimestamp(e)
	}
	return fmt.Sprintf("%s|%s [%s - %s] work=%t", a.WmClass, a.WindowName, FormatTimestamp(a.Start()), end, a.IsWorkTime)
}
