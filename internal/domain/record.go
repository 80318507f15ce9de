package domain

import "time"

// ActivityRecord is a finished day segment as stored in the activity index.
type ActivityRecord struct {
	ID            string
	Day           Date
	WmClass       string
	WindowName    string
	Start         time.Time
	End           time.Time
	Duration      time.Duration
	IsWorkTime    bool
	Title         string
	IsDistracting bool
}

// NewActivityRecord flattens a finished activity that lies within day.
func NewActivityRecord(day Date, a *Activity) (*ActivityRecord, error) {
	span, err := a.finished("indexing")
	if err != nil {
		return nil, err
	}
	return &ActivityRecord{
		ID:            a.ID,
		Day:           day,
		WmClass:       a.WmClass,
		WindowName:    a.WindowName,
		Start:         span.Start,
		End:           span.End,
		Duration:      span.Duration,
		IsWorkTime:    a.IsWorkTime,
		Title:         a.Title(),
		IsDistracting: a.IsDistracting(),
	}, nil
}

// DayTotal is the work and off time of one day.
type DayTotal struct {
	Day      Date
	WorkTime time.Duration
	OffTime  time.Duration
}

// TitleReport is one row of a report.
type TitleReport struct {
	Title         string
	WorkTime      time.Duration
	OffTime       time.Duration
	IsDistracting bool
}

// DayReport summarizes the activities of one or more days.
type DayReport struct {
	From                Date
	To                  Date
	Rows                []TitleReport
	TotalWorkTime       time.Duration
	TotalOffTime        time.Duration
	DistractingWorkTime time.Duration
}

// Label returns the date or date range the report covers.
func (r *DayReport) Label() string {
	if r.From == r.To {
		return r.From.String()
	}
	return r.From.String() + " - " + r.To.String()
}
