package domain

import "time"

// DaySegment is the part of an activity that falls on one calendar day.
type DaySegment struct {
	Day      Date
	Activity *Activity
}

// SplitByDay partitions a finished activity on local calendar-day
// boundaries, the days the persisted timestamps are written in.
//
// An activity within one day is returned unchanged as the only segment.
// Otherwise every segment but the first starts at midnight and every
// segment but the last ends one microsecond before the next midnight.
func SplitByDay(a *Activity) ([]DaySegment, error) {
	span, err := a.finished("splitting")
	if err != nil {
		return nil, err
	}

	loc := time.Local
	firstDay := DateOf(span.Start.In(loc))
	lastDay := DateOf(span.End.In(loc))

	if firstDay == lastDay {
		return []DaySegment{{Day: firstDay, Activity: a}}, nil
	}

	days, err := DatesBetween(firstDay, lastDay)
	if err != nil {
		return nil, err
	}

	segments := make([]DaySegment, 0, len(days))
	for _, day := range days {
		start := day.Midnight(loc)
		if day == firstDay {
			start = span.Start
		}
		end := day.AddDays(1).Midnight(loc).Add(-time.Microsecond)
		if day == lastDay {
			end = span.End
		}

		segment, err := a.Rebuild(start, end)
		if err != nil {
			return nil, err
		}
		segment.SetApplicationInfo(a.appInfo)
		segments = append(segments, DaySegment{Day: day, Activity: segment})
	}

	return segments, nil
}
