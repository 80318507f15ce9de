package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	columnsCount    = 6
	columnSeparator = "\t"
	lineTerminator  = "\n"
)

var (
	timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d{1,6})?$`)
	durationRe  = regexp.MustCompile(`^(?:(\d+) days?, )?(\d+):(\d{2}):(\d{2})(?:\.(\d{1,6}))?$`)

	fieldSanitizer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
)

// FormatActivity renders a finished activity as one persisted line:
//
//	start<TAB>end<TAB>duration<TAB>wm_class<TAB>window_name<TAB>True|False<LF>
//
// Timestamps are written in the local time zone, which ParseActivity reads
// them back in. Tabs and line breaks inside wm_class and window_name are
// replaced by spaces.
func FormatActivity(a *Activity) (string, error) {
	span, err := a.finished("formatting")
	if err != nil {
		return "", err
	}

	columns := []string{
		FormatTimestamp(span.Start),
		FormatTimestamp(span.End),
		FormatDuration(span.Duration),
		fieldSanitizer.Replace(a.WmClass),
		fieldSanitizer.Replace(a.WindowName),
		formatBool(a.IsWorkTime),
	}
	return strings.Join(columns, columnSeparator) + lineTerminator, nil
}

// ParseActivity parses one persisted line, including its trailing newline.
// The parsed activity is finished and has no matched rule.
func ParseActivity(line string) (*Activity, error) {
	if !strings.HasSuffix(line, lineTerminator) {
		return nil, fmt.Errorf("%w: line [%s] should end with a new line", ErrFormat, line)
	}

	columns := strings.Split(strings.TrimSuffix(line, lineTerminator), columnSeparator)
	if len(columns) != columnsCount {
		return nil, fmt.Errorf("%w: unexpected columns number [%d] != %d in line [%s]",
			ErrFormat, len(columns), columnsCount, line)
	}

	start, err := ParseTimestamp(columns[0])
	if err != nil {
		return nil, fmt.Errorf("incorrect line [%s]: %w", line, err)
	}
	end, err := ParseTimestamp(columns[1])
	if err != nil {
		return nil, fmt.Errorf("incorrect line [%s]: %w", line, err)
	}
	if _, err := ParseDuration(columns[2]); err != nil {
		return nil, fmt.Errorf("incorrect line [%s]: %w", line, err)
	}
	isWorkTime, err := parseBool(columns[5])
	if err != nil {
		return nil, fmt.Errorf("incorrect line [%s]: %w", line, err)
	}

	activity, err := NewFinishedActivity(columns[3], columns[4], start, end, isWorkTime)
	if err != nil {
		return nil, fmt.Errorf("%w: incorrect line [%s]: %v", ErrFormat, line, err)
	}
	return activity, nil
}

// FormatTimestamp renders t in local time as YYYY-MM-DD HH:MM:SS with a
// six digit fraction only when the microsecond part is non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.In(time.Local)
	s := t.Format(timestampLayout)
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// ParseTimestamp parses YYYY-MM-DD HH:MM:SS[.ffffff] in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	if !timestampRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: timestamp [%s] does not match [YYYY-MM-DD HH:MM:SS[.ffffff]]", ErrFormat, s)
	}
	t, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp [%s]: %v", ErrFormat, s, err)
	}
	return t, nil
}

// FormatDuration renders d as [N day(s), ]H:MM:SS[.ffffff].
func FormatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteString("-")
		d = -d
	}

	us := int64(d / time.Microsecond)
	const usPerDay = int64(24 * time.Hour / time.Microsecond)
	days, rest := us/usPerDay, us%usPerDay

	if days > 0 {
		unit := "days"
		if days == 1 {
			unit = "day"
		}
		fmt.Fprintf(&b, "%d %s, ", days, unit)
	}

	seconds, micros := rest/1_000_000, rest%1_000_000
	fmt.Fprintf(&b, "%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
	if micros != 0 {
		fmt.Fprintf(&b, ".%06d", micros)
	}
	return b.String()
}

// ParseDuration parses the text produced by FormatDuration.
func ParseDuration(s string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: duration [%s] does not match [N days, H:MM:SS[.ffffff]]", ErrFormat, s)
	}

	var parts [4]int64
	for i, group := range m[1:5] {
		if group == "" {
			continue
		}
		v, err := strconv.ParseInt(group, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: duration [%s]: %v", ErrFormat, s, err)
		}
		parts[i] = v
	}
	days, hours, minutes, seconds := parts[0], parts[1], parts[2], parts[3]
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("%w: duration [%s] is out of range", ErrFormat, s)
	}

	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second

	if frac := m[5]; frac != "" {
		frac += strings.Repeat("0", 6-len(frac))
		us, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: duration [%s]: %v", ErrFormat, s, err)
		}
		d += time.Duration(us) * time.Microsecond
	}
	return d, nil
}

// FormatHoursMinutes renders d as H:MM with days folded into hours.
func FormatHoursMinutes(d time.Duration) string {
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, error) {
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected boolean value [%s]", ErrFormat, s)
	}
}
