package cmd

import (
	"fmt"
	"time"

	"github.com/xvierd/speaking-eye/internal/domain"
)

// periodRange resolves a named period ending today. "all" starts at the
// first day with data.
func periodRange(period string, now time.Time) (from, to domain.Date, err error) {
	today := domain.DateOf(now)

	switch period {
	case "day", "today":
		return today, today, nil
	case "week":
		// Monday start
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return today.AddDays(-(weekday - 1)), today, nil
	case "month":
		return domain.Date{Year: today.Year, Month: today.Month, Day: 1}, today, nil
	case "all":
		first, err := app.files.FirstDay(today)
		if err != nil {
			return domain.Date{}, domain.Date{}, err
		}
		return first, today, nil
	}
	return domain.Date{}, domain.Date{}, fmt.Errorf("%w: unknown period %q (use day, week, month or all)", domain.ErrValidation, period)
}

// parseDayArg parses an optional YYYY-MM-DD argument, defaulting to today.
// "yesterday" is accepted as well.
func parseDayArg(args []string, now time.Time) (domain.Date, error) {
	if len(args) == 0 || args[0] == "today" {
		return domain.DateOf(now), nil
	}
	if args[0] == "yesterday" {
		return domain.DateOf(now).AddDays(-1), nil
	}
	return domain.ParseDate(args[0])
}
