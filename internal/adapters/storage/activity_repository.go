package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// activityRepository implements ports.ActivityRepository using SQLite.
type activityRepository struct {
	db *sql.DB
}

// newActivityRepository creates a new activity repository.
func newActivityRepository(db *sql.DB) ports.ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `
	id, day, wm_class, window_name, started_at, ended_at,
	duration_us, is_work_time, title, is_distracting`

// Save persists a record. A record already indexed for the same day,
// start, wm_class and window name is skipped.
func (r *activityRepository) Save(ctx context.Context, record *domain.ActivityRecord) (bool, error) {
	query := `INSERT INTO activities (` + activityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Day.String(),
		record.WmClass,
		record.WindowName,
		record.Start.UnixMicro(),
		record.End.UnixMicro(),
		record.Duration.Microseconds(),
		record.IsWorkTime,
		record.Title,
		record.IsDistracting,
	)
	if isUniqueConstraintError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to save activity: %w", err)
	}

	return true, nil
}

// FindByDay retrieves the records of one day ordered by start time.
func (r *activityRepository) FindByDay(ctx context.Context, day domain.Date) ([]*domain.ActivityRecord, error) {
	return r.FindRange(ctx, day, day)
}

// FindRange retrieves the records of from..to inclusive ordered by start time.
func (r *activityRepository) FindRange(ctx context.Context, from, to domain.Date) ([]*domain.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + `
		FROM activities
		WHERE day BETWEEN ? AND ?
		ORDER BY started_at ASC`

	rows, err := r.db.QueryContext(ctx, query, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var records []*domain.ActivityRecord
	for rows.Next() {
		record, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return records, nil
}

// DailyTotals returns per-day work and off time for from..to inclusive.
func (r *activityRepository) DailyTotals(ctx context.Context, from, to domain.Date) ([]domain.DayTotal, error) {
	query := `
		SELECT
			day,
			COALESCE(SUM(CASE WHEN is_work_time THEN duration_us ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_work_time THEN 0 ELSE duration_us END), 0)
		FROM activities
		WHERE day BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.DayTotal
	for rows.Next() {
		var rawDay string
		var workUs, offUs int64
		if err := rows.Scan(&rawDay, &workUs, &offUs); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		day, err := domain.ParseDate(rawDay)
		if err != nil {
			return nil, fmt.Errorf("failed to parse indexed day: %w", err)
		}
		totals = append(totals, domain.DayTotal{
			Day:      day,
			WorkTime: time.Duration(workUs) * time.Microsecond,
			OffTime:  time.Duration(offUs) * time.Microsecond,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}

	return totals, nil
}

// TitleTotals returns per-title totals for from..to inclusive,
// ordered by work time then off time descending.
func (r *activityRepository) TitleTotals(ctx context.Context, from, to domain.Date) ([]domain.TitleReport, error) {
	query := `
		SELECT
			title,
			COALESCE(SUM(CASE WHEN is_work_time THEN duration_us ELSE 0 END), 0) AS work_us,
			COALESCE(SUM(CASE WHEN is_work_time THEN 0 ELSE duration_us END), 0) AS off_us,
			MAX(is_distracting)
		FROM activities
		WHERE day BETWEEN ? AND ?
		GROUP BY title
		ORDER BY work_us DESC, off_us DESC, title ASC
	`

	rows, err := r.db.QueryContext(ctx, query, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query title totals: %w", err)
	}
	defer rows.Close()

	var reports []domain.TitleReport
	for rows.Next() {
		var report domain.TitleReport
		var workUs, offUs int64
		if err := rows.Scan(&report.Title, &workUs, &offUs, &report.IsDistracting); err != nil {
			return nil, fmt.Errorf("failed to scan title total: %w", err)
		}
		report.WorkTime = time.Duration(workUs) * time.Microsecond
		report.OffTime = time.Duration(offUs) * time.Microsecond
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating title totals: %w", err)
	}

	return reports, nil
}

// SearchTitles returns indexed titles fuzzy-matching query, best match first.
// An empty query returns every title alphabetically.
func (r *activityRepository) SearchTitles(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT title FROM activities ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating titles: %w", err)
	}

	if query == "" {
		return titles, nil
	}

	matches := fuzzy.Find(query, titles)
	result := make([]string, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.Str)
	}
	return result, nil
}

// DeleteDay removes the records of one day.
func (r *activityRepository) DeleteDay(ctx context.Context, day domain.Date) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE day = ?`, day.String())
	if err != nil {
		return fmt.Errorf("failed to delete day %s: %w", day, err)
	}
	return nil
}

func scanActivity(rows *sql.Rows) (*domain.ActivityRecord, error) {
	var record domain.ActivityRecord
	var rawDay string
	var startUs, endUs, durationUs int64

	err := rows.Scan(
		&record.ID,
		&rawDay,
		&record.WmClass,
		&record.WindowName,
		&startUs,
		&endUs,
		&durationUs,
		&record.IsWorkTime,
		&record.Title,
		&record.IsDistracting,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}

	day, err := domain.ParseDate(rawDay)
	if err != nil {
		return nil, fmt.Errorf("failed to parse indexed day: %w", err)
	}
	record.Day = day
	record.Start = time.UnixMicro(startUs).In(time.Local)
	record.End = time.UnixMicro(endUs).In(time.Local)
	record.Duration = time.Duration(durationUs) * time.Microsecond

	return &record, nil
}
