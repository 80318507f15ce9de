package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xvierd/speaking-eye/internal/adapters/storage"
	"github.com/xvierd/speaking-eye/internal/domain"
)

func dayOf(d int) domain.Date {
	return domain.Date{Year: 2024, Month: time.March, Day: d}
}

func atDay(d, h, m int) time.Time {
	return time.Date(2024, time.March, d, h, m, 0, 0, time.Local)
}

func seededLog(t *testing.T) *memLog {
	log := newMemLog()
	log.add(t, "term", "vim", atDay(11, 9, 0), atDay(11, 10, 0), true)
	log.add(t, "game", "level 1", atDay(11, 10, 0), atDay(11, 10, 30), true)
	log.add(t, "browser", "news", atDay(11, 10, 30), atDay(11, 11, 0), false)
	log.add(t, "term", "make", atDay(12, 9, 0), atDay(12, 9, 45), true)
	return log
}

func TestReportService_DayReport(t *testing.T) {
	service := NewReportService(seededLog(t), testMatcher(t))
	ctx := context.Background()

	report, err := service.DayReport(ctx, dayOf(11))
	if err != nil {
		t.Fatalf("DayReport() error = %v", err)
	}

	if report.Label() != "2024-03-11" {
		t.Errorf("Label() = %q", report.Label())
	}
	if report.TotalWorkTime != 90*time.Minute {
		t.Errorf("TotalWorkTime = %v, want 1h30m", report.TotalWorkTime)
	}
	if report.TotalOffTime != 30*time.Minute {
		t.Errorf("TotalOffTime = %v, want 30m", report.TotalOffTime)
	}
	if report.DistractingWorkTime != 30*time.Minute {
		t.Errorf("DistractingWorkTime = %v, want 30m", report.DistractingWorkTime)
	}

	wantOrder := []string{"Terminal", "Fun", domain.TitleOthers, domain.TitleBreakTime}
	if len(report.Rows) != len(wantOrder) {
		t.Fatalf("rows = %+v, want %d rows", report.Rows, len(wantOrder))
	}
	for i, title := range wantOrder {
		if report.Rows[i].Title != title {
			t.Errorf("row %d = %q, want %q", i, report.Rows[i].Title, title)
		}
	}
	if !report.Rows[1].IsDistracting || report.Rows[0].IsDistracting {
		t.Error("only Fun should be flagged distracting")
	}
}

func TestReportService_Report(t *testing.T) {
	ctx := context.Background()

	t.Run("replays files", func(t *testing.T) {
		service := NewReportService(seededLog(t), testMatcher(t))
		report, err := service.Report(ctx, dayOf(11), dayOf(12))
		if err != nil {
			t.Fatalf("Report() error = %v", err)
		}
		if report.Rows[0].Title != "Terminal" || report.Rows[0].WorkTime != 105*time.Minute {
			t.Errorf("first row = %+v, want Terminal 1h45m", report.Rows[0])
		}
		if report.TotalWorkTime != 135*time.Minute {
			t.Errorf("TotalWorkTime = %v, want 2h15m", report.TotalWorkTime)
		}
	})

	t.Run("uses the index", func(t *testing.T) {
		log := seededLog(t)
		store, err := storage.NewMemory()
		if err != nil {
			t.Fatalf("NewMemory() error = %v", err)
		}
		defer store.Close()

		matcher := testMatcher(t)
		if _, err := NewIndexService(log, store.Activities(), matcher, nil).Reindex(ctx, domain.Date{}, domain.Date{}); err != nil {
			t.Fatalf("Reindex() error = %v", err)
		}

		service := NewReportService(log, matcher)
		service.SetRepository(store.Activities())
		report, err := service.Report(ctx, dayOf(11), dayOf(12))
		if err != nil {
			t.Fatalf("Report() error = %v", err)
		}
		if report.TotalWorkTime != 135*time.Minute {
			t.Errorf("TotalWorkTime = %v, want 2h15m", report.TotalWorkTime)
		}
		if report.DistractingWorkTime != 30*time.Minute {
			t.Errorf("DistractingWorkTime = %v, want 30m", report.DistractingWorkTime)
		}

		totals, err := service.DailyTotals(ctx, dayOf(11), dayOf(12))
		if err != nil {
			t.Fatalf("DailyTotals() error = %v", err)
		}
		if len(totals) != 2 || totals[1].WorkTime != 45*time.Minute {
			t.Errorf("DailyTotals() = %+v", totals)
		}
	})

	t.Run("replays days missing from the index", func(t *testing.T) {
		log := seededLog(t)
		store, err := storage.NewMemory()
		if err != nil {
			t.Fatalf("NewMemory() error = %v", err)
		}
		defer store.Close()

		matcher := testMatcher(t)
		if _, err := NewIndexService(log, store.Activities(), matcher, nil).Reindex(ctx, dayOf(11), dayOf(11)); err != nil {
			t.Fatalf("Reindex() error = %v", err)
		}

		service := NewReportService(log, matcher)
		service.SetRepository(store.Activities())
		report, err := service.Report(ctx, dayOf(11), dayOf(12))
		if err != nil {
			t.Fatalf("Report() error = %v", err)
		}

		replayed, err := NewReportService(log, matcher).Report(ctx, dayOf(11), dayOf(12))
		if err != nil {
			t.Fatalf("Report() error = %v", err)
		}
		if report.TotalWorkTime != replayed.TotalWorkTime || report.TotalOffTime != replayed.TotalOffTime {
			t.Errorf("indexed totals %v/%v, replayed %v/%v",
				report.TotalWorkTime, report.TotalOffTime, replayed.TotalWorkTime, replayed.TotalOffTime)
		}
		if report.Rows[0].Title != "Terminal" || report.Rows[0].WorkTime != 105*time.Minute {
			t.Errorf("first row = %+v, want Terminal 1h45m", report.Rows[0])
		}

		titles := make(map[string]bool)
		for _, row := range report.Rows {
			titles[row.Title] = true
		}
		if !titles[domain.TitleBreakTime] {
			t.Errorf("rows = %+v, want the configured %q row", report.Rows, domain.TitleBreakTime)
		}

		totals, err := service.DailyTotals(ctx, dayOf(11), dayOf(12))
		if err != nil {
			t.Fatalf("DailyTotals() error = %v", err)
		}
		if len(totals) != 2 || totals[1].WorkTime != 45*time.Minute {
			t.Errorf("DailyTotals() = %+v, want day 12 replayed", totals)
		}
	})

	t.Run("reversed range", func(t *testing.T) {
		service := NewReportService(seededLog(t), testMatcher(t))
		_, err := service.Report(ctx, dayOf(12), dayOf(11))
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Report() error = %v, want ErrValidation", err)
		}
	})
}

func TestReportService_GroupWorkTime(t *testing.T) {
	service := NewReportService(seededLog(t), testMatcher(t))
	ctx := context.Background()

	total, err := service.GroupWorkTime(ctx, dayOf(11), []string{"Terminal", "Fun"})
	if err != nil {
		t.Fatalf("GroupWorkTime() error = %v", err)
	}
	if total != 90*time.Minute {
		t.Errorf("GroupWorkTime() = %v, want 1h30m", total)
	}

	_, err = service.GroupWorkTime(ctx, dayOf(11), []string{"Terminal", "Chess"})
	var missing *domain.MissingTitleError
	if !errors.As(err, &missing) || missing.Title != "Chess" {
		t.Errorf("GroupWorkTime() error = %v, want missing Chess", err)
	}
	if !errors.Is(err, domain.ErrLookup) {
		t.Errorf("GroupWorkTime() error = %v, want ErrLookup", err)
	}
}

func TestReportService_Export(t *testing.T) {
	service := NewReportService(seededLog(t), testMatcher(t))
	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := service.Export(ctx, &buf, dayOf(11), dayOf(12), ExportCSV); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 5 {
			t.Fatalf("csv lines = %d, want 5:\n%s", len(lines), buf.String())
		}
		if lines[1] != "2024-03-11,2024-03-11 09:00:00,2024-03-11 10:00:00,1:00:00,term,vim,Terminal,true,false" {
			t.Errorf("first row = %q", lines[1])
		}
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		if err := service.Export(ctx, &buf, dayOf(12), dayOf(12), ExportMarkdown); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		out := buf.String()
		if !strings.HasPrefix(out, "| day | start |") {
			t.Errorf("markdown header missing:\n%s", out)
		}
		if !strings.Contains(out, "| 2024-03-12 | 2024-03-12 09:00:00 | 2024-03-12 09:45:00 | 0:45:00 | term | make | Terminal | true | false |") {
			t.Errorf("markdown row missing:\n%s", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := ParseExportFormat("xml"); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("ParseExportFormat() error = %v, want ErrValidation", err)
		}
	})
}
