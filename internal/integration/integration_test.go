package integration

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xvierd/speaking-eye/internal/adapters/filestore"
	"github.com/xvierd/speaking-eye/internal/adapters/notification"
	"github.com/xvierd/speaking-eye/internal/adapters/storage"
	"github.com/xvierd/speaking-eye/internal/config"
	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
	"github.com/xvierd/speaking-eye/internal/services"
)

type env struct {
	files   *filestore.FilesProvider
	reader  *filestore.Reader
	writer  *filestore.Writer
	matcher *domain.ApplicationInfoMatcher
	store   ports.Storage
	index   *services.IndexService
}

// setupEnv wires the raw data files, the sqlite index and the matcher
// the same way the track command does.
func setupEnv(t *testing.T) *env {
	t.Helper()

	files, err := filestore.NewFilesProvider(t.TempDir(), "{date}_speaking_eye_raw_data.tsv")
	if err != nil {
		t.Fatalf("failed to create files provider: %v", err)
	}

	terminal, _ := domain.NewApplicationInfo("Terminal", "term", "", false)
	browser, _ := domain.NewApplicationInfo("Browser", "browser", "", false)
	fun, _ := domain.NewApplicationInfo("Fun", "game", "", true)
	matcher := domain.NewApplicationInfoMatcher(
		[]*domain.ApplicationInfo{terminal, browser, domain.BreakTimeApplicationInfo()},
		[]*domain.ApplicationInfo{fun},
	)

	store, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reader := filestore.NewReader(files, matcher, nil)
	writer := filestore.NewWriter(files, nil)
	index := services.NewIndexService(reader, store.Activities(), matcher, nil)
	writer.AddMirror(index)

	return &env{files: files, reader: reader, writer: writer, matcher: matcher, store: store, index: index}
}

func at(day, hour, min int) time.Time {
	return time.Date(2024, time.March, day, hour, min, 0, 0, time.Local)
}

// TestTrackingAcrossMidnight tracks a session that crosses midnight and
// checks the raw files, the index and the reports agree.
func TestTrackingAcrossMidnight(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	notifier := notification.New(&config.NotificationConfig{Enabled: false})

	tracker := services.NewTrackerService(e.writer, e.reader, e.matcher, notifier, services.DefaultLimits(), nil)
	if err := tracker.Start(ctx, at(11, 22, 0), true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	steps := []struct {
		wm, name string
		at       time.Time
	}{
		{"term", "vim", at(11, 22, 0)},
		{"game", "level 1", at(11, 23, 30)},
		{"browser", "news", at(12, 0, 30)},
	}
	for _, s := range steps {
		if err := tracker.OnWindowChanged(ctx, s.wm, s.name, s.at); err != nil {
			t.Fatalf("OnWindowChanged(%s) error = %v", s.wm, err)
		}
	}

	if tracker.IsWorkTime() {
		t.Error("work time should switch off when a new day starts")
	}

	summary, err := tracker.Stop(ctx, at(12, 1, 0))
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if summary.Worked != 3*time.Hour {
		t.Errorf("Worked = %v, want 3h", summary.Worked)
	}

	day11, day12 := domain.DateOf(at(11, 0, 0)), domain.DateOf(at(12, 0, 0))

	t.Run("raw files", func(t *testing.T) {
		first, err := e.reader.Read(ctx, day11)
		if err != nil {
			t.Fatalf("Read(day11) error = %v", err)
		}
		if len(first) != 2 {
			t.Fatalf("day 11 has %d activities, want 2", len(first))
		}
		end, _ := first[1].End()
		if end.Day() != 11 || end.Hour() != 23 || end.Minute() != 59 {
			t.Errorf("last segment of day 11 ends at %v, want just before midnight", end)
		}

		second, err := e.reader.Read(ctx, day12)
		if err != nil {
			t.Fatalf("Read(day12) error = %v", err)
		}
		if len(second) != 2 {
			t.Fatalf("day 12 has %d activities, want 2", len(second))
		}
		if !second[0].IsWorkTime || second[1].IsWorkTime {
			t.Errorf("day 12 work flags = %t/%t, want true/false", second[0].IsWorkTime, second[1].IsWorkTime)
		}

		days, _ := e.reader.Days(ctx)
		if len(days) != 2 {
			t.Errorf("Days() = %v, want 2 days", days)
		}
	})

	t.Run("index mirrors the raw files", func(t *testing.T) {
		records, err := e.store.Activities().FindRange(ctx, day11, day12)
		if err != nil {
			t.Fatalf("FindRange() error = %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("index has %d records, want 4", len(records))
		}

		result, err := e.index.Reindex(ctx, domain.Date{}, domain.Date{})
		if err != nil {
			t.Fatalf("Reindex() error = %v", err)
		}
		if result.Added != 0 || result.Skipped != 4 {
			t.Errorf("Reindex() = %+v, want everything already present", result)
		}
	})

	t.Run("replayed and indexed reports agree", func(t *testing.T) {
		replay := services.NewReportService(e.reader, e.matcher)
		indexed := services.NewReportService(e.reader, e.matcher)
		indexed.SetRepository(e.store.Activities())

		a, err := replay.Report(ctx, day11, day12)
		if err != nil {
			t.Fatalf("replay Report() error = %v", err)
		}
		b, err := indexed.Report(ctx, day11, day12)
		if err != nil {
			t.Fatalf("indexed Report() error = %v", err)
		}

		if a.TotalWorkTime != b.TotalWorkTime || a.TotalOffTime != b.TotalOffTime {
			t.Errorf("totals differ: replay %v/%v, index %v/%v",
				a.TotalWorkTime, a.TotalOffTime, b.TotalWorkTime, b.TotalOffTime)
		}
		if a.TotalWorkTime != 150*time.Minute-time.Microsecond {
			t.Errorf("TotalWorkTime = %v, want 2h30m minus the midnight microsecond", a.TotalWorkTime)
		}
		if a.TotalOffTime != 30*time.Minute {
			t.Errorf("TotalOffTime = %v, want 30m", a.TotalOffTime)
		}
	})

	t.Run("day report", func(t *testing.T) {
		reports := services.NewReportService(e.reader, e.matcher)
		report, err := reports.DayReport(ctx, day11)
		if err != nil {
			t.Fatalf("DayReport() error = %v", err)
		}
		if len(report.Rows) == 0 || report.Rows[0].Title != "Terminal" {
			t.Fatalf("Rows = %+v, want Terminal first", report.Rows)
		}
		if report.DistractingWorkTime != 30*time.Minute-time.Microsecond {
			t.Errorf("DistractingWorkTime = %v", report.DistractingWorkTime)
		}
	})

	t.Run("export", func(t *testing.T) {
		reports := services.NewReportService(e.reader, e.matcher)
		var buf bytes.Buffer
		if err := reports.Export(ctx, &buf, day11, day12, services.ExportCSV); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 5 {
			t.Errorf("export has %d lines, want header plus 4 rows", len(lines))
		}
	})
}

// TestRestartKeepsTodaysStats checks that a second tracker run on the
// same day starts from the statistics already on disk.
func TestRestartKeepsTodaysStats(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	notifier := notification.New(&config.NotificationConfig{Enabled: false})

	first := services.NewTrackerService(e.writer, e.reader, e.matcher, notifier, services.DefaultLimits(), nil)
	if err := first.Start(ctx, at(11, 9, 0), true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := first.OnWindowChanged(ctx, "term", "vim", at(11, 9, 0)); err != nil {
		t.Fatalf("OnWindowChanged() error = %v", err)
	}
	if _, err := first.Stop(ctx, at(11, 10, 0)); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	writer := filestore.NewWriter(e.files, nil)
	second := services.NewTrackerService(writer, e.reader, e.matcher, notifier, services.DefaultLimits(), nil)
	if err := second.Start(ctx, at(11, 11, 0), true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := second.OnWindowChanged(ctx, "term", "make", at(11, 11, 0)); err != nil {
		t.Fatalf("OnWindowChanged() error = %v", err)
	}

	snapshot := second.Snapshot(at(11, 11, 30))
	if snapshot.TotalWorkTime != 90*time.Minute {
		t.Errorf("TotalWorkTime = %v, want 1h30m", snapshot.TotalWorkTime)
	}

	if _, err := second.Stop(ctx, at(11, 12, 0)); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	activities, _ := e.reader.Read(ctx, domain.DateOf(at(11, 0, 0)))
	if len(activities) != 2 {
		t.Errorf("day has %d activities, want 2", len(activities))
	}
}
