package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportCSV      ExportFormat = "csv"
	ExportMarkdown ExportFormat = "md"
)

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(s)) {
	case ExportCSV:
		return ExportCSV, nil
	case ExportMarkdown, "markdown":
		return ExportMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", domain.ErrValidation, s)
}

// ReportService builds reports from the raw data files, or from the
// sqlite index when one is attached.
type ReportService struct {
	source  ports.ActivitySource
	matcher *domain.ApplicationInfoMatcher
	repo    ports.ActivityRepository
}

var _ ports.ReportProvider = (*ReportService)(nil)

// NewReportService creates a new report service.
func NewReportService(source ports.ActivitySource, matcher *domain.ApplicationInfoMatcher) *ReportService {
	if matcher == nil {
		matcher = domain.NewApplicationInfoMatcher(nil, nil)
	}
	return &ReportService{source: source, matcher: matcher}
}

// SetRepository enables index backed range reports.
func (s *ReportService) SetRepository(repo ports.ActivityRepository) {
	s.repo = repo
}

// Activities implements ports.ReportProvider.
func (s *ReportService) Activities(ctx context.Context, day domain.Date) ([]*domain.Activity, error) {
	activities, err := s.source.Read(ctx, day)
	if err != nil {
		return nil, err
	}
	for _, a := range activities {
		s.matcher.SetIfMatched(a)
	}
	return activities, nil
}

// Days implements ports.ReportProvider.
func (s *ReportService) Days(ctx context.Context) ([]domain.Date, error) {
	return s.source.Days(ctx)
}

// GroupWorkTime implements ports.ReportProvider.
func (s *ReportService) GroupWorkTime(ctx context.Context, day domain.Date, titles []string) (time.Duration, error) {
	holder, err := s.holder(ctx, day)
	if err != nil {
		return 0, err
	}
	return holder.GroupWorkTime(titles)
}

// DayReport summarizes one day from its raw data file.
func (s *ReportService) DayReport(ctx context.Context, day domain.Date) (*domain.DayReport, error) {
	holder, err := s.holder(ctx, day)
	if err != nil {
		return nil, err
	}

	distracting := s.distractingTitles()
	report := &domain.DayReport{
		From:          day,
		To:            day,
		TotalWorkTime: holder.TotalWorkTime,
		TotalOffTime:  holder.TotalOffTime,
	}
	for _, stat := range holder.Sorted() {
		report.Rows = append(report.Rows, domain.TitleReport{
			Title:         stat.Title,
			WorkTime:      stat.WorkTime,
			OffTime:       stat.OffTime,
			IsDistracting: distracting[stat.Title],
		})
	}

	titles := make([]string, 0, len(distracting))
	for _, info := range s.matcher.Distracting() {
		titles = append(titles, info.Title)
	}
	report.DistractingWorkTime, err = holder.GroupWorkTime(titles)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Report implements ports.ReportProvider. Single days and reports without
// an index replay the raw data files. With an index, days that have a raw
// data file but no indexed records are replayed and merged in.
func (s *ReportService) Report(ctx context.Context, from, to domain.Date) (*domain.DayReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: report range %s - %s is reversed", domain.ErrValidation, from, to)
	}
	if from == to {
		return s.DayReport(ctx, from)
	}
	if s.repo != nil {
		return s.indexedReport(ctx, from, to)
	}

	days, err := domain.DatesBetween(from, to)
	if err != nil {
		return nil, err
	}

	merger := newRowMerger(from, to)
	for _, day := range days {
		daily, err := s.DayReport(ctx, day)
		if err != nil {
			return nil, err
		}
		merger.add(daily)
	}
	return merger.result(), nil
}

func (s *ReportService) indexedReport(ctx context.Context, from, to domain.Date) (*domain.DayReport, error) {
	rows, err := s.repo.TitleTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load title totals: %w", err)
	}

	merger := newRowMerger(from, to)
	for _, info := range s.matcher.Detailed() {
		merger.addRow(domain.TitleReport{Title: info.Title})
	}
	for _, info := range s.matcher.Distracting() {
		merger.addRow(domain.TitleReport{Title: info.Title, IsDistracting: true})
	}
	for _, row := range rows {
		merger.addRow(row)
		merger.report.TotalWorkTime += row.WorkTime
		merger.report.TotalOffTime += row.OffTime
		if row.IsDistracting {
			merger.report.DistractingWorkTime += row.WorkTime
		}
	}

	missing, err := s.unindexedDays(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, day := range missing {
		daily, err := s.DayReport(ctx, day)
		if err != nil {
			return nil, err
		}
		merger.add(daily)
	}
	return merger.result(), nil
}

// unindexedDays lists the days of from..to that have a raw data file but
// no records in the index.
func (s *ReportService) unindexedDays(ctx context.Context, from, to domain.Date) ([]domain.Date, error) {
	indexed, err := s.indexedTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	days, err := s.source.Days(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}

	var missing []domain.Date
	for _, day := range days {
		if day.Before(from) || to.Before(day) {
			continue
		}
		if _, ok := indexed[day]; !ok {
			missing = append(missing, day)
		}
	}
	return missing, nil
}

func (s *ReportService) indexedTotals(ctx context.Context, from, to domain.Date) (map[domain.Date]domain.DayTotal, error) {
	totals, err := s.repo.DailyTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily totals: %w", err)
	}
	byDay := make(map[domain.Date]domain.DayTotal, len(totals))
	for _, total := range totals {
		byDay[total.Day] = total
	}
	return byDay, nil
}

// DailyTotals returns per-day work and off time for every day of from..to.
// Indexed days come from the index, the others are replayed.
func (s *ReportService) DailyTotals(ctx context.Context, from, to domain.Date) ([]domain.DayTotal, error) {
	days, err := domain.DatesBetween(from, to)
	if err != nil {
		return nil, err
	}

	var indexed map[domain.Date]domain.DayTotal
	if s.repo != nil {
		if indexed, err = s.indexedTotals(ctx, from, to); err != nil {
			return nil, err
		}
	}

	totals := make([]domain.DayTotal, 0, len(days))
	for _, day := range days {
		if total, ok := indexed[day]; ok {
			totals = append(totals, total)
			continue
		}
		holder, err := s.holder(ctx, day)
		if err != nil {
			return nil, err
		}
		totals = append(totals, domain.DayTotal{Day: day, WorkTime: holder.TotalWorkTime, OffTime: holder.TotalOffTime})
	}
	return totals, nil
}

// Export writes every activity of from..to to w.
func (s *ReportService) Export(ctx context.Context, w io.Writer, from, to domain.Date, format ExportFormat) error {
	days, err := domain.DatesBetween(from, to)
	if err != nil {
		return err
	}

	var records []*domain.ActivityRecord
	for _, day := range days {
		activities, err := s.Activities(ctx, day)
		if err != nil {
			return err
		}
		for _, a := range activities {
			record, err := domain.NewActivityRecord(day, a)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
	}

	switch format {
	case ExportCSV:
		return exportCSV(w, records)
	case ExportMarkdown:
		return exportMarkdown(w, records)
	}
	return fmt.Errorf("%w: unknown export format %q", domain.ErrValidation, format)
}

var exportHeader = []string{"day", "start", "end", "duration", "wm_class", "window_name", "title", "work_time", "distracting"}

func exportRow(r *domain.ActivityRecord) []string {
	return []string{
		r.Day.String(),
		domain.FormatTimestamp(r.Start),
		domain.FormatTimestamp(r.End),
		domain.FormatDuration(r.Duration),
		r.WmClass,
		r.WindowName,
		r.Title,
		fmt.Sprint(r.IsWorkTime),
		fmt.Sprint(r.IsDistracting),
	}
}

func exportCSV(w io.Writer, records []*domain.ActivityRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportMarkdown(w io.Writer, records []*domain.ActivityRecord) error {
	var b strings.Builder
	b.WriteString("| " + strings.Join(exportHeader, " | ") + " |\n")
	b.WriteString(strings.Repeat("|---", len(exportHeader)) + "|\n")
	for _, r := range records {
		cells := exportRow(r)
		for i, cell := range cells {
			cells[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// holder replays one day into a fresh stat holder with every configured
// title present.
func (s *ReportService) holder(ctx context.Context, day domain.Date) (*domain.StatHolder, error) {
	activities, err := s.Activities(ctx, day)
	if err != nil {
		return nil, err
	}
	holder, err := domain.NewStatHolder(activities)
	if err != nil {
		return nil, err
	}
	holder.InitializeStats(s.matcher.Detailed())
	holder.InitializeStats(s.matcher.Distracting())
	return holder, nil
}

func (s *ReportService) distractingTitles() map[string]bool {
	titles := make(map[string]bool)
	for _, info := range s.matcher.Distracting() {
		titles[info.Title] = true
	}
	return titles
}

// rowMerger sums the rows and totals of several reports by title.
type rowMerger struct {
	report *domain.DayReport
	rows   map[string]*domain.TitleReport
	order  []string
}

func newRowMerger(from, to domain.Date) *rowMerger {
	return &rowMerger{
		report: &domain.DayReport{From: from, To: to},
		rows:   make(map[string]*domain.TitleReport),
	}
}

func (m *rowMerger) addRow(row domain.TitleReport) {
	acc, ok := m.rows[row.Title]
	if !ok {
		acc = &domain.TitleReport{Title: row.Title}
		m.rows[row.Title] = acc
		m.order = append(m.order, row.Title)
	}
	acc.WorkTime += row.WorkTime
	acc.OffTime += row.OffTime
	acc.IsDistracting = acc.IsDistracting || row.IsDistracting
}

func (m *rowMerger) add(daily *domain.DayReport) {
	m.report.TotalWorkTime += daily.TotalWorkTime
	m.report.TotalOffTime += daily.TotalOffTime
	m.report.DistractingWorkTime += daily.DistractingWorkTime
	for _, row := range daily.Rows {
		m.addRow(row)
	}
}

func (m *rowMerger) result() *domain.DayReport {
	m.report.Rows = make([]domain.TitleReport, 0, len(m.order))
	for _, title := range m.order {
		m.report.Rows = append(m.report.Rows, *m.rows[title])
	}
	sortRows(m.report.Rows)
	return m.report
}

// sortRows orders rows by work time, then off time, descending.
func sortRows(rows []domain.TitleReport) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].WorkTime != rows[j].WorkTime {
			return rows[i].WorkTime > rows[j].WorkTime
		}
		return rows[i].OffTime > rows[j].OffTime
	})
}
