package services

import (
	"context"
	"fmt"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// IndexResult reports what a re-index did.
type IndexResult struct {
	Days    int
	Added   int
	Skipped int
}

// IndexService keeps the sqlite activity index in sync with the raw data files.
type IndexService struct {
	source  ports.ActivitySource
	repo    ports.ActivityRepository
	matcher *domain.ApplicationInfoMatcher
	logger  *logging.Logger
}

var _ ports.SegmentMirror = (*IndexService)(nil)

// NewIndexService creates a new index service.
func NewIndexService(source ports.ActivitySource, repo ports.ActivityRepository, matcher *domain.ApplicationInfoMatcher, logger *logging.Logger) *IndexService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &IndexService{source: source, repo: repo, matcher: matcher, logger: logger}
}

// Mirror implements ports.SegmentMirror so the writer indexes segments as
// they are written.
func (s *IndexService) Mirror(ctx context.Context, day domain.Date, activity *domain.Activity) error {
	if s.matcher != nil && activity.ApplicationInfo() == nil {
		s.matcher.SetIfMatched(activity)
	}
	record, err := domain.NewActivityRecord(day, activity)
	if err != nil {
		return err
	}
	if _, err := s.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to index activity: %w", err)
	}
	return nil
}

// Reindex replays the day files from..to into the index. A zero from
// starts at the first day with data. Records already present are skipped.
func (s *IndexService) Reindex(ctx context.Context, from, to domain.Date) (*IndexResult, error) {
	days, err := s.source.Days(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}

	result := &IndexResult{}
	for _, day := range days {
		if !from.IsZero() && day.Before(from) {
			continue
		}
		if !to.IsZero() && to.Before(day) {
			continue
		}

		activities, err := s.source.Read(ctx, day)
		if err != nil {
			return result, fmt.Errorf("failed to read %s: %w", day, err)
		}

		for _, a := range activities {
			if s.matcher != nil {
				s.matcher.SetIfMatched(a)
			}
			record, err := domain.NewActivityRecord(day, a)
			if err != nil {
				return result, err
			}
			added, err := s.repo.Save(ctx, record)
			if err != nil {
				return result, fmt.Errorf("failed to index %s: %w", day, err)
			}
			if added {
				result.Added++
			} else {
				result.Skipped++
			}
		}
		result.Days++
		s.logger.Debugf("Indexed %s: %d activities", day, len(activities))
	}
	return result, nil
}

// Rebuild drops the indexed records of every day with data in from..to
// and indexes the files again.
func (s *IndexService) Rebuild(ctx context.Context, from, to domain.Date) (*IndexResult, error) {
	days, err := s.source.Days(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	for _, day := range days {
		if (!from.IsZero() && day.Before(from)) || (!to.IsZero() && to.Before(day)) {
			continue
		}
		if err := s.repo.DeleteDay(ctx, day); err != nil {
			return nil, err
		}
	}
	return s.Reindex(ctx, from, to)
}
