package filestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// Reader replays raw data files. When a matcher is set every
// activity is classified before it is returned.
type Reader struct {
	files   *FilesProvider
	matcher *domain.ApplicationInfoMatcher
	logger  *logging.Logger
}

// Ensure Reader implements ports.ActivitySource.
var _ ports.ActivitySource = (*Reader)(nil)

// NewReader creates a reader. matcher may be nil.
func NewReader(files *FilesProvider, matcher *domain.ApplicationInfoMatcher, logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reader{files: files, matcher: matcher, logger: logger}
}

// Read returns the activities of day.
func (r *Reader) Read(ctx context.Context, day domain.Date) ([]*domain.Activity, error) {
	return r.ReadFile(ctx, r.files.PathFor(day))
}

// Days lists the days that have a raw data file.
func (r *Reader) Days(ctx context.Context) ([]domain.Date, error) {
	return r.files.Days()
}

// ReadFile parses every line of path in order. A missing file yields an
// empty slice; any malformed line fails the whole read.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]*domain.Activity, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Debugf("File with raw data [%s] does not exist for this day", path)
		return []*domain.Activity{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open raw data file [%s]: %w", path, err)
	}
	defer file.Close()

	activities := []*domain.Activity{}
	buf := bufio.NewReader(file)
	for lineNumber := 1; ; lineNumber++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := buf.ReadString('\n')
		if line != "" {
			activity, parseErr := domain.ParseActivity(line)
			if parseErr != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNumber, parseErr)
			}
			if r.matcher != nil {
				r.matcher.SetIfMatched(activity)
			}
			activities = append(activities, activity)
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read raw data file [%s]: %w", path, err)
		}
	}

	return activities, nil
}
