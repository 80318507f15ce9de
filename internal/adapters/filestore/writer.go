package filestore

import (
	"context"
	"fmt"
	"os"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
)

const fileMode = 0o644

// Writer appends finished activities to day files, switching files
// when a segment belongs to another day. It has a single owner and
// performs no locking.
type Writer struct {
	files       ports.DayPathResolver
	mirrors     []ports.SegmentMirror
	logger      *logging.Logger
	current     *os.File
	currentPath string
}

// Ensure Writer implements ports.ActivitySink.
var _ ports.ActivitySink = (*Writer)(nil)

// NewWriter creates a writer over validated files.
func NewWriter(files *FilesProvider, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Writer{files: files, logger: logger}
}

// AddMirror registers a secondary store for written segments.
// Mirror failures are logged and never fail the write.
func (w *Writer) AddMirror(mirror ports.SegmentMirror) {
	w.mirrors = append(w.mirrors, mirror)
}

// CurrentPath returns the path of the open day file, if any.
func (w *Writer) CurrentPath() string {
	return w.currentPath
}

// Write splits the activity by day and appends each segment to its day
// file. Every line is synced before Write returns.
func (w *Writer) Write(ctx context.Context, activity *domain.Activity) (domain.WriteOutcome, error) {
	if !activity.IsFinished() {
		return "", fmt.Errorf("%w: activity [%s] should be finished before writing into the file",
			domain.ErrValidation, activity)
	}

	segments, err := domain.SplitByDay(activity)
	if err != nil {
		return "", fmt.Errorf("failed to split activity: %w", err)
	}

	outcome := domain.WriteOutcomeWritten
	for _, segment := range segments {
		line, err := domain.FormatActivity(segment.Activity)
		if err != nil {
			return outcome, err
		}

		path := w.files.PathFor(segment.Day)
		if path != w.currentPath {
			rolledOver, err := w.switchTo(segment.Day, path)
			if err != nil {
				return outcome, err
			}
			if rolledOver {
				outcome = domain.WriteOutcomeWrittenAndRolledOver
			}
		}

		if err := w.appendLine(line); err != nil {
			return outcome, err
		}
		w.mirror(ctx, segment)
	}

	return outcome, nil
}

// Close closes the open day file.
func (w *Writer) Close() error {
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	w.currentPath = ""
	if err != nil {
		return fmt.Errorf("failed to close raw data file: %w", err)
	}
	return nil
}

// switchTo closes the open file, if any, and opens path for appending.
// It reports whether a previously open file was closed.
func (w *Writer) switchTo(day domain.Date, path string) (bool, error) {
	rolledOver := false
	if w.current != nil {
		if err := w.Close(); err != nil {
			return false, err
		}
		rolledOver = true
		w.logger.Debugf("Raw data file rolled over to day %s", day)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return rolledOver, fmt.Errorf("failed to open raw data file [%s]: %w", path, err)
	}
	w.current = file
	w.currentPath = path
	w.logger.Debugf("Opened raw data file %s", path)

	return rolledOver, nil
}

func (w *Writer) appendLine(line string) error {
	if _, err := w.current.WriteString(line); err != nil {
		return fmt.Errorf("failed to write to [%s]: %w", w.currentPath, err)
	}
	if err := w.current.Sync(); err != nil {
		return fmt.Errorf("failed to flush [%s]: %w", w.currentPath, err)
	}
	return nil
}

func (w *Writer) mirror(ctx context.Context, segment domain.DaySegment) {
	for _, m := range w.mirrors {
		if err := m.Mirror(ctx, segment.Day, segment.Activity); err != nil {
			w.logger.Warnf("Failed to mirror activity %s: %v", segment.Activity, err)
		}
	}
}
