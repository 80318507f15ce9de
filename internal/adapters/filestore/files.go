// Package filestore keeps finished activities in one tab-separated
// raw data file per calendar day.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
)

const (
	// DatePlaceholder is replaced by YYYY-MM-DD in file masks.
	DatePlaceholder = "{date}"

	// DefaultFileMask names raw data files.
	DefaultFileMask = "{date}_speaking_eye_raw_data.tsv"
)

// FilesProvider resolves days to raw data files inside one directory.
type FilesProvider struct {
	dir  string
	mask string
}

// Ensure FilesProvider implements ports.DayPathResolver.
var _ ports.DayPathResolver = (*FilesProvider)(nil)

// NewFilesProvider validates the directory and the mask up front.
func NewFilesProvider(dir, mask string) (*FilesProvider, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: path [%s] does not exist or it is not a dir", domain.ErrConfiguration, dir)
	}
	if !strings.Contains(mask, DatePlaceholder) {
		return nil, fmt.Errorf("%w: file mask [%s] should contain %s", domain.ErrConfiguration, mask, DatePlaceholder)
	}
	if strings.ContainsRune(mask, filepath.Separator) {
		return nil, fmt.Errorf("%w: file mask [%s] should be a file name", domain.ErrConfiguration, mask)
	}

	return &FilesProvider{dir: dir, mask: mask}, nil
}

// Dir returns the raw data directory.
func (p *FilesProvider) Dir() string {
	return p.dir
}

// PathFor returns the raw data file of day.
func (p *FilesProvider) PathFor(day domain.Date) string {
	return filepath.Join(p.dir, strings.ReplaceAll(p.mask, DatePlaceholder, day.String()))
}

// Days lists the days that have a raw data file, oldest first.
func (p *FilesProvider) Days() ([]domain.Date, error) {
	pattern := filepath.Join(p.dir, strings.ReplaceAll(p.mask, DatePlaceholder, "*"))
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw data files: %w", err)
	}

	prefix, suffix, _ := strings.Cut(p.mask, DatePlaceholder)
	days := make([]domain.Date, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		raw := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		day, err := domain.ParseDate(raw)
		if err != nil {
			continue
		}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// FirstDay returns the oldest day with data, or fallback when there is none.
func (p *FilesProvider) FirstDay(fallback domain.Date) (domain.Date, error) {
	days, err := p.Days()
	if err != nil {
		return domain.Date{}, err
	}
	if len(days) == 0 {
		return fallback, nil
	}
	return days[0], nil
}
