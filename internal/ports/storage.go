// Package ports defines the interfaces (driven and driving ports)
// for Speaking Eye following hexagonal architecture principles.
// These interfaces define the contracts between the accounting core
// and external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/speaking-eye/internal/domain"
)

// DayPathResolver maps a calendar day to its raw data file.
type DayPathResolver interface {
	// PathFor returns the file path holding the activities of day.
	PathFor(day domain.Date) string
}

// ActivitySink persists finished activities.
// This is a driven port (implemented by adapters).
type ActivitySink interface {
	// Write splits the activity by day and durably appends every segment.
	// The outcome reports whether a previous day file was closed.
	Write(ctx context.Context, activity *domain.Activity) (domain.WriteOutcome, error)

	// Close releases the open day file.
	Close() error
}

// ActivitySource replays persisted activities.
// This is a driven port (implemented by adapters).
type ActivitySource interface {
	// Read returns the activities of day in file order.
	// A day without a file yields an empty slice.
	Read(ctx context.Context, day domain.Date) ([]*domain.Activity, error)

	// Days lists the days that have a raw data file, oldest first.
	Days(ctx context.Context) ([]domain.Date, error)
}

// SegmentMirror receives every day segment after it reached the raw data file.
// This is a driven port (implemented by adapters).
type SegmentMirror interface {
	// Mirror stores one finished segment belonging to day.
	Mirror(ctx context.Context, day domain.Date, activity *domain.Activity) error
}

// ActivityRepository defines the interface for the queryable activity index.
// This is a driven port (implemented by adapters).
type ActivityRepository interface {
	// Save stores a record. It reports false when the record already exists.
	Save(ctx context.Context, record *domain.ActivityRecord) (bool, error)

	// FindByDay returns the records of one day ordered by start time.
	FindByDay(ctx context.Context, day domain.Date) ([]*domain.ActivityRecord, error)

	// FindRange returns records of the days from..to inclusive.
	FindRange(ctx context.Context, from, to domain.Date) ([]*domain.ActivityRecord, error)

	// DailyTotals returns per-day work and off time for from..to inclusive.
	DailyTotals(ctx context.Context, from, to domain.Date) ([]domain.DayTotal, error)

	// TitleTotals returns per-title totals for from..to inclusive.
	TitleTotals(ctx context.Context, from, to domain.Date) ([]domain.TitleReport, error)

	// SearchTitles returns indexed titles fuzzy-matching query, best first.
	SearchTitles(ctx context.Context, query string) ([]string, error)

	// DeleteDay removes the records of one day.
	DeleteDay(ctx context.Context, day domain.Date) error
}

// Storage is the combined index interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Activities provides access to indexed activities.
	Activities() ActivityRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
