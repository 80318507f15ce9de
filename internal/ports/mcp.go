package ports

import (
	"context"
	"time"

	"github.com/xvierd/speaking-eye/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// ReportProvider provides report data to the MCP server and the dashboard.
// This is a driven port (implemented by services layer).
type ReportProvider interface {
	// Report aggregates the days from..to inclusive.
	Report(ctx context.Context, from, to domain.Date) (*domain.DayReport, error)

	// Activities returns the activities of one day, classified.
	Activities(ctx context.Context, day domain.Date) ([]*domain.Activity, error)

	// GroupWorkTime sums work time of the given titles on day.
	GroupWorkTime(ctx context.Context, day domain.Date, titles []string) (time.Duration, error)

	// Days lists the days that have data.
	Days(ctx context.Context) ([]domain.Date, error)
}
