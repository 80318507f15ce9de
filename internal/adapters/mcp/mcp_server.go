// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server  *server.MCPServer
	reports ports.ReportProvider
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(reports ports.ReportProvider) *Server {
	s := &Server{
		reports: reports,
		now:     time.Now,
	}

	s.server = server.NewMCPServer(
		"speaking-eye",
		"1.0.0",
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_report",
			mcp.WithDescription("Get work and off time per application for a day or a range of days"),
			mcp.WithString(
				"from",
				mcp.Description("First day as YYYY-MM-DD (default: today)"),
			),
			mcp.WithString(
				"to",
				mcp.Description("Last day as YYYY-MM-DD (default: same as from)"),
			),
		),
		s.handleGetReport,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_activities",
			mcp.WithDescription("List the tracked window activities of a day in order"),
			mcp.WithString(
				"date",
				mcp.Description("Day as YYYY-MM-DD (default: today)"),
			),
			mcp.WithBoolean(
				"work_only",
				mcp.Description("Only include activities tracked during work time"),
			),
		),
		s.handleListActivities,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_group_work_time",
			mcp.WithDescription("Sum the work time of several application titles on a day"),
			mcp.WithArray(
				"titles",
				mcp.Required(),
				mcp.Description("Application titles as configured"),
				mcp.Items(map[string]any{"type": "string"}),
			),
			mcp.WithString(
				"date",
				mcp.Description("Day as YYYY-MM-DD (default: today)"),
			),
		),
		s.handleGetGroupWorkTime,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_days",
			mcp.WithDescription("List the days that have tracked activities"),
		),
		s.handleListDays,
	)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := s.dateArg(request, "from", domain.DateOf(s.now()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := s.dateArg(request, "to", from)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.reports.Report(ctx, from, to)
	if errors.Is(err, domain.ErrValidation) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	rows := make([]map[string]interface{}, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, map[string]interface{}{
			"title":          row.Title,
			"work_time":      domain.FormatDuration(row.WorkTime),
			"off_time":       domain.FormatDuration(row.OffTime),
			"is_distracting": row.IsDistracting,
		})
	}

	return jsonResult(map[string]interface{}{
		"period":                report.Label(),
		"total_work_time":       domain.FormatDuration(report.TotalWorkTime),
		"total_off_time":        domain.FormatDuration(report.TotalOffTime),
		"distracting_work_time": domain.FormatDuration(report.DistractingWorkTime),
		"applications":          rows,
	})
}

func (s *Server) handleListActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := s.dateArg(request, "date", domain.DateOf(s.now()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	workOnly := request.GetBool("work_only", false)

	activities, err := s.reports.Activities(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	var list []map[string]interface{}
	for _, a := range activities {
		if workOnly && !a.IsWorkTime {
			continue
		}
		item := map[string]interface{}{
			"wm_class":     a.WmClass,
			"window_name":  a.WindowName,
			"title":        a.Title(),
			"is_work_time": a.IsWorkTime,
			"started_at":   domain.FormatTimestamp(a.Start()),
		}
		if end, ok := a.End(); ok {
			item["ended_at"] = domain.FormatTimestamp(end)
		}
		if d, ok := a.Duration(); ok {
			item["duration"] = domain.FormatDuration(d)
		}
		list = append(list, item)
	}

	return jsonResult(map[string]interface{}{
		"date":        day.String(),
		"activities":  list,
		"total_count": len(list),
	})
}

func (s *Server) handleGetGroupWorkTime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	titles := request.GetStringSlice("titles", nil)
	if len(titles) == 0 {
		return mcp.NewToolResultError("titles is required"), nil
	}
	day, err := s.dateArg(request, "date", domain.DateOf(s.now()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	total, err := s.reports.GroupWorkTime(ctx, day, titles)
	var missing *domain.MissingTitleError
	if errors.As(err, &missing) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown application title %q", missing.Title)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compute group work time: %w", err)
	}

	return jsonResult(map[string]interface{}{
		"date":      day.String(),
		"titles":    titles,
		"work_time": domain.FormatDuration(total),
		"minutes":   int(total.Minutes()),
	})
}

func (s *Server) handleListDays(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := s.reports.Days(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}

	list := make([]string, 0, len(days))
	for _, day := range days {
		list = append(list, day.String())
	}
	return jsonResult(map[string]interface{}{
		"days":        list,
		"total_count": len(list),
	})
}

func (s *Server) dateArg(request mcp.CallToolRequest, key string, fallback domain.Date) (domain.Date, error) {
	raw := request.GetString(key, "")
	if raw == "" {
		return fallback, nil
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return day, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
