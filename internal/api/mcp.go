package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jeiary/jeiary/internal/parser"
	"github.com/jeiary/jeiary/internal/schedule"
	"github.com/jeiary/jeiary/internal/storage"
)

// TargetResolver picks the single schedule a keyword and date identify.
type TargetResolver interface {
	Resolve(userID, keyword, date string) *storage.Schedule
}

// MCPDeps holds dependencies for the MCP server. MCP clients carry no
// credentials, so every tool acts on behalf of OwnerID, the local account
// chosen at startup.
type MCPDeps struct {
	Schedules *schedule.Service
	Resolver  TargetResolver
	Parser    ScheduleParser
	OwnerID   string
}

// NewMCPServer creates an MCP server with the schedule tools registered.
func NewMCPServer(deps MCPDeps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"jeiary",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("jeiary — personal schedule manager: create, find, and delete calendar entries."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("create_schedule",
			mcp.WithDescription("Create a calendar schedule."),
			mcp.WithString("title", mcp.Description("Schedule title"), mcp.Required()),
			mcp.WithString("date", mcp.Description("Date in YYYY-MM-DD"), mcp.Required()),
			mcp.WithString("start_time", mcp.Description("Start time in HH:MM"), mcp.Required()),
			mcp.WithString("end_time", mcp.Description("End time in HH:MM"), mcp.Required()),
			mcp.WithString("content", mcp.Description("Optional notes")),
		),
		mcpCreateSchedule(deps),
	)

	s.AddTool(
		mcp.NewTool("find_schedules",
			mcp.WithDescription("List the schedules on a given date."),
			mcp.WithString("date", mcp.Description("Date in YYYY-MM-DD"), mcp.Required()),
		),
		mcpFindSchedules(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_schedule",
			mcp.WithDescription("Delete the schedule a keyword and date identify. Fails unless exactly one schedule matches."),
			mcp.WithString("date", mcp.Description("Date in YYYY-MM-DD"), mcp.Required()),
			mcp.WithString("keyword", mcp.Description("Keyword from the schedule title")),
		),
		mcpDeleteSchedule(deps),
	)

	s.AddTool(
		mcp.NewTool("parse_schedule",
			mcp.WithDescription("Extract structured schedule fields from natural-language text without saving anything."),
			mcp.WithString("text", mcp.Description("Natural-language schedule description"), mcp.Required()),
		),
		mcpParseSchedule(deps),
	)

	return s
}

func mcpCreateSchedule(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		date, err := req.RequireString("date")
		if err != nil {
			return mcpError("date is required"), nil
		}
		start, err := req.RequireString("start_time")
		if err != nil {
			return mcpError("start_time is required"), nil
		}
		end, err := req.RequireString("end_time")
		if err != nil {
			return mcpError("end_time is required"), nil
		}

		sc, err := deps.Schedules.Create(schedule.CreateInput{
			Title:     title,
			Date:      date,
			StartTime: start,
			EndTime:   end,
			Content:   req.GetString("content", ""),
		}, deps.OwnerID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create schedule: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Created %q on %s from %s to %s (id %s)",
			sc.Title, sc.Date, sc.StartTime, sc.EndTime, sc.ID)), nil
	}
}

func mcpFindSchedules(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		date, err := req.RequireString("date")
		if err != nil {
			return mcpError("date is required"), nil
		}

		schedules, err := deps.Schedules.ByDate(deps.OwnerID, date)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list schedules: %v", err)), nil
		}
		if len(schedules) == 0 {
			return mcpText(fmt.Sprintf("No schedules on %s", date)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d schedule(s) on %s:\n", len(schedules), date)
		for _, sc := range schedules {
			fmt.Fprintf(&b, "- %s (%s ~ %s)\n", sc.Title, sc.StartTime, sc.EndTime)
		}
		return mcpText(b.String()), nil
	}
}

func mcpDeleteSchedule(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		date, err := req.RequireString("date")
		if err != nil {
			return mcpError("date is required"), nil
		}

		target := deps.Resolver.Resolve(deps.OwnerID, req.GetString("keyword", ""), date)
		if target == nil {
			return mcpError("could not identify exactly one schedule; give the exact date and a title keyword"), nil
		}
		if err := deps.Schedules.Delete(target.ID, deps.OwnerID); err != nil {
			return mcpError(fmt.Sprintf("failed to delete schedule: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Deleted %q on %s", target.Title, target.Date)), nil
	}
}

func mcpParseSchedule(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		result, err := deps.Parser.Parse(ctx, text)
		if errors.Is(err, parser.ErrConnection) {
			return mcpError("the model is unreachable; try again later"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to parse text: %v", err)), nil
		}
		if result.Clarification != "" {
			return mcpText(result.Clarification), nil
		}

		sc := result.Schedule
		return mcpText(fmt.Sprintf("title=%s date=%s start=%s end=%s content=%s",
			sc.Title, sc.Date, sc.StartTime, sc.EndTime, sc.Content)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
