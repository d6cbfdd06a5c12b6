package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"jiracounter/internal/calendar"
	"jiracounter/internal/ingest"
	"jiracounter/internal/jira"
	"jiracounter/internal/workflow"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type issueMetricsArgs struct {
	IssueKey      string `json:"issue_key" jsonschema:"Jira issue key, e.g. PROJ-123"`
	AsOf          string `json:"as_of,omitempty" jsonschema:"Reference instant (RFC 3339 or YYYY-MM-DD). Defaults to now."`
	IncludeCharts bool   `json:"include_charts,omitempty" jsonschema:"Attach Mermaid charts of the status timeline and category split."`
}

type formatMinutesArgs struct {
	Minutes int `json:"minutes" jsonschema:"Working minutes to render"`
}

type minutesBetweenArgs struct {
	Start string `json:"start" jsonschema:"Start instant (RFC 3339 or YYYY-MM-DD HH:MM)"`
	End   string `json:"end" jsonschema:"End instant (RFC 3339 or YYYY-MM-DD HH:MM)"`
}

type workflowArgs struct{}

// FormattedMinutes is the payload of the minute conversion tools.
type FormattedMinutes struct {
	Minutes int     `json:"minutes"`
	Days    float64 `json:"days"`
	Text    string  `json:"text"`
}

// WorkflowTables is the payload of get_workflow.
type WorkflowTables struct {
	Order      []string            `json:"order"`
	Aliases    map[string]string   `json:"aliases"`
	Categories map[string][]string `json:"categories"`
}

func (s *Server) registerTools(server *sdk.Server) {
	addTool(server, "get_issue_metrics",
		"Compute working-time metrics for a Jira issue: time since creation, time in the current status, time per category (backlog, processing, waiting) and the transition history with backflows.",
		s.handleGetIssueMetrics)
	addTool(server, "format_working_minutes",
		"Render a number of working minutes as text using 8-hour working days and 5-day working weeks.",
		s.handleFormatMinutes)
	addTool(server, "working_minutes_between",
		"Count the working minutes between two instants under the configured holiday calendar.",
		s.handleMinutesBetween)
	addTool(server, "get_workflow",
		"List the reference workflow order, the status aliases and the categories used to classify time.",
		s.handleGetWorkflow)
}

func addTool[In any](server *sdk.Server, name, description string, handler sdk.ToolHandlerFor[In, any]) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("schema for tool %s: %v", name, err))
	}
	sdk.AddTool(server, &sdk.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, handler)
}

func (s *Server) handleGetIssueMetrics(ctx context.Context, _ *sdk.CallToolRequest, args issueMetricsArgs) (*sdk.CallToolResult, any, error) {
	key := strings.ToUpper(strings.TrimSpace(args.IssueKey))
	if key == "" {
		return errorResult("issue_key is required"), nil, nil
	}

	asOf := s.now()
	if args.AsOf != "" {
		t, err := calendar.ParseInstant(args.AsOf, s.clock.Calendar().Location())
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		asOf = t
	}

	dto, err := s.jira.GetIssue(ctx, key)
	if err != nil {
		if errors.Is(err, jira.ErrNotFound) {
			return errorResult(fmt.Sprintf("issue %s not found", key)), nil, nil
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to fetch issue")
		return errorResult(err.Error()), nil, nil
	}

	issue, rec, err := ingest.ComputeIssue(s.calc, *dto, asOf)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	report := ingest.NewIssueReport(issue, rec, asOf)
	if args.IncludeCharts {
		report = report.WithCharts()
	}
	return jsonResult(report), nil, nil
}

func (s *Server) handleFormatMinutes(_ context.Context, _ *sdk.CallToolRequest, args formatMinutesArgs) (*sdk.CallToolResult, any, error) {
	return jsonResult(formatted(args.Minutes)), nil, nil
}

func (s *Server) handleMinutesBetween(_ context.Context, _ *sdk.CallToolRequest, args minutesBetweenArgs) (*sdk.CallToolResult, any, error) {
	loc := s.clock.Calendar().Location()
	start, err := calendar.ParseInstant(args.Start, loc)
	if err != nil {
		return errorResult("start: " + err.Error()), nil, nil
	}
	end, err := calendar.ParseInstant(args.End, loc)
	if err != nil {
		return errorResult("end: " + err.Error()), nil, nil
	}
	return jsonResult(formatted(s.clock.MinutesBetween(start, end))), nil, nil
}

func (s *Server) handleGetWorkflow(_ context.Context, _ *sdk.CallToolRequest, _ workflowArgs) (*sdk.CallToolResult, any, error) {
	out := WorkflowTables{
		Order:      s.tables.Aliases.Names(),
		Aliases:    s.tables.Aliases.Aliases(),
		Categories: map[string][]string{},
	}
	for _, cat := range []workflow.Category{workflow.Backlog, workflow.Processing, workflow.Completed} {
		out.Categories[cat.String()] = s.tables.Categories.Statuses(cat)
	}
	return jsonResult(out), nil, nil
}

func formatted(minutes int) FormattedMinutes {
	return FormattedMinutes{
		Minutes: minutes,
		Days:    calendar.DaysFromMinutes(minutes),
		Text:    calendar.FormatMinutes(minutes),
	}
}

func jsonResult(data any) *sdk.CallToolResult {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(out)}},
	}
}

func errorResult(msg string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: msg}},
	}
}
