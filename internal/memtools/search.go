package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/memory"
	"github.com/HendryAvila/recall/internal/observation"
)

// SearchTool handles the mem_search MCP tool.
type SearchTool struct {
	cfg memory.Config
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(cfg memory.Config) *SearchTool {
	return &SearchTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_search",
		mcp.WithDescription(
			"Search session memory across all past sessions. Use this to find earlier decisions, "+
				"bug fixes, failed attempts, verification runs and rule violations before repeating work. "+
				"An empty query lists the most recent observations.",
		),
		mcp.WithString("query",
			mcp.Description("Keywords to match against observation titles and details"),
		),
		mcp.WithString("type",
			mcp.Description("Filter by type: "+strings.Join(observation.TypeNames(), ", ")),
		),
		mcp.WithString("rule_id",
			mcp.Description("Filter by rule reference, e.g. RULE-12"),
		),
		mcp.WithString("since",
			mcp.Description("Only observations created at or after this time (RFC 3339 or YYYY-MM-DD)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20, max: 200)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Level of detail: 'summary' (ids and titles), 'standard' (default, short snippets) or 'full'"),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the mem_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, errResult := searchOptions(req)
	if errResult != nil {
		return errResult, nil
	}
	query := req.GetString("query", "")
	level := ParseDetailLevel(req.GetString("detail_level", ""))

	var results []memory.SearchResult
	err := memory.With(t.cfg, func(s *memory.Store) error {
		var err error
		results, err = s.Search(query, opts)
		if opts.Limit == 0 {
			opts.Limit = s.Config().DefaultSearchLimit
		}
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No observations found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d observations:\n\n", len(results))
	for i := range results {
		writeObservation(&b, &results[i].Observation, level)
	}
	b.WriteString(NavigationHint(len(results), opts.Limit, "Narrow the query or raise 'limit' to see more."))
	if level == DetailSummary {
		b.WriteString(SummaryFooter)
	}
	return mcp.NewToolResultText(withFooter(b.String())), nil
}

// searchOptions reads the filter arguments shared by search-style tools.
func searchOptions(req mcp.CallToolRequest) (memory.SearchOptions, *mcp.CallToolResult) {
	var opts memory.SearchOptions
	if typ := req.GetString("type", ""); typ != "" {
		parsed, err := observation.ParseType(typ)
		if err != nil {
			return opts, mcp.NewToolResultError(err.Error())
		}
		opts.Type = parsed
	}
	since, err := sinceArg(req, "since")
	if err != nil {
		return opts, mcp.NewToolResultError(err.Error())
	}
	opts.Since = since
	opts.RuleID = strings.TrimSpace(req.GetString("rule_id", ""))
	opts.Limit = intArg(req, "limit", 0)
	if opts.Limit < 0 {
		return opts, mcp.NewToolResultError("'limit' must be positive")
	}
	return opts, nil
}
