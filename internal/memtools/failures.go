package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/memory"
)

// defaultFailuresLimit keeps recall-before-fix answers short.
const defaultFailuresLimit = 10

// FailuresTool handles the mem_failures MCP tool.
type FailuresTool struct {
	cfg memory.Config
}

// NewFailuresTool creates a FailuresTool.
func NewFailuresTool(cfg memory.Config) *FailuresTool {
	return &FailuresTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_failures.
func (t *FailuresTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_failures",
		mcp.WithDescription(
			"List approaches that already failed, most recent first, with how often each was seen. "+
				"Call this BEFORE attempting a fix so the same dead end is not tried twice.",
		),
		mcp.WithString("query",
			mcp.Description("Keywords describing the problem (empty lists all recent failures)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
	)
}

// Handle processes the mem_failures tool call.
func (t *FailuresTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := intArg(req, "limit", defaultFailuresLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("'limit' must be positive"), nil
	}

	var results []memory.SearchResult
	err := memory.With(t.cfg, func(s *memory.Store) error {
		var err error
		results, err = s.Failures(query, limit)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failures lookup failed: %v", err)), nil
	}

	if len(results) == 0 {
		if query == "" {
			return mcp.NewToolResultText("No failed attempts recorded."), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("No failed attempts recorded for %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d failed attempts on record:\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "- #%d %s (seen %d times, first in session %s)\n", r.ID, r.Title, r.RecurrenceCount, r.SessionID)
		if r.Detail != "" {
			fmt.Fprintf(&b, "    %s\n", oneLine(r.Detail))
		}
	}
	b.WriteString(NavigationHint(len(results), limit, ""))
	return mcp.NewToolResultText(withFooter(b.String())), nil
}
