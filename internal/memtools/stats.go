package memtools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/memory"
)

// StatsTool handles the mem_stats MCP tool.
type StatsTool struct {
	cfg memory.Config
}

// NewStatsTool creates a StatsTool with the given store configuration.
func NewStatsTool(cfg memory.Config) *StatsTool {
	return &StatsTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_stats",
		mcp.WithDescription(
			"Show memory statistics: sessions by status, observations by type, private and recurring observations.",
		),
	)
}

// Handle processes the mem_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats *memory.Stats
	var path string
	err := memory.With(t.cfg, func(s *memory.Store) error {
		var err error
		stats, err = s.Stats()
		path = s.Path()
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Memory Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Database**: %s\n", path))
	sb.WriteString(fmt.Sprintf("- **Sessions**: %s%s\n", humanize.Comma(int64(stats.TotalSessions)), breakdown(stats.SessionsByStatus)))
	sb.WriteString(fmt.Sprintf("- **Observations**: %s%s\n", humanize.Comma(int64(stats.TotalObservations)), breakdown(stats.ObservationsByType)))
	sb.WriteString(fmt.Sprintf("- **Private**: %s\n", humanize.Comma(int64(stats.PrivateObservations))))
	sb.WriteString(fmt.Sprintf("- **Recurring**: %s\n", humanize.Comma(int64(stats.Recurrences))))

	search := "full-text (FTS5)"
	if !stats.FullTextSearch {
		search = "substring fallback"
	}
	sb.WriteString(fmt.Sprintf("- **Search**: %s\n", search))

	return mcp.NewToolResultText(sb.String()), nil
}

// breakdown renders counts as " (a: 1, b: 2)" sorted by key, or "".
func breakdown(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, counts[k])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
