package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/memory"
)

// maxDetailIDs bounds one mem_get_observations request.
const maxDetailIDs = 50

// TimelineTool handles the mem_timeline MCP tool.
type TimelineTool struct {
	cfg memory.Config
}

// NewTimelineTool creates a TimelineTool.
func NewTimelineTool(cfg memory.Config) *TimelineTool {
	return &TimelineTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_timeline.
func (t *TimelineTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_timeline",
		mcp.WithDescription(
			"Show what happened around an observation within its session. Use after mem_search "+
				"to see the events leading up to and following a result.",
		),
		mcp.WithNumber("observation_id",
			mcp.Required(),
			mcp.Description("The observation ID to center the timeline on (from mem_search results)"),
		),
		mcp.WithNumber("before",
			mcp.Description("Number of observations to show before the anchor (default: 5)"),
		),
		mcp.WithNumber("after",
			mcp.Description("Number of observations to show after the anchor (default: 5)"),
		),
		mcp.WithString("detail_level",
			mcp.Description(
				"Level of detail: 'summary' (titles only), 'standard' (default, snippets around "+
					"a fully shown anchor) or 'full' (every field of every entry)",
			),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the mem_timeline tool call.
func (t *TimelineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	obsID := intArg(req, "observation_id", 0)
	if obsID <= 0 {
		return mcp.NewToolResultError("'observation_id' is required"), nil
	}
	before := intArg(req, "before", 5)
	after := intArg(req, "after", 5)
	level := ParseDetailLevel(req.GetString("detail_level", ""))

	var result *memory.TimelineResult
	err := memory.With(t.cfg, func(s *memory.Store) error {
		var err error
		result, err = s.Timeline(int64(obsID), before, after)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("timeline failed: %v", err)), nil
	}
	if result == nil {
		return mcp.NewToolResultText(fmt.Sprintf("observation #%d not found", obsID)), nil
	}

	var b strings.Builder
	if sess := result.Session; sess != nil {
		fmt.Fprintf(&b, "Session: %s", sess.ID)
		if sess.Project != "" {
			fmt.Fprintf(&b, " (%s)", sess.Project)
		}
		fmt.Fprintf(&b, " started %s, %s\n", sess.StartedAt, sess.Status)
	}
	fmt.Fprintf(&b, "Total observations in session: %d\n\n", result.TotalInSession)

	for i := range result.Entries {
		e := &result.Entries[i]
		entryLevel := level
		if e.IsAnchor {
			b.WriteString(">>> ")
			if level == DetailStandard {
				entryLevel = DetailFull
			}
		}
		writeObservation(&b, &e.Observation, entryLevel)
	}

	if level == DetailSummary {
		b.WriteString(SummaryFooter)
	}
	return mcp.NewToolResultText(withFooter(b.String())), nil
}

// ─── GetObservationsTool ────────────────────────────────────────────────────

// GetObservationsTool handles the mem_get_observations MCP tool.
type GetObservationsTool struct {
	cfg memory.Config
}

// NewGetObservationsTool creates a GetObservationsTool.
func NewGetObservationsTool(cfg memory.Config) *GetObservationsTool {
	return &GetObservationsTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_get_observations.
func (t *GetObservationsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_get_observations",
		mcp.WithDescription(
			"Get the complete record of one or more observations by ID, in chronological order. "+
				"Use when a search or timeline entry needs its full detail and evidence. Unknown IDs are skipped.",
		),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Observation IDs, comma-separated (e.g. '12,40,41') or as an array"),
		),
	)
}

// Handle processes the mem_get_observations tool call.
func (t *GetObservationsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := idsArg(req, "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultError("'ids' is required"), nil
	}
	if len(ids) > maxDetailIDs {
		return mcp.NewToolResultError(fmt.Sprintf("at most %d ids per request", maxDetailIDs)), nil
	}

	var obs []memory.Observation
	err = memory.With(t.cfg, func(s *memory.Store) error {
		var err error
		obs, err = s.GetObservations(ids)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if len(obs) == 0 {
		return mcp.NewToolResultText("None of the requested observations exist."), nil
	}

	var b strings.Builder
	for i := range obs {
		if i > 0 {
			b.WriteString("\n")
		}
		writeObservation(&b, &obs[i], DetailFull)
	}
	if missing := len(uniqueIDs(ids)) - len(obs); missing > 0 {
		fmt.Fprintf(&b, "\n%d requested id(s) not found.\n", missing)
	}
	return mcp.NewToolResultText(withFooter(b.String())), nil
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
