package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/memory"
	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/privacy"
)

// IngestTool handles the mem_ingest MCP tool.
type IngestTool struct {
	cfg memory.Config
}

// NewIngestTool creates an IngestTool.
func NewIngestTool(cfg memory.Config) *IngestTool {
	return &IngestTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_ingest.
func (t *IngestTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_ingest",
		mcp.WithDescription(
			"Record an observation in the active session. Call this PROACTIVELY after a decision, "+
				"a fix, a failed approach or a near miss so later sessions can recall it. "+
				"Importance and visibility are derived automatically unless overridden.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Observation type"),
			mcp.Enum(observation.TypeNames()...),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, searchable title (e.g. 'Fixed nil map write in session loader')"),
		),
		mcp.WithString("detail",
			mcp.Description("What happened and why"),
		),
		mcp.WithString("rule_id",
			mcp.Description("Rule reference, e.g. RULE-12"),
		),
		mcp.WithString("verification_type",
			mcp.Description("Verification tag, e.g. TEST, BUILD or VT-3"),
		),
		mcp.WithString("plan_item",
			mcp.Description("Plan item reference, e.g. TASK-4"),
		),
		mcp.WithString("files",
			mcp.Description("Files involved, comma-separated or as an array"),
		),
		mcp.WithString("evidence",
			mcp.Description("Supporting output, e.g. a failing test log"),
		),
		mcp.WithBoolean("failed",
			mcp.Description("Whether the event had a negative outcome (raises importance)"),
		),
		mcp.WithNumber("importance",
			mcp.Description("Override importance, 1 (low) to 5 (critical)"),
		),
		mcp.WithString("visibility",
			mcp.Description("Request 'private' to keep this observation out of exports. Sensitive content is always private."),
			mcp.Enum(string(privacy.Public), string(privacy.Private)),
		),
		mcp.WithString("session_id",
			mcp.Description("Target session (default: the active session)"),
		),
	)
}

// Handle processes the mem_ingest tool call.
func (t *IngestTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := memory.IngestParams{
		Type:             req.GetString("type", ""),
		Title:            req.GetString("title", ""),
		Detail:           req.GetString("detail", ""),
		RuleID:           strings.TrimSpace(req.GetString("rule_id", "")),
		VerificationType: strings.TrimSpace(req.GetString("verification_type", "")),
		PlanItem:         strings.TrimSpace(req.GetString("plan_item", "")),
		Files:            listArg(req, "files"),
		Evidence:         req.GetString("evidence", ""),
		Failed:           boolArg(req, "failed", false),
		Importance:       intArg(req, "importance", 0),
		Visibility:       req.GetString("visibility", ""),
	}
	if strings.TrimSpace(params.Type) == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	if strings.TrimSpace(params.Title) == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	sessionID := strings.TrimSpace(req.GetString("session_id", ""))

	var res *memory.WriteResult
	err := memory.With(t.cfg, func(s *memory.Store) error {
		if sessionID == "" {
			active, err := s.ActiveSession()
			if err != nil {
				return err
			}
			sessionID = active.ID
		}
		var err error
		res, err = s.Ingest(sessionID, params)
		return err
	})
	switch {
	case errors.Is(err, memory.ErrNoActiveSession):
		return mcp.NewToolResultError("no active session: call mem_session_start first"), nil
	case errors.Is(err, memory.ErrUnknownType), errors.Is(err, memory.ErrTitleRequired):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to ingest observation: %v", err)), nil
	}

	if res.Recurred {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Already on record as #%d, now seen %d times (importance %d, %s)",
			res.ID, res.RecurrenceCount, res.Importance, res.Visibility,
		)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Observation #%d saved to session %q (importance %d, %s)",
		res.ID, sessionID, res.Importance, res.Visibility,
	)), nil
}
