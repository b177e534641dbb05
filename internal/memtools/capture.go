package memtools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/capture"
	"github.com/HendryAvila/recall/internal/memory"
)

// CaptureTool handles the mem_capture MCP tool.
type CaptureTool struct {
	pipeline *capture.Pipeline
}

// NewCaptureTool creates a CaptureTool writing through the given store
// configuration with the given classifier options.
func NewCaptureTool(cfg memory.Config, opts capture.Options) *CaptureTool {
	return &CaptureTool{pipeline: capture.NewPipeline(cfg, opts)}
}

// Definition returns the MCP tool definition for mem_capture.
func (t *CaptureTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_capture",
		mcp.WithDescription(
			"Read a session transcript (JSONL), drop noise, classify the remaining tool calls and "+
				"assistant text, and store the resulting observations. Safe to call after every turn: "+
				"only lines added since the last capture into the same session are classified.",
		),
		mcp.WithString("transcript_path",
			mcp.Required(),
			mcp.Description("Absolute path to the transcript .jsonl file"),
		),
		mcp.WithString("session_id",
			mcp.Description("Target session, which must be active (default: the most recently started active session)"),
		),
	)
}

// Handle processes the mem_capture tool call.
func (t *CaptureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("transcript_path", ""))
	if path == "" {
		return mcp.NewToolResultError("'transcript_path' is required"), nil
	}
	if _, err := os.Stat(path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("transcript not readable: %v", err)), nil
	}

	res, err := t.pipeline.RunFile(path, strings.TrimSpace(req.GetString("session_id", "")))
	switch {
	case errors.Is(err, memory.ErrNoActiveSession):
		return mcp.NewToolResultError("no active session: call mem_session_start first or pass 'session_id'"), nil
	case errors.Is(err, memory.ErrSessionNotFound), errors.Is(err, memory.ErrSessionNotActive):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("capture failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Captured into session %q: lines %d-%d, %d records, %d tool calls (%d ignored), %d saved, %d recurrences, %d unreadable lines",
		res.SessionID, res.FromLine+1, res.ToLine, res.Records, res.ToolCalls, res.Ignored, res.Saved, res.Recurrences, res.Skipped,
	)), nil
}
