package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/memory"
)

// SessionStartTool handles the mem_session_start MCP tool.
type SessionStartTool struct {
	cfg memory.Config
}

// NewSessionStartTool creates a SessionStartTool.
func NewSessionStartTool(cfg memory.Config) *SessionStartTool {
	return &SessionStartTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_session_start.
func (t *SessionStartTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_session_start",
		mcp.WithDescription(
			"Register the start of a coding session. Observations captured or ingested afterwards "+
				"attach to the most recently started active session.",
		),
		mcp.WithString("id",
			mcp.Description("Session identifier (generated when omitted; an existing id is returned unchanged)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name"),
		),
		mcp.WithString("directory",
			mcp.Description("Working directory"),
		),
		mcp.WithString("branch",
			mcp.Description("Git branch"),
		),
		mcp.WithString("plan_file",
			mcp.Description("Plan document driving this session"),
		),
	)
}

// Handle processes the mem_session_start tool call.
func (t *SessionStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := memory.StartSessionParams{
		ID:        strings.TrimSpace(req.GetString("id", "")),
		Project:   req.GetString("project", ""),
		Directory: req.GetString("directory", ""),
		Branch:    req.GetString("branch", ""),
		PlanFile:  req.GetString("plan_file", ""),
	}

	var sess *memory.Session
	err := memory.With(t.cfg, func(s *memory.Store) error {
		var err error
		sess, err = s.StartSession(params)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}

	msg := fmt.Sprintf("Session %q started", sess.ID)
	if sess.Project != "" {
		msg += fmt.Sprintf(" for project %q", sess.Project)
	}
	if sess.Status != memory.StatusActive {
		msg = fmt.Sprintf("Session %q already exists (%s)", sess.ID, sess.Status)
	}
	return mcp.NewToolResultText(msg), nil
}

// ─── SessionEndTool ─────────────────────────────────────────────────────────

// SessionEndTool handles the mem_session_end MCP tool.
type SessionEndTool struct {
	cfg memory.Config
}

// NewSessionEndTool creates a SessionEndTool.
func NewSessionEndTool(cfg memory.Config) *SessionEndTool {
	return &SessionEndTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_session_end.
func (t *SessionEndTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_session_end",
		mcp.WithDescription(
			"Close a coding session with an optional summary of what was accomplished.",
		),
		mcp.WithString("id",
			mcp.Description("Session identifier to close (default: the active session)"),
		),
		mcp.WithString("status",
			mcp.Description("Final status: completed (default) or abandoned"),
			mcp.Enum(string(memory.StatusCompleted), string(memory.StatusAbandoned)),
		),
		mcp.WithString("summary",
			mcp.Description("Summary of what was accomplished"),
		),
	)
}

// Handle processes the mem_session_end tool call.
func (t *SessionEndTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	status := memory.SessionStatus(req.GetString("status", ""))
	summary := req.GetString("summary", "")

	var sess *memory.Session
	err := memory.With(t.cfg, func(s *memory.Store) error {
		if id == "" {
			active, err := s.ActiveSession()
			if err != nil {
				return err
			}
			id = active.ID
		}
		var err error
		sess, err = s.EndSession(id, status, summary)
		return err
	})
	switch {
	case errors.Is(err, memory.ErrNoActiveSession):
		return mcp.NewToolResultError("no active session to end; pass 'id' explicitly"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to end session: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session %q %s", sess.ID, sess.Status)), nil
}

// ─── SessionsTool ───────────────────────────────────────────────────────────

// SessionsTool handles the mem_sessions MCP tool.
type SessionsTool struct {
	cfg memory.Config
}

// NewSessionsTool creates a SessionsTool.
func NewSessionsTool(cfg memory.Config) *SessionsTool {
	return &SessionsTool{cfg: cfg}
}

// Definition returns the MCP tool definition for mem_sessions.
func (t *SessionsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_sessions",
		mcp.WithDescription(
			"List recent coding sessions, newest first, with their summaries and observation counts.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Max sessions (default: 10)"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum(string(memory.StatusActive), string(memory.StatusCompleted), string(memory.StatusAbandoned)),
		),
	)
}

// Handle processes the mem_sessions tool call.
func (t *SessionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 10)
	status := memory.SessionStatus(req.GetString("status", ""))
	if status != "" && !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid status %q", status)), nil
	}

	var sessions []memory.SessionSummary
	err := memory.With(t.cfg, func(s *memory.Store) error {
		var err error
		sessions, err = s.RecentSessions(limit, status)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}
	if len(sessions) == 0 {
		return mcp.NewToolResultText("No sessions recorded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d sessions:\n\n", len(sessions))
	for _, ss := range sessions {
		fmt.Fprintf(&b, "- %s [%s] started %s, %d observations", ss.ID, ss.Status, ss.StartedAt, ss.ObservationCount)
		if ss.Project != "" {
			fmt.Fprintf(&b, ", project %s", ss.Project)
		}
		if ss.Branch != "" {
			fmt.Fprintf(&b, ", branch %s", ss.Branch)
		}
		b.WriteString("\n")
		if sum := deref(ss.Summary); sum != "" {
			fmt.Fprintf(&b, "    %s\n", oneLine(sum))
		}
	}
	return mcp.NewToolResultText(withFooter(b.String())), nil
}
