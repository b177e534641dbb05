package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// SessionReviewPrompt handles the session-review MCP prompt.
// It has the AI summarize the active session and close it.
type SessionReviewPrompt struct{}

// NewSessionReviewPrompt creates a SessionReviewPrompt.
func NewSessionReviewPrompt() *SessionReviewPrompt {
	return &SessionReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *SessionReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("session-review",
		mcp.WithPromptDescription(
			"Review what the current session recorded, fill in anything missing, "+
				"and close the session with a summary.",
		),
	)
}

// Handle processes the session-review prompt request.
func (p *SessionReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Review and close the active session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please review this coding session before we stop.\n\n" +
						"1. Run `mem_sessions` with status='active' to find the current session\n" +
						"2. Run `mem_search` with no query to list what was recorded most recently\n" +
						"3. If a decision, fix or failed attempt from this session is missing, record it with `mem_ingest`\n" +
						"4. Close the session with `mem_session_end`, passing a two or three sentence summary of what was accomplished",
				),
			},
		},
	}, nil
}
