// Package prompts implements MCP prompt handlers for session memory.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a sequence of memory tools. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// RecallBeforeFixPrompt handles the recall-before-fix MCP prompt.
// It has the AI check what already failed before it attempts a fix.
type RecallBeforeFixPrompt struct{}

// NewRecallBeforeFixPrompt creates a RecallBeforeFixPrompt.
func NewRecallBeforeFixPrompt() *RecallBeforeFixPrompt {
	return &RecallBeforeFixPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *RecallBeforeFixPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("recall-before-fix",
		mcp.WithPromptDescription(
			"Before fixing a problem, look up earlier failed attempts, fixes and decisions "+
				"about it so the same dead end is not tried twice.",
		),
		mcp.WithArgument("problem",
			mcp.ArgumentDescription("Short description of the bug or error, e.g. 'nil map in session loader'"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the recall-before-fix prompt request.
func (p *RecallBeforeFixPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	problem := strings.TrimSpace(req.Params.Arguments["problem"])
	if problem == "" {
		return nil, fmt.Errorf("prompt recall-before-fix: 'problem' is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Recall before fixing: %s", problem),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I need to fix this problem: %s\n\n"+
						"Before changing any code:\n"+
						"1. Run `mem_failures` with query=%q and list every approach that already failed\n"+
						"2. Run `mem_search` with query=%q and type='bugfix', then type='decision'\n"+
						"3. For anything relevant, use `mem_timeline` to see what happened around it\n"+
						"4. Propose a fix that does NOT repeat a recorded failure, and say which records you relied on\n\n"+
						"If an attempt fails again, record it with `mem_ingest` type='failed_attempt' and failed=true.",
					problem, problem, problem,
				)),
			},
		},
	}, nil
}
