package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, r *mcp.GetPromptResult) string {
	t.Helper()
	if r == nil || len(r.Messages) == 0 {
		t.Fatal("prompt returned no messages")
	}
	tc, ok := r.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", r.Messages[0].Content)
	}
	return tc.Text
}

func TestRecallBeforeFixPrompt(t *testing.T) {
	p := NewRecallBeforeFixPrompt()
	if def := p.Definition(); def.Name != "recall-before-fix" {
		t.Errorf("name = %q", def.Name)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"problem": "nil map in session loader"}
	res, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	text := promptText(t, res)
	for _, want := range []string{"mem_failures", `"nil map in session loader"`, "mem_timeline", "failed_attempt"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRecallBeforeFixPrompt_RequiresProblem(t *testing.T) {
	if _, err := NewRecallBeforeFixPrompt().Handle(context.Background(), mcp.GetPromptRequest{}); err == nil {
		t.Error("missing problem should error")
	}
}

func TestSessionReviewPrompt(t *testing.T) {
	p := NewSessionReviewPrompt()
	if def := p.Definition(); def.Name != "session-review" {
		t.Errorf("name = %q", def.Name)
	}
	res, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(promptText(t, res), "mem_session_end") {
		t.Error("review should end the session")
	}
}
