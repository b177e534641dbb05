package capture

import (
	"strings"
	"testing"

	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/transcript"
)

func TestClassifyText_DecisionsAndFailures(t *testing.T) {
	c := newTestClassifier()
	text := "Looked at the loader. I decided to use a mutex around the cache map. " +
		"Then I tried sync.Map but that didn't work because of the range semantics! " +
		"Everything compiles now."

	drafts := c.ClassifyText(text)
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2: %+v", len(drafts), drafts)
	}

	dec := drafts[0]
	if dec.Type != observation.Decision {
		t.Errorf("first type = %s, want decision", dec.Type)
	}
	if dec.Title != "I decided to use a mutex around the cache map." {
		t.Errorf("title = %q", dec.Title)
	}
	if !strings.Contains(dec.Detail, "Looked at the loader.") || !strings.Contains(dec.Detail, "sync.Map") {
		t.Errorf("detail should carry neighbouring sentences: %q", dec.Detail)
	}

	fail := drafts[1]
	if fail.Type != observation.FailedAttempt {
		t.Errorf("second type = %s, want failed_attempt", fail.Type)
	}
	if fail.ResolvedImportance() != 4 {
		t.Errorf("failed attempt importance = %d, want 4", fail.ResolvedImportance())
	}
}

func TestClassifyText_DecisionWinsOverFailure(t *testing.T) {
	drafts := newTestClassifier().ClassifyText("Retrying didn't work, so I decided to drop the cache entirely.")
	if len(drafts) != 1 || drafts[0].Type != observation.Decision {
		t.Errorf("drafts = %+v", drafts)
	}
}

func TestClassifyText_IgnoresPlainProse(t *testing.T) {
	c := newTestClassifier()
	for _, text := range []string{
		"",
		"All tests pass.",
		"Here is the updated handler with the new validation.",
		"Ok.",
	} {
		if drafts := c.ClassifyText(text); len(drafts) != 0 {
			t.Errorf("%q produced %+v", text, drafts)
		}
	}
}

func TestClassifyText_MarkdownAndDedup(t *testing.T) {
	text := "- **Going with** `sqlite` for storage\n- Going with `sqlite` for storage\n"
	drafts := newTestClassifier().ClassifyText(text)
	if len(drafts) != 1 {
		t.Fatalf("got %d drafts, want 1", len(drafts))
	}
	if drafts[0].Title != "Going with sqlite for storage" {
		t.Errorf("title = %q", drafts[0].Title)
	}
}

func TestClassifyText_DetailBounded(t *testing.T) {
	long := strings.Repeat("word ", 400)
	text := long + ". I opted for the streaming parser. " + long + "."
	drafts := newTestClassifier().ClassifyText(text)
	if len(drafts) != 1 {
		t.Fatalf("got %d drafts", len(drafts))
	}
	if len(drafts[0].Detail) > maxTextDetail {
		t.Errorf("detail length = %d, want <= %d", len(drafts[0].Detail), maxTextDetail)
	}
}

func TestDetectStructural(t *testing.T) {
	c := newTestClassifier()

	hit := c.DetectStructural(&transcript.ToolCall{
		Name:   "Task",
		Result: "Done. I refactored into three packages: store, api and cli.",
	})
	if hit == nil {
		t.Fatal("expected a structural draft")
	}
	if hit.Type != observation.Decision || !strings.HasPrefix(hit.Title, "Structural change: ") {
		t.Errorf("draft = %+v", hit)
	}
	if hit.ToolName != "Task" {
		t.Errorf("tool name = %q", hit.ToolName)
	}

	if d := c.DetectStructural(&transcript.ToolCall{Name: "Bash", Result: "migrated to v2", IsError: true}); d != nil {
		t.Error("errored results should not be structural")
	}
	if d := c.DetectStructural(&transcript.ToolCall{Name: "Bash", Result: "ok"}); d != nil {
		t.Error("plain result should not be structural")
	}
}
