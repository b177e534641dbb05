package capture

import (
	"strings"
	"testing"

	"github.com/HendryAvila/recall/internal/observation"
)

func newTestClassifier() *Classifier {
	return NewClassifier(Options{
		PlansDir:         "docs/plans",
		KnowledgeSources: []string{"ARCHITECTURE.md", "rules.md"},
		ProjectRoot:      "/work/app",
	})
}

func TestClassifyTool_Writes(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name      string
		tool      string
		input     map[string]any
		isError   bool
		wantTitle string
		wantOut   observation.Outcome
		wantFile  string
	}{
		{
			name:      "write creates",
			tool:      "Write",
			input:     map[string]any{"file_path": "/work/app/internal/store.go", "content": "package store"},
			wantTitle: "Created internal/store.go",
			wantOut:   observation.OutcomeSuccess,
			wantFile:  "internal/store.go",
		},
		{
			name:      "edit outside root",
			tool:      "Edit",
			input:     map[string]any{"file_path": "/home/dev/other/pkg/sub/file.go", "new_string": "x := 1"},
			wantTitle: "Edited pkg/sub/file.go",
			wantOut:   observation.OutcomeSuccess,
			wantFile:  "pkg/sub/file.go",
		},
		{
			name:      "failed edit",
			tool:      "Edit",
			input:     map[string]any{"file_path": "main.go", "new_string": "y"},
			isError:   true,
			wantTitle: "Edited main.go",
			wantOut:   observation.OutcomeFailure,
			wantFile:  "main.go",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c2 := call(tt.tool, tt.input, "ok")
			c2.IsError = tt.isError
			d := c.ClassifyTool(c2)
			if d == nil {
				t.Fatal("expected a draft")
			}
			if d.Type != observation.FileChange {
				t.Errorf("type = %s", d.Type)
			}
			if d.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", d.Title, tt.wantTitle)
			}
			if d.Outcome != tt.wantOut {
				t.Errorf("outcome = %s, want %s", d.Outcome, tt.wantOut)
			}
			if len(d.Files) != 1 || d.Files[0] != tt.wantFile {
				t.Errorf("files = %v", d.Files)
			}
			if d.ToolName != tt.tool {
				t.Errorf("tool name = %q", d.ToolName)
			}
		})
	}
}

func TestClassifyTool_WriteDetailBoundedAndRefs(t *testing.T) {
	c := newTestClassifier()
	content := "// Implements PLAN-7 per RULE-12\n" + strings.Repeat("x", 2000)
	d := c.ClassifyTool(call("Write", map[string]any{"file_path": "a.go", "content": content}, "ok"))
	if d == nil {
		t.Fatal("expected a draft")
	}
	if len(d.Detail) > maxFileDetail {
		t.Errorf("detail length = %d, want <= %d", len(d.Detail), maxFileDetail)
	}
	if d.RuleID != "RULE-12" || d.PlanItem != "PLAN-7" {
		t.Errorf("refs = %q %q", d.RuleID, d.PlanItem)
	}
}

func TestClassifyTool_MultiEditContent(t *testing.T) {
	c := newTestClassifier()
	d := c.ClassifyTool(call("MultiEdit", map[string]any{
		"file_path": "a.go",
		"edits": []any{
			map[string]any{"old_string": "a", "new_string": "first"},
			map[string]any{"old_string": "b", "new_string": "second"},
		},
	}, "ok"))
	if d == nil || d.Detail != "first\nsecond" {
		t.Errorf("draft = %+v", d)
	}
}

func TestClassifyTool_Reads(t *testing.T) {
	c := newTestClassifier()

	plan := c.ClassifyTool(call("Read", map[string]any{"file_path": "/work/app/docs/plans/auth.md"}, "# Auth plan\nTASK-3 first"))
	if plan == nil || plan.Type != observation.Discovery || plan.Title != "Read plan docs/plans/auth.md" {
		t.Fatalf("plan read = %+v", plan)
	}
	if plan.PlanItem != "TASK-3" {
		t.Errorf("plan item = %q", plan.PlanItem)
	}

	ks := c.ClassifyTool(call("Read", map[string]any{"file_path": "/work/app/Rules.md"}, "RULE-1: no globals"))
	if ks == nil || ks.Title != "Read knowledge source Rules.md" {
		t.Fatalf("knowledge read = %+v", ks)
	}

	if d := c.ClassifyTool(call("Read", map[string]any{"file_path": "/work/app/main.go"}, "package main")); d != nil {
		t.Errorf("ordinary read should not classify: %+v", d)
	}
}

func TestClassifyTool_UnknownToolIgnored(t *testing.T) {
	if d := newTestClassifier().ClassifyTool(call("Task", map[string]any{"prompt": "x"}, "done")); d != nil {
		t.Errorf("unexpected draft %+v", d)
	}
}

func TestShortPath(t *testing.T) {
	c := newTestClassifier()
	tests := map[string]string{
		"/work/app/cmd/recall/main.go": "cmd/recall/main.go",
		"./internal/x.go":              "internal/x.go",
		"/etc/a/b/c/d.conf":            "b/c/d.conf",
		"/tmp/x":                       "tmp/x",
	}
	for in, want := range tests {
		if got := c.shortPath(in); got != want {
			t.Errorf("shortPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractRefs_FirstWins(t *testing.T) {
	r := ExtractRefs("nothing here", "RULE-4 then RULE-5 and VT-2", "VERIFY-9 TASK-1")
	if r.RuleID != "RULE-4" || r.VerificationType != "VT-2" || r.PlanItem != "TASK-1" {
		t.Errorf("refs = %+v", r)
	}
	if (ExtractRefs("NORULE-4")).RuleID != "" {
		t.Error("token must start on a word boundary")
	}
}
