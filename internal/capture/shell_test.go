package capture

import (
	"testing"

	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/transcript"
)

func bash(command, result string, isError bool) *transcript.ToolCall {
	return &transcript.ToolCall{
		Name:    "Bash",
		Input:   map[string]any{"command": command},
		Result:  result,
		IsError: isError,
	}
}

func TestClassifyShell_Commits(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name      string
		command   string
		output    string
		wantType  observation.Type
		wantTitle string
	}{
		{
			name:      "quoted fix",
			command:   `git commit -m "fix: null pointer in session loader"`,
			output:    "[main 1a2b3c4] fix: null pointer in session loader",
			wantType:  observation.Bugfix,
			wantTitle: "fix: null pointer in session loader",
		},
		{
			name:      "single quoted feature with -am",
			command:   `git commit -am 'Add export command'`,
			wantType:  observation.Feature,
			wantTitle: "Add export command",
		},
		{
			name:      "heredoc",
			command:   "git commit -m \"$(cat <<'EOF'\nAdd retry to uploader\n\nFixes flaky uploads\nEOF\n)\"",
			wantType:  observation.Bugfix,
			wantTitle: "Add retry to uploader",
		},
		{
			name:      "message from output",
			command:   "git commit -F msg.txt",
			output:    "[feature/x abc1234] Wire config loader\n 2 files changed",
			wantType:  observation.Feature,
			wantTitle: "Wire config loader",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.ClassifyTool(bash(tt.command, tt.output+" ", false))
			if d == nil {
				t.Fatal("expected a draft")
			}
			if d.Type != tt.wantType {
				t.Errorf("type = %s, want %s", d.Type, tt.wantType)
			}
			if d.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", d.Title, tt.wantTitle)
			}
		})
	}
}

func TestClassifyShell_FixCommitImportance(t *testing.T) {
	d := newTestClassifier().ClassifyTool(bash(`git commit -m "fix: null pointer in session loader"`, "[main 1a2b3c4] fix", false))
	if d == nil {
		t.Fatal("expected a draft")
	}
	if got := d.ResolvedImportance(); got != 4 {
		t.Errorf("importance = %d, want 4", got)
	}
}

func TestClassifyShell_FailedCommitIgnored(t *testing.T) {
	d := newTestClassifier().ClassifyTool(bash(`git commit -m "wip"`, "nothing to commit", true))
	if d != nil {
		t.Errorf("failed commit should not classify: %+v", d)
	}
}

func TestClassifyShell_Verification(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name        string
		command     string
		output      string
		isError     bool
		wantTag     string
		wantOutcome observation.Outcome
		wantTitle   string
	}{
		{"go test pass", "go test ./...", "ok  \tgithub.com/x/y\t0.2s", false, "TEST", observation.OutcomeSuccess, "Tests passed: go test ./..."},
		{"go test fail", "go test ./...", "--- FAIL: TestX (0.00s)\nFAIL", false, "TEST", observation.OutcomeFailure, "Tests failed: go test ./..."},
		{"jest count", "npm test", "Tests: 2 failed, 10 passed", false, "TEST", observation.OutcomeFailure, "Tests failed: npm test"},
		{"zero failed passes", "pytest", "10 passed, 0 failed", false, "TEST", observation.OutcomeSuccess, "Tests passed: pytest"},
		{"tsc error", "npx tsc --noEmit", "src/a.ts(1,1): error TS2304", false, "TYPE", observation.OutcomeFailure, "Type check failed: npx tsc --noEmit"},
		{"go vet", "go vet ./...", "done", false, "TYPE", observation.OutcomeSuccess, "Type check passed: go vet ./..."},
		{"build exit code", "go build ./...", "exit status 2", true, "BUILD", observation.OutcomeFailure, "Build failed: go build ./..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.ClassifyTool(bash(tt.command, tt.output, tt.isError))
			if d == nil {
				t.Fatal("expected a draft")
			}
			if d.Type != observation.VerificationCheck {
				t.Errorf("type = %s", d.Type)
			}
			if d.VerificationType != tt.wantTag {
				t.Errorf("verification type = %q, want %q", d.VerificationType, tt.wantTag)
			}
			if d.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %s, want %s", d.Outcome, tt.wantOutcome)
			}
			if d.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", d.Title, tt.wantTitle)
			}
			if d.Evidence == "" {
				t.Error("evidence should carry the output")
			}
		})
	}
}

func TestClassifyShell_PatternScan(t *testing.T) {
	c := newTestClassifier()

	pass := c.ClassifyTool(bash("npm run lint:patterns", "0 violations found", false))
	if pass == nil || pass.Type != observation.PatternCompliance || pass.Outcome != observation.OutcomeSuccess {
		t.Fatalf("pass = %+v", pass)
	}

	fail := c.ClassifyTool(bash("semgrep --config rules/ src/", "RULE-8 violation: raw SQL in handler", false))
	if fail == nil || fail.Outcome != observation.OutcomeFailure {
		t.Fatalf("fail = %+v", fail)
	}
	if fail.RuleID != "RULE-8" {
		t.Errorf("rule id = %q", fail.RuleID)
	}
	if fail.ResolvedImportance() != 3 {
		t.Errorf("importance = %d, want 3", fail.ResolvedImportance())
	}
}

func TestClassifyShell_OtherCommandsIgnored(t *testing.T) {
	c := newTestClassifier()
	for _, cmd := range []string{"git status", "docker ps", "curl localhost:8080/health"} {
		if d := c.ClassifyTool(bash(cmd, "output", false)); d != nil {
			t.Errorf("%q classified as %+v", cmd, d)
		}
	}
}
