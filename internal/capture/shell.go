package capture

import (
	"regexp"
	"strings"

	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/transcript"
)

// shellMatcher recognizes one operational signature in a shell command.
// Matchers are tried in order; the first whose Match returns true classifies.
type shellMatcher struct {
	Name     string
	Match    func(command string) bool
	Classify func(call *transcript.ToolCall, command string) *observation.Draft
}

var (
	commitCmdPattern      = regexp.MustCompile(`\bgit\s+(?:-C\s+\S+\s+)?commit\b`)
	commitMsgQuoted       = regexp.MustCompile(`(?s)(?:\s-[a-zA-Z]*m|--message)[= ]\s*(?:"((?:[^"\\]|\\.)*)"|'([^']*)')`)
	commitMsgBare         = regexp.MustCompile(`(?:\s-[a-zA-Z]*m|--message)[= ]\s*([^\s"'$][^\s]*)`)
	heredocOpener         = regexp.MustCompile(`<<-?\s*['"]?(\w+)['"]?[^\n]*\n`)
	commitOutputPattern   = regexp.MustCompile(`(?m)^\[[^\]\s]+(?:\s+\(root-commit\))?\s+[0-9a-f]{5,}\]\s+(.+)$`)
	patternCmdPattern     = regexp.MustCompile(`(?i)\b(?:pattern-check|check-patterns|lint:patterns|semgrep|ast-grep|sg\s+scan)\b`)
	patternFailurePattern = regexp.MustCompile(`(?i)\bFAIL(?:ED)?\b|✗|\b[1-9]\d*\s+violations?\b|\bviolation:|\berrors?:`)
	testCmdPattern        = regexp.MustCompile(`\b(?:go\s+test|(?:npm|yarn|pnpm|bun)\s+(?:run\s+)?test|pytest|jest|vitest|cargo\s+test|mvn\s+test|gradle\s+test|rspec|phpunit)\b`)
	testFailurePattern    = regexp.MustCompile(`(?m)^(?:---\s+)?FAIL\b|\b[1-9]\d*\s+(?:failed|failing)\b|\bpanic:`)
	typeCmdPattern        = regexp.MustCompile(`\b(?:tsc|go\s+vet|mypy|pyright|(?:npm|yarn|pnpm)\s+(?:run\s+)?type-?check|typecheck)\b`)
	buildCmdPattern       = regexp.MustCompile(`\b(?:go\s+build|(?:npm|yarn|pnpm|bun)\s+(?:run\s+)?build|cargo\s+build|make|gradle\s+build|mvn\s+(?:package|compile))\b`)
	buildFailurePattern   = regexp.MustCompile(`(?i)\berror\b|\bfailed\b`)
)

func defaultShellMatchers() []shellMatcher {
	return []shellMatcher{
		{Name: "commit", Match: commitCmdPattern.MatchString, Classify: classifyCommit},
		{Name: "pattern_compliance", Match: patternCmdPattern.MatchString, Classify: classifyPatternScan},
		{Name: "test", Match: testCmdPattern.MatchString, Classify: verificationClassifier("TEST", "Tests", testFailurePattern)},
		{Name: "typecheck", Match: typeCmdPattern.MatchString, Classify: verificationClassifier("TYPE", "Type check", buildFailurePattern)},
		{Name: "build", Match: buildCmdPattern.MatchString, Classify: verificationClassifier("BUILD", "Build", buildFailurePattern)},
	}
}

func (c *Classifier) classifyShell(call *transcript.ToolCall) *observation.Draft {
	command := strings.TrimSpace(call.InputString("command"))
	if command == "" {
		return nil
	}
	for _, m := range c.shell {
		if !m.Match(command) {
			continue
		}
		d := m.Classify(call, command)
		if d == nil {
			return nil
		}
		ExtractRefs(command, call.Result).applyTo(d)
		return d
	}
	return nil
}

// ─── Commit ──────────────────────────────────────────────────────────────────

func classifyCommit(call *transcript.ToolCall, command string) *observation.Draft {
	if call.IsError {
		return nil
	}
	msg := commitMessage(command, call.Result)
	if msg == "" {
		return nil
	}
	subject := strings.TrimSpace(strings.SplitN(msg, "\n", 2)[0])

	typ := observation.Feature
	if strings.Contains(strings.ToLower(msg), "fix") {
		typ = observation.Bugfix
	}
	return &observation.Draft{
		Type:     typ,
		Title:    subject,
		Detail:   observation.Truncate(msg, maxTextDetail),
		Outcome:  observation.OutcomeSuccess,
		Evidence: observation.Truncate(strings.TrimSpace(call.Result), maxEvidence),
	}
}

// commitMessage pulls the commit message from the command, falling back to
// git's "[branch sha] subject" output line.
func commitMessage(command, output string) string {
	if msg := heredocBody(command); msg != "" {
		return msg
	}
	if m := commitMsgQuoted.FindStringSubmatch(command); m != nil {
		msg := m[1]
		if msg == "" {
			msg = m[2]
		}
		msg = strings.ReplaceAll(msg, `\"`, `"`)
		if msg = strings.TrimSpace(msg); msg != "" {
			return msg
		}
	}
	if m := commitMsgBare.FindStringSubmatch(command); m != nil {
		return m[1]
	}
	if m := commitOutputPattern.FindStringSubmatch(output); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// heredocBody returns the text between a <<DELIM opener and its closing
// DELIM line.
func heredocBody(command string) string {
	loc := heredocOpener.FindStringSubmatchIndex(command)
	if loc == nil {
		return ""
	}
	delim := command[loc[2]:loc[3]]
	lines := strings.Split(command[loc[1]:], "\n")
	var body []string
	for _, line := range lines {
		if strings.TrimSpace(line) == delim {
			return strings.TrimSpace(strings.Join(body, "\n"))
		}
		body = append(body, line)
	}
	return ""
}

// ─── Pattern compliance ──────────────────────────────────────────────────────

func classifyPatternScan(call *transcript.ToolCall, command string) *observation.Draft {
	failed := call.IsError || patternFailurePattern.MatchString(call.Result)
	outcome, verdict := observation.OutcomeSuccess, "passed"
	if failed {
		outcome, verdict = observation.OutcomeFailure, "failed"
	}
	return &observation.Draft{
		Type:     observation.PatternCompliance,
		Title:    "Pattern check " + verdict + ": " + shortCommand(command),
		Outcome:  outcome,
		Evidence: observation.Truncate(strings.TrimSpace(call.Result), maxEvidence),
	}
}

// ─── Verification ────────────────────────────────────────────────────────────

func verificationClassifier(tag, label string, failure *regexp.Regexp) func(*transcript.ToolCall, string) *observation.Draft {
	return func(call *transcript.ToolCall, command string) *observation.Draft {
		failed := call.IsError || failure.MatchString(call.Result)
		outcome, verdict := observation.OutcomeSuccess, "passed"
		if failed {
			outcome, verdict = observation.OutcomeFailure, "failed"
		}
		return &observation.Draft{
			Type:             observation.VerificationCheck,
			Title:            label + " " + verdict + ": " + shortCommand(command),
			Outcome:          outcome,
			VerificationType: tag,
			Evidence:         observation.Truncate(strings.TrimSpace(call.Result), maxEvidence),
		}
	}
}

// shortCommand keeps the first line of a command, capped for use in a title.
func shortCommand(command string) string {
	line := strings.TrimSpace(strings.SplitN(command, "\n", 2)[0])
	return observation.Truncate(line, 120)
}
