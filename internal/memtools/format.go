package memtools

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/HendryAvila/recall/internal/memory"
	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/privacy"
)

// Detail levels for read tools. summary shows ids and titles only, standard
// adds short snippets, full prints every stored field.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// snippetLength caps detail text in standard mode.
const snippetLength = 200

// DetailLevelValues returns the enum values for tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to standard.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// SummaryFooter nudges the caller toward richer levels when it needs them.
const SummaryFooter = "\n---\nUse detail_level: standard or full for more detail."

// NavigationHint returns a footer when results were capped by a limit, and ""
// when everything fits.
func NavigationHint(showing, limit int, hint string) string {
	if showing < limit || limit <= 0 {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\nShowing the first %d. %s", showing, hint)
	}
	return fmt.Sprintf("\nShowing the first %d.", showing)
}

// EstimateTokens approximates the token count of text at four bytes per
// token. Non-empty text is at least one token.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	if n < 4 {
		return 1
	}
	return n / 4
}

// TokenFooter reports the estimated size of a response.
func TokenFooter(tokens int) string {
	return fmt.Sprintf("\n~%s tokens", humanize.Comma(int64(tokens)))
}

// withFooter appends the token footer to a finished response body.
func withFooter(body string) string {
	return body + TokenFooter(EstimateTokens(body))
}

// ─── Observation rendering ──────────────────────────────────────────────────

// headline is the one-line form shared by every listing.
func headline(o *memory.Observation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d [%s] %s", o.ID, o.Type, o.Title)
	var tags []string
	tags = append(tags, fmt.Sprintf("importance %d", o.Importance))
	if o.RecurrenceCount > 1 {
		tags = append(tags, fmt.Sprintf("seen %dx", o.RecurrenceCount))
	}
	if o.Visibility == privacy.Private {
		tags = append(tags, "private")
	}
	fmt.Fprintf(&b, " (%s)", strings.Join(tags, ", "))
	return b.String()
}

// writeObservation renders o at the given detail level.
func writeObservation(b *strings.Builder, o *memory.Observation, level string) {
	b.WriteString(headline(o))
	b.WriteString("\n")
	switch level {
	case DetailSummary:
		return
	case DetailFull:
		writeFullFields(b, o)
	default:
		if o.Detail != "" {
			fmt.Fprintf(b, "    %s\n", oneLine(observation.Truncate(o.Detail, snippetLength)))
		}
		if refs := references(o); refs != "" {
			fmt.Fprintf(b, "    %s\n", refs)
		}
	}
}

func writeFullFields(b *strings.Builder, o *memory.Observation) {
	fmt.Fprintf(b, "    Session: %s\n", o.SessionID)
	fmt.Fprintf(b, "    Created: %s\n", o.CreatedAt)
	fmt.Fprintf(b, "    Visibility: %s\n", o.Visibility)
	fmt.Fprintf(b, "    Recurrences: %d\n", o.RecurrenceCount)
	if o.ToolName != nil {
		fmt.Fprintf(b, "    Tool: %s\n", *o.ToolName)
	}
	if refs := references(o); refs != "" {
		fmt.Fprintf(b, "    %s\n", refs)
	}
	if len(o.FilesInvolved) > 0 {
		fmt.Fprintf(b, "    Files: %s\n", strings.Join(o.FilesInvolved, ", "))
	}
	if o.Detail != "" {
		fmt.Fprintf(b, "    Detail:\n%s\n", indent(o.Detail))
	}
	if o.Evidence != nil && *o.Evidence != "" {
		fmt.Fprintf(b, "    Evidence:\n%s\n", indent(*o.Evidence))
	}
}

func references(o *memory.Observation) string {
	var parts []string
	if o.RuleID != nil {
		parts = append(parts, "rule "+*o.RuleID)
	}
	if o.VerificationType != nil {
		parts = append(parts, "verification "+*o.VerificationType)
	}
	if o.PlanItem != nil {
		parts = append(parts, "plan "+*o.PlanItem)
	}
	return strings.Join(parts, " | ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "      " + l
	}
	return strings.Join(lines, "\n")
}
