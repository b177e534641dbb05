package capture

import (
	"regexp"
	"strings"

	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/transcript"
)

// minSentenceLength drops fragments too short to stand alone as a title.
const minSentenceLength = 12

var decisionMarkers = []string{
	"decided to",
	"going with",
	"we'll go with",
	"i'll use",
	"i will use",
	"chose to",
	"opted for",
	"the approach is",
	"instead of",
}

var failedAttemptMarkers = []string{
	"didn't work",
	"did not work",
	"doesn't work",
	"still failed",
	"still failing",
	"still fails",
	"same error",
	"reverting",
	"that failed",
	"no luck",
}

var structuralMarkers = []string{
	"migrated to",
	"refactored into",
	"split into modules",
	"split into packages",
	"extracted into",
	"moved to a separate",
	"replaced the",
	"restructured",
}

// sentenceEnd cuts at terminal punctuation followed by whitespace, or at a
// newline. "store.go" stays whole.
var sentenceEnd = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)

var (
	boldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	codePattern   = regexp.MustCompile("`([^`]+)`")
	italicPattern = regexp.MustCompile(`\*([^*]+)\*`)
	bulletPattern = regexp.MustCompile(`^(?:[-*]|\d+[.)]|#{1,6})\s+`)
)

// ClassifyText scans assistant prose for decision and failed-attempt
// sentences. Each hit becomes one draft with the sentence as title and its
// neighbours as detail.
func (c *Classifier) ClassifyText(text string) []observation.Draft {
	sentences := splitSentences(text)
	var drafts []observation.Draft
	seen := make(map[string]bool)

	for i, s := range sentences {
		if len(s) < minSentenceLength {
			continue
		}
		lower := strings.ToLower(s)

		var typ observation.Type
		switch {
		case containsAny(lower, decisionMarkers):
			typ = observation.Decision
		case containsAny(lower, failedAttemptMarkers):
			typ = observation.FailedAttempt
		default:
			continue
		}
		if seen[lower] {
			continue
		}
		seen[lower] = true

		detail := surrounding(sentences, i)
		d := observation.Draft{
			Type:   typ,
			Title:  s,
			Detail: observation.Truncate(detail, maxTextDetail),
		}
		ExtractRefs(s, detail).applyTo(&d)
		drafts = append(drafts, d)
	}
	return drafts
}

// DetectStructural flags tool results that describe an architectural change,
// whatever tool produced them.
func (c *Classifier) DetectStructural(call *transcript.ToolCall) *observation.Draft {
	if call == nil || call.IsError || strings.TrimSpace(call.Result) == "" {
		return nil
	}
	sentences := splitSentences(call.Result)
	for i, s := range sentences {
		if len(s) < minSentenceLength || !containsAny(strings.ToLower(s), structuralMarkers) {
			continue
		}
		d := &observation.Draft{
			Type:     observation.Decision,
			Title:    "Structural change: " + s,
			Detail:   observation.Truncate(surrounding(sentences, i), maxTextDetail),
			Outcome:  observation.OutcomeSuccess,
			ToolName: call.Name,
		}
		ExtractRefs(call.Result).applyTo(d)
		return d
	}
	return nil
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = appendSentence(out, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		out = appendSentence(out, text[start:])
	}
	return out
}

func appendSentence(out []string, raw string) []string {
	s := cleanMarkdown(raw)
	if s == "" {
		return out
	}
	return append(out, s)
}

// cleanMarkdown strips list markers and inline emphasis and collapses
// whitespace.
func cleanMarkdown(text string) string {
	text = strings.TrimSpace(text)
	text = bulletPattern.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "$1")
	text = codePattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	return strings.Join(strings.Fields(text), " ")
}

func surrounding(sentences []string, i int) string {
	lo, hi := i-1, i+2
	if lo < 0 {
		lo = 0
	}
	if hi > len(sentences) {
		hi = len(sentences)
	}
	return strings.Join(sentences[lo:hi], " ")
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
