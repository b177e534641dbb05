package capture

import (
	"regexp"

	"github.com/HendryAvila/recall/internal/observation"
)

var (
	ruleRefPattern   = regexp.MustCompile(`\bRULE-\d+\b`)
	verifyRefPattern = regexp.MustCompile(`\b(?:VT|VERIFY)-\d+\b`)
	planRefPattern   = regexp.MustCompile(`\b(?:PLAN|TASK)-\d+\b`)
)

// Refs holds the cross-reference tokens found in a piece of text.
type Refs struct {
	RuleID           string
	VerificationType string
	PlanItem         string
}

// ExtractRefs scans texts in order. The first token of each kind wins.
func ExtractRefs(texts ...string) Refs {
	var r Refs
	for _, t := range texts {
		if r.RuleID == "" {
			r.RuleID = ruleRefPattern.FindString(t)
		}
		if r.VerificationType == "" {
			r.VerificationType = verifyRefPattern.FindString(t)
		}
		if r.PlanItem == "" {
			r.PlanItem = planRefPattern.FindString(t)
		}
	}
	return r
}

// applyTo fills the draft's empty reference fields.
func (r Refs) applyTo(d *observation.Draft) {
	if d.RuleID == "" {
		d.RuleID = r.RuleID
	}
	if d.VerificationType == "" {
		d.VerificationType = r.VerificationType
	}
	if d.PlanItem == "" {
		d.PlanItem = r.PlanItem
	}
}
