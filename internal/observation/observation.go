// Package observation defines the vocabulary shared by the classifier, the
// store and manual ingest: observation types, outcomes, the importance table
// and the Draft produced before anything is persisted.
package observation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/recall/internal/privacy"
)

// Type is the fixed observation category.
type Type string

const (
	Decision          Type = "decision"
	Bugfix            Type = "bugfix"
	Feature           Type = "feature"
	Refactor          Type = "refactor"
	Discovery         Type = "discovery"
	RuleViolation     Type = "rule_violation"
	VerificationCheck Type = "verification_check"
	PatternCompliance Type = "pattern_compliance"
	FailedAttempt     Type = "failed_attempt"
	FileChange        Type = "file_change"
	IncidentNearMiss  Type = "incident_near_miss"
)

// ErrUnknownType is returned when a type is not one of the fixed values.
var ErrUnknownType = errors.New("unknown observation type")

var allTypes = []Type{
	Decision, Bugfix, Feature, Refactor, Discovery, RuleViolation,
	VerificationCheck, PatternCompliance, FailedAttempt, FileChange, IncidentNearMiss,
}

// Types returns every valid type in declaration order.
func Types() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// TypeNames returns the valid types as strings, for tool schemas.
func TypeNames() []string {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	return names
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	_, ok := baseImportance[t]
	return ok
}

// ParseType validates s against the fixed enumeration.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(strings.ToLower(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownType, s, strings.Join(TypeNames(), ", "))
	}
	return t, nil
}

// Outcome is the result polarity of the event behind an observation.
type Outcome int

const (
	OutcomeNeutral Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "pass"
	case OutcomeFailure:
		return "fail"
	default:
		return "neutral"
	}
}

// Importance bounds.
const (
	MinImportance = 1
	MaxImportance = 5
)

var baseImportance = map[Type]int{
	Decision:          4,
	Bugfix:            4,
	Feature:           3,
	Refactor:          3,
	Discovery:         2,
	RuleViolation:     4,
	VerificationCheck: 2,
	PatternCompliance: 2,
	FailedAttempt:     4,
	FileChange:        1,
	IncidentNearMiss:  5,
}

// Importance returns the importance for a type and outcome. Failures rank one
// step above the type's base so they surface first on recall.
func Importance(t Type, o Outcome) int {
	base, ok := baseImportance[t]
	if !ok {
		base = MinImportance
	}
	if o == OutcomeFailure {
		base++
	}
	return ClampImportance(base)
}

// ClampImportance forces v into [MinImportance, MaxImportance].
func ClampImportance(v int) int {
	if v < MinImportance {
		return MinImportance
	}
	if v > MaxImportance {
		return MaxImportance
	}
	return v
}

// Draft is a classified but not yet persisted observation.
type Draft struct {
	Type             Type
	Title            string
	Detail           string
	Outcome          Outcome
	Importance       int // 0 means derive from Type and Outcome
	RuleID           string
	VerificationType string
	PlanItem         string
	Files            []string
	Evidence         string
	ToolName         string

	// Visibility is a requested floor. Detection can still tighten it.
	Visibility privacy.Visibility
}

// ResolvedImportance returns the explicit importance when set, otherwise the
// table value for the draft's type and outcome.
func (d Draft) ResolvedImportance() int {
	if d.Importance != 0 {
		return ClampImportance(d.Importance)
	}
	return Importance(d.Type, d.Outcome)
}

// Truncate shortens s to at most max bytes, appending "..." when cut. It
// never splits a UTF-8 sequence.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	if cut > 3 {
		cut -= 3
	}
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
