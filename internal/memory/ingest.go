package memory

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/privacy"
)

// IngestParams is a manually submitted observation. Type and Title are
// required; everything else is optional.
type IngestParams struct {
	Type             string
	Title            string
	Detail           string
	RuleID           string
	VerificationType string
	PlanItem         string
	Files            []string
	Evidence         string
	// Failed marks a negative outcome, which raises derived importance.
	Failed bool
	// Importance overrides the derived value when in [1,5]. Zero derives it.
	Importance int
	// Visibility may only force private. Detection still applies on top.
	Visibility string
}

// Ingest validates p and writes it into sessionID, which the caller resolves
// once per request (normally from ActiveSession). The session must exist and
// be active; Ingest never creates or picks one.
func (s *Store) Ingest(sessionID string, p IngestParams) (*WriteResult, error) {
	typ, err := observation.ParseType(p.Type)
	if err != nil {
		return nil, fmt.Errorf("memory: ingest: %w", err)
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("memory: ingest: %w", ErrTitleRequired)
	}
	if p.Importance != 0 && (p.Importance < observation.MinImportance || p.Importance > observation.MaxImportance) {
		return nil, fmt.Errorf("memory: ingest: importance %d out of range [%d, %d]",
			p.Importance, observation.MinImportance, observation.MaxImportance)
	}
	vis := privacy.Visibility(strings.ToLower(strings.TrimSpace(p.Visibility)))
	if vis != "" && !vis.Valid() {
		return nil, fmt.Errorf("memory: ingest: invalid visibility %q (valid: public, private)", p.Visibility)
	}

	if sessionID == "" {
		return nil, fmt.Errorf("memory: ingest: %w", ErrNoActiveSession)
	}
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("memory: ingest: %w", err)
	}
	if sess.Status != StatusActive {
		return nil, fmt.Errorf("memory: ingest: session %s is %s: %w", sess.ID, sess.Status, ErrNoActiveSession)
	}

	outcome := observation.OutcomeNeutral
	if p.Failed {
		outcome = observation.OutcomeFailure
	}

	return s.AddObservation(sess.ID, observation.Draft{
		Type:             typ,
		Title:            p.Title,
		Detail:           p.Detail,
		Outcome:          outcome,
		Importance:       p.Importance,
		RuleID:           p.RuleID,
		VerificationType: p.VerificationType,
		PlanItem:         p.PlanItem,
		Files:            p.Files,
		Evidence:         p.Evidence,
		ToolName:         "manual",
		Visibility:       vis,
	})
}
