package memory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/privacy"
)

// Observation is one persisted unit of session memory.
type Observation struct {
	ID               int64              `json:"id"`
	SessionID        string             `json:"session_id"`
	Type             observation.Type   `json:"type"`
	Title            string             `json:"title"`
	Detail           string             `json:"detail,omitempty"`
	Importance       int                `json:"importance"`
	Visibility       privacy.Visibility `json:"visibility"`
	RuleID           *string            `json:"rule_id,omitempty"`
	VerificationType *string            `json:"verification_type,omitempty"`
	PlanItem         *string            `json:"plan_item,omitempty"`
	FilesInvolved    []string           `json:"files_involved,omitempty"`
	Evidence         *string            `json:"evidence,omitempty"`
	ToolName         *string            `json:"tool_name,omitempty"`
	RecurrenceCount  int                `json:"recurrence_count"`
	CreatedAt        string             `json:"created_at"`
	CreatedAtEpoch   int64              `json:"created_at_epoch"`
}

// WriteResult reports what a write did.
type WriteResult struct {
	ID              int64              `json:"id"`
	Recurred        bool               `json:"recurred"`
	RecurrenceCount int                `json:"recurrence_count"`
	Visibility      privacy.Visibility `json:"visibility"`
	Importance      int                `json:"importance"`
}

const observationColumns = `id, session_id, type, title, detail, importance, visibility,
	rule_id, verification_type, plan_item, files_involved, evidence, tool_name,
	recurrence_count, created_at, created_at_epoch`

type scanner interface {
	Scan(dest ...any) error
}

func scanObservation(sc scanner) (*Observation, error) {
	var o Observation
	var typ, vis, files string
	if err := sc.Scan(
		&o.ID, &o.SessionID, &typ, &o.Title, &o.Detail, &o.Importance, &vis,
		&o.RuleID, &o.VerificationType, &o.PlanItem, &files, &o.Evidence, &o.ToolName,
		&o.RecurrenceCount, &o.CreatedAt, &o.CreatedAtEpoch,
	); err != nil {
		return nil, err
	}
	o.Type = observation.Type(typ)
	o.Visibility = privacy.Visibility(vis)
	if files != "" && files != "[]" {
		if err := json.Unmarshal([]byte(files), &o.FilesInvolved); err != nil {
			return nil, fmt.Errorf("decode files_involved for #%d: %w", o.ID, err)
		}
	}
	return &o, nil
}

func (s *Store) queryObservations(query string, args ...any) ([]Observation, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// GetObservation returns a single observation by ID, or nil when absent.
func (s *Store) GetObservation(id int64) (*Observation, error) {
	o, err := scanObservation(s.q.QueryRow(`SELECT `+observationColumns+` FROM observations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get observation #%d: %w", id, err)
	}
	return o, nil
}

// ─── Write ───────────────────────────────────────────────────────────────────

// AddObservation writes a classified draft into sessionID. Content is
// redacted and bounded, visibility is detected, and a draft whose (type,
// recurrence key) already exists bumps that row's recurrence_count instead
// of inserting.
func (s *Store) AddObservation(sessionID string, d observation.Draft) (*WriteResult, error) {
	if sessionID == "" {
		return nil, ErrNoActiveSession
	}
	if !d.Type.Valid() {
		return nil, fmt.Errorf("memory: add observation: %w: %q", ErrUnknownType, d.Type)
	}

	title := observation.Truncate(strings.TrimSpace(privacy.StripPrivateTags(d.Title)), MaxTitleLength)
	if title == "" {
		return nil, fmt.Errorf("memory: add observation: %w", ErrTitleRequired)
	}
	detail := observation.Truncate(privacy.StripPrivateTags(d.Detail), MaxDetailLength)
	evidence := observation.Truncate(privacy.StripPrivateTags(d.Evidence), MaxEvidenceLength)

	visibility := privacy.Resolve(privacy.Classify(title, detail), d.Visibility)
	importance := observation.ClampImportance(d.ResolvedImportance())
	key := RecurrenceKey(title)

	files := d.Files
	if files == nil {
		files = []string{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("memory: encode files: %w", err)
	}

	var result *WriteResult
	err = s.InTx(func(tx *Store) error {
		var existingID int64
		var count, existingImportance int
		var existingVis string
		err := tx.q.QueryRow(
			`SELECT id, recurrence_count, importance, visibility FROM observations
			  WHERE type = ? AND recurrence_key = ?
			  ORDER BY id LIMIT 1`,
			string(d.Type), key,
		).Scan(&existingID, &count, &existingImportance, &existingVis)

		switch {
		case err == nil:
			if _, err := tx.q.Exec(
				`UPDATE observations SET recurrence_count = recurrence_count + 1 WHERE id = ?`, existingID,
			); err != nil {
				return fmt.Errorf("memory: bump recurrence: %w", err)
			}
			result = &WriteResult{
				ID:              existingID,
				Recurred:        true,
				RecurrenceCount: count + 1,
				Visibility:      privacy.Visibility(existingVis),
				Importance:      existingImportance,
			}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("memory: recurrence lookup: %w", err)
		}

		createdAt, epoch := tx.timestamp()
		res, err := tx.q.Exec(
			`INSERT INTO observations
			   (session_id, type, title, detail, importance, visibility,
			    rule_id, verification_type, plan_item, files_involved, evidence, tool_name,
			    recurrence_key, recurrence_count, created_at, created_at_epoch)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			sessionID, string(d.Type), title, detail, importance, string(visibility),
			nullableString(d.RuleID), nullableString(d.VerificationType), nullableString(d.PlanItem),
			string(filesJSON), nullableString(evidence), nullableString(d.ToolName),
			key, createdAt, epoch,
		)
		if err != nil {
			return fmt.Errorf("memory: insert observation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("memory: last insert id: %w", err)
		}
		result = &WriteResult{
			ID:              id,
			RecurrenceCount: 1,
			Visibility:      visibility,
			Importance:      importance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ─── Recurrence key ──────────────────────────────────────────────────────────

// recurrenceKeyLength bounds the normalized-title form of the key.
const recurrenceKeyLength = 80

var incidentPattern = regexp.MustCompile(`\bINC-(\d+)\b|(?i:\bincident)\s*[#:]?\s*(\d+)\b`)

// RecurrenceKey is the matching key for idempotent writes. A title that
// embeds an incident number keys on that number; anything else keys on its
// lowercased, whitespace-collapsed first 80 characters.
func RecurrenceKey(title string) string {
	if m := incidentPattern.FindStringSubmatch(title); m != nil {
		return "incident:" + m[1] + m[2]
	}
	norm := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	if r := []rune(norm); len(r) > recurrenceKeyLength {
		norm = string(r[:recurrenceKeyLength])
	}
	return "title:" + norm
}
