package memory

import (
	"database/sql"
	"errors"
	"fmt"
)

// ─── Capture marks ───────────────────────────────────────────────────────────

// CaptureMark returns the last transcript line of source already captured
// into sessionID, or 0 when source has not been captured there.
func (s *Store) CaptureMark(sessionID, source string) (int, error) {
	var line int
	err := s.q.QueryRow(
		`SELECT line FROM capture_marks WHERE session_id = ? AND source = ?`,
		sessionID, source,
	).Scan(&line)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("memory: capture mark: %w", err)
	}
	return line, nil
}

// SetCaptureMark records line as the last captured line of source in
// sessionID.
func (s *Store) SetCaptureMark(sessionID, source string, line int) error {
	if line < 0 {
		return fmt.Errorf("memory: capture mark: negative line %d", line)
	}
	updatedAt, _ := s.timestamp()
	if _, err := s.q.Exec(
		`INSERT INTO capture_marks (session_id, source, line, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, source) DO UPDATE
		    SET line = excluded.line, updated_at = excluded.updated_at`,
		sessionID, source, line, updatedAt,
	); err != nil {
		return fmt.Errorf("memory: set capture mark: %w", err)
	}
	return nil
}
