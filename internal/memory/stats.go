package memory

import "fmt"

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats holds aggregate memory statistics.
type Stats struct {
	TotalSessions       int            `json:"total_sessions"`
	SessionsByStatus    map[string]int `json:"sessions_by_status"`
	TotalObservations   int            `json:"total_observations"`
	ObservationsByType  map[string]int `json:"observations_by_type"`
	PrivateObservations int            `json:"private_observations"`
	Recurrences         int            `json:"recurrences"`
	FullTextSearch      bool           `json:"full_text_search"`
}

// Stats returns aggregate memory statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{
		SessionsByStatus:   map[string]int{},
		ObservationsByType: map[string]int{},
		FullTextSearch:     s.fts,
	}

	if err := s.countGroups("SELECT status, COUNT(*) FROM sessions GROUP BY status", stats.SessionsByStatus); err != nil {
		return nil, fmt.Errorf("memory: stats sessions: %w", err)
	}
	for _, n := range stats.SessionsByStatus {
		stats.TotalSessions += n
	}

	if err := s.countGroups("SELECT type, COUNT(*) FROM observations GROUP BY type", stats.ObservationsByType); err != nil {
		return nil, fmt.Errorf("memory: stats observations: %w", err)
	}
	for _, n := range stats.ObservationsByType {
		stats.TotalObservations += n
	}

	if err := s.q.QueryRow(
		`SELECT COUNT(*) FROM observations WHERE visibility = 'private'`,
	).Scan(&stats.PrivateObservations); err != nil {
		return nil, fmt.Errorf("memory: stats private: %w", err)
	}
	if err := s.q.QueryRow(
		`SELECT COALESCE(SUM(recurrence_count - 1), 0) FROM observations`,
	).Scan(&stats.Recurrences); err != nil {
		return nil, fmt.Errorf("memory: stats recurrences: %w", err)
	}

	return stats, nil
}

func (s *Store) countGroups(query string, into map[string]int) error {
	rows, err := s.q.Query(query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

// ─── Export ──────────────────────────────────────────────────────────────────

// ExportData is a serializable dump for downstream sync consumers.
type ExportData struct {
	Version      string        `json:"version"`
	ExportedAt   string        `json:"exported_at"`
	Sessions     []Session     `json:"sessions"`
	Observations []Observation `json:"observations"`
}

// Export dumps sessions and observations in creation order. Private
// observations are left out unless includePrivate is set.
func (s *Store) Export(includePrivate bool) (*ExportData, error) {
	exportedAt, _ := s.timestamp()
	data := &ExportData{Version: "1", ExportedAt: exportedAt}

	rows, err := s.q.Query(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at_epoch, rowid`)
	if err != nil {
		return nil, fmt.Errorf("memory: export sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var sess Session
		var status string
		if err := rows.Scan(
			&sess.ID, &status, &sess.Project, &sess.Directory, &sess.Branch, &sess.PlanFile, &sess.Summary,
			&sess.StartedAt, &sess.StartedAtEpoch, &sess.EndedAt, &sess.EndedAtEpoch,
		); err != nil {
			return nil, err
		}
		sess.Status = SessionStatus(status)
		data.Sessions = append(data.Sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query := `SELECT ` + observationColumns + ` FROM observations`
	if !includePrivate {
		query += ` WHERE visibility = 'public'`
	}
	query += ` ORDER BY created_at_epoch, id`
	data.Observations, err = s.queryObservations(query)
	if err != nil {
		return nil, fmt.Errorf("memory: export observations: %w", err)
	}
	return data, nil
}
