package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HendryAvila/recall/internal/observation"
)

// SearchOptions narrows a search.
type SearchOptions struct {
	Type      observation.Type
	RuleID    string
	SessionID string
	Since     time.Time
	Limit     int
}

// SearchResult embeds an Observation with its FTS5 rank. Rank is 0 for
// recency and substring results.
type SearchResult struct {
	Observation
	Rank float64 `json:"rank"`
}

// TimelineEntry is an observation in a timeline with an anchor flag.
type TimelineEntry struct {
	Observation
	IsAnchor bool `json:"is_anchor"`
}

// TimelineResult is a chronological window around an anchor observation.
type TimelineResult struct {
	Anchor         Observation     `json:"anchor"`
	Entries        []TimelineEntry `json:"entries"`
	Session        *Session        `json:"session,omitempty"`
	TotalInSession int             `json:"total_in_session"`
}

// ─── Search ──────────────────────────────────────────────────────────────────

// Search finds observations matching query, most recent first. With the
// FTS5 index, rank orders matches written in the same second; without it
// matching is by substring. An empty query returns the most recent
// observations.
func (s *Store) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	return s.search(query, opts)
}

// Failures returns failed_attempt observations, most recent first, narrowed
// by query when one is given.
func (s *Store) Failures(query string, limit int) ([]SearchResult, error) {
	return s.search(query, SearchOptions{Type: observation.FailedAttempt, Limit: limit})
}

func (s *Store) search(query string, opts SearchOptions) ([]SearchResult, error) {
	limit := s.clampLimit(opts.Limit)
	if strings.TrimSpace(query) == "" {
		return s.searchRecent(opts, limit)
	}
	if s.fts {
		res, err := s.searchFTS(query, opts, limit)
		if err == nil {
			return res, nil
		}
		log.Warn().Err(err).Str("query", query).Msg("memory: full-text search failed, using substring search")
	}
	return s.searchLike(query, opts, limit)
}

func (s *Store) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultSearchLimit
	}
	if limit > s.cfg.MaxSearchResults {
		return s.cfg.MaxSearchResults
	}
	return limit
}

// filters renders the option predicates against column alias a.
func (opts SearchOptions) filters(a string) (string, []any) {
	var clauses []string
	var args []any
	if opts.Type != "" {
		clauses = append(clauses, a+"type = ?")
		args = append(args, string(opts.Type))
	}
	if opts.RuleID != "" {
		clauses = append(clauses, a+"rule_id = ?")
		args = append(args, opts.RuleID)
	}
	if opts.SessionID != "" {
		clauses = append(clauses, a+"session_id = ?")
		args = append(args, opts.SessionID)
	}
	if !opts.Since.IsZero() {
		clauses = append(clauses, a+"created_at_epoch >= ?")
		args = append(args, opts.Since.Unix())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func (s *Store) searchFTS(query string, opts SearchOptions, limit int) ([]SearchResult, error) {
	ftsQuery := sanitizeFTS(query)
	where, args := opts.filters("o.")

	sqlStr := `
		SELECT ` + prefixed("o.", observationColumns) + `, fts.rank
		FROM observations_fts fts
		JOIN observations o ON o.id = fts.rowid
		WHERE observations_fts MATCH ?` + where + `
		ORDER BY o.created_at_epoch DESC, fts.rank, o.id DESC
		LIMIT ?`

	rows, err := s.q.Query(sqlStr, append(append([]any{ftsQuery}, args...), limit)...)
	if err != nil {
		return nil, fmt.Errorf("memory: fts search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		o, err := scanObservation(rankScanner{rows: rows, rank: &sr.Rank})
		if err != nil {
			return nil, err
		}
		sr.Observation = *o
		results = append(results, sr)
	}
	return results, rows.Err()
}

// searchLike matches every query word as a substring of title or detail.
func (s *Store) searchLike(query string, opts SearchOptions, limit int) ([]SearchResult, error) {
	var clauses []string
	var args []any
	for _, w := range strings.Fields(query) {
		pattern := "%" + escapeLike(strings.Trim(w, `"`)) + "%"
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR detail LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	where, fargs := opts.filters("")
	args = append(args, fargs...)
	args = append(args, limit)

	obs, err := s.queryObservations(`
		SELECT `+observationColumns+`
		FROM observations
		WHERE `+strings.Join(clauses, " AND ")+where+`
		ORDER BY created_at_epoch DESC, id DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: substring search: %w", err)
	}
	return asResults(obs), nil
}

// searchRecent returns the most recent observations matching the filters.
func (s *Store) searchRecent(opts SearchOptions, limit int) ([]SearchResult, error) {
	where, args := opts.filters("")
	obs, err := s.queryObservations(`
		SELECT `+observationColumns+`
		FROM observations
		WHERE 1 = 1`+where+`
		ORDER BY created_at_epoch DESC, id DESC
		LIMIT ?`, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("memory: recent observations: %w", err)
	}
	return asResults(obs), nil
}

func asResults(obs []Observation) []SearchResult {
	if len(obs) == 0 {
		return nil
	}
	out := make([]SearchResult, len(obs))
	for i, o := range obs {
		out[i] = SearchResult{Observation: o}
	}
	return out
}

// rankScanner appends the trailing rank column to an observation scan.
type rankScanner struct {
	rows interface{ Scan(dest ...any) error }
	rank *float64
}

func (r rankScanner) Scan(dest ...any) error {
	return r.rows.Scan(append(dest, r.rank)...)
}

// ─── Timeline ────────────────────────────────────────────────────────────────

// Timeline returns the anchor plus up to before earlier and after later
// observations from the anchor's session, ascending by (created_at_epoch,
// id). A missing anchor yields (nil, nil).
func (s *Store) Timeline(anchorID int64, before, after int) (*TimelineResult, error) {
	anchor, err := s.GetObservation(anchorID)
	if err != nil {
		return nil, err
	}
	if anchor == nil {
		return nil, nil
	}
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}

	earlier, err := s.queryObservations(`
		SELECT `+observationColumns+`
		FROM observations
		WHERE session_id = ?
		  AND (created_at_epoch < ? OR (created_at_epoch = ? AND id < ?))
		ORDER BY created_at_epoch DESC, id DESC
		LIMIT ?`,
		anchor.SessionID, anchor.CreatedAtEpoch, anchor.CreatedAtEpoch, anchor.ID, before,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: timeline before: %w", err)
	}

	later, err := s.queryObservations(`
		SELECT `+observationColumns+`
		FROM observations
		WHERE session_id = ?
		  AND (created_at_epoch > ? OR (created_at_epoch = ? AND id > ?))
		ORDER BY created_at_epoch ASC, id ASC
		LIMIT ?`,
		anchor.SessionID, anchor.CreatedAtEpoch, anchor.CreatedAtEpoch, anchor.ID, after,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: timeline after: %w", err)
	}

	entries := make([]TimelineEntry, 0, len(earlier)+len(later)+1)
	for i := len(earlier) - 1; i >= 0; i-- {
		entries = append(entries, TimelineEntry{Observation: earlier[i]})
	}
	entries = append(entries, TimelineEntry{Observation: *anchor, IsAnchor: true})
	for _, o := range later {
		entries = append(entries, TimelineEntry{Observation: o})
	}

	var total int
	if err := s.q.QueryRow(
		"SELECT COUNT(*) FROM observations WHERE session_id = ?", anchor.SessionID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("memory: timeline count: %w", err)
	}

	// The session row may be missing in imported data.
	session, _ := s.GetSession(anchor.SessionID)

	return &TimelineResult{
		Anchor:         *anchor,
		Entries:        entries,
		Session:        session,
		TotalInSession: total,
	}, nil
}

// ─── Detail ──────────────────────────────────────────────────────────────────

// GetObservations fetches ids in ascending chronological order regardless of
// input order. Unknown ids are dropped.
func (s *Store) GetObservations(ids []int64) ([]Observation, error) {
	seen := make(map[int64]bool, len(ids))
	var args []any
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		args = append(args, id)
	}
	if len(args) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	obs, err := s.queryObservations(`
		SELECT `+observationColumns+`
		FROM observations
		WHERE id IN (`+placeholders+`)
		ORDER BY created_at_epoch ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: get observations: %w", err)
	}
	return obs, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "fix auth bug" → `"fix" "auth" "bug"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.ReplaceAll(strings.Trim(w, `"`), `"`, `""`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
