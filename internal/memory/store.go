// Package memory is the durable observation store for AI coding sessions.
//
// It keeps sessions and observations in SQLite with an FTS5 index over
// observation titles and details. Writes are idempotent per (type,
// recurrence key): a repeat bumps recurrence_count instead of adding a row.
// When the FTS5 index cannot be built the store keeps working and search
// degrades to substring matching.
//
// A Store is opened per logical operation. Open runs schema initialization
// at most once per database path per process.
package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/recall/internal/observation"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrNoActiveSession  = errors.New("no active session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
	ErrTitleRequired    = errors.New("title is required")
	ErrUnknownType      = observation.ErrUnknownType
)

// Field bounds applied at write time.
const (
	MaxTitleLength    = 200
	MaxDetailLength   = 2000
	MaxEvidenceLength = 2000
)

// ─── Types ───────────────────────────────────────────────────────────────────

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// Valid reports whether st is a known status.
func (st SessionStatus) Valid() bool {
	switch st {
	case StatusActive, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Session is one bounded AI-assisted work episode.
type Session struct {
	ID             string        `json:"id"`
	Status         SessionStatus `json:"status"`
	Project        string        `json:"project,omitempty"`
	Directory      string        `json:"directory,omitempty"`
	Branch         string        `json:"branch,omitempty"`
	PlanFile       *string       `json:"plan_file,omitempty"`
	Summary        *string       `json:"summary,omitempty"`
	StartedAt      string        `json:"started_at"`
	StartedAtEpoch int64         `json:"started_at_epoch"`
	EndedAt        *string       `json:"ended_at,omitempty"`
	EndedAtEpoch   *int64        `json:"ended_at_epoch,omitempty"`
}

// SessionSummary is a session annotated with its observation count.
type SessionSummary struct {
	Session
	ObservationCount int `json:"observation_count"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	DataDir string
	// DefaultSearchLimit applies when a caller passes no limit.
	DefaultSearchLimit int
	// MaxSearchResults caps any caller-supplied limit.
	MaxSearchResults int
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:            filepath.Join(home, ".recall"),
		DefaultSearchLimit: 20,
		MaxSearchResults:   200,
	}
}

// DBPath is the SQLite file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "memory.db")
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.DefaultSearchLimit <= 0 {
		c.DefaultSearchLimit = d.DefaultSearchLimit
	}
	if c.MaxSearchResults <= 0 {
		c.MaxSearchResults = d.MaxSearchResults
	}
	if c.DefaultSearchLimit > c.MaxSearchResults {
		c.DefaultSearchLimit = c.MaxSearchResults
	}
	return c
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the observation store backed by SQLite + FTS5.
type Store struct {
	db      *sql.DB
	q       querier
	inTx    bool
	cfg     Config
	path    string
	fts     bool
	now     func() time.Time
	entropy *rand.Rand
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	execer
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open opens the store under cfg.DataDir, creating the directory and schema
// when needed. The caller must Close it.
func Open(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	path, err := filepath.Abs(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("memory: resolve db path: %w", err)
	}

	db, err := openDB("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	s := &Store{
		db:      db,
		q:       db,
		cfg:     cfg,
		path:    path,
		now:     time.Now,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := ensureSchema(s); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: schema: %w", err)
	}
	return s, nil
}

// With opens the store, runs fn and closes the store on every path.
func With(cfg Config, fn func(*Store) error) (err error) {
	s, err := Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("memory: close: %w", cerr)
		}
	}()
	return fn(s)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn with a store whose statements share one transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Calls
// nested inside fn join the outer transaction.
func (s *Store) InTx(fn func(*Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("memory: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txStore := *s
	txStore.q = tx
	txStore.inTx = true
	if err := fn(&txStore); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("memory: commit: %w", err)
	}
	return nil
}

// Path is the absolute database path.
func (s *Store) Path() string { return s.path }

// FullTextEnabled reports whether search uses the FTS5 index.
func (s *Store) FullTextEnabled() bool { return s.fts }

// Config returns the effective configuration.
func (s *Store) Config() Config { return s.cfg }

func (s *Store) newSessionID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// timestamp returns the RFC 3339 string and epoch seconds of one instant.
func (s *Store) timestamp() (string, int64) {
	t := s.now().UTC().Truncate(time.Second)
	return t.Format(time.RFC3339), t.Unix()
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// StartSessionParams holds input for starting a session.
type StartSessionParams struct {
	ID        string
	Project   string
	Directory string
	Branch    string
	PlanFile  string
}

// StartSession creates an active session. An empty ID gets a generated ULID.
// Starting an ID that already exists returns the existing session unchanged.
func (s *Store) StartSession(p StartSessionParams) (*Session, error) {
	startedAt, epoch := s.timestamp()
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = s.newSessionID(time.Unix(epoch, 0))
	}

	_, err := s.q.Exec(
		`INSERT OR IGNORE INTO sessions
		   (id, status, project, directory, branch, plan_file, started_at, started_at_epoch)
		 VALUES (?, 'active', ?, ?, ?, ?, ?, ?)`,
		id, p.Project, p.Directory, p.Branch, nullableString(p.PlanFile), startedAt, epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: start session: %w", err)
	}
	return s.GetSession(id)
}

// EndSession moves an active session to completed or abandoned. An empty
// status means completed. The summary is optional.
func (s *Store) EndSession(id string, status SessionStatus, summary string) (*Session, error) {
	if status == "" {
		status = StatusCompleted
	}
	if status != StatusCompleted && status != StatusAbandoned {
		return nil, fmt.Errorf("memory: end session: invalid status %q (valid: completed, abandoned)", status)
	}

	endedAt, epoch := s.timestamp()
	res, err := s.q.Exec(
		`UPDATE sessions
		    SET status = ?, ended_at = ?, ended_at_epoch = ?, summary = COALESCE(?, summary)
		  WHERE id = ? AND status = 'active'`,
		string(status), endedAt, epoch, nullableString(summary), id,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		existing, err := s.GetSession(id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("memory: end session %s (%s): %w", id, existing.Status, ErrSessionNotActive)
	}
	return s.GetSession(id)
}

// GetSession returns a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	sess, err := scanSession(s.q.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory: session %q: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get session: %w", err)
	}
	return sess, nil
}

// ActiveSession returns the most recently started active session, or
// ErrNoActiveSession.
func (s *Store) ActiveSession() (*Session, error) {
	sess, err := scanSession(s.q.QueryRow(
		`SELECT ` + sessionColumns + ` FROM sessions
		  WHERE status = 'active'
		  ORDER BY started_at_epoch DESC, rowid DESC
		  LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("memory: active session: %w", err)
	}
	return sess, nil
}

// RecentSessions returns the most recently started sessions, optionally
// filtered by status, each with its observation count.
func (s *Store) RecentSessions(limit int, status SessionStatus) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + prefixed("s.", sessionColumns) + `,
	                 (SELECT COUNT(*) FROM observations o WHERE o.session_id = s.id)
	            FROM sessions s`
	var args []any
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("memory: recent sessions: invalid status %q", status)
		}
		query += ` WHERE s.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY s.started_at_epoch DESC, s.rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: recent sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		var status string
		if err := rows.Scan(
			&ss.ID, &status, &ss.Project, &ss.Directory, &ss.Branch, &ss.PlanFile, &ss.Summary,
			&ss.StartedAt, &ss.StartedAtEpoch, &ss.EndedAt, &ss.EndedAtEpoch,
			&ss.ObservationCount,
		); err != nil {
			return nil, err
		}
		ss.Status = SessionStatus(status)
		out = append(out, ss)
	}
	return out, rows.Err()
}

const sessionColumns = `id, status, project, directory, branch, plan_file, summary,
	started_at, started_at_epoch, ended_at, ended_at_epoch`

func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	var status string
	if err := row.Scan(
		&sess.ID, &status, &sess.Project, &sess.Directory, &sess.Branch, &sess.PlanFile, &sess.Summary,
		&sess.StartedAt, &sess.StartedAtEpoch, &sess.EndedAt, &sess.EndedAtEpoch,
	); err != nil {
		return nil, err
	}
	sess.Status = SessionStatus(status)
	return &sess, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// prefixed qualifies each column in a comma-separated list.
func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
