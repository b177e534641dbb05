package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// schemaState is what the registry remembers about an initialized database.
type schemaState struct {
	fts bool
}

// schemaRegistry records which database paths already ran DDL in this
// process. Opening an initialized path again only copies the cached state.
var schemaRegistry = struct {
	sync.Mutex
	ready   map[string]*schemaState
	ddlRuns int
}{ready: make(map[string]*schemaState)}

// createFTS builds the full-text index. It is a package var so tests can
// simulate an engine without FTS5.
var createFTS = createFTSIndex

func ensureSchema(s *Store) error {
	schemaRegistry.Lock()
	defer schemaRegistry.Unlock()

	if st, ok := schemaRegistry.ready[s.path]; ok {
		s.fts = st.fts
		return nil
	}

	schemaRegistry.ddlRuns++
	if err := migrate(s.db); err != nil {
		return err
	}

	fts := true
	if err := createFTS(s.db); err != nil {
		fts = false
		log.Warn().Err(err).Str("db", s.path).
			Msg("memory: full-text index unavailable, search falls back to substring matching")
	}

	schemaRegistry.ready[s.path] = &schemaState{fts: fts}
	s.fts = fts
	return nil
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func migrate(db execer) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id               TEXT PRIMARY KEY,
			status           TEXT    NOT NULL DEFAULT 'active'
			                 CHECK (status IN ('active', 'completed', 'abandoned')),
			project          TEXT    NOT NULL DEFAULT '',
			directory        TEXT    NOT NULL DEFAULT '',
			branch           TEXT    NOT NULL DEFAULT '',
			plan_file        TEXT,
			summary          TEXT,
			started_at       TEXT    NOT NULL,
			started_at_epoch INTEGER NOT NULL,
			ended_at         TEXT,
			ended_at_epoch   INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at_epoch DESC);
		CREATE INDEX IF NOT EXISTS idx_sessions_status  ON sessions(status, started_at_epoch DESC);

		CREATE TABLE IF NOT EXISTS observations (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id        TEXT    NOT NULL,
			type              TEXT    NOT NULL,
			title             TEXT    NOT NULL,
			detail            TEXT    NOT NULL DEFAULT '',
			importance        INTEGER NOT NULL DEFAULT 1 CHECK (importance BETWEEN 1 AND 5),
			visibility        TEXT    NOT NULL DEFAULT 'public'
			                  CHECK (visibility IN ('public', 'private')),
			rule_id           TEXT,
			verification_type TEXT,
			plan_item         TEXT,
			files_involved    TEXT    NOT NULL DEFAULT '[]',
			evidence          TEXT,
			tool_name         TEXT,
			recurrence_key    TEXT    NOT NULL,
			recurrence_count  INTEGER NOT NULL DEFAULT 1 CHECK (recurrence_count >= 1),
			created_at        TEXT    NOT NULL,
			created_at_epoch  INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_obs_session    ON observations(session_id, created_at_epoch, id);
		CREATE INDEX IF NOT EXISTS idx_obs_created    ON observations(created_at_epoch DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_obs_type       ON observations(type, created_at_epoch DESC);
		CREATE INDEX IF NOT EXISTS idx_obs_recurrence ON observations(type, recurrence_key);
		CREATE INDEX IF NOT EXISTS idx_obs_rule       ON observations(rule_id);

		CREATE TABLE IF NOT EXISTS capture_marks (
			session_id TEXT    NOT NULL,
			source     TEXT    NOT NULL,
			line       INTEGER NOT NULL DEFAULT 0 CHECK (line >= 0),
			updated_at TEXT    NOT NULL,
			PRIMARY KEY (session_id, source),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// createFTSIndex creates the FTS5 table and its sync triggers in one
// transaction, then backfills rows written while the index was missing.
func createFTSIndex(db *sql.DB) error {
	var existing string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'observations_fts'",
	).Scan(&existing)
	fresh := errors.Is(err, sql.ErrNoRows)
	if err != nil && !fresh {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS observations_fts USING fts5(
			title,
			detail,
			content='observations',
			content_rowid='id'
		);

		CREATE TRIGGER IF NOT EXISTS obs_fts_insert AFTER INSERT ON observations BEGIN
			INSERT INTO observations_fts(rowid, title, detail)
			VALUES (new.id, new.title, new.detail);
		END;

		CREATE TRIGGER IF NOT EXISTS obs_fts_delete AFTER DELETE ON observations BEGIN
			INSERT INTO observations_fts(observations_fts, rowid, title, detail)
			VALUES ('delete', old.id, old.title, old.detail);
		END;

		CREATE TRIGGER IF NOT EXISTS obs_fts_update AFTER UPDATE OF title, detail ON observations BEGIN
			INSERT INTO observations_fts(observations_fts, rowid, title, detail)
			VALUES ('delete', old.id, old.title, old.detail);
			INSERT INTO observations_fts(rowid, title, detail)
			VALUES (new.id, new.title, new.detail);
		END;
	`); err != nil {
		return err
	}

	if fresh {
		if _, err := tx.Exec(`INSERT INTO observations_fts(observations_fts) VALUES ('rebuild')`); err != nil {
			return err
		}
	}
	return tx.Commit()
}
