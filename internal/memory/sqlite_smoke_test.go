package memory_test

import (
	"testing"

	"github.com/HendryAvila/recall/internal/observation"
)

func TestSQLitePragmas(t *testing.T) {
	s := newTestStore(t)
	db := s.DB()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestFTS5IndexFollowsWrites(t *testing.T) {
	s := newTestStore(t)
	startSession(t, s, "s1")
	res := add(t, s, "s1", observation.Draft{Type: observation.Discovery, Title: "Goroutine leak in websocket handler", Detail: "caused OOM"})
	add(t, s, "s1", observation.Draft{Type: observation.Discovery, Title: "goroutine leak in WebSocket handler"})

	var n int
	if err := s.DB().QueryRow(
		`SELECT COUNT(*) FROM observations_fts WHERE observations_fts MATCH '"oom"'`,
	).Scan(&n); err != nil {
		t.Fatalf("fts query: %v", err)
	}
	if n != 1 {
		t.Errorf("fts rows for detail term = %d, want 1", n)
	}

	var rowid int64
	if err := s.DB().QueryRow(
		`SELECT rowid FROM observations_fts WHERE observations_fts MATCH '"websocket"'`,
	).Scan(&rowid); err != nil {
		t.Fatalf("fts query: %v", err)
	}
	if rowid != res.ID {
		t.Errorf("fts rowid = %d, want %d", rowid, res.ID)
	}
}

func TestForeignKeyRejectsUnknownSession(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddObservation("nobody", observation.Draft{Type: observation.Feature, Title: "orphan"}); err == nil {
		t.Error("observation for an unknown session should be rejected")
	}
}
