package memory

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

// DB exposes the internal *sql.DB for test helpers in memory_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetNow replaces the store clock.
func (s *Store) SetNow(fn func() time.Time) {
	s.now = fn
}

// DisableFullText makes schema initialization behave as if the engine had
// no FTS5 support, for stores opened until the test ends.
func DisableFullText(t *testing.T) {
	t.Helper()
	prev := createFTS
	createFTS = func(*sql.DB) error { return errors.New("no such module: fts5") }
	t.Cleanup(func() { createFTS = prev })
}

// SchemaDDLRuns reports how many times schema DDL has executed in this process.
func SchemaDDLRuns() int {
	schemaRegistry.Lock()
	defer schemaRegistry.Unlock()
	return schemaRegistry.ddlRuns
}
