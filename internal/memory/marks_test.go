package memory_test

import (
	"errors"
	"testing"

	"github.com/HendryAvila/recall/internal/memory"
	"github.com/HendryAvila/recall/internal/observation"
)

func TestCaptureMark_DefaultsToZeroAndUpserts(t *testing.T) {
	s := newTestStore(t)
	startSession(t, s, "s1")
	startSession(t, s, "s2")

	line, err := s.CaptureMark("s1", "/tmp/a.jsonl")
	if err != nil || line != 0 {
		t.Fatalf("CaptureMark before set = %d, %v; want 0, nil", line, err)
	}

	for _, want := range []int{12, 30, 7} {
		if err := s.SetCaptureMark("s1", "/tmp/a.jsonl", want); err != nil {
			t.Fatalf("SetCaptureMark(%d): %v", want, err)
		}
		got, err := s.CaptureMark("s1", "/tmp/a.jsonl")
		if err != nil || got != want {
			t.Errorf("CaptureMark = %d, %v; want %d", got, err, want)
		}
	}

	// Marks are per session and per source.
	if got, _ := s.CaptureMark("s2", "/tmp/a.jsonl"); got != 0 {
		t.Errorf("other session mark = %d, want 0", got)
	}
	if got, _ := s.CaptureMark("s1", "/tmp/b.jsonl"); got != 0 {
		t.Errorf("other source mark = %d, want 0", got)
	}

	if err := s.SetCaptureMark("s1", "/tmp/a.jsonl", -1); err == nil {
		t.Error("negative line accepted")
	}
}

func TestCaptureMark_UnknownSessionRejected(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetCaptureMark("ghost", "/tmp/a.jsonl", 3); err == nil {
		t.Error("mark for unknown session accepted")
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	startSession(t, s, "s1")
	boom := errors.New("boom")

	err := s.InTx(func(tx *memory.Store) error {
		if _, err := tx.AddObservation("s1", observation.Draft{Type: observation.Decision, Title: "Use WAL mode"}); err != nil {
			return err
		}
		if err := tx.SetCaptureMark("s1", "/tmp/a.jsonl", 9); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}

	if n := countObservations(t, s); n != 0 {
		t.Errorf("observations after rollback = %d, want 0", n)
	}
	if line, _ := s.CaptureMark("s1", "/tmp/a.jsonl"); line != 0 {
		t.Errorf("mark after rollback = %d, want 0", line)
	}
}

func TestInTx_CommitsAndNests(t *testing.T) {
	s := newTestStore(t)
	startSession(t, s, "s1")

	err := s.InTx(func(tx *memory.Store) error {
		add(t, tx, "s1", observation.Draft{Type: observation.Decision, Title: "Use WAL mode"})
		// AddObservation opens its own transaction, which joins this one.
		res := add(t, tx, "s1", observation.Draft{Type: observation.Decision, Title: "Use WAL mode"})
		if !res.Recurred {
			t.Error("second write inside the transaction did not see the first")
		}
		return tx.SetCaptureMark("s1", "/tmp/a.jsonl", 4)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}

	if n := countObservations(t, s); n != 1 {
		t.Errorf("observations = %d, want 1", n)
	}
	if line, _ := s.CaptureMark("s1", "/tmp/a.jsonl"); line != 4 {
		t.Errorf("mark = %d, want 4", line)
	}
}
