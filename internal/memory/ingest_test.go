package memory_test

import (
	"errors"
	"testing"

	"github.com/HendryAvila/recall/internal/memory"
	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/privacy"
)

func TestIngest_NoActiveSessionWritesNothing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ActiveSession()
	if !errors.Is(err, memory.ErrNoActiveSession) {
		t.Fatalf("ActiveSession err = %v", err)
	}
	if _, err := s.Ingest("", memory.IngestParams{Type: "decision", Title: "Use WAL"}); !errors.Is(err, memory.ErrNoActiveSession) {
		t.Errorf("Ingest without session: err = %v, want ErrNoActiveSession", err)
	}

	startSession(t, s, "done")
	if _, err := s.EndSession("done", memory.StatusCompleted, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Ingest("done", memory.IngestParams{Type: "decision", Title: "Use WAL"}); !errors.Is(err, memory.ErrNoActiveSession) {
		t.Errorf("Ingest into ended session: err = %v, want ErrNoActiveSession", err)
	}
	if _, err := s.Ingest("ghost", memory.IngestParams{Type: "decision", Title: "Use WAL"}); !errors.Is(err, memory.ErrSessionNotFound) {
		t.Errorf("Ingest into unknown session: err = %v, want ErrSessionNotFound", err)
	}

	if n := countObservations(t, s); n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}

func TestIngest_Validation(t *testing.T) {
	s := newTestStore(t)
	startSession(t, s, "s1")

	tests := []struct {
		name string
		p    memory.IngestParams
		want error
	}{
		{"unknown type", memory.IngestParams{Type: "musing", Title: "x"}, memory.ErrUnknownType},
		{"missing title", memory.IngestParams{Type: "bugfix"}, memory.ErrTitleRequired},
		{"blank title", memory.IngestParams{Type: "bugfix", Title: "  \t"}, memory.ErrTitleRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Ingest("s1", tt.p); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := s.Ingest("s1", memory.IngestParams{Type: "bugfix", Title: "x", Importance: 9}); err == nil {
		t.Error("importance 9 should be rejected")
	}
	if _, err := s.Ingest("s1", memory.IngestParams{Type: "bugfix", Title: "x", Visibility: "secret"}); err == nil {
		t.Error("unknown visibility should be rejected")
	}
	if n := countObservations(t, s); n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}

func TestIngest_SharedImportanceAndVisibility(t *testing.T) {
	s := newTestStore(t)
	startSession(t, s, "s1")

	derived, err := s.Ingest("s1", memory.IngestParams{Type: "verification_check", Title: "Ran integration suite", Failed: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := observation.Importance(observation.VerificationCheck, observation.OutcomeFailure); derived.Importance != want {
		t.Errorf("derived importance = %d, want %d", derived.Importance, want)
	}

	override, err := s.Ingest("s1", memory.IngestParams{Type: "discovery", Title: "Read the ADR", Importance: 5})
	if err != nil {
		t.Fatal(err)
	}
	if override.Importance != 5 {
		t.Errorf("override importance = %d, want 5", override.Importance)
	}

	forced, err := s.Ingest("s1", memory.IngestParams{
		Type:       "incident_near_miss",
		Title:      "Nearly dropped prod table",
		Detail:     "connection string in /home/ops/.pgpass",
		Visibility: "public",
	})
	if err != nil {
		t.Fatal(err)
	}
	if forced.Visibility != privacy.Private {
		t.Errorf("visibility = %s, detector must win over a public request", forced.Visibility)
	}

	o, err := s.GetObservation(forced.ID)
	if err != nil {
		t.Fatal(err)
	}
	if o.ToolName == nil || *o.ToolName != "manual" {
		t.Errorf("tool_name = %v, want manual", o.ToolName)
	}
}

func TestIngest_DetailBound(t *testing.T) {
	s := newTestStore(t)
	startSession(t, s, "s1")

	long := make([]byte, 4000)
	for i := range long {
		long[i] = 'a'
	}
	res, err := s.Ingest("s1", memory.IngestParams{Type: "discovery", Title: "Long note", Detail: string(long)})
	if err != nil {
		t.Fatal(err)
	}
	o, _ := s.GetObservation(res.ID)
	if len(o.Detail) != memory.MaxDetailLength {
		t.Errorf("detail length = %d, want %d", len(o.Detail), memory.MaxDetailLength)
	}
}
