package observation

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"decision", Decision, false},
		{"  Failed_Attempt ", FailedAttempt, false},
		{"INCIDENT_NEAR_MISS", IncidentNearMiss, false},
		{"musing", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownType) {
					t.Fatalf("err = %v, want ErrUnknownType", err)
				}
				if !strings.Contains(err.Error(), "rule_violation") {
					t.Errorf("error should list valid types: %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseType(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestTypesAreValid(t *testing.T) {
	if len(Types()) != 11 {
		t.Fatalf("got %d types, want 11", len(Types()))
	}
	for _, typ := range Types() {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
		if _, ok := baseImportance[typ]; !ok {
			t.Errorf("%s has no base importance", typ)
		}
	}
	if Type("note").Valid() {
		t.Error("unknown type reported valid")
	}
}

func TestImportance(t *testing.T) {
	tests := []struct {
		typ     Type
		outcome Outcome
		want    int
	}{
		{Bugfix, OutcomeSuccess, 4},
		{FileChange, OutcomeNeutral, 1},
		{FileChange, OutcomeFailure, 2},
		{VerificationCheck, OutcomeSuccess, 2},
		{VerificationCheck, OutcomeFailure, 3},
		{IncidentNearMiss, OutcomeFailure, 5},
		{Type("unknown"), OutcomeNeutral, MinImportance},
	}
	for _, tt := range tests {
		if got := Importance(tt.typ, tt.outcome); got != tt.want {
			t.Errorf("Importance(%s, %s) = %d, want %d", tt.typ, tt.outcome, got, tt.want)
		}
	}
}

func TestResolvedImportance(t *testing.T) {
	if got := (Draft{Type: Decision}).ResolvedImportance(); got != 4 {
		t.Errorf("derived = %d, want 4", got)
	}
	if got := (Draft{Type: Decision, Importance: 2}).ResolvedImportance(); got != 2 {
		t.Errorf("explicit = %d, want 2", got)
	}
	if got := (Draft{Type: Decision, Importance: 42}).ResolvedImportance(); got != MaxImportance {
		t.Errorf("clamped = %d, want %d", got, MaxImportance)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("short string changed: %q", got)
	}

	got := Truncate(strings.Repeat("a", 50), 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Errorf("Truncate = %q (len %d)", got, len(got))
	}

	multi := strings.Repeat("ñ", 30)
	got = Truncate(multi, 21)
	if !utf8.ValidString(got) {
		t.Errorf("Truncate split a rune: %q", got)
	}
	if len(got) > 21 {
		t.Errorf("len = %d, want <= 21", len(got))
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeFailure.String() != "fail" || OutcomeSuccess.String() != "pass" || OutcomeNeutral.String() != "neutral" {
		t.Error("unexpected outcome names")
	}
}
