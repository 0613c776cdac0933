package match

import (
	"testing"

	"github.com/accordlabs/checkin/internal/event"
	"github.com/accordlabs/checkin/internal/variants"
)

func newTestMatcher() *Matcher {
	return NewMatcher(variants.Default(), Options{})
}

func entry(name, phone string) event.RosterEntry {
	return event.RosterEntry{Name: name, Phone: phone}
}

func TestMatchMinQueryLength(t *testing.T) {
	m := newTestMatcher()
	roster := []event.RosterEntry{entry("Ahmed Ali", "0555123456")}

	tests := []struct {
		query string
		want  int
	}{
		{"a", 0},   // too short for a name query
		{"ah", 0},  // still too short for letters
		{"ahm", 1}, // minimum name query
		{"5", 0},   // single digit too short for a phone query
		{"55", 1},  // two digits is enough
	}
	for _, tt := range tests {
		if got := m.Match(tt.query, roster); len(got) != tt.want {
			t.Errorf("Match(%q) returned %d candidates, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestMatchPhoneOutranksFuzzy(t *testing.T) {
	m := newTestMatcher()
	roster := []event.RosterEntry{
		entry("Miss Fivefive", "0111"), // name fuzzily unlike "555" but present to pad the roster
		entry("John Smith", "0555123456"),
	}
	got := m.Match("555", roster)
	if len(got) == 0 {
		t.Fatal("expected a phone match")
	}
	if got[0].Type != MatchPhone || got[0].Entry.Phone != "0555123456" {
		t.Errorf("first candidate = %+v, want phone match on 0555123456", got[0])
	}
	if got[0].Score != 1.0 {
		t.Errorf("phone match score = %f, want 1.0", got[0].Score)
	}
}

func TestMatchExactSubstring(t *testing.T) {
	m := newTestMatcher()
	roster := []event.RosterEntry{entry("Ahmed Ali", "5551"), entry("John Smith", "5552")}

	got := m.Match("ahmed", roster)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Type != MatchExact || got[0].Score != 0.9 {
		t.Errorf("candidate = %+v, want exact with score 0.9", got[0])
	}
}

func TestMatchVariantTable(t *testing.T) {
	m := newTestMatcher()
	roster := []event.RosterEntry{
		entry("Mostafa Hassan", "5551"),
		entry("John Smith", "5552"),
	}

	got := m.Match("mustafa", roster)
	if len(got) == 0 {
		t.Fatal("expected mustafa to match Mostafa Hassan via the variant table")
	}
	if got[0].Entry.Name != "Mostafa Hassan" {
		t.Errorf("top candidate = %q, want Mostafa Hassan", got[0].Entry.Name)
	}
	if got[0].Score < 0.7 {
		t.Errorf("score = %f, want >= 0.7", got[0].Score)
	}
	for _, c := range got {
		if c.Entry.Name == "John Smith" {
			t.Error("unrelated entry John Smith should not match mustafa")
		}
	}
}

func TestMatchFuzzyBelowThresholdExcluded(t *testing.T) {
	m := newTestMatcher()
	roster := []event.RosterEntry{entry("Xavier Quinn", "5551")}
	if got := m.Match("ahmed", roster); len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}

func TestMatchDeduplicatesByDisplayName(t *testing.T) {
	m := newTestMatcher()
	roster := []event.RosterEntry{
		entry("Ahmed Ali", "5551"),
		entry("Ahmed Ali", "5552"),
	}
	got := m.Match("ahmed", roster)
	if len(got) != 1 {
		t.Fatalf("namesake entries should collapse to one suggestion, got %d", len(got))
	}
	// First match in roster order wins.
	if got[0].Entry.Phone != "5551" {
		t.Errorf("kept entry phone = %q, want 5551", got[0].Entry.Phone)
	}
}

func TestMatchOrdering(t *testing.T) {
	m := newTestMatcher()
	roster := []event.RosterEntry{
		entry("Ahmes", "0111"),         // one edit away, fuzzy
		entry("Ahmed Ali", "0222"),     // exact substring
		entry("Sara Ahmed", "ahmed99"), // phone contains the query (unusual but legal)
	}
	got := m.Match("ahmed", roster)
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3: %+v", len(got), got)
	}
	wantOrder := []MatchType{MatchPhone, MatchExact, MatchFuzzy}
	for i, w := range wantOrder {
		if got[i].Type != w {
			t.Errorf("candidate %d type = %s, want %s", i, got[i].Type, w)
		}
	}
}

func TestMatchLimit(t *testing.T) {
	m := NewMatcher(variants.Default(), Options{Limit: 10})
	names := []string{
		"Ahmed A", "Ahmed B", "Ahmed C", "Ahmed D", "Ahmed E", "Ahmed F",
		"Ahmed G", "Ahmed H", "Ahmed I", "Ahmed J", "Ahmed K", "Ahmed L",
	}
	var roster []event.RosterEntry
	for i, n := range names {
		roster = append(roster, entry(n, "55"+string(rune('0'+i%10))))
	}
	if got := m.Match("ahmed", roster); len(got) != 10 {
		t.Errorf("got %d candidates, want the limit of 10", len(got))
	}
}

func TestSearchRegistered(t *testing.T) {
	m := newTestMatcher()
	regs := []event.Registration{
		{Name: "Sara Ahmed", Phone: "5551"},
		{Name: "Totally Different Person", Phone: "5552"},
	}
	got := m.SearchRegistered("sara", regs, 0.3)
	if len(got) == 0 || got[0].Name != "Sara Ahmed" {
		t.Errorf("SearchRegistered = %+v, want Sara Ahmed first", got)
	}
	if got := m.SearchRegistered("s", regs, 0.3); got != nil {
		t.Errorf("single-character query should return nothing, got %+v", got)
	}
}
