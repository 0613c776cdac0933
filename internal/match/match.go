// Package match ranks roster entries against free-text operator input.
package match

import (
	"sort"
	"strings"

	"github.com/accordlabs/checkin/internal/event"
	"github.com/accordlabs/checkin/internal/similarity"
	"github.com/accordlabs/checkin/internal/variants"
)

// MatchType describes which tier produced a candidate.
type MatchType string

const (
	// MatchPhone is a phone-number substring hit. Highest priority: an
	// operator typing digits is almost certainly searching by phone.
	MatchPhone MatchType = "phone"
	// MatchExact is a literal substring hit on the name (directly or via a
	// known variant). Literal hits outrank fuzzy hits regardless of score.
	MatchExact MatchType = "exact"
	// MatchFuzzy is an edit-distance hit at or above the threshold.
	MatchFuzzy MatchType = "fuzzy"
)

// rank orders tiers for sorting: phone before exact before fuzzy.
func (t MatchType) rank() int {
	switch t {
	case MatchPhone:
		return 0
	case MatchExact:
		return 1
	default:
		return 2
	}
}

// Candidate is one ranked suggestion.
type Candidate struct {
	Entry event.RosterEntry `json:"entry"`
	Score float64           `json:"score"`
	Type  MatchType         `json:"match_type"`
}

// Options represents matching options
type Options struct {
	// Limit caps the number of suggestions returned.
	Limit int
	// Threshold is the minimum similarity for a fuzzy hit.
	Threshold float64
	// MinQueryLen is the minimum query length for name queries.
	MinQueryLen int
	// MinPhoneQueryLen is the minimum length for all-digit queries.
	MinPhoneQueryLen int
}

// DefaultOptions returns the options used by the live suggestion flow.
func DefaultOptions() Options {
	return Options{
		Limit:            10,
		Threshold:        0.7,
		MinQueryLen:      3,
		MinPhoneQueryLen: 2,
	}
}

const (
	phoneScore = 1.0
	exactScore = 0.9
)

// Matcher produces ranked candidate lists for a roster.
type Matcher struct {
	table  *variants.Table
	scorer similarity.Function
	opts   Options
}

// NewMatcher creates a matcher with the given variant table and options.
// Zero-valued options fall back to the defaults.
func NewMatcher(table *variants.Table, opts Options) *Matcher {
	def := DefaultOptions()
	if opts.Limit <= 0 {
		opts.Limit = def.Limit
	}
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = def.MinQueryLen
	}
	if opts.MinPhoneQueryLen <= 0 {
		opts.MinPhoneQueryLen = def.MinPhoneQueryLen
	}
	return &Matcher{
		table:  table,
		scorer: similarity.Levenshtein{},
		opts:   opts,
	}
}

// Match ranks roster entries against the query. Entries are scanned in
// roster order; namesake entries collapse to the first one seen, so the
// suggestion list shows one row per display name even when the roster holds
// duplicates. Results are ordered phone > exact > fuzzy, then by descending
// score, then by roster order, and capped at the configured limit.
func (m *Matcher) Match(query string, roster []event.RosterEntry) []Candidate {
	query = strings.ToLower(strings.TrimSpace(query))

	minLen := m.opts.MinQueryLen
	if isDigits(query) {
		minLen = m.opts.MinPhoneQueryLen
	}
	if len(query) < minLen {
		return nil
	}

	queryVariants := append([]string{query}, m.table.Expand(query)...)

	var results []Candidate
	seen := make(map[string]struct{})
	for _, entry := range roster {
		name := strings.ToLower(entry.Name)
		phone := strings.ToLower(entry.Phone)

		var cand Candidate
		switch {
		case phone != "" && strings.Contains(phone, query):
			cand = Candidate{Entry: entry, Score: phoneScore, Type: MatchPhone}
		case containsAny(name, queryVariants):
			cand = Candidate{Entry: entry, Score: exactScore, Type: MatchExact}
		default:
			entryVariants := append([]string{name}, m.table.Expand(name)...)
			best := 0.0
			for _, q := range queryVariants {
				for _, e := range entryVariants {
					if s := m.scorer.Compare(q, e); s > best {
						best = s
					}
				}
			}
			if best < m.opts.Threshold {
				continue
			}
			cand = Candidate{Entry: entry, Score: best, Type: MatchFuzzy}
		}

		// One suggestion row per display name; namesakes fan back out at
		// registration time.
		if _, dup := seen[entry.Name]; dup {
			continue
		}
		seen[entry.Name] = struct{}{}
		results = append(results, cand)
	}

	// Stable sort keeps roster order as the final tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Type.rank() != results[j].Type.rank() {
			return results[i].Type.rank() < results[j].Type.rank()
		}
		return results[i].Score > results[j].Score
	})

	if len(results) > m.opts.Limit {
		results = results[:m.opts.Limit]
	}
	return results
}

// SearchRegistered fuzzily filters registrations by name for the
// certificate search flow: a much looser threshold than live suggestions,
// sorted by similarity alone.
func (m *Matcher) SearchRegistered(query string, regs []event.Registration, threshold float64) []event.Registration {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < m.opts.MinPhoneQueryLen {
		return nil
	}

	type scored struct {
		reg   event.Registration
		score float64
	}
	var results []scored
	for _, reg := range regs {
		s := m.scorer.Compare(query, strings.ToLower(reg.Name))
		if s >= threshold {
			results = append(results, scored{reg, s})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	out := make([]event.Registration, len(results))
	for i, r := range results {
		out[i] = r.reg
	}
	return out
}

func containsAny(name string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(name, n) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
