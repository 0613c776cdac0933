// Package variants expands a name into its known transliteration
// equivalents from a static synonym table. The table is a closed
// enumeration, not a generative model: a name either has listed variants
// or it has none.
package variants

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	_ "embed"
)

//go:embed synonyms.yaml
var defaultTable []byte

// Table maps a normalized (lower-cased, trimmed) name to its alternate
// spellings. The mapping is symmetric: if A lists B, B lists A, and every
// member of a group lists every other member.
type Table struct {
	groups map[string][]string
}

// Default returns the table built from the embedded synonym data.
func Default() *Table {
	t, err := parse(defaultTable)
	if err != nil {
		// The embedded table is validated by tests; a parse failure here
		// is a build defect, not a runtime condition.
		panic(fmt.Sprintf("variants: embedded synonym table: %v", err))
	}
	return t
}

// LoadFile builds a table from a YAML file so deployments can extend the
// synonym set without code changes.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym table: %w", err)
	}
	t, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse synonym table %s: %w", path, err)
	}
	return t, nil
}

func parse(data []byte) (*Table, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	// Symmetrize: every member of a group maps to all the others.
	members := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if a == b {
			return
		}
		if members[a] == nil {
			members[a] = make(map[string]struct{})
		}
		members[a][b] = struct{}{}
	}
	for key, vals := range raw {
		key = normalize(key)
		group := append([]string{key}, vals...)
		for i := range group {
			group[i] = normalize(group[i])
		}
		for _, a := range group {
			for _, b := range group {
				link(a, b)
			}
		}
	}

	groups := make(map[string][]string, len(members))
	for name, set := range members {
		vs := make([]string, 0, len(set))
		for v := range set {
			vs = append(vs, v)
		}
		sort.Strings(vs)
		groups[name] = vs
	}
	return &Table{groups: groups}, nil
}

// Expand returns the known alternate spellings for the given name, or an
// empty slice when the name is not in the table. The input is normalized
// (lower-cased, trimmed) before lookup.
func (t *Table) Expand(name string) []string {
	return t.groups[normalize(name)]
}

// Len returns the number of names with at least one known variant.
func (t *Table) Len() int {
	return len(t.groups)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
