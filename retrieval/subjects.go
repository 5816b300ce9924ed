package retrieval

import "strings"

// SynonymTable maps a normalized subject name to the tag variants found
// in stored chunk metadata. Tables are read-only after construction.
type SynonymTable map[string][]string

// DefaultSynonymTable returns the built-in subject synonym table. Keys
// are lower-case; values are the metadata tags books are commonly filed
// under.
func DefaultSynonymTable() SynonymTable {
	return SynonymTable{
		"mathematics":     {"Maths", "Math", "Mathematics"},
		"maths":           {"Mathematics", "Math", "Maths"},
		"math":            {"Mathematics", "Maths", "Math"},
		"physics":         {"Physics", "Physic"},
		"biology":         {"Biology", "Bio"},
		"chemistry":       {"Chemistry", "Chem"},
		"euclid geometry": {"Maths", "Mathematics", "Math"},
	}
}

// Expand returns the candidate subject tags to search for, starting with
// the literal subject followed by its registered synonyms. Duplicates are
// suppressed while preserving order. An empty subject yields no
// candidates.
func (t SynonymTable) Expand(subject string) []string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil
	}

	candidates := append([]string{subject}, t[strings.ToLower(subject)]...)

	seen := make(map[string]bool, len(candidates))
	expanded := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		expanded = append(expanded, candidate)
	}
	return expanded
}
