package retrieval

import (
	"sort"
	"strings"

	"github.com/poiesic/libram/core"
)

// rerank orders matches by lexical overlap with the query: the score is
// the number of distinct lower-cased query terms occurring as substrings
// of the chunk content. The sort is stable, so ties keep their
// vector-search order.
func rerank(matches []*core.ChunkMatch, query string) {
	terms := distinctTerms(query)
	if len(terms) == 0 {
		return
	}

	scores := make(map[*core.ChunkMatch]int, len(matches))
	for _, match := range matches {
		scores[match] = lexicalScore(match.Chunk.Content, terms)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return scores[matches[i]] > scores[matches[j]]
	})
}

// distinctTerms splits the query into lower-cased whitespace-separated
// terms with duplicates removed, so a repeated query word scores once.
func distinctTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, term := range fields {
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

func lexicalScore(content string, terms []string) int {
	content = strings.ToLower(content)
	score := 0
	for _, term := range terms {
		if strings.Contains(content, term) {
			score++
		}
	}
	return score
}
