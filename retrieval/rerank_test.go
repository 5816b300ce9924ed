package retrieval

import (
	"testing"

	"github.com/poiesic/libram/core"
	"github.com/stretchr/testify/assert"
)

func match(id int, content string) *core.ChunkMatch {
	return &core.ChunkMatch{
		Chunk: &core.Chunk{
			Id:      core.ID(id),
			Content: content,
		},
	}
}

func contents(matches []*core.ChunkMatch) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Chunk.Content
	}
	return out
}

func TestRerankOrdersByTermOverlap(t *testing.T) {
	matches := []*core.ChunkMatch{
		match(1, "Newton's laws of motion."),
		match(2, "Euclid proved the parallel postulate independent."),
		match(3, "Parallel lines never meet."),
	}

	rerank(matches, "Euclid Parallel")

	assert.Equal(t, []string{
		"Euclid proved the parallel postulate independent.",
		"Parallel lines never meet.",
		"Newton's laws of motion.",
	}, contents(matches))
}

func TestRerankIsCaseInsensitive(t *testing.T) {
	matches := []*core.ChunkMatch{
		match(1, "nothing relevant"),
		match(2, "EUCLID wrote the Elements."),
	}

	rerank(matches, "euclid")

	assert.Equal(t, "EUCLID wrote the Elements.", matches[0].Chunk.Content)
}

func TestRerankStableOnTies(t *testing.T) {
	matches := []*core.ChunkMatch{
		match(1, "parallel first"),
		match(2, "parallel second"),
		match(3, "parallel third"),
	}

	rerank(matches, "parallel")

	// Equal scores keep the incoming (vector similarity) order.
	assert.Equal(t, []string{"parallel first", "parallel second", "parallel third"}, contents(matches))
}

func TestRerankEmptyQuery(t *testing.T) {
	matches := []*core.ChunkMatch{
		match(1, "alpha"),
		match(2, "beta"),
	}

	rerank(matches, "   ")

	assert.Equal(t, []string{"alpha", "beta"}, contents(matches))
}

func TestRerankDeduplicatesQueryTerms(t *testing.T) {
	matches := []*core.ChunkMatch{
		match(1, "parallel lines"),
		match(2, "euclid alone"),
	}

	// "euclid" repeated in the query must score once, leaving a tie that
	// keeps the incoming order.
	rerank(matches, "euclid euclid parallel")

	assert.Equal(t, []string{"parallel lines", "euclid alone"}, contents(matches))
}

func TestRerankCountsTermsNotOccurrences(t *testing.T) {
	matches := []*core.ChunkMatch{
		match(1, "parallel parallel parallel"),
		match(2, "parallel euclid"),
	}

	rerank(matches, "euclid parallel")

	// Two distinct terms beat one term repeated.
	assert.Equal(t, "parallel euclid", matches[0].Chunk.Content)
}
