package storage

import (
	"context"

	"github.com/poiesic/libram/core"
)

// Filter selects chunks by metadata equality. A chunk matches when every
// key in the filter is present in its metadata with the same value. An
// empty or nil filter matches all chunks.
type Filter map[string]string

// Matches reports whether the given metadata satisfies the filter.
func (f Filter) Matches(metadata map[string]string) bool {
	for k, v := range f {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// VectorStore provides persistence and similarity search for chunks.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// Upsert writes one or more chunks to storage, replacing any existing
	// chunk with the same ID. Sets InsertedAt if not already set.
	// Returns core validation errors for malformed chunks.
	Upsert(ctx context.Context, chunks ...*core.Chunk) error

	// Search finds chunks similar to the given vector among those matching
	// the filter. Returns chunks with similarity >= threshold, up to limit
	// results, ordered by similarity score (highest first).
	Search(ctx context.Context, vector []float32, filter Filter, threshold float32, limit int) ([]*core.ChunkMatch, error)

	// Delete removes all chunks matching the filter.
	// Returns the number of chunks removed.
	Delete(ctx context.Context, filter Filter) (int, error)

	// DistinctBooks aggregates stored chunks by book name.
	// Results are ordered by book name.
	DistinctBooks(ctx context.Context) ([]*core.BookStats, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
