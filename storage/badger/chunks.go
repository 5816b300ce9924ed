package badger

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/libram/core"
	"github.com/poiesic/libram/storage"
)

// Store implements storage.VectorStore for BadgerDB.
//
// Similarity search is a full scan over stored chunks with a dot product
// against each vector. Embeddings produced by OpenAI-compatible services
// are unit-normalized, so the dot product equals cosine similarity.
type Store struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// newStore is an internal constructor that returns the concrete type.
func newStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store"),
	}
}

// NewStore opens a BadgerDB-backed vector store at the given path.
//
// Returns storage.VectorStore interface to enforce abstraction.
func NewStore(path string) (storage.VectorStore, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Upsert writes chunks to storage, replacing any existing chunk with the
// same ID. Sets InsertedAt if not already set.
func (s *Store) Upsert(ctx context.Context, chunks ...*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = time.Now().UTC()
			}
			key := makeChunkKey(chunk.Id)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Search finds chunks similar to the given vector among those matching
// the filter, ordered by similarity score descending.
func (s *Store) Search(ctx context.Context, vector []float32, filter storage.Filter, threshold float32, limit int) ([]*core.ChunkMatch, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ChunkMatch

	err := s.forEachChunk(func(chunk *core.Chunk) error {
		if !filter.Matches(chunk.Metadata) {
			return nil
		}
		if len(chunk.Vector) == 0 {
			return nil
		}

		similarity := dotProduct(vector, chunk.Vector)
		if similarity >= threshold {
			results = append(results, &core.ChunkMatch{
				Chunk: chunk,
				Score: similarity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Delete removes all chunks matching the filter and returns the count removed.
func (s *Store) Delete(ctx context.Context, filter storage.Filter) (int, error) {
	var keys [][]byte

	err := s.forEachChunk(func(chunk *core.Chunk) error {
		if filter.Matches(chunk.Metadata) {
			keys = append(keys, makeChunkKey(chunk.Id))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(keys) == 0 {
		return 0, nil
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("deleted chunks", "count", len(keys))
	return len(keys), nil
}

// DistinctBooks aggregates stored chunks by book name, ordered by name.
func (s *Store) DistinctBooks(ctx context.Context) ([]*core.BookStats, error) {
	books := make(map[string]*core.BookStats)

	err := s.forEachChunk(func(chunk *core.Chunk) error {
		name := chunk.BookName()
		stats, ok := books[name]
		if !ok {
			stats = &core.BookStats{
				BookName: name,
				Subject:  chunk.Metadata[core.MetaSubject],
			}
			books[name] = stats
		}
		stats.Chunks++
		if chunk.InsertedAt.After(stats.LastInserted) {
			stats.LastInserted = chunk.InsertedAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]*core.BookStats, 0, len(books))
	for _, stats := range books {
		results = append(results, stats)
	}
	slices.SortFunc(results, func(a, b *core.BookStats) int {
		return strings.Compare(a.BookName, b.BookName)
	})

	return results, nil
}

// forEachChunk iterates over all stored chunks in a read transaction.
func (s *Store) forEachChunk(fn func(chunk *core.Chunk) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var chunk *core.Chunk
			err := item.Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
