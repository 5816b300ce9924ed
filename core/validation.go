package core

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Metadata must carry a book name
//   - ChunkIndex must not be negative
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding gate runs)
//   - Id (derived from book name and index at upsert time)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.BookName() == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingBookName)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkIndex)
	}

	return nil
}
