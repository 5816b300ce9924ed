package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		id1 := IDFromContent("some chunk content")
		id2 := IDFromContent("some chunk content")
		assert.Equal(t, id1, id2)
	})

	t.Run("different content different id", func(t *testing.T) {
		id1 := IDFromContent("content A")
		id2 := IDFromContent("content B")
		assert.NotEqual(t, id1, id2)
	})
}

func TestChunkID(t *testing.T) {
	// Same (book, index) pair always maps to the same key, which makes
	// retried upserts overwrite instead of duplicate.
	assert.Equal(t, ChunkID("Physics Vol 1", 4), ChunkID("Physics Vol 1", 4))
	assert.NotEqual(t, ChunkID("Physics Vol 1", 4), ChunkID("Physics Vol 1", 5))
	assert.NotEqual(t, ChunkID("Physics Vol 1", 4), ChunkID("Physics Vol 2", 4))
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			Content:    "Newton's first law states that...",
			Metadata:   map[string]string{MetaBookName: "Physics Vol 1", MetaSubject: "Physics"},
			ChunkIndex: 0,
		}
	}

	t.Run("valid chunk", func(t *testing.T) {
		assert.NoError(t, ValidateChunk(valid()))
	})

	t.Run("nil chunk", func(t *testing.T) {
		err := ValidateChunk(nil)
		assert.ErrorIs(t, err, ErrInvalidChunk)
	})

	t.Run("empty content", func(t *testing.T) {
		c := valid()
		c.Content = ""
		err := ValidateChunk(c)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("missing book name", func(t *testing.T) {
		c := valid()
		delete(c.Metadata, MetaBookName)
		err := ValidateChunk(c)
		assert.ErrorIs(t, err, ErrMissingBookName)
	})

	t.Run("negative index", func(t *testing.T) {
		c := valid()
		c.ChunkIndex = -1
		err := ValidateChunk(c)
		assert.ErrorIs(t, err, ErrNegativeChunkIndex)
	})
}

func TestChunkMUSRoundTrip(t *testing.T) {
	chunk := Chunk{
		Id:      ChunkID("Maths Grade 9", 12),
		Content: "Euclid's parallel postulate.\n\nGiven a line and a point not on it...",
		Metadata: map[string]string{
			MetaBookName: "Maths Grade 9",
			MetaSubject:  "Maths",
			MetaWindow:   "2",
		},
		Vector:     []float32{0.25, -0.5, 0.125},
		ChunkIndex: 12,
		InsertedAt: time.Date(2025, 11, 3, 10, 30, 0, 0, time.UTC),
	}

	bs := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, bs)
	require.Equal(t, len(bs), n)

	got, n, err := ChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, chunk, got)
}
