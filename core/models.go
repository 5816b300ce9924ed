package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored chunks.
// It is derived from content so that re-upserting the same chunk is idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text using BLAKE2b hashing.
// Identical input always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID generates the ID for a chunk from its book name and document-wide
// chunk index. The (book, index) pair is the chunk's uniqueness key, so a
// retried upsert of an already-stored chunk overwrites instead of duplicating.
func ChunkID(bookName string, chunkIndex int) ID {
	return IDFromContent(fmt.Sprintf("%s:%d", bookName, chunkIndex))
}

// Well-known metadata keys carried on chunks.
const (
	MetaBookName = "book_name"
	MetaSubject  = "subject"
	MetaChapter  = "chapter"
	MetaTopic    = "topic"
	MetaWindow   = "window"
)

// Chunk is a bounded-length text segment stored with its embedding and
// metadata for retrieval. Immutable once stored.
type Chunk struct {
	Id         ID
	Content    string
	Metadata   map[string]string
	Vector     []float32 // Embedding vector (populated by the embedding gate)
	ChunkIndex int       // Position within the source document
	InsertedAt time.Time
}

// BookName returns the book identifier carried in the chunk metadata.
func (c *Chunk) BookName() string {
	return c.Metadata[MetaBookName]
}

// ChunkMatch is a chunk returned from vector similarity search together with
// its similarity score.
type ChunkMatch struct {
	Chunk *Chunk
	Score float32
}

// BookStats is the aggregate view of one ingested book, used for listing the
// corpus contents.
type BookStats struct {
	BookName     string
	Subject      string
	Chunks       int
	LastInserted time.Time
}
