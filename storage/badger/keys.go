package badger

import (
	"fmt"

	"github.com/poiesic/libram/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chkrec"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}
