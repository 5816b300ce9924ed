// Package chunker splits raw document text into overlapping, size-bounded
// segments along a separator hierarchy. It is pure and deterministic.
package chunker

import "strings"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters carried
// between consecutive chunks.
const DefaultOverlap = 200

// joinSep joins merged fragments inside a chunk.
const joinSep = "\n\n"

// separators, in descent order: paragraph break, line break, sentence
// boundary. A character-level split is the final fallback.
var separators = []string{"\n\n", "\n", ". "}

// Split chunks text into segments of at most chunkSize+overlap characters.
// Fragments are produced by recursive separator descent, then greedily
// merged left to right; when a chunk is flushed, the next one is seeded with
// the last overlap characters of the flushed chunk so context carries over.
// Empty or whitespace-only input yields no chunks.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return merge(fragments(text, separators, chunkSize, overlap), chunkSize, overlap)
}

// fragments recursively splits text until every fragment fits chunkSize,
// descending the separator list only for fragments that still exceed it.
// Whitespace-only fragments are dropped.
func fragments(text string, seps []string, chunkSize, overlap int) []string {
	var out []string

	if len(seps) == 0 {
		// Character fallback, sliced by rune so multibyte text is never cut
		// mid-character. The stride guarantees termination even for a single
		// token longer than chunkSize.
		stride := chunkSize - overlap
		if stride <= 0 {
			stride = chunkSize
		}
		runes := []rune(text)
		for i := 0; i < len(runes); i += stride {
			end := i + chunkSize
			if end > len(runes) {
				end = len(runes)
			}
			if piece := string(runes[i:end]); strings.TrimSpace(piece) != "" {
				out = append(out, piece)
			}
			if end == len(runes) {
				break
			}
		}
		return out
	}

	var parts []string
	if sep := seps[0]; sep == ". " {
		// Keep the delimiter attached to the preceding sentence.
		parts = strings.SplitAfter(text, ". ")
	} else {
		parts = strings.Split(text, sep)
	}

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(part) > chunkSize {
			out = append(out, fragments(part, seps[1:], chunkSize, overlap)...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// merge greedily accumulates fragments into chunks joined by joinSep.
// Flushing happens when appending the next fragment would exceed chunkSize;
// the next buffer starts with the tail of the flushed chunk, so every chunk
// stays within chunkSize+overlap characters.
func merge(frags []string, chunkSize, overlap int) []string {
	var chunks []string
	buf := ""
	for _, frag := range frags {
		if buf == "" {
			buf = frag
			continue
		}
		if len(buf)+len(joinSep)+len(frag) > chunkSize {
			chunks = append(chunks, buf)
			buf = tail(buf, overlap) + frag
		} else {
			buf += joinSep + frag
		}
	}
	if strings.TrimSpace(buf) != "" {
		chunks = append(chunks, buf)
	}
	return chunks
}

// tail returns the last n characters of s, or all of s when shorter.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
