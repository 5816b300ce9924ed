package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("", 100, 10))
	assert.Empty(t, Split("   \n\n\t  ", 100, 10))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	chunks := Split("Paragraph 1.\n\nParagraph 2.", 100, 10)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Paragraph 1.")
	assert.Contains(t, chunks[0], "Paragraph 2.")
}

func TestSplit_ParagraphsPreserved(t *testing.T) {
	text := "Paragraph 1.\n\nParagraph 2 is slightly longer and contains important details.\n\nParagraph 3."
	chunks := Split(text, 100, 10)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0], "Paragraph 1.")
}

func TestSplit_BoundsAndOrder(t *testing.T) {
	para := strings.Repeat("This is a test paragraph that has reasonable length. ", 5)
	text := strings.Join([]string{para, para, para, para, para, para, para, para, para, para}, "\n\n")

	chunkSize, overlap := 200, 50
	chunks := Split(text, chunkSize, overlap)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
		assert.LessOrEqual(t, len(c), chunkSize+overlap)
	}

	// Document order is stable: each chunk's distinctive content appears in
	// the source in the same order.
	pos := 0
	for _, c := range chunks {
		// Skip the carried-over overlap seed when locating the chunk body.
		body := c
		if len(body) > overlap {
			body = body[overlap:]
		}
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		probe := body
		if len(probe) > 40 {
			probe = probe[:40]
		}
		idx := strings.Index(flatten(text)[pos:], flatten(probe))
		require.GreaterOrEqual(t, idx, 0, "chunk content out of order or missing: %q", probe)
		pos += idx
	}
}

func TestSplit_OverlapCarried(t *testing.T) {
	para := strings.Repeat("Sentence about geometry. ", 10)
	text := para + "\n\n" + para + "\n\n" + para
	chunks := Split(text, 120, 30)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		seed := prev
		if len(seed) > 30 {
			seed = seed[len(seed)-30:]
		}
		assert.True(t, strings.HasPrefix(chunks[i], seed),
			"chunk %d does not begin with its predecessor's tail", i)
	}
}

func TestSplit_OversizedTokenTerminates(t *testing.T) {
	// A single contiguous token with no separators at all.
	token := strings.Repeat("x", 1000)
	chunks := Split(token, 100, 20)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100+20)
	}
	// All content is covered.
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, len(token))
}

func TestSplit_MultibyteNeverCutMidRune(t *testing.T) {
	// A separator-free run of multibyte characters forces the character
	// fallback; every chunk boundary must land on a rune boundary.
	token := strings.Repeat("日本語の文章", 200)
	chunks := Split(token, 100, 20)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk contains a broken rune: %q", c)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100+20)
	}
}

func TestSplit_MultibyteOverlapSeed(t *testing.T) {
	// Multibyte sentences long enough to flush several chunks, so the
	// overlap tail is exercised on non-ASCII content.
	text := strings.Repeat("αβγ δεζ ηθι. ", 60)
	chunks := Split(text, 80, 16)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma. Delta epsilon.\n", 50)
	first := Split(text, 150, 30)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Split(text, 150, 30))
	}
}

func TestSplit_SentenceBoundaryKeepsDelimiter(t *testing.T) {
	// One long line forces descent to the sentence separator.
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)
	chunks := Split(text, 100, 0)
	require.Greater(t, len(chunks), 1)
	assert.Contains(t, chunks[0], "dog. ")
}

// flatten collapses runs of whitespace so ordering checks are insensitive to
// separator normalization.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
