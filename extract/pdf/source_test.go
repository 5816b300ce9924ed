package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/libram/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for Runner. It records invocations and
// returns canned output keyed by command name.
type mockRunner struct {
	outputs map[string][]byte
	err     error
	calls   [][]string
	stdins  [][]byte
}

func (m *mockRunner) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	m.stdins = append(m.stdins, stdin)
	if m.err != nil {
		return nil, m.err
	}
	return m.outputs[name], nil
}

const pdfinfoOutput = `Title:          Geometry Primer
Producer:       pdfTeX
Pages:          12
Encrypted:      no
Page size:      612 x 792 pts (letter)
`

func TestOpen(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{"pdfinfo": []byte(pdfinfoOutput)}}

	doc, err := Open(context.Background(), "/tmp/geometry.pdf", WithRunner(runner))
	require.NoError(t, err)
	assert.Equal(t, 12, doc.PageCount())

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"pdfinfo", "/tmp/geometry.pdf"}, runner.calls[0])
}

func TestOpenMalformed(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{"pdfinfo": []byte("Title: broken\n")}}

	_, err := Open(context.Background(), "/tmp/broken.pdf", WithRunner(runner))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestOpenCommandError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdfinfo: not found")}

	_, err := Open(context.Background(), "/tmp/missing.pdf", WithRunner(runner))
	assert.Error(t, err)
}

func TestPageText(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		"pdfinfo":   []byte(pdfinfoOutput),
		"pdftotext": []byte("Chapter 1\n\nLines and angles."),
	}}

	doc, err := Open(context.Background(), "/tmp/geometry.pdf", WithRunner(runner))
	require.NoError(t, err)

	text, err := doc.PageText(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1\n\nLines and angles.", text)

	// Page numbers are 1-based on the pdftotext command line.
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"pdftotext", "-f", "1", "-l", "1", "-layout", "/tmp/geometry.pdf", "-"}, runner.calls[1])
}

func TestPageTextOutOfRange(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{"pdfinfo": []byte(pdfinfoOutput)}}

	doc, err := Open(context.Background(), "/tmp/geometry.pdf", WithRunner(runner))
	require.NoError(t, err)

	_, err = doc.PageText(context.Background(), 12)
	assert.ErrorIs(t, err, extract.ErrPageOutOfRange)

	_, err = doc.PageText(context.Background(), -1)
	assert.ErrorIs(t, err, extract.ErrPageOutOfRange)
}

func TestPageImage(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		"pdfinfo":  []byte(pdfinfoOutput),
		"pdftoppm": []byte("png-bytes"),
	}}

	doc, err := Open(context.Background(), "/tmp/geometry.pdf", WithRunner(runner))
	require.NoError(t, err)

	image, err := doc.PageImage(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), image)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"pdftoppm", "-f", "5", "-l", "5", "-r", "200", "-png", "/tmp/geometry.pdf"}, runner.calls[1])
}

func TestTesseractRecognize(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{"tesseract": []byte("recognized text")}}
	recognizer := NewTesseractRecognizerWithRunner("eng", runner)

	text, err := recognizer.Recognize(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "recognized text", text)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"tesseract", "stdin", "stdout", "-l", "eng"}, runner.calls[0])
	assert.Equal(t, []byte("png-bytes"), runner.stdins[0])
}

func TestParsePageCount(t *testing.T) {
	pages, err := parsePageCount("Pages:          3\n")
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	_, err = parsePageCount("Pages: many\n")
	assert.ErrorIs(t, err, ErrMalformedDocument)
}
