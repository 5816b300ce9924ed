package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a test double for Source backed by in-memory pages.
type fakeSource struct {
	pages  []string
	images [][]byte

	textErr error
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageText(_ context.Context, page int) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	if page < 0 || page >= len(f.pages) {
		return "", ErrPageOutOfRange
	}
	return f.pages[page], nil
}

func (f *fakeSource) PageImage(_ context.Context, page int) ([]byte, error) {
	if page < 0 || page >= len(f.images) {
		return nil, ErrPageOutOfRange
	}
	return f.images[page], nil
}

// fakeRecognizer returns canned text keyed by image content.
type fakeRecognizer struct {
	texts map[string]string
	calls int
}

func (f *fakeRecognizer) Recognize(_ context.Context, image []byte) (string, error) {
	f.calls++
	return f.texts[string(image)], nil
}

func goodPage() string {
	return strings.Repeat("The Pythagorean theorem relates the sides of a right triangle. ", 3)
}

func TestProbeChoosesText(t *testing.T) {
	source := &fakeSource{pages: []string{goodPage(), goodPage(), goodPage()}}
	selector, err := NewSelector(source)
	require.NoError(t, err)

	require.NoError(t, selector.Probe(context.Background()))
	assert.Equal(t, StrategyText, selector.Strategy())
}

func TestProbeShortSampleForcesOCR(t *testing.T) {
	// 10 visible characters, well below the 50-character minimum.
	source := &fakeSource{
		pages:  []string{"0123456789", "", ""},
		images: [][]byte{[]byte("img0"), []byte("img1"), []byte("img2")},
	}
	recognizer := &fakeRecognizer{texts: map[string]string{
		"img0": "page zero",
		"img1": "page one",
		"img2": "page two",
	}}

	selector, err := NewSelector(source, WithRecognizer(recognizer))
	require.NoError(t, err)

	require.NoError(t, selector.Probe(context.Background()))
	assert.Equal(t, StrategyOCR, selector.Strategy())

	// Every page goes through the recognizer.
	var got []string
	err = selector.ForEachPage(context.Background(), func(page int, text string) error {
		got = append(got, text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"page zero", "page one", "page two"}, got)
	assert.Equal(t, 3, recognizer.calls)
}

func TestProbeLowDensityForcesOCR(t *testing.T) {
	digits := strings.Repeat("0123456789 ", 20)
	source := &fakeSource{
		pages:  []string{digits},
		images: [][]byte{[]byte("img")},
	}
	recognizer := &fakeRecognizer{texts: map[string]string{"img": "recovered"}}

	selector, err := NewSelector(source, WithRecognizer(recognizer))
	require.NoError(t, err)

	require.NoError(t, selector.Probe(context.Background()))
	assert.Equal(t, StrategyOCR, selector.Strategy())
}

func TestProbeGarbageForcesOCR(t *testing.T) {
	page := goodPage() + strings.Repeat("�", 40)
	source := &fakeSource{
		pages:  []string{page},
		images: [][]byte{[]byte("img")},
	}
	recognizer := &fakeRecognizer{texts: map[string]string{"img": "recovered"}}

	selector, err := NewSelector(source, WithRecognizer(recognizer))
	require.NoError(t, err)

	require.NoError(t, selector.Probe(context.Background()))
	assert.Equal(t, StrategyOCR, selector.Strategy())
}

func TestProbeNoTextNoRecognizer(t *testing.T) {
	source := &fakeSource{pages: []string{"", "", ""}}
	selector, err := NewSelector(source)
	require.NoError(t, err)

	err = selector.Probe(context.Background())
	assert.ErrorIs(t, err, ErrNoExtractableText)
}

func TestProbeEmptyDocument(t *testing.T) {
	selector, err := NewSelector(&fakeSource{})
	require.NoError(t, err)

	err = selector.Probe(context.Background())
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestProbeIsIdempotent(t *testing.T) {
	source := &fakeSource{pages: []string{goodPage()}}
	selector, err := NewSelector(source)
	require.NoError(t, err)

	require.NoError(t, selector.Probe(context.Background()))
	// A source error after the decision must not change it.
	source.textErr = errors.New("backend gone")
	require.NoError(t, selector.Probe(context.Background()))
	assert.Equal(t, StrategyText, selector.Strategy())
}

func TestForEachPageOrderAndStop(t *testing.T) {
	source := &fakeSource{pages: []string{goodPage() + "A", goodPage() + "B", goodPage() + "C"}}
	selector, err := NewSelector(source)
	require.NoError(t, err)

	stop := errors.New("stop")
	var pages []int
	err = selector.ForEachPage(context.Background(), func(page int, text string) error {
		pages = append(pages, page)
		if page == 1 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []int{0, 1}, pages)
}

func TestForEachPageContextCancel(t *testing.T) {
	source := &fakeSource{pages: []string{goodPage(), goodPage()}}
	selector, err := NewSelector(source)
	require.NoError(t, err)
	require.NoError(t, selector.Probe(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = selector.ForEachPage(ctx, func(page int, text string) error {
		t.Fatal("callback should not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSamplePages(t *testing.T) {
	assert.Equal(t, []int{0}, samplePages(1))
	assert.Equal(t, []int{0, 1}, samplePages(2))
	assert.Equal(t, []int{0, 1, 2}, samplePages(3))
	assert.Equal(t, []int{0, 5, 9}, samplePages(10))
}
