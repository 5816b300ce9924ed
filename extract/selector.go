// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strategy is the per-document extraction strategy.
type Strategy int

const (
	// StrategyUndecided means the sample has not been probed yet.
	StrategyUndecided Strategy = iota
	// StrategyText reads embedded page text.
	StrategyText
	// StrategyOCR renders each page and runs it through the recognizer.
	StrategyOCR
)

func (s Strategy) String() string {
	switch s {
	case StrategyText:
		return "text"
	case StrategyOCR:
		return "ocr"
	default:
		return "undecided"
	}
}

// Thresholds control the OCR decision heuristics.
type Thresholds struct {
	// MinTextLength is the minimum trimmed sample length for embedded
	// text to be considered usable.
	MinTextLength int
	// MinAlphaDensity is the minimum ratio of Latin letters to
	// non-whitespace runes.
	MinAlphaDensity float64
	// MaxGarbageRatio is the maximum tolerated ratio of replacement
	// characters (U+FFFD) to total runes.
	MaxGarbageRatio float64
}

// DefaultThresholds returns the default OCR decision thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTextLength:   50,
		MinAlphaDensity: 0.3,
		MaxGarbageRatio: 0.05,
	}
}

// Selector wraps a Source and decides once per document whether embedded
// text is usable or every page must be OCRed. The decision is made from a
// sample of the first, middle and last pages.
type Selector struct {
	source     Source
	recognizer Recognizer
	thresholds Thresholds
	strategy   Strategy
	logger     *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector) error

// WithRecognizer sets the OCR recognizer used when embedded text is
// unusable.
func WithRecognizer(r Recognizer) Option {
	return func(s *Selector) error {
		s.recognizer = r
		return nil
	}
}

// WithThresholds overrides the OCR decision thresholds.
func WithThresholds(t Thresholds) Option {
	return func(s *Selector) error {
		s.thresholds = t
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) error {
		s.logger = logger
		return nil
	}
}

// NewSelector creates a Selector over the given source.
func NewSelector(source Source, opts ...Option) (*Selector, error) {
	s := &Selector{
		source:     source,
		thresholds: DefaultThresholds(),
		strategy:   StrategyUndecided,
		logger:     slog.Default().With("component", "selector"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Strategy returns the decided extraction strategy.
// StrategyUndecided until Probe has run.
func (s *Selector) Strategy() Strategy {
	return s.strategy
}

// PageCount returns the page count of the underlying source.
func (s *Selector) PageCount() int {
	return s.source.PageCount()
}

// Probe samples the document and decides the extraction strategy.
// Returns ErrNoExtractableText when embedded text is unusable and no
// recognizer is configured, and ErrEmptyDocument for a zero-page source.
func (s *Selector) Probe(ctx context.Context) error {
	if s.strategy != StrategyUndecided {
		return nil
	}

	count := s.source.PageCount()
	if count <= 0 {
		return ErrEmptyDocument
	}

	var sample strings.Builder
	for _, page := range samplePages(count) {
		text, err := s.source.PageText(ctx, page)
		if err != nil {
			return err
		}
		sample.WriteString(text)
		sample.WriteString("\n")
	}

	if usableText(sample.String(), s.thresholds) {
		s.strategy = StrategyText
	} else {
		if s.recognizer == nil {
			return ErrNoExtractableText
		}
		s.strategy = StrategyOCR
	}

	s.logger.Debug("extraction strategy decided",
		"strategy", s.strategy.String(),
		"pages", count)
	return nil
}

// ForEachPage streams the document's pages through fn in order, using the
// decided strategy. Probes first if needed. Iteration stops on the first
// fn error or context cancellation.
func (s *Selector) ForEachPage(ctx context.Context, fn func(page int, text string) error) error {
	if err := s.Probe(ctx); err != nil {
		return err
	}

	count := s.source.PageCount()
	for page := 0; page < count; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := s.pageText(ctx, page)
		if err != nil {
			return err
		}

		if err := fn(page, text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Selector) pageText(ctx context.Context, page int) (string, error) {
	if s.strategy == StrategyOCR {
		image, err := s.source.PageImage(ctx, page)
		if err != nil {
			return "", err
		}
		return s.recognizer.Recognize(ctx, image)
	}
	return s.source.PageText(ctx, page)
}

// samplePages returns the deduplicated first, middle and last page indices.
func samplePages(count int) []int {
	candidates := []int{0, count / 2, count - 1}
	pages := make([]int, 0, len(candidates))
	seen := make(map[int]bool)
	for _, p := range candidates {
		if p < 0 || p >= count || seen[p] {
			continue
		}
		seen[p] = true
		pages = append(pages, p)
	}
	return pages
}

// usableText reports whether the sample text passes all heuristics for
// embedded-text extraction.
func usableText(sample string, t Thresholds) bool {
	trimmed := strings.TrimSpace(sample)
	if len(trimmed) < t.MinTextLength {
		return false
	}

	var total, nonSpace, letters, garbage int
	for _, r := range trimmed {
		total++
		if r == utf8.RuneError {
			garbage++
		}
		if unicode.IsSpace(r) {
			continue
		}
		nonSpace++
		if isLatinLetter(r) {
			letters++
		}
	}

	if nonSpace == 0 {
		return false
	}
	if float64(letters)/float64(nonSpace) < t.MinAlphaDensity {
		return false
	}
	if float64(garbage)/float64(total) > t.MaxGarbageRatio {
		return false
	}
	return true
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
