package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/libram/ai"
)

// Page classification values.
const (
	PageTypeInstructional = "instructional"
	PageTypeFrontMatter   = "front_matter"
)

// maximum page text sent to the model
const classifyTextLimit = 4000

// PageClass is the model's verdict for a single page.
type PageClass struct {
	PageType string `json:"page_type"`
	Chapter  string `json:"chapter"`
	Topic    string `json:"topic"`
}

const classifyPrompt = `Role: Textbook page classifier.

Classify the page text below. Front matter is anything that is not teaching
content: cover, title page, copyright, dedication, table of contents,
preface, index, blank pages.

Page text:
%s

Output JSON format strictly:
{
    "page_type": "instructional" or "front_matter",
    "chapter": "Chapter name/number from the page text or 'Unknown'",
    "topic": "Specific topic from the page text or 'Unknown'"
}`

// Classifier labels pages as instructional or front matter and pulls
// chapter/topic hints out of the text. Used by the pipeline's enriched
// ingestion mode.
type Classifier struct {
	generator   ai.Generator
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// NewClassifier creates a page classifier over the given generator.
func NewClassifier(generator ai.Generator) (*Classifier, error) {
	if generator == nil {
		return nil, ErrProviderRequired
	}
	return &Classifier{
		generator:   generator,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default().With("component", "page-classifier"),
	}, nil
}

// Classify labels a page. Classification is advisory: any failure, from
// the model or from malformed JSON, falls back to an instructional page
// with no enrichment so ingestion never stalls on it. Only rate-limited
// failures are retried.
func (c *Classifier) Classify(ctx context.Context, pageText string) PageClass {
	fallback := PageClass{PageType: PageTypeInstructional}

	if len(pageText) > classifyTextLimit {
		pageText = pageText[:classifyTextLimit]
	}
	prompt := fmt.Sprintf(classifyPrompt, pageText)

	var result PageClass
	err := RetryWithBackoff(ctx, func() error {
		response, err := c.generator.GenerateJSON(ctx, prompt)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(response), &result)
	}, c.maxAttempts, c.baseDelay, ai.Retryable)

	if err != nil {
		c.logger.Warn("page classification failed, treating page as instructional", "err", err)
		return fallback
	}

	if result.PageType != PageTypeInstructional && result.PageType != PageTypeFrontMatter {
		c.logger.Warn("unexpected page type from classifier", "page_type", result.PageType)
		return fallback
	}

	if result.Chapter == "Unknown" {
		result.Chapter = ""
	}
	if result.Topic == "Unknown" {
		result.Topic = ""
	}
	return result
}
