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


package retrieval

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/poiesic/libram/ai"
	"github.com/poiesic/libram/core"
	"github.com/poiesic/libram/storage"
)

const (
	// DefaultMatchThreshold is the minimum vector similarity for a
	// candidate chunk.
	DefaultMatchThreshold = 0.3

	// DefaultMatchCount is the per-search candidate cap.
	DefaultMatchCount = 15

	// DefaultLimit is the number of chunks joined into the context when
	// the caller passes no limit.
	DefaultLimit = 5

	// overfetch is how many extra candidates beyond the requested limit
	// are gathered before re-ranking.
	overfetch = 10
)

// Assembler builds retrieval context strings from the vector store.
type Assembler struct {
	store     storage.VectorStore
	embedder  ai.Embedder
	synonyms  SynonymTable
	threshold float32
	count     int
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler) error

// WithSynonyms replaces the subject synonym table.
func WithSynonyms(table SynonymTable) Option {
	return func(a *Assembler) error {
		a.synonyms = table
		return nil
	}
}

// WithMatchThreshold sets the minimum similarity for candidates.
func WithMatchThreshold(threshold float32) Option {
	return func(a *Assembler) error {
		a.threshold = threshold
		return nil
	}
}

// WithMatchCount sets the per-search candidate cap.
func WithMatchCount(count int) Option {
	return func(a *Assembler) error {
		if count < 1 {
			count = 1
		}
		a.count = count
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAssembler creates an Assembler over the given store and embedder.
func NewAssembler(store storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Assembler, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	a := &Assembler{
		store:     store,
		embedder:  embedder,
		synonyms:  DefaultSynonymTable(),
		threshold: DefaultMatchThreshold,
		count:     DefaultMatchCount,
		logger:    slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Retrieve embeds the query once and searches the store under each
// candidate subject tag until enough matches accumulate, then re-ranks
// the matches lexically and joins the top results into a single context
// string. An empty result is valid and returns "". An empty subject
// searches without a subject filter.
func (a *Assembler) Retrieve(ctx context.Context, query, subject string, limit int, extraFilter storage.Filter) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	vector, err := a.embedder.EmbedText(ctx, query)
	if err != nil {
		return "", err
	}

	candidates := a.synonyms.Expand(subject)
	if len(candidates) == 0 {
		// No subject: one unfiltered search.
		candidates = []string{""}
	}

	var matches []*core.ChunkMatch
	for _, candidate := range candidates {
		filter := make(storage.Filter, len(extraFilter)+1)
		maps.Copy(filter, extraFilter)
		if candidate != "" {
			filter[core.MetaSubject] = candidate
		}

		found, err := a.store.Search(ctx, vector, filter, a.threshold, a.count)
		if err != nil {
			return "", err
		}
		matches = append(matches, found...)

		if len(matches) >= limit+overfetch {
			break
		}
	}

	if len(matches) == 0 {
		a.logger.Debug("no matches for query", "subject", subject)
		return "", nil
	}

	rerank(matches, query)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	var b strings.Builder
	for _, match := range matches {
		b.WriteString("---\n")
		b.WriteString(match.Chunk.Content)
		b.WriteString("\n")
	}

	a.logger.Debug("assembled context",
		"subject", subject,
		"matches", len(matches),
		"bytes", b.Len())
	return b.String(), nil
}
