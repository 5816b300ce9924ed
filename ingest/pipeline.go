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


package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/libram/ai"
	"github.com/poiesic/libram/chunker"
	"github.com/poiesic/libram/core"
	"github.com/poiesic/libram/extract"
	"github.com/poiesic/libram/jobs"
	"github.com/poiesic/libram/storage"
)

const (
	// DefaultWindowSize is the number of pages chunked together.
	DefaultWindowSize = 5

	// DefaultJobPoolSize bounds concurrently running ingestion jobs.
	DefaultJobPoolSize = 2
)

// Pipeline orchestrates document ingestion. Ingest registers a job and
// returns immediately; the work runs on a supervised worker pool. Pages
// stream from the extraction source, accumulate into windows, and each
// window is chunked, embedded through the gate and upserted.
type Pipeline struct {
	store      storage.VectorStore
	provider   ai.Provider
	registry   *jobs.Registry
	gate       *EmbeddingGate
	classifier *Classifier
	jobPool    *ants.Pool

	thresholds   extract.Thresholds
	chunkSize    int
	chunkOverlap int
	windowSize   int
	maxAttempts  int
	baseDelay    time.Duration
	enriched     bool

	running sync.WaitGroup
	logger  *slog.Logger

	gateOpts []GateOption
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWindowSize sets the number of pages accumulated before chunking.
func WithWindowSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.windowSize = n
		return nil
	}
}

// WithChunking sets chunk size and overlap for the splitter.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		p.chunkSize = size
		p.chunkOverlap = overlap
		return nil
	}
}

// WithEnrichment enables page classification: front-matter pages are
// skipped and chapter/topic hints flow into chunk metadata.
func WithEnrichment() Option {
	return func(p *Pipeline) error {
		p.enriched = true
		return nil
	}
}

// WithJobPoolSize sets the number of ingestion jobs that may run at once.
func WithJobPoolSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		if p.jobPool != nil {
			p.jobPool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		p.jobPool = pool
		return nil
	}
}

// WithSampleThresholds overrides the extraction strategy thresholds.
func WithSampleThresholds(t extract.Thresholds) Option {
	return func(p *Pipeline) error {
		p.thresholds = t
		return nil
	}
}

// WithStoreRetry sets the retry budget for store upserts.
func WithStoreRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithGateOptions forwards options to the embedding gate.
func WithGateOptions(opts ...GateOption) Option {
	return func(p *Pipeline) error {
		p.gateOpts = append(p.gateOpts, opts...)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store storage.VectorStore,
	provider ai.Provider,
	registry *jobs.Registry,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	jobPool, err := ants.NewPool(DefaultJobPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:        store,
		provider:     provider,
		registry:     registry,
		jobPool:      jobPool,
		thresholds:   extract.DefaultThresholds(),
		chunkSize:    chunker.DefaultChunkSize,
		chunkOverlap: chunker.DefaultOverlap,
		windowSize:   DefaultWindowSize,
		maxAttempts:  DefaultMaxAttempts,
		baseDelay:    DefaultBaseDelay,
		logger:       slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.jobPool.Release()
			return nil, optErr
		}
	}

	gate, err := NewEmbeddingGate(provider.Embedder(), p.gateOpts...)
	if err != nil {
		p.jobPool.Release()
		return nil, err
	}
	p.gate = gate

	if p.enriched {
		classifier, err := NewClassifier(provider.Generator())
		if err != nil {
			p.Release()
			return nil, err
		}
		classifier.maxAttempts = p.maxAttempts
		classifier.baseDelay = p.baseDelay
		p.classifier = classifier
	}

	return p, nil
}

// Ingest probes the source, registers a job under the book name from
// metadata (or a generated upload key) and schedules the ingestion run.
// Returns the job key immediately; progress is observable through the
// registry. A document with no usable text is rejected here, before any
// job is registered.
func (p *Pipeline) Ingest(ctx context.Context, source extract.Source, recognizer extract.Recognizer, metadata map[string]string) (string, error) {
	if source == nil {
		return "", ErrSourceRequired
	}

	meta := make(map[string]string, len(metadata)+1)
	maps.Copy(meta, metadata)

	jobKey := meta[core.MetaBookName]
	if jobKey == "" {
		jobKey = fmt.Sprintf("upload-%d", time.Now().Unix())
		meta[core.MetaBookName] = jobKey
	}

	selOpts := []extract.Option{extract.WithThresholds(p.thresholds)}
	if recognizer != nil {
		selOpts = append(selOpts, extract.WithRecognizer(recognizer))
	}
	selector, err := extract.NewSelector(source, selOpts...)
	if err != nil {
		return "", err
	}
	if err := selector.Probe(ctx); err != nil {
		return "", err
	}

	p.registry.Start(jobKey, selector.PageCount())

	p.running.Add(1)
	if err := p.jobPool.Submit(func() {
		defer p.running.Done()
		p.run(jobKey, selector, meta)
	}); err != nil {
		p.running.Done()
		p.registry.Fail(jobKey, err.Error())
		return "", err
	}

	return jobKey, nil
}

// run executes one ingestion job to a terminal registry state.
func (p *Pipeline) run(jobKey string, selector *extract.Selector, meta map[string]string) {
	ctx := context.Background()
	logger := p.logger.With("job", jobKey)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("ingestion panicked", "panic", r)
			p.registry.Fail(jobKey, fmt.Sprintf("ingestion panicked: %v", r))
		}
	}()

	bookName := meta[core.MetaBookName]

	// Re-ingesting a book replaces its chunks wholesale.
	deleted, err := p.store.Delete(ctx, storage.Filter{core.MetaBookName: bookName})
	if err != nil {
		p.registry.Fail(jobKey, err.Error())
		return
	}
	if deleted > 0 {
		logger.Info("replacing existing book chunks", "count", deleted)
	}

	var (
		pages      []string
		window     int
		chunkIndex int
		chapter    string
		topic      string
	)

	flush := func() error {
		if len(pages) == 0 {
			return nil
		}
		err := p.flushWindow(ctx, bookName, meta, window, pages, chapter, topic, &chunkIndex)
		pages = pages[:0]
		window++
		return err
	}

	err = selector.ForEachPage(ctx, func(page int, text string) error {
		if p.registry.IsCancelled(jobKey) {
			return errJobCancelled
		}
		p.registry.UpdateProgress(jobKey, page+1)

		if p.classifier != nil {
			class := p.classifier.Classify(ctx, text)
			if class.PageType == PageTypeFrontMatter {
				logger.Debug("skipping front matter page", "page", page+1)
				return nil
			}
			if class.Chapter != "" {
				chapter = class.Chapter
			}
			if class.Topic != "" {
				topic = class.Topic
			}
		}

		pages = append(pages, text)
		if len(pages) >= p.windowSize {
			if err := flush(); err != nil {
				return err
			}
			if p.registry.IsCancelled(jobKey) {
				return errJobCancelled
			}
		}
		return nil
	})
	if err == nil && p.registry.IsCancelled(jobKey) {
		err = errJobCancelled
	}
	if err == nil {
		err = flush()
	}
	// A cancel can land while the final window is embedding; it must not
	// surface as a completed job.
	if err == nil && p.registry.IsCancelled(jobKey) {
		err = errJobCancelled
	}
	if errors.Is(err, errJobCancelled) {
		logger.Info("ingestion cancelled", "chunks", chunkIndex)
		return
	}
	if err != nil {
		logger.Error("ingestion failed", "err", err)
		p.registry.Fail(jobKey, err.Error())
		return
	}

	logger.Info("ingestion complete", "chunks", chunkIndex, "windows", window)
	p.registry.Complete(jobKey)
}

// flushWindow chunks the accumulated pages, embeds the chunks and writes
// the survivors to the store. Chunks whose embedding fails are dropped;
// the rest of the window still lands.
func (p *Pipeline) flushWindow(ctx context.Context, bookName string, meta map[string]string, window int, pages []string, chapter, topic string, chunkIndex *int) error {
	text := strings.Join(pages, "\n")
	parts := chunker.Split(text, p.chunkSize, p.chunkOverlap)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]*core.Chunk, len(parts))
	for i, content := range parts {
		md := make(map[string]string, len(meta)+3)
		maps.Copy(md, meta)
		md[core.MetaWindow] = strconv.Itoa(window)
		if chapter != "" {
			md[core.MetaChapter] = chapter
		}
		if topic != "" {
			md[core.MetaTopic] = topic
		}

		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(bookName, *chunkIndex),
			Content:    content,
			Metadata:   md,
			ChunkIndex: *chunkIndex,
		}
		*chunkIndex++
	}

	vectors, errs := p.gate.EmbedAll(ctx, parts)

	kept := make([]*core.Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		if errs[i] != nil {
			p.logger.Warn("dropping chunk after embedding failure",
				"book", bookName,
				"chunk", chunk.ChunkIndex,
				"err", errs[i])
			continue
		}
		chunk.Vector = vectors[i]
		kept = append(kept, chunk)
	}
	if len(kept) == 0 {
		return nil
	}

	return RetryWithBackoff(ctx, func() error {
		return p.store.Upsert(ctx, kept...)
	}, p.maxAttempts, p.baseDelay, nil)
}

// Wait blocks until all scheduled ingestion runs reach a terminal state.
func (p *Pipeline) Wait() {
	p.running.Wait()
}

// Release waits for running jobs and releases the worker pools.
// The pipeline must not be used after calling Release.
func (p *Pipeline) Release() {
	p.running.Wait()
	p.jobPool.Release()
	if p.gate != nil {
		p.gate.Release()
	}
}
