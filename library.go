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


// Package libram is an embeddable document library for retrieval-augmented
// generation. Books are ingested page by page, chunked, embedded and stored
// in a local BadgerDB vector store; queries come back as ranked, delimited
// context blocks ready to paste into a prompt.
package libram

import (
	"context"
	"log/slog"

	"github.com/poiesic/libram/ai"
	"github.com/poiesic/libram/ai/openai"
	"github.com/poiesic/libram/core"
	"github.com/poiesic/libram/extract"
	"github.com/poiesic/libram/ingest"
	"github.com/poiesic/libram/jobs"
	"github.com/poiesic/libram/retrieval"
	"github.com/poiesic/libram/storage"
	"github.com/poiesic/libram/storage/badger"
)

// Library wires the vector store, AI provider, job registry, ingestion
// pipeline and retrieval assembler into one handle.
type Library struct {
	store     storage.VectorStore
	provider  ai.Provider
	registry  *jobs.Registry
	pipeline  *ingest.Pipeline
	assembler *retrieval.Assembler
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig      *ai.Config
	provider      ai.Provider
	inMemory      bool
	pipelineOpts  []ingest.Option
	retrievalOpts []retrieval.Option
}

// WithAIConfig sets the OpenAI-compatible provider configuration.
func WithAIConfig(config *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.aiConfig = config
	}
}

// WithProvider substitutes the AI provider entirely. Intended for tests
// and alternative backends; takes precedence over WithAIConfig.
func WithProvider(provider ai.Provider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all chunks in memory instead of on disk.
func WithInMemory() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// WithPipelineOptions forwards options to the ingestion pipeline.
func WithPipelineOptions(opts ...ingest.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithRetrievalOptions forwards options to the retrieval assembler.
func WithRetrievalOptions(opts ...retrieval.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.retrievalOpts = append(o.retrievalOpts, opts...)
	}
}

// New opens a Library backed by a BadgerDB store at filePath.
func New(filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var store storage.VectorStore
	var err error
	if options.inMemory {
		store, err = badger.NewMemoryStore()
	} else {
		store, err = badger.NewStore(filePath)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	registry := jobs.NewRegistry()

	pipeline, err := ingest.NewPipeline(store, provider, registry, options.pipelineOpts...)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	assembler, err := retrieval.NewAssembler(store, provider.Embedder(), options.retrievalOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		store.Close()
		return nil, err
	}

	return &Library{
		store:     store,
		provider:  provider,
		registry:  registry,
		pipeline:  pipeline,
		assembler: assembler,
		logger:    slog.Default(),
	}, nil
}

// StartIngestion registers an ingestion job for the source and returns
// its job key immediately. Track progress with JobStatus.
func (l *Library) StartIngestion(ctx context.Context, source extract.Source, recognizer extract.Recognizer, metadata map[string]string) (string, error) {
	return l.pipeline.Ingest(ctx, source, recognizer, metadata)
}

// JobStatus returns a snapshot of the job's registry record.
func (l *Library) JobStatus(jobKey string) (jobs.Record, bool) {
	return l.registry.Status(jobKey)
}

// RequestCancel asks a running ingestion job to stop. Returns false when
// no such job exists.
func (l *Library) RequestCancel(jobKey string) bool {
	return l.registry.RequestCancel(jobKey)
}

// ListJobs returns snapshots of all known jobs.
func (l *Library) ListJobs() []jobs.Record {
	return l.registry.List()
}

// Retrieve assembles a context string for the query. See
// retrieval.Assembler.Retrieve.
func (l *Library) Retrieve(ctx context.Context, query, subject string, limit int, filter storage.Filter) (string, error) {
	return l.assembler.Retrieve(ctx, query, subject, limit, filter)
}

// ListBooks aggregates stored chunks by book.
func (l *Library) ListBooks(ctx context.Context) ([]*core.BookStats, error) {
	return l.store.DistinctBooks(ctx)
}

// DeleteBook removes all chunks of the named book and returns the count.
func (l *Library) DeleteBook(ctx context.Context, bookName string) (int, error) {
	return l.store.Delete(ctx, storage.Filter{core.MetaBookName: bookName})
}

// ClearAll removes every chunk in the store and returns the count.
func (l *Library) ClearAll(ctx context.Context) (int, error) {
	return l.store.Delete(ctx, nil)
}

// Store exposes the underlying vector store.
func (l *Library) Store() storage.VectorStore {
	return l.store
}

// Registry exposes the job registry.
func (l *Library) Registry() *jobs.Registry {
	return l.registry
}

// Close waits for running ingestion jobs, then releases the pipeline,
// provider and store.
func (l *Library) Close() error {
	l.pipeline.Release()

	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
	}
	if err := l.store.Close(); err != nil {
		l.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}
