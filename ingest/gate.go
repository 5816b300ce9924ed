package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/libram/ai"
)

const (
	// DefaultEmbedConcurrency bounds in-flight embedding calls.
	DefaultEmbedConcurrency = 10

	// DefaultMaxAttempts is the per-text retry budget.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the initial retry backoff.
	DefaultBaseDelay = time.Second
)

// EmbeddingGate bounds concurrent embedding calls with a fixed-width
// worker pool and retries transient provider failures per text. The pool
// is shared across all ingestion jobs in the process.
type EmbeddingGate struct {
	embedder    ai.Embedder
	pool        *ants.Pool
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// GateOption configures an EmbeddingGate.
type GateOption func(*EmbeddingGate) error

// WithConcurrency sets the embedding worker pool width.
func WithConcurrency(n int) GateOption {
	return func(g *EmbeddingGate) error {
		if n < 1 {
			n = 1
		}
		if g.pool != nil {
			g.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		g.pool = pool
		return nil
	}
}

// WithRetry sets the per-text retry budget and base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) GateOption {
	return func(g *EmbeddingGate) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		g.maxAttempts = maxAttempts
		g.baseDelay = baseDelay
		return nil
	}
}

// NewEmbeddingGate creates a gate over the given embedder.
func NewEmbeddingGate(embedder ai.Embedder, opts ...GateOption) (*EmbeddingGate, error) {
	if embedder == nil {
		return nil, ErrProviderRequired
	}

	pool, err := ants.NewPool(DefaultEmbedConcurrency)
	if err != nil {
		return nil, err
	}

	g := &EmbeddingGate{
		embedder:    embedder,
		pool:        pool,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default().With("component", "embedding-gate"),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			g.pool.Release()
			return nil, err
		}
	}
	return g, nil
}

// EmbedAll embeds every text through the gate and returns parallel result
// and error slices. A failed text leaves a nil vector and its error at the
// same index; the other texts are unaffected. Only errors the provider
// marks retryable are retried.
func (g *EmbeddingGate) EmbedAll(ctx context.Context, texts []string) ([][]float32, []error) {
	vectors := make([][]float32, len(texts))
	errs := make([]error, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		submitErr := g.pool.Submit(func() {
			defer wg.Done()
			errs[i] = RetryWithBackoff(ctx, func() error {
				vector, err := g.embedder.EmbedText(ctx, text)
				if err != nil {
					return err
				}
				vectors[i] = vector
				return nil
			}, g.maxAttempts, g.baseDelay, ai.Retryable)
		})
		if submitErr != nil {
			errs[i] = submitErr
			wg.Done()
		}
	}
	wg.Wait()

	return vectors, errs
}

// Release releases the worker pool. The gate must not be used afterwards.
func (g *EmbeddingGate) Release() {
	g.pool.Release()
}
