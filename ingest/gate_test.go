package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/libram/ai"
	"github.com/poiesic/libram/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedAll(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	gate, err := NewEmbeddingGate(embedder)
	require.NoError(t, err)
	defer gate.Release()

	texts := []string{"alpha", "beta", "gamma"}
	vectors, errs := gate.EmbedAll(context.Background(), texts)

	require.Len(t, vectors, 3)
	require.Len(t, errs, 3)
	for i := range texts {
		assert.NoError(t, errs[i])
		assert.NotEmpty(t, vectors[i])
	}
}

func TestEmbedAllPartialFailure(t *testing.T) {
	fatal := errors.New("embedding dimension mismatch")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "beta" {
			return nil, fatal
		}
		return []float32{1, 2, 3}, nil
	}

	gate, err := NewEmbeddingGate(embedder, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	defer gate.Release()

	vectors, errs := gate.EmbedAll(context.Background(), []string{"alpha", "beta", "gamma"})

	assert.NoError(t, errs[0])
	assert.NotNil(t, vectors[0])
	assert.ErrorIs(t, errs[1], fatal)
	assert.Nil(t, vectors[1])
	assert.NoError(t, errs[2])
	assert.NotNil(t, vectors[2])
}

func TestEmbedAllRetriesRateLimited(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) == 1 {
			return nil, ai.ErrRateLimited
		}
		return []float32{1}, nil
	}

	gate, err := NewEmbeddingGate(embedder, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	defer gate.Release()

	vectors, errs := gate.EmbedAll(context.Background(), []string{"alpha"})
	require.NoError(t, errs[0])
	assert.Equal(t, []float32{1}, vectors[0])
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedAllDoesNotRetryFatal(t *testing.T) {
	var calls atomic.Int32
	fatal := errors.New("bad request")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return nil, fatal
	}

	gate, err := NewEmbeddingGate(embedder, WithRetry(5, time.Millisecond))
	require.NoError(t, err)
	defer gate.Release()

	_, errs := gate.EmbedAll(context.Background(), []string{"alpha"})
	assert.ErrorIs(t, errs[0], fatal)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedAllBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return []float32{1}, nil
	}

	gate, err := NewEmbeddingGate(embedder, WithConcurrency(2))
	require.NoError(t, err)
	defer gate.Release()

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "text"
	}

	_, errs := gate.EmbedAll(context.Background(), texts)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, peak, 2)
}

func TestEmbedAllEmpty(t *testing.T) {
	gate, err := NewEmbeddingGate(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer gate.Release()

	vectors, errs := gate.EmbedAll(context.Background(), nil)
	assert.Empty(t, vectors)
	assert.Empty(t, errs)
}

func TestNewEmbeddingGateRequiresEmbedder(t *testing.T) {
	_, err := NewEmbeddingGate(nil)
	assert.ErrorIs(t, err, ErrProviderRequired)
}
