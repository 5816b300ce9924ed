package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedTextConcurrentCallCount(t *testing.T) {
	embedder := NewMockEmbedder()

	const goroutines = 16
	const callsPerGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				_, err := embedder.EmbedText(context.Background(), "concurrent text")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*callsPerGoroutine, embedder.CallCount())
}

func TestGenerateJSONConcurrentCallCount(t *testing.T) {
	generator := NewMockGenerator()

	const goroutines = 16

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := generator.GenerateJSON(context.Background(), "prompt")
			assert.NoError(t, err)
			assert.Equal(t, "{}", result)
		}()
	}
	wg.Wait()

	require.Equal(t, goroutines, generator.CallCount())
}
