package mock

import (
	"context"
	"sync/atomic"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
// Safe for concurrent use once the function fields are set.
type MockGenerator struct {
	// GenerateJSONFunc is called by GenerateJSON if set.
	// If nil, returns an empty JSON object.
	GenerateJSONFunc func(ctx context.Context, prompt string) (string, error)

	callCount atomic.Int64
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateJSON returns an empty JSON object unless custom behavior is injected.
func (m *MockGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	m.callCount.Add(1)

	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt)
	}

	return "{}", nil
}

// CallCount returns the number of times GenerateJSON was called.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount.Store(0)
	m.GenerateJSONFunc = nil
}
