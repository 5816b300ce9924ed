package ingest

import "errors"

var (
	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrRegistryRequired is returned when a job registry is not provided.
	ErrRegistryRequired = errors.New("job registry required")

	// ErrSourceRequired is returned when a page source is not provided.
	ErrSourceRequired = errors.New("page source required")

	// ErrInvalidMaxAttempts is returned for a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// errJobCancelled stops page streaming when a cancel request is
	// observed. Never escapes the pipeline.
	errJobCancelled = errors.New("job cancelled")
)
