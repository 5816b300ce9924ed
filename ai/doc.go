// Package ai defines the embedding and generation capabilities consumed by
// the ingestion pipeline and the retrieval assembler, together with the
// transient-failure taxonomy used by retry logic.
//
// Concrete implementations live in subpackages: ai/openai binds to any
// OpenAI-compatible API, ai/mock provides deterministic test doubles.
package ai
