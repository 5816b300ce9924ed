// Package ingest orchestrates document ingestion: pages are streamed from
// an extraction source, accumulated into windows, chunked, embedded and
// written to the vector store. Ingestion runs asynchronously on a worker
// pool; progress and cancellation flow through a jobs.Registry.
package ingest
