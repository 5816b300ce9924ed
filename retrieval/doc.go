// Package retrieval assembles context strings for retrieval-augmented
// generation. A query is embedded once, searched against the vector store
// under each subject synonym in turn, lexically re-ranked and joined into
// a single delimited context block.
package retrieval
