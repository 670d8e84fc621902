// Package rag defines the core types and interfaces for the retrieval
// pipeline: documents, chunks, embeddings, vector storage, and retrieval.
// Concrete implementations (SQLite, Qdrant, Gemini, etc.) satisfy these
// interfaces so the answer layer never depends on a specific backend.
package rag

import (
	"context"
	"fmt"
)

// Status is the lifecycle state of a stored document.
type Status string

const (
	// StatusActive marks a document that participates in retrieval.
	StatusActive Status = "active"
	// StatusArchived marks a document kept for reference but superseded.
	StatusArchived Status = "archived"
)

// Metadata holds the descriptive attributes of a document. It is denormalized
// onto every chunk so retrieval results carry source context without an extra
// document lookup.
type Metadata struct {
	// Category classifies the source (statute, administrative-order,
	// memorandum-circular, implementing-rules, regulation).
	Category string `json:"category"`

	// Year is the year the source was issued. Zero when unknown.
	Year int `json:"year,omitempty"`

	// Jurisdiction is the issuing jurisdiction (e.g. "PH").
	Jurisdiction string `json:"jurisdiction"`

	// Status is the document lifecycle state. Defaults to active.
	Status Status `json:"status"`
}

// Document is a unit of source regulatory text submitted for ingestion.
// A document exclusively owns its chunks: deleting the document deletes
// every chunk derived from it.
type Document struct {
	// ID is the unique document identifier (e.g. "ra-4136").
	ID string `json:"id"`

	// Text is the raw source text to be chunked and embedded.
	Text string `json:"text"`

	// Metadata describes the source. Copied onto every chunk.
	Metadata Metadata `json:"metadata"`
}

// Chunk is a bounded substring of a document: the unit of embedding and
// retrieval. Chunk indices are contiguous from zero in document order.
type Chunk struct {
	// ID is the globally unique chunk identifier, "{documentID}_chunk_{index}".
	ID string

	// DocumentID identifies the owning document.
	DocumentID string

	// Index is the zero-based position of this chunk within the document.
	Index int

	// Text is the substring of the document this chunk represents.
	Text string

	// Embedding is the chunk's embedding vector (768 dimensions in this
	// system). Fixed length for a given embedding model configuration.
	Embedding []float32

	// Metadata is a copy of the owning document's metadata.
	Metadata Metadata
}

// ChunkID returns the canonical chunk identifier for a document and index.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// SearchResult is one ranked match from a similarity search. Ephemeral —
// never persisted.
type SearchResult struct {
	// ChunkID identifies the matched chunk.
	ChunkID string `json:"chunkId"`

	// DocumentID identifies the document that owns the matched chunk.
	DocumentID string `json:"documentId"`

	// Text is the matched chunk's text.
	Text string `json:"text"`

	// Score is the cosine similarity of the match. Higher is better.
	Score float32 `json:"score"`

	// Metadata is the denormalized document metadata carried by the chunk.
	Metadata Metadata `json:"metadata"`
}

// Citation points from an assembled answer back to a supporting passage.
// Derived from SearchResults at answer-assembly time; never persisted.
type Citation struct {
	// DocumentID identifies the cited source document.
	DocumentID string `json:"documentId"`

	// Text is the cited passage text.
	Text string `json:"text"`
}

// Stats summarises the contents of a vector store.
type Stats struct {
	// Documents is the number of stored documents.
	Documents int `json:"documentCount"`

	// Chunks is the number of stored chunks across all documents.
	Chunks int `json:"chunkCount"`

	// ByStatus is the document count per lifecycle status.
	ByStatus map[string]int `json:"byStatus"`
}

// Embedder converts text into fixed-length embedding vectors.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a single text into its embedding vector. Empty or
	// whitespace-only text fails with ErrEmptyInput; an unreachable or
	// malformed upstream fails with ErrUpstreamUnavailable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts preserving input order. A failure on any item
	// fails the whole batch — per-document partial-failure handling belongs
	// to the ingestion orchestrator, not here.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the configured embedding vector length.
	Dimensions() int
}

// VectorStore persists documents, chunks, and embeddings, and performs
// similarity search over the stored vectors.
//
// Writes are idempotent by chunk ID: re-ingesting a document with the same ID
// and chunk indices overwrites prior content at the same address.
//
// Concurrent ingestion of different documents is safe. Concurrent ingestion
// and deletion of the SAME document ID is not synchronized and must be
// avoided by the caller — this is a documented limitation.
type VectorStore interface {
	// PutDocument stores or replaces a document's metadata record.
	PutDocument(ctx context.Context, doc Document) error

	// PutChunks stores or replaces the chunks of a document. The embeddings
	// must already be computed.
	PutChunks(ctx context.Context, documentID string, chunks []Chunk) error

	// GetChunk returns the chunk with the given ID, or an error wrapping
	// ErrNotFound when it does not exist.
	GetChunk(ctx context.Context, chunkID string) (Chunk, error)

	// DeleteDocument removes a document and every chunk belonging to it,
	// deleting chunks in bounded-size batches to respect backend write
	// limits. A partial deletion is surfaced as an error, never hidden.
	// Returns an error wrapping ErrNotFound when the document is absent.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search returns up to k stored chunks ranked by descending cosine
	// similarity to queryVector. A zero-length query vector yields an empty
	// result without error. Backends may return fewer than k, never more.
	Search(ctx context.Context, queryVector []float32, k int) ([]SearchResult, error)

	// Stats reports document and chunk counts.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}

// Retriever fetches the most relevant passages for a natural-language query.
// It combines embedding and vector search, degrading to an empty result when
// the search backend is unavailable.
type Retriever interface {
	// Retrieve returns the top-k most relevant chunks for the query.
	Retrieve(ctx context.Context, query string, topK int) ([]SearchResult, error)
}
