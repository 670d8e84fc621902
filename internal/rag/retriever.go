package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultRetriever implements the Retriever interface by combining an
// Embedder and a VectorStore. It embeds the query at retrieval time and
// delegates similarity search to the store.
//
// Search-side failures (empty store, unreachable backend) degrade to an empty
// result rather than an error: answer assembly has an explicit no-context
// fallback, so "no passages" is always an answerable state. Embedding the
// query, by contrast, is mandatory — an embed failure propagates so the
// query-time caller can return a structured error.
type DefaultRetriever struct {
	// embedder converts query text to an embedding vector.
	embedder Embedder

	// store performs the vector similarity search.
	store VectorStore

	// defaultTopK is the number of results to return when the caller passes 0.
	defaultTopK int

	// log is the structured logger for degraded-search warnings.
	log *slog.Logger
}

// NewRetriever constructs a DefaultRetriever from the given Embedder and
// VectorStore. defaultTopK sets the fallback result count when Retrieve is
// called with topK=0.
func NewRetriever(embedder Embedder, store VectorStore, defaultTopK int, log *slog.Logger) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &DefaultRetriever{
		embedder:    embedder,
		store:       store,
		defaultTopK: defaultTopK,
		log:         log,
	}, nil
}

// Retrieve embeds the query and returns the top-k most relevant chunks.
// An empty or whitespace-only query is a defined no-op returning no results.
// If topK is 0 the defaultTopK configured at construction time is used.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = r.defaultTopK
	}

	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}

	results, err := r.store.Search(ctx, queryVector, topK)
	if err != nil {
		// Retrieval failures degrade to "no context found", never a crash.
		r.log.Warn("rag: vector search failed, continuing without context",
			slog.Any("error", err),
		)
		return nil, nil
	}

	return results, nil
}
