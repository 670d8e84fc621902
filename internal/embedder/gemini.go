// Package embedder provides implementations of the rag.Embedder interface
// for converting regulatory text into dense vector embeddings. The Gemini
// backend uses the official genai SDK; the OpenAI and Ollama backends talk
// plain HTTP — no additional SDK dependencies are required for them.
package embedder

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/lexph/batasrag-go/internal/rag"
)

// GeminiBackend embeds text using the Gemini embedding API
// (text-embedding-004, 768 dimensions by default). It is safe for
// concurrent use.
type GeminiBackend struct {
	// client is the genai SDK client.
	client *genai.Client
	// model is the embedding model name (e.g. "text-embedding-004").
	model string
	// dimensions pins the output dimensionality requested from the API.
	dimensions int
}

// GeminiConfig holds the settings for constructing a GeminiBackend.
type GeminiConfig struct {
	// APIKey is the Google API key.
	APIKey string
	// Model is the embedding model name (e.g. "text-embedding-004").
	Model string
	// Dimensions is the requested output vector length (0 = model default).
	Dimensions int
}

// NewGeminiBackend constructs a GeminiBackend from the given config.
func NewGeminiBackend(ctx context.Context, cfg *GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedder: gemini requires GOOGLE_API_KEY or EMBEDDING_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to create Gemini client: %w", err)
	}
	return &GeminiBackend{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Name returns the backend label used in logs and readiness responses.
func (b *GeminiBackend) Name() string { return "gemini" }

// Embed converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice. Any upstream error or
// malformed response is reported as rag.ErrUpstreamUnavailable — there is
// exactly one response schema and no silent fallback parsing.
func (b *GeminiBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	var cfg *genai.EmbedContentConfig
	if b.dimensions > 0 {
		dims := int32(b.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	resp, err := b.client.Models.EmbedContent(ctx, b.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embedder: %v: %w", err, rag.ErrUpstreamUnavailable)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini embedder: expected %d embeddings, got %d: %w",
			len(texts), got, rag.ErrUpstreamUnavailable)
	}

	embeddings := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini embedder: empty embedding at index %d: %w",
				i, rag.ErrUpstreamUnavailable)
		}
		embeddings[i] = e.Values
	}

	return embeddings, nil
}
