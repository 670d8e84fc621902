package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lexph/batasrag-go/internal/rag"
)

// OpenAIBackend embeds text using the OpenAI /v1/embeddings endpoint. It is
// safe for concurrent use.
type OpenAIBackend struct {
	// apiKey is the OpenAI API key.
	apiKey string
	// model is the embedding model name (e.g. "text-embedding-3-small").
	model string
	// baseURL is the API base (e.g. "https://api.openai.com/v1"). It allows
	// pointing at compatible gateways.
	baseURL string
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// OpenAIConfig holds the settings for constructing an OpenAIBackend.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string
	// BaseURL optionally overrides the API base. Defaults to the public
	// OpenAI endpoint when empty.
	BaseURL string
}

// NewOpenAIBackend constructs an OpenAIBackend from the given config.
func NewOpenAIBackend(cfg *OpenAIConfig) *OpenAIBackend {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAIBackend{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: base,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Name returns the backend label used in logs and readiness responses.
func (b *OpenAIBackend) Name() string { return "openai" }

// openaiEmbedRequest is the JSON body sent to the embeddings endpoint.
type openaiEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// openaiEmbedResponse is the JSON body returned from the embeddings endpoint.
type openaiEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice.
func (b *OpenAIBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(openaiEmbedRequest{Model: b.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("openai embedder: marshal request: %w", err)
	}

	url := b.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: request failed: %v: %w", err, rag.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	var result openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("openai embedder: decode response: %v: %w", err, rag.ErrUpstreamUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("openai embedder: %s: %w", msg, rag.ErrUpstreamUnavailable)
	}

	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedder: expected %d embeddings, got %d: %w",
			len(texts), len(result.Data), rag.ErrUpstreamUnavailable)
	}

	// Results carry an index; order by it rather than assuming response order.
	out := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embedder: embedding index %d out of range: %w",
				d.Index, rag.ErrUpstreamUnavailable)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
