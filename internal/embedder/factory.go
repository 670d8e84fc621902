package embedder

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/lexph/batasrag-go/internal/rag"
)

// Default embedding models per backend.
const (
	defaultGeminiModel = "text-embedding-004"
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultGeminiDimensions is the output dimension of text-embedding-004.
	defaultGeminiDimensions = 768
	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ — override with EMBEDDING_DIMENSIONS.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536

	// defaultRequestsPerMinute paces batch windows against provider quotas.
	defaultRequestsPerMinute = 60
)

// DefaultDimensions returns the correct default embedding vector size for the
// given backend name. Callers that need to pre-configure a vector store (e.g.
// Qdrant collection creation) should use this rather than hardcoding a value.
// EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "openai", "azure":
		return defaultOpenAIDimensions
	default:
		return defaultGeminiDimensions
	}
}

// ResolveBackend returns the effective embedding backend name.
// EMBEDDING_PROVIDER wins; otherwise the chat provider (MODEL_PROVIDER) is
// inherited, defaulting to "gemini".
func ResolveBackend() string {
	backend := getEnv("EMBEDDING_PROVIDER")
	if backend == "" {
		backend = getEnvOrDefault("MODEL_PROVIDER", "gemini")
	}
	return backend
}

// NewFromEnv constructs a rag.Embedder using cascading defaults that inherit
// from the chat provider configuration when embedding-specific overrides are
// not set.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER — if unset, inherits MODEL_PROVIDER (default: gemini)
//  2. Per-backend credentials are inherited from the chat provider's env vars
//  3. EMBEDDING_MODEL — overrides the default model for the resolved backend
//  4. EMBEDDING_API_KEY — overrides the inherited API key
//  5. EMBEDDING_ENDPOINT — overrides the inherited endpoint
//  6. EMBEDDING_DIMENSIONS — overrides the default dimensions (gemini/ollama: 768, openai/azure: 1536)
//  7. EMBEDDING_REQUESTS_PER_MINUTE — overrides the default pacing (60)
func NewFromEnv() (rag.Embedder, error) {
	backend := ResolveBackend()

	var (
		transport Backend
		dims      = DefaultDimensions(backend)
	)

	switch backend {
	case "gemini":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: gemini requires GOOGLE_API_KEY or EMBEDDING_API_KEY")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultGeminiModel)
		b, err := NewGeminiBackend(context.Background(), &GeminiConfig{
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
		})
		if err != nil {
			return nil, err
		}
		transport = b

	case "ollama":
		host := getEnv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel)
		transport = NewOllamaBackend(&OllamaConfig{
			Host:  host,
			Model: model,
		})

	case "openai":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		transport = NewOpenAIBackend(&OpenAIConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: getEnv("EMBEDDING_ENDPOINT"),
		})

	case "azure":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("AZURE_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		endpoint := getEnv("EMBEDDING_ENDPOINT")
		if endpoint == "" {
			endpoint = getEnv("AZURE_OPENAI_ENDPOINT")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		transport = NewOpenAIBackend(&OpenAIConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: endpoint + "/openai/v1",
		})

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: gemini, ollama, openai, azure", backend)
	}

	rpm := getEnvInt("EMBEDDING_REQUESTS_PER_MINUTE", defaultRequestsPerMinute)
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)

	return NewClient(transport, dims, WithRateLimiter(limiter))
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
