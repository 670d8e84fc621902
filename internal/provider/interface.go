// Package provider selects and constructs the chat model backend used for
// answer generation. Supported backends: Google Gemini, Ollama, OpenAI, and
// Azure OpenAI.
package provider

import (
	"fmt"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
)

// ProviderGemini holds Gemini-specific settings.
type ProviderGemini struct {
	// APIKey is the AI Studio API key (GOOGLE_API_KEY).
	APIKey string
	// Model is the Gemini model name (e.g. "gemini-2.0-flash").
	Model string
}

// ProviderOllama holds Ollama-specific settings.
type ProviderOllama struct {
	// Host is the Ollama server base URL.
	Host string
	// Model is the local model name (e.g. "llama3").
	Model string
}

// ProviderOpenAI holds OpenAI-specific settings.
type ProviderOpenAI struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the model name (e.g. "gpt-4o").
	Model string
}

// ProviderAzureOpenAI holds Azure OpenAI settings.
type ProviderAzureOpenAI struct {
	// APIKey is the Azure OpenAI API key.
	APIKey string
	// Endpoint is the Azure resource endpoint URL.
	Endpoint string
	// Deployment is the Azure deployment name.
	Deployment string
	// APIVersion is the Azure REST API version (e.g. "2024-02-01").
	APIVersion string
}

// SharedTuning holds tuning knobs shared by every backend.
type SharedTuning struct {
	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int
	// Temperature controls response randomness (0.0–1.0).
	Temperature float32
}

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values. Only the section matching
// Backend is consulted.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	// Gemini holds the Gemini backend settings.
	Gemini ProviderGemini
	// Ollama holds the Ollama backend settings.
	Ollama ProviderOllama
	// OpenAI holds the OpenAI backend settings.
	OpenAI ProviderOpenAI
	// AzureOpenAI holds the Azure OpenAI backend settings.
	AzureOpenAI ProviderAzureOpenAI

	// Tuning holds the shared generation knobs.
	Tuning SharedTuning
}

// Validate checks that the section matching the selected backend is fully
// specified. Error messages name the environment variable that populates the
// missing field so operators can fix the config directly.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("provider: gemini backend requires GOOGLE_API_KEY")
		}
		if c.Gemini.Model == "" {
			return fmt.Errorf("provider: gemini backend requires GEMINI_MODEL")
		}
	case BackendOllama:
		if c.Ollama.Model == "" {
			return fmt.Errorf("provider: ollama backend requires OLLAMA_MODEL")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: openai backend requires OPENAI_API_KEY")
		}
		if c.OpenAI.Model == "" {
			return fmt.Errorf("provider: openai backend requires OPENAI_MODEL")
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			return fmt.Errorf("provider: azure backend requires AZURE_OPENAI_API_KEY")
		}
		if c.AzureOpenAI.Endpoint == "" {
			return fmt.Errorf("provider: azure backend requires AZURE_OPENAI_ENDPOINT")
		}
		if c.AzureOpenAI.Deployment == "" {
			return fmt.Errorf("provider: azure backend requires AZURE_OPENAI_DEPLOYMENT")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q — valid values: gemini, ollama, openai, azure", c.Backend)
	}
	return nil
}
