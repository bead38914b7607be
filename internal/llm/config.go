// Package llm provides centralized LLM configuration and client abstractions.
// Every analysis stage goes through one Client so providers can be swapped
// without touching the pipeline.
package llm

import (
	"fmt"
	"time"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is Google Gemini through github.com/google/generative-ai-go
	ProviderGemini Provider = "gemini"
	// ProviderGenAI is Google Gemini through the unified google.golang.org/genai SDK
	ProviderGenAI Provider = "genai"
)

// Defaults for the analysis model
const (
	DefaultModel            = "gemini-3-flash-preview"
	DefaultTemperature      = float32(0.7)
	DefaultResponseMIMEType = "application/json"
	DefaultMaxRetries       = 2
	DefaultRetryBackoff     = 500 * time.Millisecond
)

// Config holds the model configuration for the application
type Config struct {
	Provider         Provider
	Model            string
	Temperature      float32
	ResponseMIMEType string

	// Vertex AI settings, used by ProviderGenAI when Project is set
	Project  string
	Location string
}

// DefaultConfig returns the default configuration (Gemini, JSON output)
func DefaultConfig() *Config {
	return &Config{
		Provider:         ProviderGemini,
		Model:            DefaultModel,
		Temperature:      DefaultTemperature,
		ResponseMIMEType: DefaultResponseMIMEType,
	}
}

// WithModel returns a copy of the config using a different model
func (c *Config) WithModel(model string) *Config {
	out := *c
	out.Model = model
	return &out
}

// Validate rejects configurations no provider can serve
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderGenAI:
	default:
		return fmt.Errorf("unsupported LLM provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	return nil
}
