package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewProvider creates a new generative provider based on configuration
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(ctx, config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, gemini, ollama)", config.Provider)
	}
}
