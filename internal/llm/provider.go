package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/checkmate/internal/model"
)

// ErrMalformed is returned when a provider answers with content that does
// not decode into the requested schema
var ErrMalformed = errors.New("malformed structured response")

// ErrTruncated is returned when the model stopped at its output token limit
// before closing the JSON document
var ErrTruncated = errors.New("structured response truncated at token limit")

// Provider defines the interface for generative backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate asks for a JSON object conforming to req.Schema
	Generate(ctx context.Context, req StructuredRequest) (*StructuredResponse, error)
}

// StructuredRequest contains the input for a schema-constrained completion
type StructuredRequest struct {
	// System sets the model's task
	System string

	// Prompt is the user turn
	Prompt string

	// SchemaName labels the schema for providers that require one
	SchemaName string

	// Schema the response must conform to
	Schema jsonschema.Definition

	// MaxTokens limits the response length (0 uses the provider config,
	// and an unset config leaves the model's own limit in place)
	MaxTokens int
}

// StructuredResponse contains the provider's raw JSON answer
type StructuredResponse struct {
	// Content is the JSON document produced by the model
	Content string

	// Refused is set when the model declined to answer
	Refused bool

	// Truncated is set when generation stopped at the token limit
	Truncated bool

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Decode unmarshals the response content into v. A refused response is
// reported as ErrMalformed since it carries no content.
func (r *StructuredResponse) Decode(v any) error {
	if r == nil || r.Refused {
		return fmt.Errorf("%w: refused", ErrMalformed)
	}
	if r.Truncated {
		return fmt.Errorf("%w (%d tokens used)", ErrTruncated, r.TokensUsed)
	}
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return fmt.Errorf("%w: empty content", ErrMalformed)
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "gemini", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens caps response generation; 0 leaves it to the model
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Model:    "gpt-4o-2024-08-06",
		Timeout:  30,
	}
}

// ConfigFromModel converts model.Config to llm.Config. The API key is
// supplied separately since it never lives in the config file.
func ConfigFromModel(cfg model.Config, apiKey string) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     apiKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}

func (c Config) maxTokens(override int) int {
	if override > 0 {
		return override
	}
	return max(c.MaxTokens, 0)
}
