package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/api/option"
)

// GeminiProvider implements the Provider interface using Gemini's response schema
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Generate requests application/json output constrained by the converted schema.
// A blocked prompt or candidate is reported as a refusal.
func (p *GeminiProvider) Generate(ctx context.Context, req StructuredRequest) (*StructuredResponse, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := p.client.GenerativeModel(p.config.Model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = toGeminiSchema(req.Schema)
	model.SetTemperature(0)
	if n := p.config.maxTokens(req.MaxTokens); n > 0 {
		model.SetMaxOutputTokens(int32(n))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return &StructuredResponse{Refused: true, Model: p.config.Model}, nil
		}
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := &StructuredResponse{
		Content:   sb.String(),
		Model:     p.config.Model,
		Truncated: resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens,
	}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

// toGeminiSchema converts a JSON schema definition to Gemini's schema subset.
// Keywords Gemini does not support (additionalProperties) are dropped.
func toGeminiSchema(def jsonschema.Definition) *genai.Schema {
	s := &genai.Schema{
		Description: def.Description,
		Enum:        def.Enum,
		Required:    def.Required,
	}

	switch def.Type {
	case jsonschema.Object:
		s.Type = genai.TypeObject
	case jsonschema.Array:
		s.Type = genai.TypeArray
	case jsonschema.Number:
		s.Type = genai.TypeNumber
	case jsonschema.Integer:
		s.Type = genai.TypeInteger
	case jsonschema.Boolean:
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}

	if def.Items != nil {
		s.Items = toGeminiSchema(*def.Items)
	}
	if len(def.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			s.Properties[name] = toGeminiSchema(prop)
		}
	}
	return s
}
