// Package secrets loads the API keys the resolvers need.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned when a required key is absent
var ErrMissingCredentials = errors.New("missing credentials")

// Key names a credential
type Key string

const (
	OpenAI          Key = "openai"
	Gemini          Key = "gemini"
	GoogleFactCheck Key = "google_fact_check"
	GoogleSearch    Key = "google_search"
	SearchEngineID  Key = "search_engine_id"
)

// Credentials holds every key the pipeline can use. Unset keys are empty.
type Credentials struct {
	OpenAI          string `json:"OPEN_API_KEY"`
	Gemini          string `json:"gemini_api_key"`
	GoogleFactCheck string `json:"google_fact_check_api_key"`
	GoogleSearch    string `json:"google_search_api_key"`
	SearchEngineID  string `json:"google_search_cx_id"`
}

// Provider loads credentials once at startup
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Get returns the value for key
func (c Credentials) Get(key Key) string {
	switch key {
	case OpenAI:
		return c.OpenAI
	case Gemini:
		return c.Gemini
	case GoogleFactCheck:
		return c.GoogleFactCheck
	case GoogleSearch:
		return c.GoogleSearch
	case SearchEngineID:
		return c.SearchEngineID
	default:
		return ""
	}
}

// Has reports whether every listed key is set
func (c Credentials) Has(keys ...Key) bool {
	return c.Require(keys...) == nil
}

// Require fails with ErrMissingCredentials naming every unset key
func (c Credentials) Require(keys ...Key) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(c.Get(k)) == "" {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// EnvProvider reads credentials from environment variables, after loading
// any .env files that exist
type EnvProvider struct {
	files  []string
	lookup func(string) string
}

// NewEnvProvider creates an environment provider. With no files it tries
// ".env" in the working directory.
func NewEnvProvider(files ...string) *EnvProvider {
	if len(files) == 0 {
		files = []string{".env"}
	}
	return &EnvProvider{files: files, lookup: os.Getenv}
}

// Credentials implements Provider. Variables already set in the process
// take precedence over .env files; missing files are ignored.
func (p *EnvProvider) Credentials(ctx context.Context) (Credentials, error) {
	for _, f := range p.files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Credentials{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return Credentials{
		OpenAI:          p.lookup("OPENAI_API_KEY"),
		Gemini:          p.lookup("GEMINI_API_KEY"),
		GoogleFactCheck: p.lookup("GOOGLE_FACT_CHECK_API_KEY"),
		GoogleSearch:    p.lookup("GOOGLE_SEARCH_API_KEY"),
		SearchEngineID:  p.lookup("GOOGLE_SEARCH_CX_ID"),
	}, nil
}
