package model

import "time"

// Config holds every setting the verification pipeline reads. It is built
// once at startup and passed down explicitly.
type Config struct {
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Sources     SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ResolverConfig tunes matching and fallback behaviour
type ResolverConfig struct {
	Strategy                string        `yaml:"strategy" mapstructure:"strategy"`
	ClaimDBThreshold        float64       `yaml:"claimdb_threshold" mapstructure:"claimdb_threshold"`     // cosine, 0-1 scale
	RelevanceThreshold      float64       `yaml:"relevance_threshold" mapstructure:"relevance_threshold"` // 0-100 scale
	RegistryScoreSimilarity bool          `yaml:"registry_score_similarity" mapstructure:"registry_score_similarity"`
	RegistryLanguage        string        `yaml:"registry_language" mapstructure:"registry_language"`
	Timeout                 time.Duration `yaml:"timeout" mapstructure:"timeout"` // per resolver call
}

// SourcesConfig lists where the web search resolver may look
type SourcesConfig struct {
	Domains     []string `yaml:"domains" mapstructure:"domains"`
	SearchLimit int      `yaml:"search_limit" mapstructure:"search_limit"`
	FeedLimit   int      `yaml:"feed_limit" mapstructure:"feed_limit"`
	FeedURL     string   `yaml:"feed_url" mapstructure:"feed_url"`
	SearchURL   string   `yaml:"search_url,omitempty" mapstructure:"search_url"`
	RegistryURL string   `yaml:"registry_url,omitempty" mapstructure:"registry_url"`
}

// LLMConfig selects the generative backend used for reviews and detection
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, gemini
	Model     string `yaml:"model" mapstructure:"model"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmbeddingConfig selects the embedding model
type EmbeddingConfig struct {
	Model      string `yaml:"model" mapstructure:"model"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// StoreConfig selects the claim database backend
type StoreConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // memory, sqlite, dynamodb
	Path    string `yaml:"path" mapstructure:"path"`
	Table   string `yaml:"table" mapstructure:"table"`
	Region  string `yaml:"region,omitempty" mapstructure:"region"`
}

// HTTPConfig controls article fetching
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	ClaimWorkers   int `yaml:"claim_workers" mapstructure:"claim_workers"`
	ArticleWorkers int `yaml:"article_workers" mapstructure:"article_workers"`
}

// CredentialsConfig says where API keys come from
type CredentialsConfig struct {
	Source    string `yaml:"source" mapstructure:"source"` // env, ssm
	Parameter string `yaml:"parameter" mapstructure:"parameter"`
	Region    string `yaml:"region,omitempty" mapstructure:"region"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultPublisherDomains is the allow-list used by the web search resolver
var DefaultPublisherDomains = []string{
	"apnews.com",
	"reuters.com",
	"bbc.co.uk",
	"theguardian.com",
	"fullfact.org",
	"factcheck.org",
	"politifact.com",
	"snopes.com",
	"washingtonpost.com",
	"nytimes.com",
	"npr.org",
	"cnn.com",
	"independent.co.uk",
	"ft.com",
	"economist.com",
	"telegraph.co.uk",
	"news.sky.com",
	"channel4.com",
	"aljazeera.com",
	"bloomberg.com",
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	domains := make([]string, len(DefaultPublisherDomains))
	copy(domains, DefaultPublisherDomains)

	return &Config{
		Resolver: ResolverConfig{
			Strategy:           "best",
			ClaimDBThreshold:   0.60,
			RelevanceThreshold: 40,
			RegistryLanguage:   "en",
			Timeout:            45 * time.Second,
		},
		Sources: SourcesConfig{
			Domains:     domains,
			SearchLimit: 5,
			FeedLimit:   5,
			FeedURL:     "https://news.google.com/rss/search",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-2024-08-06",
			Timeout:  30,
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 256,
		},
		Store: StoreConfig{
			Backend: "memory",
			Path:    "~/.checkmate/claims.db",
			Table:   "checkmate-claims",
		},
		HTTP: HTTPConfig{
			Timeout:           20 * time.Second,
			UserAgent:         "CheckMate/0.1 (+https://github.com/ppiankov/checkmate)",
			MaxBodyBytes:      2_000_000,
			RequestsPerSecond: 2,
			Burst:             2,
			RespectRobots:     true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "~/.checkmate/cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers:   4,
			ArticleWorkers: 5,
		},
		Credentials: CredentialsConfig{
			Source:    "env",
			Parameter: "/cm-backend/dev/keys",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
