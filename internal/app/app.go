// Package app wires configuration and credentials into a running pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/charmbracelet/log"

	"github.com/ppiankov/checkmate/internal/cache"
	"github.com/ppiankov/checkmate/internal/claimdb"
	"github.com/ppiankov/checkmate/internal/embed"
	"github.com/ppiankov/checkmate/internal/extract"
	"github.com/ppiankov/checkmate/internal/llm"
	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/pipeline"
	"github.com/ppiankov/checkmate/internal/registry"
	"github.com/ppiankov/checkmate/internal/search"
	"github.com/ppiankov/checkmate/internal/secrets"
	"github.com/ppiankov/checkmate/internal/sources"
	"github.com/ppiankov/checkmate/internal/store"
	"github.com/ppiankov/checkmate/internal/util"
	"github.com/ppiankov/checkmate/internal/verify"
	"github.com/ppiankov/checkmate/internal/worker"
)

// Store is a claim store that can also be seeded
type Store interface {
	store.ClaimStore
	store.Writer
}

// App holds the wired components
type App struct {
	Config       *model.Config
	Logger       *log.Logger
	Store        Store
	Orchestrator *verify.Orchestrator
	Pipeline     *pipeline.Pipeline
	Strategy     verify.Strategy

	closers []func() error
}

// New builds every component from cfg and creds. The embedding key is
// required; the registry and web search resolvers are left out when their
// keys are missing.
func New(ctx context.Context, cfg *model.Config, creds secrets.Credentials, logger *log.Logger) (*App, error) {
	logger = logging.OrDiscard(logger)

	strategy, err := verify.ParseStrategy(cfg.Resolver.Strategy)
	if err != nil {
		return nil, err
	}

	if err := creds.Require(secrets.OpenAI); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Strategy: strategy}

	claims, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.Store = claims
	a.addCloser(closeStore)

	similarity, err := a.similarity(creds)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	provider, err := a.provider(ctx, creds)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	fetcher := newFetcher(cfg.HTTP, sources.NewAllowList(cfg.Sources.Domains))

	database := claimdb.NewResolver(claims, similarity, cfg.Resolver.ClaimDBThreshold, logger)

	// Pass untyped nils for missing resolvers
	var reg, web verify.Resolver
	if r, err := a.registry(ctx, creds, similarity); err != nil {
		logger.Warn("registry resolver disabled", "err", err)
	} else {
		reg = r
	}
	if r, err := a.web(ctx, creds, fetcher, provider, similarity); err != nil {
		logger.Warn("web search resolver disabled", "err", err)
	} else {
		web = r
	}

	a.Orchestrator = verify.NewOrchestrator(database, reg, web,
		verify.WithTimeout(cfg.Resolver.Timeout),
		verify.WithLogger(logger),
	)
	a.Pipeline = pipeline.New(
		llm.NewClaimDetector(provider, logger),
		extract.Segmenter{},
		a.Orchestrator,
		pipeline.WithWorkers(cfg.Concurrency.ClaimWorkers),
		pipeline.WithLogger(logger),
	)

	logger.Debug("pipeline ready",
		"store", cfg.Store.Backend,
		"llm", provider.Name(),
		"registry", reg != nil,
		"web", web != nil,
		"strategy", strategy,
	)
	return a, nil
}

// Close releases stores and clients
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) addCloser(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

func (a *App) similarity(creds secrets.Credentials) (*embed.Service, error) {
	embedder, err := embed.NewOpenAIEmbedder(embed.OpenAIConfig{
		APIKey:     creds.OpenAI,
		BaseURL:    a.Config.Embedding.BaseURL,
		Model:      a.Config.Embedding.Model,
		Dimensions: a.Config.Embedding.Dimensions,
		Timeout:    time.Duration(a.Config.LLM.Timeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	if !a.Config.Cache.Enabled {
		return embed.NewService(embedder), nil
	}

	c := cache.NewLayeredCache(a.Config.Cache.MemoryTTL, ExpandPath(a.Config.Cache.Dir), a.Config.Cache.DiskTTL)
	name := fmt.Sprintf("%s-%d", a.Config.Embedding.Model, a.Config.Embedding.Dimensions)
	return embed.NewService(embed.NewCachedEmbedder(embedder, c, name, a.Config.Cache.DiskTTL)), nil
}

func (a *App) provider(ctx context.Context, creds secrets.Credentials) (llm.Provider, error) {
	key := creds.OpenAI
	switch strings.ToLower(a.Config.LLM.Provider) {
	case "gemini", "google":
		if err := creds.Require(secrets.Gemini); err != nil {
			return nil, err
		}
		key = creds.Gemini
	case "ollama":
		key = ""
	}

	provider, err := llm.NewProvider(ctx, llm.ConfigFromModel(*a.Config, key))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if c, ok := provider.(interface{ Close() error }); ok {
		a.addCloser(c.Close)
	}
	return provider, nil
}

func (a *App) registry(ctx context.Context, creds secrets.Credentials, sim *embed.Service) (*registry.Resolver, error) {
	if err := creds.Require(secrets.GoogleFactCheck); err != nil {
		return nil, err
	}

	client, err := registry.NewFactCheckTools(ctx, registry.FactCheckConfig{
		APIKey:   creds.GoogleFactCheck,
		Endpoint: a.Config.Sources.RegistryURL,
		Language: a.Config.Resolver.RegistryLanguage,
	})
	if err != nil {
		return nil, err
	}

	var opts []registry.Option
	if a.Config.Resolver.RegistryScoreSimilarity {
		opts = append(opts, registry.WithSimilarity(sim))
	}
	return registry.NewResolver(client, a.Logger, opts...), nil
}

func (a *App) web(ctx context.Context, creds secrets.Credentials, fetcher *extract.Fetcher, provider llm.Provider, sim *embed.Service) (*search.Resolver, error) {
	if err := creds.Require(secrets.GoogleSearch, secrets.SearchEngineID); err != nil {
		return nil, err
	}

	primary, err := search.NewCustomSearch(ctx, search.CustomSearchConfig{
		APIKey:   creds.GoogleSearch,
		EngineID: creds.SearchEngineID,
		Endpoint: a.Config.Sources.SearchURL,
	})
	if err != nil {
		return nil, err
	}

	var fallback search.Searcher
	if a.Config.Sources.FeedURL != "" {
		client := &http.Client{
			Timeout: a.Config.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(a.Config.HTTP.HTTPProxy, a.Config.HTTP.HTTPSProxy, a.Config.HTTP.NoProxy),
			},
		}
		fallback = search.NewNewsFeed(a.Config.Sources.FeedURL, a.Config.HTTP.UserAgent, client, unwrapWith(fetcher))
	}

	return search.NewResolver(primary, fallback, fetcher, llm.NewReviewer(provider, a.Logger), sim, search.Config{
		AllowList:          sources.NewAllowList(a.Config.Sources.Domains),
		SearchLimit:        a.Config.Sources.SearchLimit,
		FeedLimit:          a.Config.Sources.FeedLimit,
		RelevanceThreshold: a.Config.Resolver.RelevanceThreshold,
		ArticleWorkers:     a.Config.Concurrency.ArticleWorkers,
		Language:           a.Config.Resolver.RegistryLanguage,
	}, a.Logger), nil
}

// unwrapWith follows an aggregator redirect to the publisher URL
func unwrapWith(f *extract.Fetcher) search.Unwrapper {
	return func(ctx context.Context, link string) (string, error) {
		res, err := f.Fetch(ctx, link)
		if err != nil {
			return "", err
		}
		return res.FinalURL, nil
	}
}

func newFetcher(cfg model.HTTPConfig, publishers *sources.AllowList) *extract.Fetcher {
	fc := extract.FetcherConfig{
		Timeout:    cfg.Timeout,
		UserAgent:  cfg.UserAgent,
		MaxBytes:   cfg.MaxBodyBytes,
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	}
	if cfg.RequestsPerSecond > 0 {
		fc.Limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst, publishers)
	}
	if cfg.RespectRobots {
		fc.Robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	return extract.NewFetcher(fc)
}

// OpenStore opens the configured claim store and returns its closer,
// which may be nil
func OpenStore(ctx context.Context, cfg model.StoreConfig) (Store, func() error, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return store.NewMemoryStore(), nil, nil
	case "sqlite":
		path := ExpandPath(cfg.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create store dir: %w", err)
		}
		s, err := store.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "dynamodb", "dynamo":
		awsCfg, err := loadAWS(ctx, cfg.Region)
		if err != nil {
			return nil, nil, err
		}
		return store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Table), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (supported: memory, sqlite, dynamodb)", cfg.Backend)
	}
}

// LoadCredentials reads API keys from the configured source
func LoadCredentials(ctx context.Context, cfg model.CredentialsConfig) (secrets.Credentials, error) {
	switch strings.ToLower(cfg.Source) {
	case "", "env":
		return secrets.NewEnvProvider().Credentials(ctx)
	case "ssm":
		awsCfg, err := loadAWS(ctx, cfg.Region)
		if err != nil {
			return secrets.Credentials{}, err
		}
		return secrets.NewSSMProvider(ssm.NewFromConfig(awsCfg), cfg.Parameter).Credentials(ctx)
	default:
		return secrets.Credentials{}, fmt.Errorf("unknown credentials source %q (supported: env, ssm)", cfg.Source)
	}
}

func loadAWS(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}

// ExpandPath replaces a leading ~ with the home directory
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
