// Package app assembles an advisory service from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/agri-advisor/cache"
	"github.com/sweetpotato0/agri-advisor/cache/store"
	"github.com/sweetpotato0/agri-advisor/config"
	"github.com/sweetpotato0/agri-advisor/contrib/datasource/bulletin"
	"github.com/sweetpotato0/agri-advisor/contrib/datasource/catalog"
	"github.com/sweetpotato0/agri-advisor/contrib/datasource/httpjson"
	"github.com/sweetpotato0/agri-advisor/contrib/provider"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/claude"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/cohere"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/gemini"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/groq"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/httpgen"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/openai"
	"github.com/sweetpotato0/agri-advisor/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/history"
	"github.com/sweetpotato0/agri-advisor/llm"
	"github.com/sweetpotato0/agri-advisor/middleware/limiter"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/pkg/netcheck"
	"github.com/sweetpotato0/agri-advisor/pkg/retry"
	"github.com/sweetpotato0/agri-advisor/pkg/sqldb"
	"github.com/sweetpotato0/agri-advisor/pkg/telemetry"
	"github.com/sweetpotato0/agri-advisor/prompt"
	"github.com/sweetpotato0/agri-advisor/rag/advisory"
	"github.com/sweetpotato0/agri-advisor/rag/extract"
	"github.com/sweetpotato0/agri-advisor/rag/language"
	"github.com/sweetpotato0/agri-advisor/rag/retrieval"
	"github.com/sweetpotato0/agri-advisor/rag/validator"
	"github.com/sweetpotato0/agri-advisor/record"
)

// Version is reported by the CLI, MCP server and health endpoint.
const Version = "0.3.0"

// App owns the service and everything it needs to shut down.
type App struct {
	Config   *config.Config
	Service  *advisory.Service
	Detector *language.Detector
	Limiter  *limiter.RateLimiter
	Logger   *slog.Logger

	tracing *telemetry.Provider
}

// Options adjusts what New builds beyond the configuration.
type Options struct {
	// RateLimit adds the configured request limiter, as the HTTP server does.
	RateLimit bool
	// LogWriter receives log output when no log file is configured.
	LogWriter io.Writer
}

// New builds the application from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.Configure(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Writer: opts.LogWriter,
	})

	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Disable:        cfg.Telemetry.Disable,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, tracing: tracing}
	if err := a.build(ctx, opts); err != nil {
		tracing.Shutdown(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg := a.Config

	prompts, err := prompt.Load(cfg.Generation.PromptDir)
	if err != nil {
		return err
	}

	layer, err := NewCacheLayer(ctx, &cfg.Cache)
	if err != nil {
		return err
	}

	registry, err := NewRegistry(&cfg.Retrieval)
	if err != nil {
		layer.Close()
		return err
	}
	orchestrator := retrieval.New(registry,
		retrieval.WithCache(layer),
		retrieval.WithTimeout(cfg.Retrieval.Timeout),
		retrieval.WithPolicy(retry.Policy{
			MaxAttempts: uint(cfg.Retrieval.MaxAttempts),
			Initial:     cfg.Retrieval.BackoffInitial,
			Max:         cfg.Retrieval.BackoffMax,
			Multiplier:  2,
			Jitter:      0.2,
		}),
	)

	gen, closer, err := NewGenerator(ctx, &cfg.Generation)
	if err != nil {
		layer.Close()
		return err
	}

	hist, histCloser, err := NewHistory(ctx, cfg)
	if err != nil {
		layer.Close()
		if closer != nil {
			closer.Close()
		}
		return err
	}

	v := validator.New(
		validator.WithGenerator(gen),
		validator.WithPrompts(prompts),
		validator.WithTokenizer(tiktoken.NewOrFallback(""), cfg.Generation.PromptTokenBudget),
	)

	a.Detector = language.NewDetector(cfg.Service.BaseLanguage)
	svcOpts := []advisory.Option{
		advisory.WithCache(layer),
		advisory.WithValidator(v),
		advisory.WithGenerator(gen),
		advisory.WithPrompts(prompts),
		advisory.WithHistory(hist),
		advisory.WithConnectivity(NewChecker(&cfg.Connectivity)),
		advisory.WithLanguage(a.Detector, language.NewTranslator(cfg.Service.BaseLanguage)),
		advisory.WithExtractor(extract.New()),
		advisory.WithTimeout(cfg.Service.RequestTimeout),
		advisory.WithOfflineThreshold(cfg.Offline.SimilarityThreshold),
		advisory.WithCloser(closer),
		advisory.WithCloser(histCloser),
	}
	if cfg.Demo.Enabled {
		svcOpts = append(svcOpts, advisory.WithDemoSet(advisory.NewDemoSet(cfg.Demo.Threshold, advisory.DefaultDemos()...)))
	} else {
		svcOpts = append(svcOpts, advisory.WithDemoSet(nil))
	}
	if opts.RateLimit && cfg.Server.RatePerSecond > 0 {
		a.Limiter = limiter.NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.Burst)
		svcOpts = append(svcOpts, advisory.WithMiddleware(a.Limiter))
	}

	svc, err := advisory.New(orchestrator, svcOpts...)
	if err != nil {
		layer.Close()
		for _, c := range []io.Closer{closer, histCloser} {
			if c != nil {
				c.Close()
			}
		}
		return err
	}
	a.Service = svc
	return nil
}

// Close stops the service and flushes telemetry.
func (a *App) Close() error {
	err := a.Service.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if terr := a.tracing.Shutdown(ctx); terr != nil && err == nil {
		err = terr
	}
	return err
}

// NewCacheLayer builds the cache on the configured backend.
func NewCacheLayer(ctx context.Context, cfg *config.CacheConfig) (*cache.Layer, error) {
	opts := cache.LayerOptions{TTL: make(map[record.Category]time.Duration), ResponseTTL: cfg.ResponseTTL}
	for _, c := range record.Categories {
		opts.TTL[c] = cfg.TTLFor(string(c))
	}

	var (
		backend store.Backend
		err     error
	)
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return cache.NewMemoryLayer(opts, cfg.DataCapacity, cfg.ResponseCapacity, cfg.CleanupInterval), nil
	case "redis":
		backend, err = store.DialRedis(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Prefix)
	case "postgres":
		backend, err = store.OpenSQLStore(ctx, sqldb.Postgres, cfg.Postgres.DSN(), cfg.Postgres.Table)
	case "mongo":
		backend, err = store.OpenMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
	case "sqlite":
		backend, err = store.OpenSQLStore(ctx, sqldb.SQLite, cfg.SQLite.Path, cfg.SQLite.Table)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	return cache.NewBackendLayer(backend, opts), nil
}

// NewHistory builds the query history used by the offline path. The closer
// is nil for the in-memory store.
func NewHistory(ctx context.Context, cfg *config.Config) (history.Store, io.Closer, error) {
	var d sqldb.Dialect
	var dsn string
	switch strings.ToLower(cfg.Offline.HistoryBackend) {
	case "", "memory":
		return history.NewMemory(cfg.Offline.HistorySize), nil, nil
	case "postgres":
		d, dsn = sqldb.Postgres, cfg.Cache.Postgres.DSN()
	case "sqlite":
		d, dsn = sqldb.SQLite, cfg.Cache.SQLite.Path
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.Offline.HistoryBackend)
	}
	db, err := sqldb.Open(ctx, d, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s history: %w", d, err)
	}
	h, err := history.NewSQL(ctx, db, history.SQLConfig{
		Dialect:  d,
		Table:    cfg.Offline.HistoryTable,
		Capacity: cfg.Offline.HistorySize,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open %s history: %w", d, err)
	}
	return h, h, nil
}

// NewRegistry builds one source per configured category.
func NewRegistry(cfg *config.RetrievalConfig) (*datasource.Registry, error) {
	cat := catalog.New(catalog.Options{UnavailableCrops: cfg.UnavailableCrops})
	reg := datasource.NewRegistry()
	for name, sc := range cfg.Sources {
		category, ok := record.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("source %q: unknown category", name)
		}
		switch strings.ToLower(sc.Kind) {
		case "", "catalog":
			reg.Register(cat.Source(category))
		case "http":
			src, err := httpjson.New(httpjson.Config{
				Category: category,
				URL:      sc.URL,
				Headers:  sc.Headers,
				Paths:    sc.Paths,
			})
			if err != nil {
				return nil, err
			}
			reg.Register(src)
		case "bulletin":
			if category != record.CategoryAdvisory {
				return nil, fmt.Errorf("source %q: bulletin only serves advisory", name)
			}
			src, err := bulletin.New(bulletin.Config{URL: sc.URL, Selector: sc.Selector, Headers: sc.Headers}, nil)
			if err != nil {
				return nil, err
			}
			reg.Register(src)
		default:
			return nil, fmt.Errorf("source %q: unknown kind %q", name, sc.Kind)
		}
	}
	return reg, nil
}

// NewGenerator builds the configured generation service wrapped with
// tracing, logging and a timeout. The closer is nil when nothing needs
// releasing.
func NewGenerator(ctx context.Context, cfg *config.GenerationConfig) (llm.Generator, io.Closer, error) {
	var (
		g      llm.Generator
		closer io.Closer
	)
	name := strings.ToLower(cfg.Provider)
	settings := provider.Settings{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	switch name {
	case "", "none":
		return llm.Unavailable{}, nil, nil
	case "openai":
		g = openai.New(name, settings)
	case "groq":
		g = groq.New(settings)
	case "claude":
		g = claude.New(settings)
	case "gemini":
		p, err := gemini.New(ctx, settings)
		if err != nil {
			return nil, nil, err
		}
		g, closer = p, p
	case "cohere":
		g = cohere.New(settings)
	case "http":
		var opts []httpgen.Option
		if cfg.APIKey != "" {
			opts = append(opts, httpgen.WithBearer(cfg.APIKey))
		}
		extra := map[string]any{}
		if cfg.Model != "" {
			extra["model"] = cfg.Model
		}
		g = httpgen.New(httpgen.Config{
			Name:     "http",
			URL:      cfg.BaseURL,
			TextPath: cfg.TextPath,
			Extra:    extra,
		}, opts...)
	default:
		return nil, nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	return llm.Instrument(name, g, cfg.Timeout), closer, nil
}

// NewChecker returns the connectivity checker for cfg.
func NewChecker(cfg *config.ConnectivityConfig) netcheck.Checker {
	switch strings.ToLower(cfg.Force) {
	case "online":
		return netcheck.Static(true)
	case "offline":
		return netcheck.Static(false)
	}
	if cfg.ProbeURL == "" {
		return netcheck.Static(true)
	}
	return netcheck.NewProbe(cfg.ProbeURL, cfg.ProbeTimeout, cfg.Interval)
}
