package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sweetpotato0/agri-advisor/pkg/env"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values come from an optional
// YAML file, then AGRI_* environment overrides, then Validate.
type Config struct {
	Service      ServiceConfig      `yaml:"service"`
	Cache        CacheConfig        `yaml:"cache"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Generation   GenerationConfig   `yaml:"generation"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Demo         DemoConfig         `yaml:"demo"`
	Offline      OfflineConfig      `yaml:"offline"`
	Logging      LoggingConfig      `yaml:"logging"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Server       ServerConfig       `yaml:"server"`
}

type ServiceConfig struct {
	BaseLanguage   string        `yaml:"base_language"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// CacheConfig selects the cache backend and the per-category TTLs.
type CacheConfig struct {
	Backend          string                   `yaml:"backend"` // memory|redis|postgres|mongo|sqlite
	DataCapacity     int                      `yaml:"data_capacity"`
	ResponseCapacity int                      `yaml:"response_capacity"`
	CleanupInterval  time.Duration            `yaml:"cleanup_interval"`
	TTL              map[string]time.Duration `yaml:"ttl"`
	ResponseTTL      time.Duration            `yaml:"response_ttl"`
	Redis            RedisConfig              `yaml:"redis"`
	Postgres         PostgresConfig           `yaml:"postgres"`
	Mongo            MongoConfig              `yaml:"mongo"`
	SQLite           SQLiteConfig             `yaml:"sqlite"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
	SSLMode  string `yaml:"ssl_mode"`
	Table    string `yaml:"table"`
}

// DSN returns the connection URL for lib/pq.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type SQLiteConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// SourceConfig describes one data source. Kind "catalog" is the built-in
// deterministic catalogue, "http" a JSON API, "bulletin" an HTML page.
type SourceConfig struct {
	Kind    string            `yaml:"kind"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	// Paths maps record fields to gjson paths for kind "http".
	Paths    map[string]string `yaml:"paths"`
	Selector string            `yaml:"selector"`
}

type RetrievalConfig struct {
	Timeout        time.Duration           `yaml:"timeout"`
	MaxAttempts    int                     `yaml:"max_attempts"`
	BackoffInitial time.Duration           `yaml:"backoff_initial"`
	BackoffMax     time.Duration           `yaml:"backoff_max"`
	Sources        map[string]SourceConfig `yaml:"sources"`
	// UnavailableCrops are crops the catalogue market source reports as missing.
	UnavailableCrops []string `yaml:"unavailable_crops"`
}

type GenerationConfig struct {
	Provider          string        `yaml:"provider"` // none|openai|claude|gemini|groq|cohere|http
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	PromptTokenBudget int           `yaml:"prompt_token_budget"`
	TextPath          string        `yaml:"text_path"`
	// PromptDir holds *.tmpl files replacing the built-in prompts by name.
	PromptDir string `yaml:"prompt_dir"`
}

type ConnectivityConfig struct {
	ProbeURL     string        `yaml:"probe_url"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	Interval     time.Duration `yaml:"interval"`
	// Force pins connectivity: "online", "offline" or "" to probe.
	Force string `yaml:"force"`
}

type DemoConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"`
}

// OfflineConfig tunes the offline path. A postgres or sqlite history reuses
// the connection settings under cache.
type OfflineConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	HistorySize         int     `yaml:"history_size"`
	HistoryBackend      string  `yaml:"history_backend"` // memory|postgres|sqlite
	HistoryTable        string  `yaml:"history_table"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type TelemetryConfig struct {
	Disable     bool   `yaml:"disable"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
	// SampleRatio keeps this fraction of traces; 0 keeps all.
	SampleRatio float64 `yaml:"sample_ratio"`
}

type ServerConfig struct {
	Addr           string  `yaml:"addr"`
	MaxConcurrency int     `yaml:"max_concurrency"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
}

// Default returns a configuration that runs fully offline-capable with the
// in-memory cache and the built-in catalogue sources.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{BaseLanguage: "en", RequestTimeout: 15 * time.Second},
		Cache: CacheConfig{
			Backend:          "memory",
			DataCapacity:     500,
			ResponseCapacity: 1000,
			CleanupInterval:  5 * time.Minute,
			TTL: map[string]time.Duration{
				"weather":  time.Hour,
				"market":   24 * time.Hour,
				"advisory": 24 * time.Hour,
				"soil":     7 * 24 * time.Hour,
				"scheme":   7 * 24 * time.Hour,
			},
			ResponseTTL: 7 * 24 * time.Hour,
			Redis:       RedisConfig{Addr: "localhost:6379", Prefix: "agri:cache:"},
			Postgres:    PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "agri_advisor", SSLMode: "disable", Table: "advisor_cache"},
			Mongo:       MongoConfig{URI: "mongodb://localhost:27017", Database: "agri_advisor", Collection: "cache"},
			SQLite:      SQLiteConfig{Path: "agri-cache.db", Table: "advisor_cache"},
		},
		Retrieval: RetrievalConfig{
			Timeout:        8 * time.Second,
			MaxAttempts:    3,
			BackoffInitial: 200 * time.Millisecond,
			BackoffMax:     2 * time.Second,
			Sources: map[string]SourceConfig{
				"weather":  {Kind: "catalog"},
				"market":   {Kind: "catalog"},
				"advisory": {Kind: "catalog"},
				"soil":     {Kind: "catalog"},
				"scheme":   {Kind: "catalog"},
			},
		},
		Generation: GenerationConfig{
			Provider:          "none",
			MaxTokens:         1024,
			Temperature:       0.2,
			Timeout:           10 * time.Second,
			PromptTokenBudget: 3000,
		},
		Connectivity: ConnectivityConfig{ProbeURL: "https://www.google.com/generate_204", ProbeTimeout: 2 * time.Second, Interval: 30 * time.Second},
		Demo:         DemoConfig{Enabled: true, Threshold: 0.7},
		Offline:      OfflineConfig{SimilarityThreshold: 0.6, HistorySize: 500},
		Logging:      LoggingConfig{Level: "info", Format: "json"},
		Telemetry:    TelemetryConfig{Disable: true, ServiceName: "agri-advisor"},
		Server:       ServerConfig{Addr: ":8080", MaxConcurrency: 16, RatePerSecond: 20, Burst: 40},
	}
}

// Load reads path (optional), applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from AGRI_* environment variables.
func (c *Config) ApplyEnv() {
	c.Service.BaseLanguage = env.String("AGRI_BASE_LANGUAGE", c.Service.BaseLanguage)
	c.Service.RequestTimeout = env.Duration("AGRI_REQUEST_TIMEOUT", c.Service.RequestTimeout)

	c.Cache.Backend = env.String("AGRI_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Redis.Addr = env.String("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = env.String("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = env.Int("REDIS_DB", c.Cache.Redis.DB)
	c.Cache.Postgres.Host = env.String("POSTGRES_HOST", c.Cache.Postgres.Host)
	c.Cache.Postgres.Port = env.Int("POSTGRES_PORT", c.Cache.Postgres.Port)
	c.Cache.Postgres.User = env.String("POSTGRES_USER", c.Cache.Postgres.User)
	c.Cache.Postgres.Password = env.String("POSTGRES_PASSWORD", c.Cache.Postgres.Password)
	c.Cache.Postgres.DBName = env.String("POSTGRES_DB", c.Cache.Postgres.DBName)
	c.Cache.Mongo.URI = env.String("MONGODB_URI", c.Cache.Mongo.URI)
	c.Cache.SQLite.Path = env.String("AGRI_SQLITE_PATH", c.Cache.SQLite.Path)

	c.Retrieval.Timeout = env.Duration("AGRI_RETRIEVAL_TIMEOUT", c.Retrieval.Timeout)
	c.Retrieval.UnavailableCrops = env.List("AGRI_UNAVAILABLE_CROPS", c.Retrieval.UnavailableCrops)

	c.Generation.Provider = env.String("AGRI_LLM_PROVIDER", c.Generation.Provider)
	c.Generation.PromptDir = env.String("AGRI_PROMPT_DIR", c.Generation.PromptDir)
	c.Generation.APIKey = env.String("AGRI_LLM_API_KEY", c.Generation.APIKey)
	c.Generation.BaseURL = env.String("AGRI_LLM_BASE_URL", c.Generation.BaseURL)
	c.Generation.Model = env.String("AGRI_LLM_MODEL", c.Generation.Model)

	c.Offline.HistoryBackend = env.String("AGRI_HISTORY_BACKEND", c.Offline.HistoryBackend)

	c.Connectivity.Force = env.String("AGRI_CONNECTIVITY", c.Connectivity.Force)
	c.Demo.Enabled = env.Bool("AGRI_DEMO_ENABLED", c.Demo.Enabled)
	c.Demo.Threshold = env.Float("AGRI_DEMO_THRESHOLD", c.Demo.Threshold)

	c.Logging.Level = env.String("AGRI_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = env.String("AGRI_LOG_FORMAT", c.Logging.Format)
	c.Logging.File = env.String("AGRI_LOG_FILE", c.Logging.File)

	c.Telemetry.Disable = env.Bool("AGRI_TELEMETRY_DISABLE", c.Telemetry.Disable)
	c.Telemetry.Endpoint = env.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.Endpoint)

	c.Server.Addr = env.String("AGRI_ADDR", c.Server.Addr)
}

// TTLFor returns the dataset TTL configured for category, or an hour.
func (c *CacheConfig) TTLFor(category string) time.Duration {
	if d, ok := c.TTL[category]; ok && d > 0 {
		return d
	}
	return time.Hour
}

// Validate checks the whole configuration, collecting every problem.
// Backend sections are only checked when selected.
func (c *Config) Validate() error {
	v := NewValidator()

	v.In("service").
		NonEmpty("base_language", c.Service.BaseLanguage).
		PositiveDuration("request_timeout", c.Service.RequestTimeout)

	cache := v.In("cache")
	cache.OneOf("backend", c.Cache.Backend, "memory", "redis", "postgres", "mongo", "sqlite").
		Positive("data_capacity", c.Cache.DataCapacity).
		Positive("response_capacity", c.Cache.ResponseCapacity).
		PositiveDuration("response_ttl", c.Cache.ResponseTTL)
	for category, ttl := range c.Cache.TTL {
		ttls := cache.In("ttl")
		ttls.OneOf(category, category, categories...)
		ttls.PositiveDuration(category, ttl)
	}
	switch c.Cache.Backend {
	case "redis":
		c.Cache.Redis.validate(cache.In("redis"))
	case "postgres":
		c.Cache.Postgres.validate(cache.In("postgres"))
	case "mongo":
		c.Cache.Mongo.validate(cache.In("mongo"))
	case "sqlite":
		c.Cache.SQLite.validate(cache.In("sqlite"))
	}

	retrieval := v.In("retrieval")
	retrieval.PositiveDuration("timeout", c.Retrieval.Timeout).
		IntRange("max_attempts", c.Retrieval.MaxAttempts, 1, 10)
	for category, src := range c.Retrieval.Sources {
		sources := retrieval.In("sources")
		sources.OneOf(category, category, categories...)
		src.validate(sources.In(category))
	}

	c.Generation.validate(v.In("generation"))

	conn := v.In("connectivity")
	conn.OneOf("force", c.Connectivity.Force, "", "online", "offline")
	if c.Connectivity.Force == "" {
		conn.URI("probe_url", c.Connectivity.ProbeURL, "http", "https")
	}

	v.In("demo").FloatRange("threshold", c.Demo.Threshold, 0, 1)

	offline := v.In("offline")
	offline.FloatRange("similarity_threshold", c.Offline.SimilarityThreshold, 0, 1).
		OneOf("history_backend", c.Offline.HistoryBackend, "", "memory", "postgres", "sqlite")
	// A SQL history borrows the cache connection settings.
	switch {
	case c.Offline.HistoryBackend == "postgres" && c.Cache.Backend != "postgres":
		c.Cache.Postgres.validate(cache.In("postgres"))
	case c.Offline.HistoryBackend == "sqlite" && c.Cache.Backend != "sqlite":
		c.Cache.SQLite.validate(cache.In("sqlite"))
	}

	v.In("logging").
		OneOf("level", c.Logging.Level, "", "debug", "info", "warn", "error").
		OneOf("format", c.Logging.Format, "", "json", "text")

	v.In("telemetry").FloatRange("sample_ratio", c.Telemetry.SampleRatio, 0, 1)

	v.In("server").Positive("max_concurrency", c.Server.MaxConcurrency)

	return v.Err()
}

var categories = []string{"weather", "market", "advisory", "soil", "scheme"}
