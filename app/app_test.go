package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/config"
	"github.com/sweetpotato0/agri-advisor/history"
	"github.com/sweetpotato0/agri-advisor/llm"
	"github.com/sweetpotato0/agri-advisor/pkg/netcheck"
	"github.com/sweetpotato0/agri-advisor/record"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Connectivity.Force = "online"
	cfg.Logging.Level = "error"
	return cfg
}

func TestNewDefaultApp(t *testing.T) {
	a, err := New(context.Background(), testConfig(), Options{RateLimit: true})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Limiter)
	resp := a.Service.Advise(context.Background(), "What is the wheat price in Ludhiana?", "")
	require.Equal(t, answer.OriginPipeline, resp.Origin)
	require.NotEmpty(t, resp.Sources)
	require.LessOrEqual(t, resp.Confidence, answer.MaxConfidence)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "etcd"
	_, err := New(context.Background(), cfg, Options{})
	require.Error(t, err)
}

func TestNewCacheLayerSQLite(t *testing.T) {
	cfg := config.Default().Cache
	cfg.Backend = "sqlite"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "cache.db")

	layer, err := NewCacheLayer(context.Background(), &cfg)
	require.NoError(t, err)
	defer layer.Close()

	ctx := context.Background()
	layer.StoreResponse(ctx, "wheat price", "en", answer.Response{Text: "cached", Confidence: 0.7})
	got, ok := layer.Response(ctx, "Wheat price?", "en")
	require.True(t, ok)
	require.Equal(t, "cached", got.Text)
	require.Equal(t, cfg.TTLFor("weather"), layer.TTL(record.CategoryWeather))
}

func TestNewCacheLayerUnknownBackend(t *testing.T) {
	cfg := config.Default().Cache
	cfg.Backend = "etcd"
	_, err := NewCacheLayer(context.Background(), &cfg)
	require.Error(t, err)
}

func TestNewHistory(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	h, closer, err := NewHistory(ctx, cfg)
	require.NoError(t, err)
	require.Nil(t, closer)
	require.IsType(t, &history.Memory{}, h)

	cfg.Offline.HistoryBackend = "sqlite"
	cfg.Cache.SQLite.Path = filepath.Join(t.TempDir(), "history.db")
	h, closer, err = NewHistory(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	_, err = h.Add(ctx, "soybean price in Indore mandi today", "en")
	require.NoError(t, err)
	matches, err := h.Similar(ctx, "soybean price in Indore mandi", "en", 0.6)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	cfg.Offline.HistoryBackend = "etcd"
	_, _, err = NewHistory(ctx, cfg)
	require.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	cfg := config.Default().Retrieval
	reg, err := NewRegistry(&cfg)
	require.NoError(t, err)
	require.ElementsMatch(t, record.Categories, reg.Categories())

	cfg.Sources = map[string]config.SourceConfig{"weather": {Kind: "bulletin", URL: "http://example.invalid"}}
	_, err = NewRegistry(&cfg)
	require.Error(t, err)

	cfg.Sources = map[string]config.SourceConfig{"advisory": {Kind: "bulletin", URL: "http://example.invalid"}}
	reg, err = NewRegistry(&cfg)
	require.NoError(t, err)
	require.Equal(t, []record.Category{record.CategoryAdvisory}, reg.Categories())

	cfg.Sources = map[string]config.SourceConfig{"market": {Kind: "http", URL: "http://example.invalid/{crop}"}}
	_, err = NewRegistry(&cfg)
	require.NoError(t, err)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	g, closer, err := NewGenerator(ctx, &config.GenerationConfig{Provider: "none"})
	require.NoError(t, err)
	require.Nil(t, closer)
	require.False(t, llm.IsConfigured(g))

	g, _, err = NewGenerator(ctx, &config.GenerationConfig{Provider: "http", BaseURL: "http://localhost:1/generate"})
	require.NoError(t, err)
	require.True(t, llm.IsConfigured(g))

	g, _, err = NewGenerator(ctx, &config.GenerationConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.True(t, llm.IsConfigured(g))

	_, _, err = NewGenerator(ctx, &config.GenerationConfig{Provider: "palm"})
	require.Error(t, err)
}

func TestNewGeneratorVendors(t *testing.T) {
	for _, name := range []string{"groq", "claude", "cohere", "CoHere"} {
		t.Run(name, func(t *testing.T) {
			g, closer, err := NewGenerator(context.Background(), &config.GenerationConfig{
				Provider:  name,
				APIKey:    "test-key",
				Model:     "test-model",
				MaxTokens: 256,
			})
			require.NoError(t, err)
			require.Nil(t, closer)
			require.True(t, llm.IsConfigured(g))
		})
	}
}

func TestNewChecker(t *testing.T) {
	require.Equal(t, netcheck.Static(true), NewChecker(&config.ConnectivityConfig{Force: "online"}))
	require.Equal(t, netcheck.Static(false), NewChecker(&config.ConnectivityConfig{Force: "offline"}))
	require.Equal(t, netcheck.Static(true), NewChecker(&config.ConnectivityConfig{}))
	_, ok := NewChecker(&config.ConnectivityConfig{ProbeURL: "http://localhost/generate_204"}).(*netcheck.Probe)
	require.True(t, ok)
}
