package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tanmay877/FactShield/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BIND_ADDR", "")
	t.Setenv("INFERENCE_ADDR", "")
	t.Setenv("SOURCES_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	require.Equal(t, "http://inference:8081", cfg.InferenceAddr)
	require.Equal(t, 10*time.Second, cfg.InferenceTimeout)
	require.Equal(t, 30*time.Second, cfg.CheckTimeout)
	require.Equal(t, 10, cfg.Corpus.MaxPerFeed)
	require.Equal(t, 48*time.Hour, cfg.Corpus.RecencyWindow)
	require.Equal(t, 5*time.Second, cfg.Corpus.FetchTimeout)
	require.Equal(t, 4, cfg.Corpus.FetchConcurrency)
	require.Len(t, cfg.Corpus.Sources, 7)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("INFERENCE_ADDR", "http://localhost:9999")
	t.Setenv("INFERENCE_TIMEOUT", "3s")
	t.Setenv("CHECK_TIMEOUT", "1m")
	t.Setenv("FEED_MAX_ENTRIES", "5")
	t.Setenv("FEED_RECENCY_WINDOW", "24h")
	t.Setenv("FEED_FETCH_TIMEOUT", "2s")
	t.Setenv("FEED_FETCH_CONCURRENCY", "2")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, "http://localhost:9999", cfg.InferenceAddr)
	require.Equal(t, 3*time.Second, cfg.InferenceTimeout)
	require.Equal(t, time.Minute, cfg.CheckTimeout)
	require.Equal(t, 5, cfg.Corpus.MaxPerFeed)
	require.Equal(t, 24*time.Hour, cfg.Corpus.RecencyWindow)
	require.Equal(t, 2*time.Second, cfg.Corpus.FetchTimeout)
	require.Equal(t, 2, cfg.Corpus.FetchConcurrency)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FEED_MAX_ENTRIES", "0")

	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "FEED_MAX_ENTRIES")
}

func TestDefaultSourcesWeakAggregator(t *testing.T) {
	sources := config.DefaultSources()

	weak := 0
	for _, s := range sources {
		if s.Weight == 0 {
			weak++
			require.Equal(t, "Google News", s.Name)
		}
	}
	require.Equal(t, 1, weak)
}

func TestLoadSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	doc := `sources:
  - name: BBC News
    url: https://feeds.bbci.co.uk/news/rss.xml
    weight: 1
  - name: Aggregator
    url: https://example.com/rss
    weight: 0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	sources, err := config.LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	require.Equal(t, "BBC News", sources[0].Name)
	require.Equal(t, 1, sources[0].Weight)
	require.Equal(t, 0, sources[1].Weight)
}

func TestLoadSourcesFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.LoadSources(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("sources: []\n"), 0o644))
	_, err = config.LoadSources(empty)
	require.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	doc := `sources:
  - name: Twice
    url: https://a.example/rss
    weight: 1
  - name: Twice
    url: https://b.example/rss
    weight: 1
`
	require.NoError(t, os.WriteFile(dup, []byte(doc), 0o644))
	_, err = config.LoadSources(dup)
	require.Error(t, err)
	require.Contains(t, err.Error(), "listed twice")
}

func TestLoadUsesSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	doc := `sources:
  - name: Only One
    url: https://only.example/rss
    weight: 1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("SOURCES_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Len(t, cfg.Corpus.Sources, 1)
	require.Equal(t, "Only One", cfg.Corpus.Sources[0].Name)
}
