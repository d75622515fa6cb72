package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source is one trusted feed endpoint. Weight says how much a match from this
// source counts toward strong confirmation; aggregators carry weight 0 so they
// can match without confirming anything on their own.
type Source struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Weight int    `yaml:"weight"`
}

// Keywords groups the fixed vocabulary driving the lexical checks. All entries
// are matched against the lowercased claim by substring containment.
type Keywords struct {
	Checkable     []string
	Stopwords     map[string]struct{}
	Forwarded     []string
	Alarmist      []string
	PublicFigures []string
	DeathMarker   string
}

// Scoring holds every tunable delta and threshold of the evaluation pipeline.
type Scoring struct {
	StartScore         int
	MaxScore           int
	NotCheckableScore  int
	ForwardedPenalty   int
	AlarmistPenalty    int
	PublicFigureCap    int
	MultiConfirmBonus  int
	SingleConfirmBonus int
	NoConfirmPenalty   int
	SentimentPenalty   int

	MinStrongSources    int
	SimilarityThreshold float64
	MinTermOverlap      int
	MinTermLength       int
	SentimentCutoff     float64
	SentimentMaxChars   int

	LikelyTrueMin int
	UnverifiedMin int
}

// Corpus bounds the headline fetch stage.
type Corpus struct {
	Sources          []Source
	MaxPerFeed       int
	RecencyWindow    time.Duration
	FetchTimeout     time.Duration
	FetchConcurrency int
}

// Service is the full configuration of the fact-check API.
type Service struct {
	BindAddr         string
	InferenceAddr    string
	InferenceTimeout time.Duration
	CheckTimeout     time.Duration
	Corpus           Corpus
	Scoring          Scoring
	Keywords         Keywords
}

// DefaultSources returns the built-in trusted source table. Google News is an
// aggregator mirroring the other outlets, so it carries weight 0.
func DefaultSources() []Source {
	return []Source{
		{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml", Weight: 1},
		{Name: "World Health Organization", URL: "https://www.who.int/rss-feeds/news-english.xml", Weight: 1},
		{Name: "Press Information Bureau", URL: "https://pib.gov.in/rssfeed.aspx", Weight: 1},
		{Name: "Mint (LiveMint)", URL: "https://www.livemint.com/rss/news", Weight: 1},
		{Name: "The Indian Express", URL: "https://indianexpress.com/feed/", Weight: 1},
		{Name: "Aaj Tak", URL: "https://www.aajtak.in/rssfeeds/?id=home", Weight: 1},
		{Name: "Google News", URL: "https://news.google.com/rss?hl=en-IN&gl=IN&ceid=IN:en", Weight: 0},
	}
}

// DefaultKeywords returns the built-in lexical vocabulary.
func DefaultKeywords() Keywords {
	return Keywords{
		Checkable: []string{
			"died", "killed", "announced", "issued", "confirmed",
			"declared", "reported", "arrested", "resigned",
			"alert", "advisory", "launched",
		},
		Stopwords: map[string]struct{}{
			"the": {}, "is": {}, "to": {}, "of": {}, "and": {}, "a": {}, "will": {},
			"in": {}, "on": {}, "for": {}, "that": {}, "has": {}, "have": {}, "with": {},
		},
		Forwarded:     []string{"whatsapp", "forwarded"},
		Alarmist:      []string{"breaking", "urgent", "panic", "shocking", "deadly"},
		PublicFigures: []string{"modi", "prime minister"},
		DeathMarker:   "died",
	}
}

// DefaultScoring returns the built-in deltas and thresholds. The ceiling is 95
// so no claim ever reads as perfectly confirmed.
func DefaultScoring() Scoring {
	return Scoring{
		StartScore:         100,
		MaxScore:           95,
		NotCheckableScore:  30,
		ForwardedPenalty:   30,
		AlarmistPenalty:    25,
		PublicFigureCap:    15,
		MultiConfirmBonus:  35,
		SingleConfirmBonus: 10,
		NoConfirmPenalty:   30,
		SentimentPenalty:   15,

		MinStrongSources:    2,
		SimilarityThreshold: 0.6,
		MinTermOverlap:      2,
		MinTermLength:       5,
		SentimentCutoff:     0.85,
		SentimentMaxChars:   512,

		LikelyTrueMin: 70,
		UnverifiedMin: 40,
	}
}

// Load builds the service config from environment variables. The source table
// comes from SOURCES_FILE when set, otherwise from the built-in defaults.
func Load() (*Service, error) {
	c := &Service{
		BindAddr:         getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		InferenceAddr:    getEnv("INFERENCE_ADDR", "http://inference:8081"),
		InferenceTimeout: getDuration("INFERENCE_TIMEOUT", "10s"),
		CheckTimeout:     getDuration("CHECK_TIMEOUT", "30s"),
		Corpus: Corpus{
			Sources:          DefaultSources(),
			MaxPerFeed:       getInt("FEED_MAX_ENTRIES", 10),
			RecencyWindow:    getDuration("FEED_RECENCY_WINDOW", "48h"),
			FetchTimeout:     getDuration("FEED_FETCH_TIMEOUT", "5s"),
			FetchConcurrency: getInt("FEED_FETCH_CONCURRENCY", 4),
		},
		Scoring:  DefaultScoring(),
		Keywords: DefaultKeywords(),
	}

	if path := getEnv("SOURCES_FILE", ""); path != "" {
		sources, err := LoadSources(path)
		if err != nil {
			return nil, fmt.Errorf("load sources file: %w", err)
		}
		c.Corpus.Sources = sources
	}

	if c.InferenceTimeout <= 0 {
		return nil, fmt.Errorf("INFERENCE_TIMEOUT must be positive")
	}
	if c.CheckTimeout <= 0 {
		return nil, fmt.Errorf("CHECK_TIMEOUT must be positive")
	}
	if c.Corpus.MaxPerFeed <= 0 {
		return nil, fmt.Errorf("FEED_MAX_ENTRIES must be positive")
	}
	if c.Corpus.RecencyWindow <= 0 {
		return nil, fmt.Errorf("FEED_RECENCY_WINDOW must be positive")
	}
	if c.Corpus.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FEED_FETCH_TIMEOUT must be positive")
	}
	if c.Corpus.FetchConcurrency <= 0 {
		return nil, fmt.Errorf("FEED_FETCH_CONCURRENCY must be positive")
	}
	if err := validateSources(c.Corpus.Sources); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadSources reads a source table from a YAML file of the form:
//
//	sources:
//	  - name: BBC News
//	    url: https://feeds.bbci.co.uk/news/rss.xml
//	    weight: 1
func LoadSources(path string) ([]Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Sources) == 0 {
		return nil, fmt.Errorf("%s lists no sources", path)
	}
	if err := validateSources(doc.Sources); err != nil {
		return nil, err
	}
	return doc.Sources, nil
}

func validateSources(sources []Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("source table must list at least one source")
	}
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("source with url %q has no name", s.URL)
		}
		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("source %q has no url", s.Name)
		}
		if s.Weight < 0 {
			return fmt.Errorf("source %q has negative weight", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("source %q listed twice", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}
