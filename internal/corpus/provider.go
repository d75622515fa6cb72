package corpus

import (
	"context"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/tanmay877/FactShield/internal/config"
	"github.com/tanmay877/FactShield/internal/lexical"
	"github.com/tanmay877/FactShield/internal/models"
)

const userAgent = "FactShield/1.0 (headline checker)"

// Provider pulls recent headlines from the configured trusted feeds. Every
// evaluation re-fetches; there is no cross-request cache. A single Provider
// serves concurrent evaluations.
type Provider struct {
	cfg    config.Corpus
	client *http.Client
	strip  *bluemonday.Policy
	log    *slog.Logger
}

// NewProvider builds a Provider for the given corpus configuration.
func NewProvider(cfg config.Corpus, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		strip:  bluemonday.StrictPolicy(),
		log:    logger,
	}
}

// Recent fetches every configured feed and returns the normalized headlines
// published inside the recency window, in source configuration order. A source
// that fails or times out contributes zero headlines; the corpus is whatever
// the remaining sources returned.
func (p *Provider) Recent(ctx context.Context) []models.Headline {
	now := time.Now()
	perSource := make([][]models.Headline, len(p.cfg.Sources))

	var g errgroup.Group
	g.SetLimit(p.cfg.FetchConcurrency)
	for i, src := range p.cfg.Sources {
		// Per-iteration copies: the go directive predates Go 1.22 loop
		// variable scoping, so the closures would otherwise share i and src.
		i, src := i, src
		g.Go(func() error {
			perSource[i] = p.fetchSource(ctx, src, now)
			return nil
		})
	}
	// Fetch errors are logged and dropped per source, never returned.
	_ = g.Wait()

	seen := newSeenSet()
	headlines := make([]models.Headline, 0, len(p.cfg.Sources)*p.cfg.MaxPerFeed)
	for _, batch := range perSource {
		for _, h := range batch {
			if seen.add(h.Source, h.Title) {
				headlines = append(headlines, h)
			}
		}
	}

	p.log.Debug("headline corpus assembled", slog.Int("headlines", len(headlines)))
	return headlines
}

func (p *Provider) fetchSource(ctx context.Context, src config.Source, now time.Time) []models.Headline {
	fctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	// A gofeed Parser lazily initializes per-format translator state and is
	// not safe for concurrent use; each fetch gets its own, sharing only the
	// HTTP client.
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = p.client

	feed, err := parser.ParseURLWithContext(src.URL, fctx)
	if err != nil {
		p.log.Warn("feed fetch failed, skipping source",
			slog.String("source", src.Name),
			slog.Any("err", err),
		)
		return nil
	}

	items := feed.Items
	if len(items) > p.cfg.MaxPerFeed {
		items = items[:p.cfg.MaxPerFeed]
	}

	headlines := make([]models.Headline, 0, len(items))
	for _, item := range items {
		// An entry with no publish timestamp is kept; only entries known to
		// be older than the window are dropped.
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
			if now.Sub(published) > p.cfg.RecencyWindow {
				continue
			}
		}

		title := p.normalizeTitle(item.Title)
		if title == "" {
			continue
		}

		headlines = append(headlines, models.Headline{
			Source:      src.Name,
			Title:       title,
			PublishedAt: published,
		})
	}

	return headlines
}

// normalizeTitle strips markup and entities from a feed title and lowercases
// it. Entries with no usable text normalize to "".
func (p *Provider) normalizeTitle(raw string) string {
	clean := p.strip.Sanitize(raw)
	clean = html.UnescapeString(clean)
	return lexical.Normalize(clean)
}
