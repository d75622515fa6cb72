package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tanmay877/FactShield/internal/config"
	"github.com/tanmay877/FactShield/internal/inference"
	"github.com/tanmay877/FactShield/internal/lexical"
	"github.com/tanmay877/FactShield/internal/models"
)

const (
	findingNotCheckable   = "This statement is an opinion, prediction, or non-news claim"
	findingForwarded      = "Unverified forwarded message"
	findingAlarmist       = "Alarmist language detected"
	findingFigureDeath    = "Unverified death claim about public figure"
	findingNoConfirmation = "No reliable confirmation found in trusted news sources"
	findingManipulative   = "Emotionally manipulative language detected"
)

// HeadlineSource supplies recent normalized titles from the trusted outlets.
type HeadlineSource interface {
	Recent(ctx context.Context) []models.Headline
}

// InferenceClient runs the embedding and sentiment models. Either call failing
// aborts the evaluation.
type InferenceClient interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Sentiment(ctx context.Context, text string) (models.Sentiment, error)
}

// Evaluator scores a claim against recent trusted headlines. It holds no
// per-claim state, so a single instance serves concurrent requests.
type Evaluator struct {
	scoring  config.Scoring
	keywords config.Keywords
	weights  map[string]int
	corpus   HeadlineSource
	ai       InferenceClient
	log      *slog.Logger
}

func New(cfg *config.Service, corpus HeadlineSource, ai InferenceClient, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	weights := make(map[string]int, len(cfg.Corpus.Sources))
	for _, s := range cfg.Corpus.Sources {
		weights[s.Name] = s.Weight
	}

	return &Evaluator{
		scoring:  cfg.Scoring,
		keywords: cfg.Keywords,
		weights:  weights,
		corpus:   corpus,
		ai:       ai,
		log:      logger,
	}
}

// Evaluate runs the full pipeline for one claim: the checkability gate, the
// risk-language penalties, confirmation against recent headlines, then the
// sentiment penalty. Claims that fail the gate get a fixed verdict without
// touching the feeds or the models.
func (e *Evaluator) Evaluate(ctx context.Context, raw string) (*models.Verdict, error) {
	claim := lexical.Normalize(raw)

	if !lexical.IsCheckable(claim, e.keywords.Checkable) {
		e.log.Debug("claim not checkable", slog.Int("claim_len", len(claim)))
		return &models.Verdict{
			Score:    e.scoring.NotCheckableScore,
			Status:   models.StatusNotCheckable,
			Color:    models.ColorMedium,
			Findings: []string{findingNotCheckable},
		}, nil
	}

	score := e.scoring.StartScore
	var findings []string

	if lexical.ContainsAny(claim, e.keywords.Forwarded) {
		score -= e.scoring.ForwardedPenalty
		findings = append(findings, findingForwarded)
	}
	if lexical.ContainsAny(claim, e.keywords.Alarmist) {
		score -= e.scoring.AlarmistPenalty
		findings = append(findings, findingAlarmist)
	}
	if lexical.MentionsPublicFigureDeath(claim, e.keywords.PublicFigures, e.keywords.DeathMarker) {
		// A cap, not a penalty: the score can only go down to it here, and
		// later confirmation bonuses may still climb back above it.
		if score > e.scoring.PublicFigureCap {
			score = e.scoring.PublicFigureCap
		}
		findings = append(findings, findingFigureDeath)
	}

	matched, err := e.matchSources(ctx, claim)
	if err != nil {
		return nil, err
	}

	strong := e.strongSources(matched)
	switch {
	case len(strong) >= e.scoring.MinStrongSources:
		score += e.scoring.MultiConfirmBonus
		findings = append(findings, "Confirmed by multiple trusted sources: "+strings.Join(strong, ", "))
	case len(strong) == 1:
		score += e.scoring.SingleConfirmBonus
		findings = append(findings, "Partial confirmation from "+strong[0])
	default:
		score -= e.scoring.NoConfirmPenalty
		findings = append(findings, findingNoConfirmation)
	}

	sentiment, err := e.ai.Sentiment(ctx, lexical.Truncate(claim, e.scoring.SentimentMaxChars))
	if err != nil {
		return nil, fmt.Errorf("sentiment check: %w", err)
	}
	if sentiment.Label == models.SentimentNegative && sentiment.Confidence > e.scoring.SentimentCutoff {
		score -= e.scoring.SentimentPenalty
		findings = append(findings, findingManipulative)
	}

	score = clamp(score, 0, e.scoring.MaxScore)
	status, color := e.classify(score)

	e.log.Info("claim evaluated",
		slog.Int("score", score),
		slog.String("status", string(status)),
		slog.Int("matched_sources", len(matched)),
		slog.Int("strong_sources", len(strong)),
	)

	return &models.Verdict{
		Score:    score,
		Status:   status,
		Color:    color,
		Findings: findings,
	}, nil
}

// matchSources returns the names of sources with at least one recent headline
// matching the claim, in source configuration order. A match needs both
// embedding similarity above the threshold and enough shared core terms.
func (e *Evaluator) matchSources(ctx context.Context, claim string) ([]string, error) {
	headlines := e.corpus.Recent(ctx)
	if len(headlines) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(headlines)+1)
	texts = append(texts, claim)
	for _, h := range headlines {
		texts = append(texts, h.Title)
	}

	vecs, err := e.ai.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed claim against %d headlines: %w", len(headlines), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("model returned %d vectors for %d texts", len(vecs), len(texts))
	}

	terms := lexical.CoreTerms(claim, e.keywords.Stopwords, e.scoring.MinTermLength)
	claimVec := vecs[0]

	var matched []string
	seen := make(map[string]struct{})
	for i, h := range headlines {
		sim := inference.Cosine(claimVec, vecs[i+1])
		if sim <= e.scoring.SimilarityThreshold {
			continue
		}
		if lexical.TermOverlap(terms, h.Title) < e.scoring.MinTermOverlap {
			continue
		}
		if _, dup := seen[h.Source]; dup {
			continue
		}
		seen[h.Source] = struct{}{}
		matched = append(matched, h.Source)

		e.log.Debug("headline matched claim",
			slog.String("source", h.Source),
			slog.String("title", h.Title),
			slog.Float64("similarity", sim),
		)
	}

	return matched, nil
}

// strongSources keeps only matched sources carrying positive trust weight.
// Aggregators can match but never confirm.
func (e *Evaluator) strongSources(matched []string) []string {
	var strong []string
	for _, name := range matched {
		if e.weights[name] > 0 {
			strong = append(strong, name)
		}
	}
	return strong
}

func (e *Evaluator) classify(score int) (models.Status, models.ColorTier) {
	switch {
	case score >= e.scoring.LikelyTrueMin:
		return models.StatusLikelyTrue, models.ColorHigh
	case score >= e.scoring.UnverifiedMin:
		return models.StatusUnverified, models.ColorMedium
	default:
		return models.StatusLikelyFalse, models.ColorLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
