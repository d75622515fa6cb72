package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tanmay877/FactShield/internal/models"
)

const (
	embeddingsPath = "/v1/embeddings"
	sentimentPath  = "/v1/sentiment"
	healthPath     = "/health"
)

// Client talks to the model server hosting the sentence-embedding and
// sentiment models. Model failures are fatal for an evaluation; there is no
// meaningful score without these signals.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// New builds a Client for the model server at baseURL.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("inference: empty base url")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}, nil
}

// EmbedBatch returns one embedding vector per input text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := c.post(ctx, embeddingsPath, map[string]any{"texts": texts}, &out); err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed %d texts: server returned %d vectors", len(texts), len(out.Embeddings))
	}
	return out.Embeddings, nil
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Sentiment classifies text as POSITIVE or NEGATIVE with a confidence.
func (c *Client) Sentiment(ctx context.Context, text string) (models.Sentiment, error) {
	var out models.Sentiment
	if err := c.post(ctx, sentimentPath, map[string]any{"text": text}, &out); err != nil {
		return models.Sentiment{}, fmt.Errorf("classify sentiment: %w", err)
	}
	return out, nil
}

// Health checks whether the model server is reachable and ready.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping model server: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("model server unhealthy: %s", res.Status)
	}
	return nil
}

// post sends a JSON request and decodes a JSON response. Transport errors and
// 5xx responses are retried once; client errors are not.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return lastErr
			}
			c.log.Warn("retrying model server request",
				slog.String("path", path),
				slog.Any("err", lastErr),
			)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		retry, err := decodeResponse(res, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return lastErr
		}
	}

	return lastErr
}

func decodeResponse(res *http.Response, out any) (retry bool, err error) {
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		data, _ := io.ReadAll(res.Body)
		return true, fmt.Errorf("model server error: %s: %s", res.Status, strings.TrimSpace(string(data)))
	}
	if res.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("model server rejected request: %s: %s", res.Status, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode model response: %w", err)
	}
	return false, nil
}

// Cosine returns the cosine similarity of two vectors in [-1, 1]. Mismatched
// or zero-magnitude vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
