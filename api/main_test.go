package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tanmay877/FactShield/internal/config"
	"github.com/tanmay877/FactShield/internal/models"
)

type stubEvaluator struct {
	verdict *models.Verdict
	err     error
	claim   string
}

func (s *stubEvaluator) Evaluate(ctx context.Context, claim string) (*models.Verdict, error) {
	s.claim = claim
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

type stubHealth struct{ err error }

func (s *stubHealth) Health(ctx context.Context) error { return s.err }

func newTestServer(eval *stubEvaluator, health *stubHealth) *server {
	return &server{
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:    &config.Service{CheckTimeout: time.Second},
		eval:   eval,
		health: health,
	}
}

func TestHandleCheck(t *testing.T) {
	eval := &stubEvaluator{verdict: &models.Verdict{
		Score:    95,
		Status:   models.StatusLikelyTrue,
		Color:    models.ColorHigh,
		Findings: []string{"Confirmed by multiple trusted sources: BBC News, The Indian Express"},
	}}
	srv := newTestServer(eval, &stubHealth{})

	req := httptest.NewRequest(http.MethodPost, "/check",
		strings.NewReader(`{"content": "Government announced flood relief package"}`))
	rec := httptest.NewRecorder()
	srv.handleCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Government announced flood relief package", eval.claim,
		"handler passes the raw claim through, normalization happens downstream")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(95), body["score"])
	require.Equal(t, "Likely True", body["status"])
	require.Equal(t, "high", body["color"])
	require.Equal(t,
		[]any{"Confirmed by multiple trusted sources: BBC News, The Indian Express"},
		body["findings"])
}

func TestHandleCheckRejectsMissingContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "blank content", body: `{"content": "   "}`},
		{name: "wrong field", body: `{"text": "something happened"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubEvaluator{}, &stubHealth{})

			req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.handleCheck(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), "content is required")
		})
	}
}

func TestHandleCheckRejectsOversizedBody(t *testing.T) {
	srv := newTestServer(&stubEvaluator{}, &stubHealth{})

	huge := `{"content": "announced ` + strings.Repeat("a", maxClaimBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(huge))
	rec := httptest.NewRecorder()
	srv.handleCheck(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheckRejectsInvalidJSON(t *testing.T) {
	srv := newTestServer(&stubEvaluator{}, &stubHealth{})

	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	srv.handleCheck(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestHandleCheckEvaluatorFailure(t *testing.T) {
	eval := &stubEvaluator{err: errors.New("model server down: connection refused")}
	srv := newTestServer(eval, &stubHealth{})

	req := httptest.NewRequest(http.MethodPost, "/check",
		strings.NewReader(`{"content": "officials announced relief"}`))
	rec := httptest.NewRecorder()
	srv.handleCheck(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "evaluation failed")
	require.NotContains(t, rec.Body.String(), "connection refused",
		"internal errors stay out of responses")
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := newTestServer(&stubEvaluator{}, &stubHealth{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.handleHealth(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
	})

	t.Run("model server down", func(t *testing.T) {
		srv := newTestServer(&stubEvaluator{}, &stubHealth{err: errors.New("model server unhealthy: 503")})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.handleHealth(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
