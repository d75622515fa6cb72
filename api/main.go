package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tanmay877/FactShield/internal/config"
	"github.com/tanmay877/FactShield/internal/corpus"
	"github.com/tanmay877/FactShield/internal/evaluator"
	"github.com/tanmay877/FactShield/internal/inference"
	"github.com/tanmay877/FactShield/internal/logger"
	"github.com/tanmay877/FactShield/internal/models"
)

const maxClaimBytes = 64 << 10

func main() {
	log := logger.New("api")
	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ai, err := inference.New(cfg.InferenceAddr, cfg.InferenceTimeout, log)
	if err != nil {
		log.Error("init inference client", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Model servers load weights slowly on cold start. Wait a bounded while,
	// then serve regardless; /health keeps reporting the truth.
	warmup(ctx, log, ai)

	feeds := corpus.NewProvider(cfg.Corpus, log)
	eval := evaluator.New(cfg, feeds, ai, log)

	srv := &server{log: log, cfg: cfg, eval: eval, health: ai}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Post("/check", srv.handleCheck)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.CheckTimeout + 5*time.Second,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

func warmup(ctx context.Context, log *slog.Logger, ai *inference.Client) {
	const maxAttempts = 5
	retryDelay := 2 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := ai.Health(pingCtx)
		cancel()
		if err == nil {
			log.Info("model server ready", slog.Int("attempt", attempt))
			return
		}
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		log.Warn("model server not ready, retrying",
			slog.Any("err", err),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return
		}
		retryDelay *= 2
		if retryDelay > 15*time.Second {
			retryDelay = 15 * time.Second
		}
	}

	log.Warn("model server still unreachable, serving anyway")
}

type claimEvaluator interface {
	Evaluate(ctx context.Context, claim string) (*models.Verdict, error)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

type server struct {
	log    *slog.Logger
	cfg    *config.Service
	eval   claimEvaluator
	health healthChecker
}

type checkRequest struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CheckTimeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxClaimBytes)
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "content is required"})
		return
	}

	evalID := uuid.NewString()
	start := time.Now()

	verdict, err := s.eval.Evaluate(ctx, req.Content)
	if err != nil {
		s.log.Error("evaluation failed",
			slog.String("eval_id", evalID),
			slog.Any("err", err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "evaluation failed"})
		return
	}

	s.log.Info("check completed",
		slog.String("eval_id", evalID),
		slog.Int("claim_len", len(req.Content)),
		slog.Int("score", verdict.Score),
		slog.String("status", string(verdict.Status)),
		slog.Duration("took", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, verdict)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
