// Package main implements the complaint-insights API server. It exposes the
// retrieval-augmented query pipeline over JSON for the chat UI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CrediTrust/complaint-insights/engine/domain"
	"github.com/CrediTrust/complaint-insights/engine/rag"
	"github.com/CrediTrust/complaint-insights/engine/semantic"
	"github.com/CrediTrust/complaint-insights/pkg/config"
	"github.com/CrediTrust/complaint-insights/pkg/metrics"
	"github.com/CrediTrust/complaint-insights/pkg/mid"
	"github.com/CrediTrust/complaint-insights/pkg/ollama"
)

const snippetLen = 200

var met = metrics.New()

var (
	mQueries      = met.Counter("creditrust_api_queries_total", "Questions answered")
	mQueryErrors  = met.Counter("creditrust_api_query_errors_total", "Queries that hit the safe error path")
	mRetrievals   = met.Counter("creditrust_api_retrievals_total", "Retrieve-only calls")
	mQueryDur     = met.Histogram("creditrust_api_query_duration_seconds", "Full query latency", nil)
	mRetrievalDur = met.Histogram("creditrust_api_retrieval_duration_seconds", "Retrieval latency", nil)
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Alias)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder := ollama.NewEmbedClient(cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel).
		WithTimeout(cfg.Ollama.Timeout())
	generator := ollama.NewGenerateClient(cfg.Ollama.BaseURL, cfg.Ollama.GenModel).
		WithTimeout(cfg.Ollama.Timeout())

	ragSvc := rag.New(embedder, store, generator, rag.Options{
		TopK:            cfg.Query.TopK,
		MaxContextChars: cfg.Query.MaxContextChars,
		SearchTimeout:   cfg.Query.SearchTimeout(),
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth(ragSvc))
	mux.HandleFunc("POST /api/query", handleQuery(ragSvc))
	mux.HandleFunc("POST /api/retrieve", handleRetrieve(ragSvc, logger))
	mux.Handle("GET /metrics", met.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.HTTP.CORSOrigin),
		mid.OTel("complaint-insights-api"),
	)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

// HealthResponse reports service liveness and, once the index has been
// opened, what it was built with.
type HealthResponse struct {
	Status     string `json:"status"`
	EmbedModel string `json:"embed_model,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
}

func handleHealth(ragSvc *rag.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if m := ragSvc.Manifest(); m != nil {
			resp.EmbedModel = m.EmbedModel
			resp.Chunks = m.Chunks
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// QueryRequest is the JSON body for POST /api/query and POST /api/retrieve.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the JSON response for POST /api/query.
type QueryResponse struct {
	Answer  string       `json:"answer"`
	Sources []rag.Source `json:"sources"`
}

func handleQuery(ragSvc *rag.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuestion(w, r)
		if !ok {
			return
		}

		start := time.Now()
		mQueries.Inc()

		answer, err := ragSvc.QueryWithSources(r.Context(), req.Question)
		mQueryDur.Since(start)
		if err != nil {
			// Query semantics at the HTTP boundary: the client always
			// receives a well-formed answer body.
			mQueryErrors.Inc()
			writeJSON(w, http.StatusOK, QueryResponse{Answer: rag.SafeErrorAnswer})
			return
		}

		writeJSON(w, http.StatusOK, QueryResponse{Answer: answer.Text, Sources: answer.Sources})
	}
}

// Snippet is a truncated source for the retrieval inspector.
type Snippet struct {
	Text        string  `json:"text"`
	Category    string  `json:"category"`
	ComplaintID string  `json:"complaint_id"`
	Company     string  `json:"company,omitempty"`
	State       string  `json:"state,omitempty"`
	Date        string  `json:"date,omitempty"`
	Score       float32 `json:"score"`
}

// RetrieveResponse is the JSON response for POST /api/retrieve.
type RetrieveResponse struct {
	Sources []Snippet `json:"sources"`
}

func handleRetrieve(ragSvc *rag.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuestion(w, r)
		if !ok {
			return
		}

		start := time.Now()
		mRetrievals.Inc()

		sources, err := ragSvc.RetrieveOnly(r.Context(), req.Question)
		mRetrievalDur.Since(start)
		if err != nil {
			logger.Error("retrieve failed", "err", err)
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrIndexUnavailable) {
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, map[string]string{"error": "retrieval failed"})
			return
		}

		snippets := make([]Snippet, len(sources))
		for i, s := range sources {
			snippets[i] = Snippet{
				Text:        truncate(s.Text, snippetLen),
				Category:    s.Category,
				ComplaintID: s.ComplaintID,
				Company:     s.Company,
				State:       s.State,
				Date:        s.Date,
				Score:       s.Score,
			}
		}
		writeJSON(w, http.StatusOK, RetrieveResponse{Sources: snippets})
	}
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (QueryRequest, bool) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
