// Package rag composes the query-time pipeline: embed a question, search
// the published complaint index, build a bounded grounded prompt, and call
// the generation model. It is the facade consumed by the UI and evaluation
// collaborators.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/CrediTrust/complaint-insights/engine/domain"
	"github.com/CrediTrust/complaint-insights/engine/semantic"
	"github.com/CrediTrust/complaint-insights/pkg/resilience"
)

// Embedder embeds a query string into the index's vector space.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a rendered prompt.
type Generator interface {
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher is the query-side contract of the vector store.
type Searcher interface {
	Open(ctx context.Context) (*semantic.Manifest, error)
	Search(ctx context.Context, embedding []float32, topK int) ([]semantic.SearchResult, error)
}

// Options configures the query pipeline.
type Options struct {
	// TopK is the number of chunks retrieved per question.
	TopK int
	// MaxContextChars bounds the rendered context block. Lowest-ranked
	// chunks are dropped first when the budget is exceeded.
	MaxContextChars int
	// SearchTimeout bounds one similarity search call.
	SearchTimeout time.Duration
}

// DefaultOptions returns the standard query parameters.
func DefaultOptions() Options {
	return Options{
		TopK:            5,
		MaxContextChars: 6000,
		SearchTimeout:   10 * time.Second,
	}
}

// Source is one retrieved chunk with the metadata shown to users.
type Source struct {
	Text        string  `json:"text"`
	Category    string  `json:"category"`
	ComplaintID string  `json:"complaint_id"`
	Company     string  `json:"company"`
	State       string  `json:"state"`
	Date        string  `json:"date"`
	Score       float32 `json:"score"`
}

// Answer is a generated answer plus the retrieval that grounded it.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Initialization states for the lazily loaded index handle.
type initState int

const (
	stateUnloaded initState = iota
	stateReady
	stateFailed
)

// Service is the pipeline facade. Construct once and share: the index
// handle is loaded on first use and cached for the lifetime of the
// instance. A failed load is sticky; reconstruct the Service to retry.
type Service struct {
	embed   Embedder
	store   Searcher
	gen     Generator
	opts    Options
	breaker *resilience.Breaker
	logger  *slog.Logger

	mu       sync.Mutex
	state    initState
	initErr  error
	manifest *semantic.Manifest
}

// New creates a Service. Nothing heavyweight happens until the first call.
func New(embed Embedder, store Searcher, gen Generator, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK < 1 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = DefaultOptions().MaxContextChars
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultOptions().SearchTimeout
	}
	return &Service{
		embed:   embed,
		store:   store,
		gen:     gen,
		opts:    opts,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:  logger,
	}
}

// Manifest returns the manifest of the opened index, or nil before first use.
func (s *Service) Manifest() *semantic.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// ensureReady opens and validates the index on first use. Ready is cached;
// Failed is cached too and surfaces the original cause on every call.
func (s *Service) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateReady:
		return nil
	case stateFailed:
		return fmt.Errorf("rag: initialization failed, reconstruct the service to retry: %w", s.initErr)
	}

	manifest, err := s.store.Open(ctx)
	if err != nil {
		s.state = stateFailed
		s.initErr = err
		return fmt.Errorf("rag: open index: %w", err)
	}

	if manifest.EmbedModel != s.embed.Model() {
		err := fmt.Errorf("index built with %q but querying with %q: %w",
			manifest.EmbedModel, s.embed.Model(), domain.ErrModelMismatch)
		s.state = stateFailed
		s.initErr = err
		return fmt.Errorf("rag: %w", err)
	}

	s.logger.Info("index opened",
		"model", manifest.EmbedModel,
		"dims", manifest.Dimensions,
		"chunks", manifest.Chunks,
	)
	s.manifest = manifest
	s.state = stateReady
	return nil
}

// RetrieveOnly returns the top-K most similar chunks for a question, in
// descending similarity order, without generation. Used for source display.
func (s *Service) RetrieveOnly(ctx context.Context, question string) ([]Source, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}

	embedding, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("rag: embed question: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	results, err := s.store.Search(searchCtx, embedding, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}

	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{
			Text:        r.Content,
			Category:    r.Category,
			ComplaintID: r.ComplaintID,
			Company:     r.Company,
			State:       r.State,
			Date:        r.Date,
			Score:       r.Score,
		}
	}
	return sources, nil
}

// QueryWithSources runs retrieve-then-answer in a single retrieval pass and
// returns the answer together with the chunks that grounded it.
func (s *Service) QueryWithSources(ctx context.Context, question string) (*Answer, error) {
	sources, err := s.RetrieveOnly(ctx, question)
	if err != nil {
		return nil, err
	}
	text, err := s.answer(ctx, question, sources)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Sources: sources}, nil
}

// Query runs the full pipeline and always returns a user-safe string: any
// retrieval or generation failure is logged and mapped to a fixed error
// sentence, never propagated.
func (s *Service) Query(ctx context.Context, question string) string {
	answer, err := s.QueryWithSources(ctx, question)
	if err != nil {
		s.logger.Error("query failed",
			"stage", failureStage(err),
			"embed_model", s.embed.Model(),
			"gen_model", s.gen.Model(),
			"error", err,
		)
		return SafeErrorAnswer
	}
	return answer.Text
}

// failureStage classifies an error for diagnostics.
func failureStage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "open index"):
		return "init"
	case strings.Contains(msg, "embed"):
		return "embed"
	case strings.Contains(msg, "search"):
		return "search"
	case strings.Contains(msg, "generate"):
		return "generate"
	default:
		return "unknown"
	}
}
