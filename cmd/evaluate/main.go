// Command evaluate runs a fixed question set through the query pipeline and
// writes a qualitative evaluation report as a Markdown table: question,
// generated answer, top source snippets, and per-question latency.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CrediTrust/complaint-insights/engine/rag"
	"github.com/CrediTrust/complaint-insights/engine/semantic"
	"github.com/CrediTrust/complaint-insights/pkg/config"
	"github.com/CrediTrust/complaint-insights/pkg/fn"
	"github.com/CrediTrust/complaint-insights/pkg/ollama"
)

// defaultQuestions covers every complaint category plus two cross-cutting
// themes.
var defaultQuestions = []string{
	"What are the common complaints about credit card fees?",
	"Why are customers unhappy with money transfers?",
	"What issues do people face with personal loans?",
	"Are there any recurring problems with savings accounts?",
	"How do customers describe billing disputes?",
	"What are the complaints regarding fraud protection?",
}

// evalRow is one evaluated question.
type evalRow struct {
	Question string
	Answer   string
	Sources  string
	Latency  time.Duration
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		outPath    = flag.String("out", "", "report path (defaults to <report_dir>/rag_evaluation.md)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if *outPath == "" {
		*outPath = filepath.Join(cfg.Ingest.ReportDir, "rag_evaluation.md")
	}

	if err := run(cfg, *outPath, logger); err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, outPath string, logger *slog.Logger) error {
	ctx := context.Background()

	store, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Alias)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	embedder := ollama.NewEmbedClient(cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel).
		WithTimeout(cfg.Ollama.Timeout())
	generator := ollama.NewGenerateClient(cfg.Ollama.BaseURL, cfg.Ollama.GenModel).
		WithTimeout(cfg.Ollama.Timeout())

	svc := rag.New(embedder, store, generator, rag.Options{
		TopK:            cfg.Query.TopK,
		MaxContextChars: cfg.Query.MaxContextChars,
		SearchTimeout:   cfg.Query.SearchTimeout(),
	}, logger)

	rows := make([]evalRow, 0, len(defaultQuestions))
	for i, q := range defaultQuestions {
		logger.Info("evaluating", "question", i+1, "of", len(defaultQuestions))
		rows = append(rows, evaluate(ctx, svc, q))
	}

	report := renderReport(rows, embedder.Model(), generator.Model())
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(report), 0o644); err != nil {
		return err
	}
	logger.Info("report written", "path", outPath)
	return nil
}

// evaluate runs one question end to end. Failures become the pipeline's
// safe answer string so a broken question does not abort the whole report.
func evaluate(ctx context.Context, svc *rag.Service, question string) evalRow {
	start := time.Now()
	answer, err := svc.QueryWithSources(ctx, question)
	elapsed := time.Since(start)

	if err != nil {
		return evalRow{Question: question, Answer: rag.SafeErrorAnswer, Latency: elapsed}
	}

	top := answer.Sources
	if len(top) > 2 {
		top = top[:2]
	}
	labels := fn.Map(top, func(s rag.Source) string {
		return fmt.Sprintf("%s (ID: %s)", s.Category, s.ComplaintID)
	})
	return evalRow{
		Question: question,
		Answer:   answer.Text,
		Sources:  strings.Join(labels, "; "),
		Latency:  elapsed,
	}
}

func renderReport(rows []evalRow, embedModel, genModel string) string {
	var b strings.Builder
	b.WriteString("# RAG System Evaluation\n\n")
	b.WriteString("## Qualitative Evaluation\n")
	fmt.Fprintf(&b, "Test Date: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Model: %s\n", genModel)
	fmt.Fprintf(&b, "Embeddings: %s\n\n", embedModel)

	b.WriteString("| Question | Generated Answer | Source Snippets | Latency (s) |\n")
	b.WriteString("|---|---|---|---|\n")
	var total time.Duration
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f |\n",
			mdEscape(r.Question), mdEscape(r.Answer), mdEscape(r.Sources), r.Latency.Seconds())
		total += r.Latency
	}

	b.WriteString("\n## Analysis\n")
	b.WriteString("- **Relevance**: The model answers are restricted to the context provided.\n")
	if len(rows) > 0 {
		avg := total.Seconds() / float64(len(rows))
		fmt.Fprintf(&b, "- **Latency**: Average response time per query was %.2f seconds.\n", avg)
	}
	return b.String()
}

// mdEscape keeps multi-line answers inside one table cell.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
