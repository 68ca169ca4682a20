// Command ingest rebuilds the complaint vector index from a CFPB CSV export:
// load, normalize, sample, chunk, embed, and publish in one shot. The
// previously published index stays live until the new one is complete.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CrediTrust/complaint-insights/engine/ingest"
	"github.com/CrediTrust/complaint-insights/engine/semantic"
	"github.com/CrediTrust/complaint-insights/pkg/config"
	"github.com/CrediTrust/complaint-insights/pkg/metrics"
	"github.com/CrediTrust/complaint-insights/pkg/ollama"
)

var met = metrics.New()

var (
	mRowsTotal    = met.Counter("creditrust_ingest_rows_total", "CSV rows read")
	mRecordsKept  = met.Counter("creditrust_ingest_records_kept_total", "Records surviving normalization")
	mDropped      = func(reason string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("creditrust_ingest_records_dropped_total", "reason", reason), "Records excluded during normalization")
	}
	mPerCategory = func(category string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("creditrust_ingest_records_total", "category", category), "Kept records per category")
	}
	mSampled  = met.Counter("creditrust_ingest_records_sampled_total", "Records selected by stratified sampling")
	mChunks   = met.Gauge("creditrust_ingest_index_chunks", "Chunks in the published index")
	mBuildDur = met.Gauge("creditrust_ingest_build_duration_seconds", "Wall time of the last build")
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		csvPath    = flag.String("csv", "", "complaints CSV (overrides config)")
		sampleSize = flag.Int("sample", 0, "stratified sample size, 0 keeps config value, negative disables sampling")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if *csvPath != "" {
		cfg.Ingest.CSVPath = *csvPath
	}
	if *sampleSize != 0 {
		cfg.Ingest.SampleSize = *sampleSize
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics are scrape-able for the duration of the job.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", met.Handler())
		if err := http.ListenAndServe(cfg.HTTP.MetricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	start := time.Now()

	records, err := ingest.LoadComplaints(cfg.Ingest.CSVPath)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}
	mRowsTotal.Add(int64(len(records)))
	logger.Info("csv loaded", "path", cfg.Ingest.CSVPath, "rows", len(records))

	complaints, stats := ingest.NormalizeRecords(records)
	recordStats(stats)
	logger.Info("normalized",
		"kept", stats.Kept,
		"dropped", stats.DroppedTotal(),
	)

	if cfg.Ingest.SampleSize > 0 && cfg.Ingest.SampleSize < len(complaints) {
		complaints = ingest.StratifiedSample(complaints, cfg.Ingest.SampleSize, cfg.Ingest.Seed)
		logger.Info("sampled", "size", len(complaints), "seed", cfg.Ingest.Seed)
	}
	mSampled.Add(int64(len(complaints)))

	if err := writeSummary(cfg.Ingest.ReportDir, stats, len(complaints)); err != nil {
		// The summary is informational; a broken report dir should not
		// waste the embedding work that follows.
		logger.Warn("eda summary not written", "error", err)
	}

	store, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Alias)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	embedder := ollama.NewEmbedClient(cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel).
		WithTimeout(cfg.Ollama.Timeout())
	if cfg.Ollama.EmbedRatePerSec > 0 {
		embedder = embedder.WithRateLimit(cfg.Ollama.EmbedRatePerSec, cfg.Ingest.BatchSize)
	}

	opts := ingest.DefaultBuildOptions()
	opts.Split.ChunkSize = cfg.Chunker.ChunkSize
	opts.Split.Overlap = cfg.Chunker.Overlap
	opts.Dimensions = cfg.Ingest.Dimensions
	opts.BatchSize = cfg.Ingest.BatchSize
	opts.Workers = cfg.Ingest.Workers

	builder := ingest.NewBuilder(embedder, store, opts, logger)
	manifest, err := builder.Build(ctx, complaints)
	if err != nil {
		return err
	}

	if n, err := store.Count(ctx); err != nil {
		logger.Warn("post-publish count failed", "error", err)
	} else if int(n) != manifest.Chunks {
		logger.Warn("published chunk count differs from manifest", "stored", n, "manifest", manifest.Chunks)
	}

	mChunks.Set(int64(manifest.Chunks))
	mBuildDur.SetFloat(time.Since(start).Seconds())
	logger.Info("index published",
		"alias", cfg.Qdrant.Alias,
		"records", manifest.Records,
		"chunks", manifest.Chunks,
		"model", manifest.EmbedModel,
		"took", time.Since(start).Round(time.Second),
	)
	return nil
}

func recordStats(stats *ingest.Stats) {
	mRecordsKept.Add(int64(stats.Kept))
	for reason, n := range stats.Dropped {
		mDropped(string(reason)).Add(int64(n))
	}
	for cat, n := range stats.PerCategory {
		mPerCategory(string(cat)).Add(int64(n))
	}
}

// writeSummary persists the normalization report next to the evaluation
// outputs so data drift between exports is easy to spot.
func writeSummary(dir string, stats *ingest.Stats, sampled int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "eda_summary.txt")
	body := stats.Report() + fmt.Sprintf("\nSampled for indexing: %d\n", sampled)
	return os.WriteFile(path, []byte(body), 0o644)
}
