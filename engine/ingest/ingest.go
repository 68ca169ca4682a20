// Package ingest implements the one-shot batch pipeline that turns raw
// complaint rows into a published vector index: normalize, sample, chunk,
// embed, store, publish. The index is rebuilt wholesale; there are no
// incremental updates.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CrediTrust/complaint-insights/engine/domain"
	"github.com/CrediTrust/complaint-insights/engine/semantic"
	"github.com/CrediTrust/complaint-insights/pkg/fn"
	"github.com/google/uuid"
)

const (
	// DefaultBatchSize is the number of chunks per embed/upsert batch.
	DefaultBatchSize = 100
	// DefaultWorkers bounds concurrent embed batches.
	DefaultWorkers = 4
)

// Embedder turns chunk texts into dense vectors.
type Embedder interface {
	Model() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexStore is the build-side contract of the vector store: stage, fill,
// seal with a manifest, publish atomically.
type IndexStore interface {
	CreateStaging(ctx context.Context, dims int) (string, error)
	Upsert(ctx context.Context, collection string, records []semantic.VectorRecord) error
	WriteManifest(ctx context.Context, collection string, m semantic.Manifest) error
	Publish(ctx context.Context, staging string) error
	DropStaging(ctx context.Context, staging string) error
}

// BuildOptions configures an index build.
type BuildOptions struct {
	Split      SplitOptions
	Dimensions int
	BatchSize  int
	Workers    int
	Retry      fn.RetryOpts
}

// DefaultBuildOptions returns the standard build parameters for the
// nomic-embed-text embedding space.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Split:      DefaultSplitOptions(),
		Dimensions: 768,
		BatchSize:  DefaultBatchSize,
		Workers:    DefaultWorkers,
		Retry:      fn.DefaultRetry,
	}
}

// Builder runs full index rebuilds.
type Builder struct {
	embedder Embedder
	store    IndexStore
	opts     BuildOptions
	logger   *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(embedder Embedder, store IndexStore, opts BuildOptions, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Builder{embedder: embedder, store: store, opts: opts, logger: logger}
}

// Build embeds and stores every chunk of the given complaints into a fresh
// staging collection, then publishes it. Any embedding or store failure
// aborts the whole build and discards the staging collection; the previously
// published index is never touched until the new one is complete.
func (b *Builder) Build(ctx context.Context, complaints []domain.Complaint) (*semantic.Manifest, error) {
	if err := b.opts.Split.Validate(); err != nil {
		return nil, err
	}

	chunks := ChunkComplaints(complaints, b.opts.Split)
	b.logger.Info("build start",
		"records", len(complaints),
		"chunks", len(chunks),
		"model", b.embedder.Model(),
	)

	staging, err := b.store.CreateStaging(ctx, b.opts.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("ingest: create staging: %w", err)
	}

	embed := fn.TracedStage("ingest.embed_batch",
		fn.RetryStage(b.opts.Retry, b.embedStage()))
	store := fn.TracedStage("ingest.store_batch", b.storeStage(staging))
	progress := fn.TapStage(func(_ context.Context, n int) {
		b.logger.Debug("batch stored", "chunks", n)
	})
	batchStage := fn.Then(fn.Then(embed, store), progress)

	batches := fn.Chunk(chunks, b.opts.BatchSize)
	results := fn.ParMapResult(batches, b.opts.Workers, func(batch []Chunk) fn.Result[int] {
		return batchStage(ctx, batch)
	})
	if r := fn.Collect(results); r.IsErr() {
		_, err := r.Unwrap()
		b.abort(ctx, staging)
		return nil, fmt.Errorf("ingest: build aborted: %w", err)
	}

	manifest := semantic.Manifest{
		EmbedModel:  b.embedder.Model(),
		Dimensions:  b.opts.Dimensions,
		Records:     len(complaints),
		Chunks:      len(chunks),
		PerCategory: categoryCounts(complaints),
		BuiltAt:     time.Now().UTC(),
	}
	if err := b.store.WriteManifest(ctx, staging, manifest); err != nil {
		b.abort(ctx, staging)
		return nil, fmt.Errorf("ingest: write manifest: %w", err)
	}

	if err := b.store.Publish(ctx, staging); err != nil {
		b.abort(ctx, staging)
		return nil, fmt.Errorf("ingest: publish: %w", err)
	}

	b.logger.Info("build published", "staging", staging, "chunks", len(chunks))
	return &manifest, nil
}

// embedStage embeds one batch of chunks and pairs vectors with metadata.
// A vector of the wrong dimensionality fails the batch: it means the
// configured embedding model does not match the index configuration.
func (b *Builder) embedStage() fn.Stage[[]Chunk, []semantic.VectorRecord] {
	return func(ctx context.Context, batch []Chunk) fn.Result[[]semantic.VectorRecord] {
		texts := fn.Map(batch, func(c Chunk) string { return c.Text })
		embeddings, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fn.Err[[]semantic.VectorRecord](fmt.Errorf("embed batch: %w", err))
		}
		if len(embeddings) != len(batch) {
			return fn.Errf[[]semantic.VectorRecord]("embed batch: got %d vectors for %d chunks", len(embeddings), len(batch))
		}

		records := make([]semantic.VectorRecord, len(batch))
		for i, chunk := range batch {
			if len(embeddings[i]) != b.opts.Dimensions {
				return fn.Err[[]semantic.VectorRecord](fmt.Errorf(
					"embed batch: model %q returned %d dimensions, index expects %d: %w",
					b.embedder.Model(), len(embeddings[i]), b.opts.Dimensions, domain.ErrModelMismatch))
			}
			records[i] = semantic.VectorRecord{
				ID:        chunkPointID(chunk),
				Embedding: embeddings[i],
				Payload: map[string]any{
					"content":      chunk.Text,
					"complaint_id": chunk.Parent.ComplaintID,
					"category":     string(chunk.Parent.Category),
					"company":      chunk.Parent.Company,
					"state":        chunk.Parent.State,
					"date":         chunk.Parent.DateReceived,
					"chunk_index":  chunk.Index,
				},
			}
		}
		return fn.Ok(records)
	}
}

func (b *Builder) storeStage(staging string) fn.Stage[[]semantic.VectorRecord, int] {
	return func(ctx context.Context, records []semantic.VectorRecord) fn.Result[int] {
		if err := b.store.Upsert(ctx, staging, records); err != nil {
			return fn.Err[int](fmt.Errorf("store batch: %w", err))
		}
		return fn.Ok(len(records))
	}
}

func (b *Builder) abort(ctx context.Context, staging string) {
	if err := b.store.DropStaging(ctx, staging); err != nil {
		b.logger.Warn("drop staging failed", "staging", staging, "error", err)
	}
}

// chunkPointID derives a stable point UUID from the chunk's identity, so
// rebuilding the same input yields the same IDs.
func chunkPointID(c Chunk) string {
	key := fmt.Sprintf("%s|%d|%d", c.Parent.ComplaintID, c.Record, c.Index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func categoryCounts(complaints []domain.Complaint) map[string]int {
	counts := make(map[string]int)
	for _, c := range complaints {
		counts[string(c.Category)]++
	}
	return counts
}
