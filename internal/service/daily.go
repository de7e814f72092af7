// Package service wires collection, research, ranking and persistence into
// the once-daily run.
package service

import (
	"context"
	"log/slog"
	"time"

	"insightd/internal/embedding"
	"insightd/internal/enrich"
	"insightd/internal/metrics"
	"insightd/internal/models"
	"insightd/internal/pipeline"
	"insightd/internal/ranker"
)

// InsightWriter is the slice of the store the daily run writes to.
type InsightWriter interface {
	StoreSignal(ctx context.Context, sig models.Signal) (string, error)
	StoreInsight(ctx context.Context, ins *models.Insight) (string, error)
	StoreEmbedding(ctx context.Context, id string, vector []float32) error
}

// Options tunes a daily run.
type Options struct {
	// TopK insights survive ranking to persistence.
	TopK int
	// MinSamples gates ranker training.
	MinSamples int
}

// Summary reports what a daily run did.
type Summary struct {
	Signals         int
	Insights        int
	Stored          int
	FailedSignals   int
	PersistFailures int
	RankerTrained   bool

	// Top holds the persisted insights, best first.
	Top []*models.Insight

	// Records holds every signal's audit trail in batch order.
	Records []*models.ResearchRecord

	Elapsed time.Duration
}

// Daily runs the complete research day: collect signals, drive the pipeline,
// train and apply the ranker, persist the top insights with embeddings.
type Daily struct {
	collector enrich.Collector
	batch     *pipeline.Batch
	ranker    *ranker.Ranker
	embedder  embedding.Embedder
	writer    InsightWriter
	collect   *metrics.Collector
	logger    *slog.Logger
}

// NewDaily assembles the daily run. embedder may be nil to skip embeddings;
// collect may be nil to skip metrics.
func NewDaily(
	collector enrich.Collector,
	batch *pipeline.Batch,
	rk *ranker.Ranker,
	embedder embedding.Embedder,
	writer InsightWriter,
	collect *metrics.Collector,
	logger *slog.Logger,
) *Daily {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daily{
		collector: collector,
		batch:     batch,
		ranker:    rk,
		embedder:  embedder,
		writer:    writer,
		collect:   collect,
		logger:    logger,
	}
}

// Run executes one daily cycle. Persistence failures are warnings, not
// errors: an insight that fails to store is counted and logged but does
// not abort the run.
func (d *Daily) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	signals, err := d.collector.CollectDailySignals(ctx)
	if err != nil {
		return nil, err
	}
	d.logger.Info("signals collected", "count", len(signals))

	for _, sig := range signals {
		if _, err := d.storeSignal(ctx, sig); err != nil {
			d.logger.Warn("signal not persisted",
				"symbol", sig.Symbol(), "error", err)
		}
	}

	result := d.batch.Run(ctx, signals)

	// Training must finish (or be explicitly skipped) before any insight
	// is scored. A store failure here downgrades to raw-score ranking.
	trained, err := d.ranker.Train(ctx, opts.MinSamples)
	if err != nil {
		d.logger.Warn("ranker training skipped", "error", err)
	}

	top := d.ranker.Rank(result.Insights, opts.TopK)

	summary := &Summary{
		Signals:       len(signals),
		Insights:      len(result.Insights),
		FailedSignals: result.Failed,
		RankerTrained: trained,
		Top:           top,
		Records:       result.Records,
	}

	for _, ins := range top {
		if err := d.persist(ctx, ins); err != nil {
			summary.PersistFailures++
			if d.collect != nil {
				d.collect.RecordPersistFailure()
			}
			d.logger.Warn("insight not persisted",
				"headline", ins.Headline,
				"symbol", ins.CompanySymbol,
				"error", err)
			continue
		}
		summary.Stored++
	}

	summary.Elapsed = time.Since(start)
	d.logger.Info("daily run complete",
		"signals", summary.Signals,
		"insights", summary.Insights,
		"stored", summary.Stored,
		"failed_signals", summary.FailedSignals,
		"persist_failures", summary.PersistFailures,
		"ranker_trained", summary.RankerTrained,
		"elapsed", summary.Elapsed)

	return summary, nil
}

func (d *Daily) storeSignal(ctx context.Context, sig models.Signal) (string, error) {
	start := time.Now()
	id, err := d.writer.StoreSignal(ctx, sig)
	if d.collect != nil {
		d.collect.RecordTiming(metrics.OpStoreWrite, time.Since(start))
	}
	return id, err
}

// persist stores one insight and, when an embedder is wired, its vector.
func (d *Daily) persist(ctx context.Context, ins *models.Insight) error {
	writeStart := time.Now()
	id, err := d.writer.StoreInsight(ctx, ins)
	if d.collect != nil {
		d.collect.RecordTiming(metrics.OpStoreWrite, time.Since(writeStart))
	}
	if err != nil {
		return err
	}

	if d.embedder == nil {
		return nil
	}

	embedStart := time.Now()
	vec, err := d.embedder.Embed(ctx, ins.EmbeddingText())
	if d.collect != nil {
		d.collect.RecordTiming(metrics.OpEmbedding, time.Since(embedStart))
	}
	if err != nil {
		return err
	}

	return d.writer.StoreEmbedding(ctx, id, vec)
}
