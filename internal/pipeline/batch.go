package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"insightd/internal/models"
)

// ProgressFunc is invoked after each signal's run finishes, successfully
// or not. done counts completed signals including the current one.
type ProgressFunc func(done, total int, symbol string)

// Result collects the outcome of one batch run.
type Result struct {
	// RunID identifies this batch in logs.
	RunID string

	// Records holds every signal's record in batch order, including
	// dropped and failed ones. The path audit trail lives here.
	Records []*models.ResearchRecord

	// Insights holds the terminal insights that cleared the score
	// threshold, in batch order, before any quality ranking is applied.
	// Sub-threshold insights stay on their record only.
	Insights []*models.Insight

	// Failed counts signals aborted by a hard stage failure.
	Failed int
}

// Batch runs the engine over a set of signals sequentially. One signal's
// failure never aborts the batch: the record is kept, the failure counted,
// and the next signal starts.
type Batch struct {
	engine   *Engine
	logger   *slog.Logger
	progress ProgressFunc
}

// NewBatch creates a batch runner around an engine. progress may be nil.
func NewBatch(engine *Engine, logger *slog.Logger, progress ProgressFunc) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{engine: engine, logger: logger, progress: progress}
}

// Run processes the signals in order and returns all records plus the
// insights that reached synthesis and cleared the score threshold.
func (b *Batch) Run(ctx context.Context, signals []models.Signal) Result {
	result := Result{
		RunID:   uuid.New().String()[:8], // short ID for log grepping
		Records: make([]*models.ResearchRecord, 0, len(signals)),
	}
	logger := b.logger.With("run", result.RunID)

	for i, sig := range signals {
		rec, err := b.engine.Run(ctx, sig)
		result.Records = append(result.Records, rec)

		switch {
		case err != nil:
			result.Failed++
		case rec.FinalInsight != nil && rec.PassesThreshold:
			result.Insights = append(result.Insights, rec.FinalInsight)
		}

		if b.progress != nil {
			b.progress(i+1, len(signals), sig.Symbol())
		}
	}

	logger.Info("batch complete",
		"signals", len(signals),
		"insights", len(result.Insights),
		"failed", result.Failed)

	return result
}
