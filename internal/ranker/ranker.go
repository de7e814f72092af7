package ranker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"insightd/internal/metrics"
	"insightd/internal/models"
)

// DefaultMinSamples is the fewest labeled feedback pairs required before
// training replaces the raw-score fallback.
const DefaultMinSamples = 20

// FeedbackSource supplies the full labeled feedback history.
type FeedbackSource interface {
	ListFeedbackPairs(ctx context.Context) ([]models.FeedbackPair, error)
}

// Ranker predicts how likely an insight is to be rated 4 stars or better.
// Retrained from scratch on every invocation; holds no state across runs.
type Ranker struct {
	source  FeedbackSource
	model   logistic
	trained bool
	collect *metrics.Collector
	logger  *slog.Logger
}

// Option configures optional ranker collaborators.
type Option func(*Ranker)

// WithMetrics records feedback read timings on the collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Ranker) { r.collect = c }
}

// NewRanker creates a ranker over a feedback source.
func NewRanker(source FeedbackSource, logger *slog.Logger, opts ...Option) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Ranker{source: source, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Train fits the model on the feedback history. Returns false without
// touching prior behavior when fewer than minSamples labeled pairs exist;
// an error only when the source itself fails.
func (r *Ranker) Train(ctx context.Context, minSamples int) (bool, error) {
	start := time.Now()
	pairs, err := r.source.ListFeedbackPairs(ctx)
	if r.collect != nil {
		r.collect.RecordTiming(metrics.OpStoreRead, time.Since(start))
	}
	if err != nil {
		return false, err
	}

	var (
		x []([featureCount]float64)
		y []float64
	)
	for _, pair := range pairs {
		if pair.StarRating < 1 {
			continue
		}
		x = append(x, extractFeatures(&pair.Insight))
		if pair.StarRating >= 4 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	if len(x) < minSamples {
		r.logger.Info("not enough feedback to train, using raw scores",
			"samples", len(x),
			"min_samples", minSamples)
		return false, nil
	}

	r.model.fit(x, y)
	r.trained = true

	weights := make(map[string]float64, featureCount)
	for i, name := range featureNames {
		weights[name] = r.model.weights[i]
	}
	r.logger.Info("ranker trained", "samples", len(x), "weights", weights)

	return true, nil
}

// PredictQuality returns a value in [0,1]. Untrained it falls back to
// rawScore/10 so callers never need to special-case the cold start.
func (r *Ranker) PredictQuality(ins *models.Insight) float64 {
	if !r.trained {
		score := ins.Score
		if score == 0 {
			score = 5.0
		}
		return clamp01(score / 10.0)
	}
	return clamp01(r.model.predictProba(extractFeatures(ins)))
}

// Rank attaches predicted quality to every insight, sorts descending and
// returns the top-K. The input slice is not modified; ties keep batch order.
func (r *Ranker) Rank(insights []*models.Insight, topK int) []*models.Insight {
	ranked := make([]*models.Insight, len(insights))
	copy(ranked, insights)

	for _, ins := range ranked {
		ins.PredictedQuality = r.PredictQuality(ins)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PredictedQuality > ranked[j].PredictedQuality
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
