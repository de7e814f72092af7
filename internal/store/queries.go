package store

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"insightd/internal/models"
)

// Counts summarizes table sizes for the stats command.
type Counts struct {
	Signals  int `json:"signals"`
	Insights int `json:"insights"`
	Feedback int `json:"feedback"`
}

// createdRecord captures just the assigned ID of a CREATE result.
type createdRecord struct {
	ID surrealmodels.RecordID `json:"id"`
}

// StoreSignal persists a raw collected signal and returns its assigned ID.
func (c *Client) StoreSignal(ctx context.Context, sig models.Signal) (string, error) {
	results, err := surrealdb.Query[[]createdRecord](ctx, c.db, `
		CREATE signal CONTENT {
			signal_type: $signal_type,
			source: $source,
			data: $data,
			priority: $priority
		} RETURN id
	`, map[string]any{
		"signal_type": sig.SignalType,
		"source":      sig.Source,
		"data":        sig.Data,
		"priority":    sig.Priority,
	})
	if err != nil {
		return "", fmt.Errorf("store signal: %w", wrapQueryError(err))
	}
	return firstID(results)
}

// StoreInsight persists an insight and returns its store-assigned ID.
// Safe to retry: a duplicate row is acceptable, IDs are store-assigned.
func (c *Client) StoreInsight(ctx context.Context, ins *models.Insight) (string, error) {
	results, err := surrealdb.Query[[]models.Insight](ctx, c.db, `
		CREATE insight CONTENT {
			headline: $headline,
			company_name: $company_name,
			company_symbol: $company_symbol,
			signal_type: $signal_type,
			analysis: $analysis,
			evidence: $evidence,
			interestingness_score: $score,
			metadata: $metadata,
			signal_priority: $signal_priority,
			predicted_quality: $predicted_quality
		}
	`, map[string]any{
		"headline":          ins.Headline,
		"company_name":      ins.CompanyName,
		"company_symbol":    ins.CompanySymbol,
		"signal_type":       ins.SignalType,
		"analysis":          ins.Analysis,
		"evidence":          evidenceOrEmpty(ins.Evidence),
		"score":             ins.Score,
		"metadata":          ins.Metadata,
		"signal_priority":   ins.SignalPriority,
		"predicted_quality": ins.PredictedQuality,
	})
	if err != nil {
		return "", fmt.Errorf("store insight: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("store insight: empty result")
	}

	ins.ID = (*results)[0].Result[0].ID
	return models.RecordIDString(ins.ID)
}

// StoreEmbedding attaches the embedding vector to a stored insight.
func (c *Client) StoreEmbedding(ctx context.Context, id string, vector []float32) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("insight", $id) SET embedding = $emb
	`, map[string]any{"id": id, "emb": vector})
	if err != nil {
		return fmt.Errorf("store embedding: %w", wrapQueryError(err))
	}
	return nil
}

// GetInsight retrieves an insight by ID. Returns nil if not found.
func (c *Client) GetInsight(ctx context.Context, id string) (*models.Insight, error) {
	results, err := surrealdb.Query[[]models.Insight](ctx, c.db, `
		SELECT * FROM type::record("insight", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get insight: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// TodaysInsights lists insights created since midnight, best first.
func (c *Client) TodaysInsights(ctx context.Context) ([]models.Insight, error) {
	results, err := surrealdb.Query[[]models.Insight](ctx, c.db, `
		SELECT * FROM insight
		WHERE created >= time::floor(time::now(), 1d)
		ORDER BY predicted_quality DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("todays insights: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []models.Insight{}, nil
	}
	return (*results)[0].Result, nil
}

// SimilarInsights finds stored insights nearest to the embedding via the
// HNSW index. ef=40 for better recall.
func (c *Client) SimilarInsights(ctx context.Context, embedding []float32, limit int) ([]models.Insight, error) {
	sql := fmt.Sprintf(`
		SELECT * FROM insight WHERE embedding <|%d,40|> $emb
	`, limit)

	results, err := surrealdb.Query[[]models.Insight](ctx, c.db, sql, map[string]any{"emb": embedding})
	if err != nil {
		return nil, fmt.Errorf("similar insights: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []models.Insight{}, nil
	}
	return (*results)[0].Result, nil
}

// StoreFeedback records one star rating for an insight.
func (c *Client) StoreFeedback(ctx context.Context, fb models.Feedback) (string, error) {
	results, err := surrealdb.Query[[]models.Feedback](ctx, c.db, `
		CREATE feedback CONTENT {
			insight_id: $insight_id,
			star_rating: $star_rating,
			tags: $tags,
			comment: $comment
		}
	`, map[string]any{
		"insight_id":  fb.InsightID,
		"star_rating": fb.StarRating,
		"tags":        fb.Tags,
		"comment":     fb.Comment,
	})
	if err != nil {
		return "", fmt.Errorf("store feedback: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("store feedback: empty result")
	}
	return models.RecordIDString((*results)[0].Result[0].ID)
}

// ListFeedbackPairs joins every feedback row with its insight, the ranker's
// training set. Rows whose insight has been deleted are dropped.
func (c *Client) ListFeedbackPairs(ctx context.Context) ([]models.FeedbackPair, error) {
	results, err := surrealdb.Query[[]models.FeedbackPair](ctx, c.db, `
		SELECT star_rating,
			(SELECT * FROM ONLY type::record("insight", $parent.insight_id)) AS insight
		FROM feedback
		WHERE star_rating >= 1
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list feedback pairs: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	pairs := (*results)[0].Result
	kept := pairs[:0]
	for _, pair := range pairs {
		if pair.Insight.Headline != "" {
			kept = append(kept, pair)
		}
	}
	return kept, nil
}

// CountAll returns row counts across the three tables.
func (c *Client) CountAll(ctx context.Context) (Counts, error) {
	results, err := surrealdb.Query[Counts](ctx, c.db, `
		RETURN {
			signals: (SELECT count() FROM signal GROUP ALL)[0].count OR 0,
			insights: (SELECT count() FROM insight GROUP ALL)[0].count OR 0,
			feedback: (SELECT count() FROM feedback GROUP ALL)[0].count OR 0
		}
	`, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("count all: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return Counts{}, nil
	}
	return (*results)[0].Result, nil
}

// firstID pulls the assigned record ID out of a single-CREATE result.
func firstID(results *[]surrealdb.QueryResult[[]createdRecord]) (string, error) {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("create returned empty result")
	}
	return models.RecordIDString((*results)[0].Result[0].ID)
}

func evidenceOrEmpty(evidence []string) []string {
	if evidence == nil {
		return []string{}
	}
	return evidence
}
