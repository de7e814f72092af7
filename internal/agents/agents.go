// Package agents implements the five research pipeline stages. Each agent
// consumes the research record and the LLM gateway, writes its outputs onto
// the record and appends exactly one marker to the record's path, whether
// it ran, skipped or failed.
package agents

import (
	"context"

	"insightd/internal/llm"
	"insightd/internal/models"
)

// Gateway is the slice of the LLM gateway the agents depend on.
type Gateway interface {
	Complete(ctx context.Context, tier llm.Tier, messages []llm.Message, temperature float64, maxTokens int, useCache bool) (string, error)
}

// Enricher attaches fundamentals to a signal, degrading to placeholders
// when no data is available.
type Enricher interface {
	Enrich(ctx context.Context, sig models.Signal) models.Signal
}

// Agent is one pipeline stage transformation.
type Agent interface {
	// Name returns the stage's path marker name.
	Name() string

	// Run applies the stage to the record. A returned error means the
	// stage failed hard and the engine must halt this signal's run; the
	// stage has already appended its failure marker.
	Run(ctx context.Context, rec *models.ResearchRecord) error
}
