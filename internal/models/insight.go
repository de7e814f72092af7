package models

import (
	"fmt"
	"strings"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Insight is the terminal structured output of a fully researched signal.
// Created by the synthesis stage, then mutated exactly twice before
// persistence: PredictedQuality by the ranker, Embedding by the embedder.
type Insight struct {
	ID surrealmodels.RecordID `json:"id,omitempty"`

	Headline      string         `json:"headline"`
	CompanyName   string         `json:"company_name"`
	CompanySymbol string         `json:"company_symbol"`
	SignalType    string         `json:"signal_type"`
	Analysis      string         `json:"analysis"`
	Evidence      []string       `json:"evidence"`
	Score         float64        `json:"interestingness_score"`
	Metadata      map[string]any `json:"metadata,omitempty"`

	// SignalPriority carries the originating signal's priority for the
	// ranker's feature vector.
	SignalPriority int `json:"signal_priority,omitempty"`

	PredictedQuality float64   `json:"predicted_quality,omitempty"`
	Embedding        []float32 `json:"embedding,omitempty"`

	Created time.Time `json:"created,omitempty"`
}

// EmbeddingText combines the fields that describe the insight into the text
// the embedding producer encodes. Deterministic for identical insights.
func (i *Insight) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(i.Headline)
	b.WriteString(" ")
	b.WriteString(i.Analysis)
	for _, fact := range i.Evidence {
		b.WriteString(" ")
		b.WriteString(fact)
	}
	return b.String()
}

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

func toDisplayString(v any) string {
	switch t := v.(type) {
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", t), "0"), ".")
	default:
		return fmt.Sprintf("%v", t)
	}
}
