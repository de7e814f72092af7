package models

import "fmt"

// Stage path markers. Every stage appends exactly one marker to the record's
// Path, whether it ran, skipped, or failed.
const (
	StageDiscovery    = "discovery"
	StageDeepResearch = "deep_research"
	StageContext      = "context"
	StageValidation   = "validation"
	StageSynthesis    = "synthesis"
)

// SkipMarker returns the path marker for a skipped stage.
func SkipMarker(stage string) string { return stage + "_skipped" }

// FailMarker returns the path marker for a failed stage.
func FailMarker(stage string) string { return stage + "_failed" }

// ResearchRecord accumulates the outputs of every pipeline stage for one
// signal. It is owned exclusively by a single pipeline run; stages append,
// never overwrite.
type ResearchRecord struct {
	Signal Signal

	// Discovery outputs
	IsInteresting     bool
	InitialAssessment string

	// DeepResearch outputs. Level4 is the synthesis of levels 1-3.
	Level1Context      string
	Level2Historical   string
	Level3Fundamentals string
	Level4Synthesis    string

	// Context outputs
	IndustryContext string
	PeerComparison  string

	// Validation outputs. FactsVerified is recorded but does not gate any
	// downstream stage.
	FactsVerified   bool
	ValidationNotes string

	// Synthesis outputs
	FinalInsight    *Insight
	PassesThreshold bool
	Score           float64

	// Path is the ordered audit trail of stages this record passed through.
	Path []string

	Errors []string
}

// NewRecord creates a fresh record for one signal.
func NewRecord(sig Signal) *ResearchRecord {
	return &ResearchRecord{Signal: sig}
}

// AppendPath appends a stage marker to a path, returning the updated path.
// All stages go through this helper so the audit trail is always built by
// read-then-append, never reconstructed from scratch.
func AppendPath(path []string, stage string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, stage)
}

// RecordError appends a tagged error message to the record.
func (r *ResearchRecord) RecordError(stage string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", stage, err))
}
