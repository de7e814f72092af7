package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"insightd/internal/llm"
	"insightd/internal/models"
)

// ErrParse indicates the synthesis response contained no parseable insight.
// Recovered locally: the record gets a synthesis_failed marker and no
// insight, but the signal's run does not abort.
var ErrParse = errors.New("synthesis parse error")

// Synthesis condenses all research into the final structured insight. This
// is the one stage designed to fail soft: a gateway failure still aborts
// the run, but a malformed response only records a parse error.
type Synthesis struct {
	gw        Gateway
	threshold float64
	logger    *slog.Logger
}

var _ Agent = (*Synthesis)(nil)

// NewSynthesis creates the synthesis agent with the configured
// interestingness threshold.
func NewSynthesis(gw Gateway, threshold float64, logger *slog.Logger) *Synthesis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesis{gw: gw, threshold: threshold, logger: logger}
}

// Name returns the stage's path marker name.
func (s *Synthesis) Name() string { return models.StageSynthesis }

// Run generates and parses the final insight.
func (s *Synthesis) Run(ctx context.Context, rec *models.ResearchRecord) error {
	messages := []llm.Message{
		llm.System("You are an expert investment editor. Output JSON only."),
		llm.User(synthesisPrompt(rec)),
	}

	response, err := s.gw.Complete(ctx, llm.TierDeep, messages, 0.4, 1500, true)
	if err != nil {
		rec.Path = models.AppendPath(rec.Path, models.FailMarker(s.Name()))
		rec.RecordError(s.Name(), err)
		return err
	}

	insight, err := parseInsight(response)
	if err != nil {
		rec.Path = models.AppendPath(rec.Path, models.FailMarker(s.Name()))
		rec.RecordError(s.Name(), err)
		s.logger.Warn("synthesis parse failed",
			"symbol", rec.Signal.Symbol(),
			"error", err,
			"response", trimmed(response, 200))
		return nil
	}

	insight.SignalType = rec.Signal.SignalType
	insight.CompanySymbol = rec.Signal.Symbol()
	insight.CompanyName = rec.Signal.Company()
	insight.SignalPriority = rec.Signal.Priority

	rec.FinalInsight = insight
	rec.Score = insight.Score
	rec.PassesThreshold = insight.Score >= s.threshold
	rec.Path = models.AppendPath(rec.Path, s.Name())

	return nil
}

// synthesisPayload is the JSON shape the model is asked to produce.
type synthesisPayload struct {
	Headline string         `json:"headline"`
	Analysis string         `json:"analysis"`
	Evidence []string       `json:"evidence"`
	Score    *float64       `json:"interestingness_score"`
	Metadata map[string]any `json:"metadata"`
}

// parseInsight extracts the JSON object from a possibly conversational
// response. The slice between the first '{' and the last '}' is parsed;
// intentionally lenient so wrapper text around the JSON block is tolerated.
func parseInsight(response string) (*models.Insight, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrParse)
	}

	var payload synthesisPayload
	if err := json.Unmarshal([]byte(response[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if payload.Headline == "" {
		return nil, fmt.Errorf("%w: missing headline", ErrParse)
	}
	if payload.Analysis == "" {
		return nil, fmt.Errorf("%w: missing analysis", ErrParse)
	}
	if payload.Score == nil {
		return nil, fmt.Errorf("%w: missing interestingness_score", ErrParse)
	}

	return &models.Insight{
		Headline: payload.Headline,
		Analysis: payload.Analysis,
		Evidence: payload.Evidence,
		Score:    *payload.Score,
		Metadata: payload.Metadata,
	}, nil
}
