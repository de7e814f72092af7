package agents

import (
	"context"
	"log/slog"

	"insightd/internal/llm"
	"insightd/internal/models"
)

// DeepResearch performs four sequential deep-tier calls on interesting
// signals: company context, historical patterns, fundamentals and a final
// synthesis of the three. All outputs are stored verbatim; nothing is
// parsed at this stage.
type DeepResearch struct {
	gw       Gateway
	enricher Enricher
	logger   *slog.Logger
}

var _ Agent = (*DeepResearch)(nil)

// NewDeepResearch creates the deep research agent.
func NewDeepResearch(gw Gateway, enricher Enricher, logger *slog.Logger) *DeepResearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeepResearch{gw: gw, enricher: enricher, logger: logger}
}

// Name returns the stage's path marker name.
func (d *DeepResearch) Name() string { return models.StageDeepResearch }

// Run executes the four research levels. The interesting check is
// re-evaluated here as well as at the engine so the stage stays safe when
// driven directly, e.g. from tests.
func (d *DeepResearch) Run(ctx context.Context, rec *models.ResearchRecord) error {
	if !rec.IsInteresting {
		rec.Path = models.AppendPath(rec.Path, models.SkipMarker(d.Name()))
		return nil
	}

	// Levels 1 and 3 need fundamentals; the second Enrich call for the
	// same symbol is a cache hit.
	enriched := d.enricher.Enrich(ctx, rec.Signal)

	level1, err := d.call(ctx, rec, level1Prompt(enriched),
		"You are a financial analyst researching Indian companies.", 0.2, 500)
	if err != nil {
		return err
	}
	rec.Level1Context = level1

	level2, err := d.call(ctx, rec, level2Prompt(rec.Signal),
		"You are analyzing historical patterns. Be skeptical and demand evidence.", 0.3, 700)
	if err != nil {
		return err
	}
	rec.Level2Historical = level2

	enriched = d.enricher.Enrich(ctx, enriched)
	level3, err := d.call(ctx, rec, level3Prompt(enriched),
		"You are a fundamental analyst. Focus on facts and numbers.", 0.2, 800)
	if err != nil {
		return err
	}
	rec.Level3Fundamentals = level3

	level4, err := d.call(ctx, rec, level4Prompt(rec.Signal, level1, level2, level3),
		"You are synthesizing deep research into actionable insights for value investors.", 0.4, 1000)
	if err != nil {
		return err
	}
	rec.Level4Synthesis = level4

	rec.Path = models.AppendPath(rec.Path, d.Name())
	return nil
}

func (d *DeepResearch) call(ctx context.Context, rec *models.ResearchRecord, prompt, system string, temperature float64, maxTokens int) (string, error) {
	messages := []llm.Message{llm.System(system), llm.User(prompt)}

	response, err := d.gw.Complete(ctx, llm.TierDeep, messages, temperature, maxTokens, true)
	if err != nil {
		rec.Path = models.AppendPath(rec.Path, models.FailMarker(d.Name()))
		rec.RecordError(d.Name(), err)
		return "", err
	}
	return response, nil
}
