package agents

import (
	"context"
	"log/slog"

	"insightd/internal/llm"
	"insightd/internal/models"
)

// Validation reviews the level-4 synthesis and industry context for
// internal contradiction at low temperature. The verdict is recorded but
// does not gate any downstream stage.
type Validation struct {
	gw     Gateway
	logger *slog.Logger
}

var _ Agent = (*Validation)(nil)

// NewValidation creates the validation agent.
func NewValidation(gw Gateway, logger *slog.Logger) *Validation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validation{gw: gw, logger: logger}
}

// Name returns the stage's path marker name.
func (v *Validation) Name() string { return models.StageValidation }

// Run fact-checks the accumulated research.
func (v *Validation) Run(ctx context.Context, rec *models.ResearchRecord) error {
	messages := []llm.Message{llm.User(validationPrompt(rec))}

	response, err := v.gw.Complete(ctx, llm.TierDeep, messages, 0.1, 0, true)
	if err != nil {
		rec.Path = models.AppendPath(rec.Path, models.FailMarker(v.Name()))
		rec.RecordError(v.Name(), err)
		return err
	}

	rec.FactsVerified = llm.ParseVerdict(response, "VERIFIED: YES")
	rec.ValidationNotes = response
	rec.Path = models.AppendPath(rec.Path, v.Name())

	v.logger.Debug("validation verdict",
		"symbol", rec.Signal.Symbol(),
		"verified", rec.FactsVerified)

	return nil
}
