package agents

import (
	"context"
	"log/slog"

	"insightd/internal/llm"
	"insightd/internal/models"
)

// Discovery scans signals on the fast tier and decides whether they warrant
// deep research. Gateway failures propagate to the engine, which halts the
// signal's run; the failure marker is still appended here.
type Discovery struct {
	gw     Gateway
	logger *slog.Logger
}

var _ Agent = (*Discovery)(nil)

// NewDiscovery creates the discovery agent.
func NewDiscovery(gw Gateway, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{gw: gw, logger: logger}
}

// Name returns the stage's path marker name.
func (d *Discovery) Name() string { return models.StageDiscovery }

// Run classifies the signal and records the verdict.
func (d *Discovery) Run(ctx context.Context, rec *models.ResearchRecord) error {
	messages := []llm.Message{
		llm.System(discoverySystemPrompt),
		llm.User(discoveryPrompt(rec.Signal)),
	}

	response, err := d.gw.Complete(ctx, llm.TierFast, messages, 0.3, 0, true)
	if err != nil {
		rec.Path = models.AppendPath(rec.Path, models.FailMarker(d.Name()))
		rec.RecordError(d.Name(), err)
		return err
	}

	rec.IsInteresting = llm.ParseVerdict(response, "INTERESTING: YES")
	rec.InitialAssessment = response
	rec.Path = models.AppendPath(rec.Path, d.Name())

	d.logger.Debug("discovery verdict",
		"signal_type", rec.Signal.SignalType,
		"symbol", rec.Signal.Symbol(),
		"interesting", rec.IsInteresting,
		"assessment", trimmed(response, 120))

	return nil
}
