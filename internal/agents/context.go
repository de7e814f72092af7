package agents

import (
	"context"
	"log/slog"

	"insightd/internal/llm"
	"insightd/internal/models"
)

// Context broadens the research with industry tailwind/headwind analysis
// seeded by the level-1 context and a peer comparison seeded by the level-3
// fundamentals. Two deep-tier calls, no branching.
type Context struct {
	gw     Gateway
	logger *slog.Logger
}

var _ Agent = (*Context)(nil)

// NewContext creates the context agent.
func NewContext(gw Gateway, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{gw: gw, logger: logger}
}

// Name returns the stage's path marker name.
func (c *Context) Name() string { return models.StageContext }

// Run analyzes industry and peer context.
func (c *Context) Run(ctx context.Context, rec *models.ResearchRecord) error {
	industry, err := c.call(ctx, rec, industryPrompt(rec.Signal, rec.Level1Context))
	if err != nil {
		return err
	}
	rec.IndustryContext = industry

	peers, err := c.call(ctx, rec, peerPrompt(rec.Signal, rec.Level3Fundamentals))
	if err != nil {
		return err
	}
	rec.PeerComparison = peers

	rec.Path = models.AppendPath(rec.Path, c.Name())
	return nil
}

func (c *Context) call(ctx context.Context, rec *models.ResearchRecord, prompt string) (string, error) {
	response, err := c.gw.Complete(ctx, llm.TierDeep, []llm.Message{llm.User(prompt)}, 0.3, 0, true)
	if err != nil {
		rec.Path = models.AppendPath(rec.Path, models.FailMarker(c.Name()))
		rec.RecordError(c.Name(), err)
		return "", err
	}
	return response, nil
}
