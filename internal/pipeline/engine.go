// Package pipeline drives signals through the five research stages. The
// engine is an explicit tagged-state machine rather than a workflow
// framework: the one conditional branch after discovery is a plain
// transition function that can be tested on its own.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"insightd/internal/agents"
	"insightd/internal/metrics"
	"insightd/internal/models"
)

// State is the engine's position in a single signal's run.
type State int

const (
	// StateAwaitingDiscovery is the initial state; only discovery runs here.
	StateAwaitingDiscovery State = iota
	// StateResearching covers deep research, context, validation and
	// synthesis, executed in that order with no further branching.
	StateResearching
	// StateTerminal ends the run. The record either carries a final
	// insight or was dropped at discovery or by a stage failure.
	StateTerminal
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateAwaitingDiscovery:
		return "awaiting_discovery"
	case StateResearching:
		return "researching"
	default:
		return "terminal"
	}
}

// Transition returns the state following a completed state. The only
// conditional edge is out of discovery: uninteresting signals go straight
// to terminal without any research stage running.
func Transition(s State, interesting bool) State {
	switch s {
	case StateAwaitingDiscovery:
		if interesting {
			return StateResearching
		}
		return StateTerminal
	case StateResearching:
		return StateTerminal
	default:
		return StateTerminal
	}
}

// Engine sequences the stage agents for one signal at a time. A record is
// owned exclusively by its run; the engine holds no per-run state.
type Engine struct {
	discovery agents.Agent
	research  []agents.Agent
	logger    *slog.Logger
	collector *metrics.Collector
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithMetrics records per-stage timings on the collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// NewEngine wires the five stage agents into an engine.
func NewEngine(discovery, deepResearch, contextStage, validation, synthesis agents.Agent, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		discovery: discovery,
		research:  []agents.Agent{deepResearch, contextStage, validation, synthesis},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// stagesFor returns the agents executed while in a state.
func (e *Engine) stagesFor(s State) []agents.Agent {
	switch s {
	case StateAwaitingDiscovery:
		return []agents.Agent{e.discovery}
	case StateResearching:
		return e.research
	default:
		return nil
	}
}

// Run processes one signal start to finish. The returned record is always
// non-nil; a non-nil error means a stage failed hard and the record carries
// no insight. The caller decides whether that aborts anything beyond this
// signal; the batch runner does not.
func (e *Engine) Run(ctx context.Context, sig models.Signal) (*models.ResearchRecord, error) {
	rec := models.NewRecord(sig)

	for state := StateAwaitingDiscovery; state != StateTerminal; state = Transition(state, rec.IsInteresting) {
		for _, agent := range e.stagesFor(state) {
			if err := e.runStage(ctx, agent, rec); err != nil {
				e.logger.Error("stage failed, dropping signal",
					"symbol", sig.Symbol(),
					"signal_type", sig.SignalType,
					"stage", agent.Name(),
					"state", state.String(),
					"error", err)
				return rec, err
			}
		}
	}

	return rec, nil
}

func (e *Engine) runStage(ctx context.Context, agent agents.Agent, rec *models.ResearchRecord) error {
	start := time.Now()
	err := agent.Run(ctx, rec)
	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpStage(agent.Name()), time.Since(start))
	}
	return err
}
