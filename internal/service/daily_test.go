package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"insightd/internal/agents"
	"insightd/internal/llm"
	"insightd/internal/metrics"
	"insightd/internal/models"
	"insightd/internal/pipeline"
	"insightd/internal/ranker"
)

// staticCollector hands out a fixed signal batch.
type staticCollector struct {
	signals []models.Signal
	err     error
}

func (c *staticCollector) CollectDailySignals(_ context.Context) ([]models.Signal, error) {
	return c.signals, c.err
}

// memoryWriter records persisted rows, optionally failing insight writes
// for one symbol.
type memoryWriter struct {
	signals       []models.Signal
	insights      []*models.Insight
	embeddings    map[string][]float32
	failOnSymbol  string
	nextInsightID int
}

func (w *memoryWriter) StoreSignal(_ context.Context, sig models.Signal) (string, error) {
	w.signals = append(w.signals, sig)
	return fmt.Sprintf("signal-%d", len(w.signals)), nil
}

func (w *memoryWriter) StoreInsight(_ context.Context, ins *models.Insight) (string, error) {
	if w.failOnSymbol != "" && ins.CompanySymbol == w.failOnSymbol {
		return "", errors.New("store unavailable")
	}
	w.insights = append(w.insights, ins)
	w.nextInsightID++
	return fmt.Sprintf("insight-%d", w.nextInsightID), nil
}

func (w *memoryWriter) StoreEmbedding(_ context.Context, id string, vector []float32) error {
	if w.embeddings == nil {
		w.embeddings = make(map[string][]float32)
	}
	w.embeddings[id] = vector
	return nil
}

// fixedEmbedder returns the same short vector for any text.
type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}
func (fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}
func (fixedEmbedder) Model() string  { return "fixed" }
func (fixedEmbedder) Dimension() int { return 3 }

type emptyFeedback struct{}

func (emptyFeedback) ListFeedbackPairs(_ context.Context) ([]models.FeedbackPair, error) {
	return nil, nil
}

// scoredGateway drives a full pipeline run, with the synthesis score keyed
// off the symbol embedded in the prompt.
type scoredGateway struct {
	scores map[string]float64 // symbol -> synthesis score
}

func (g *scoredGateway) Complete(_ context.Context, _ llm.Tier, messages []llm.Message, _ float64, _ int, _ bool) (string, error) {
	prompt := messages[len(messages)-1].Content

	switch {
	case strings.Contains(prompt, "Assess if this is interesting"):
		return "INTERESTING: YES", nil
	case strings.Contains(prompt, "fact-checker"):
		return "VERIFIED: YES", nil
	case strings.Contains(prompt, "final investment insight"):
		for symbol, score := range g.scores {
			if strings.Contains(prompt, symbol) {
				return fmt.Sprintf(
					`{"headline": "Insight for %s", "analysis": "a", "evidence": ["e"], "interestingness_score": %.1f}`,
					symbol, score), nil
			}
		}
		return "", errors.New("unknown symbol in synthesis prompt")
	default:
		return "research output", nil
	}
}

type noopEnricher struct{}

func (noopEnricher) Enrich(_ context.Context, sig models.Signal) models.Signal { return sig }

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func signalFor(symbol string) models.Signal {
	return models.Signal{
		SignalType: "insider_trading",
		Source:     "nse",
		Priority:   7,
		Data:       map[string]any{"symbol": symbol, "company": symbol + " Ltd"},
	}
}

func newDaily(gw agents.Gateway, writer InsightWriter, signals []models.Signal, collect *metrics.Collector) *Daily {
	logger := testLogger()
	engine := pipeline.NewEngine(
		agents.NewDiscovery(gw, logger),
		agents.NewDeepResearch(gw, noopEnricher{}, logger),
		agents.NewContext(gw, logger),
		agents.NewValidation(gw, logger),
		agents.NewSynthesis(gw, 7.0, logger),
		logger,
	)
	batch := pipeline.NewBatch(engine, logger, nil)
	rk := ranker.NewRanker(emptyFeedback{}, logger)
	return NewDaily(&staticCollector{signals: signals}, batch, rk, fixedEmbedder{}, writer, collect, logger)
}

func TestDailyRunStoresTopK(t *testing.T) {
	gw := &scoredGateway{scores: map[string]float64{"AAA": 9.0, "BBB": 6.0, "CCC": 8.0}}
	writer := &memoryWriter{}
	signals := []models.Signal{signalFor("AAA"), signalFor("BBB"), signalFor("CCC")}

	daily := newDaily(gw, writer, signals, nil)
	summary, err := daily.Run(context.Background(), Options{TopK: 2, MinSamples: 20})
	if err != nil {
		t.Fatal(err)
	}

	// BBB's 6.0 score misses the 7.0 threshold, so only two insights
	// reach ranking at all.
	if summary.Signals != 3 || summary.Insights != 2 {
		t.Errorf("Signals = %d, Insights = %d, want 3 and 2", summary.Signals, summary.Insights)
	}
	if summary.Stored != 2 {
		t.Errorf("Stored = %d, want top 2", summary.Stored)
	}
	if summary.RankerTrained {
		t.Error("ranker should not train with zero feedback")
	}

	// Untrained ranking is rawScore/10: AAA (0.9) then CCC (0.8).
	if len(writer.insights) != 2 {
		t.Fatalf("persisted = %d insights", len(writer.insights))
	}
	if writer.insights[0].CompanySymbol != "AAA" || writer.insights[1].CompanySymbol != "CCC" {
		t.Errorf("persisted order = %s, %s; want AAA, CCC",
			writer.insights[0].CompanySymbol, writer.insights[1].CompanySymbol)
	}

	// Raw signals stored before research.
	if len(writer.signals) != 3 {
		t.Errorf("raw signals stored = %d, want 3", len(writer.signals))
	}

	// Every stored insight gets its embedding.
	if len(writer.embeddings) != 2 {
		t.Errorf("embeddings stored = %d, want 2", len(writer.embeddings))
	}
}

func TestDailyRunNeverPersistsBelowThreshold(t *testing.T) {
	gw := &scoredGateway{scores: map[string]float64{"AAA": 9.0, "BBB": 6.0}}
	writer := &memoryWriter{}

	// TopK well above the insight count: headroom must not let the
	// sub-threshold insight through.
	daily := newDaily(gw, writer, []models.Signal{signalFor("AAA"), signalFor("BBB")}, nil)
	summary, err := daily.Run(context.Background(), Options{TopK: 5, MinSamples: 20})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Insights != 1 || summary.Stored != 1 {
		t.Errorf("Insights = %d, Stored = %d, want 1 and 1", summary.Insights, summary.Stored)
	}
	for _, ins := range writer.insights {
		if ins.CompanySymbol == "BBB" {
			t.Error("6.0-score insight must never be persisted")
		}
	}
	// The record still carries the full audit trail and the insight itself.
	if len(summary.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(summary.Records))
	}
	if summary.Records[1].FinalInsight == nil || summary.Records[1].PassesThreshold {
		t.Errorf("BBB record: FinalInsight = %v, PassesThreshold = %v",
			summary.Records[1].FinalInsight, summary.Records[1].PassesThreshold)
	}
}

func TestDailyRunPersistFailureIsNonFatal(t *testing.T) {
	gw := &scoredGateway{scores: map[string]float64{"AAA": 9.0, "BBB": 8.0}}
	writer := &memoryWriter{failOnSymbol: "AAA"}
	collect := metrics.NewCollector()

	daily := newDaily(gw, writer, []models.Signal{signalFor("AAA"), signalFor("BBB")}, collect)
	summary, err := daily.Run(context.Background(), Options{TopK: 5, MinSamples: 20})
	if err != nil {
		t.Fatalf("persist failure must not fail the run: %v", err)
	}

	if summary.Stored != 1 {
		t.Errorf("Stored = %d, want 1", summary.Stored)
	}
	if summary.PersistFailures != 1 {
		t.Errorf("PersistFailures = %d, want 1", summary.PersistFailures)
	}
	if snap := collect.Snapshot(); snap.PersistFailures != 1 {
		t.Errorf("collector PersistFailures = %d, want 1", snap.PersistFailures)
	}
}

func TestDailyRunCollectorErrorIsFatal(t *testing.T) {
	wantErr := errors.New("feed offline")
	daily := NewDaily(
		&staticCollector{err: wantErr},
		pipeline.NewBatch(pipeline.NewEngine(nil, nil, nil, nil, nil, testLogger()), testLogger(), nil),
		ranker.NewRanker(emptyFeedback{}, testLogger()),
		nil, &memoryWriter{}, nil, testLogger(),
	)

	_, err := daily.Run(context.Background(), Options{TopK: 5, MinSamples: 20})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want collector error", err)
	}
}

func TestDailyRunRecordsAuditTrails(t *testing.T) {
	gw := &scoredGateway{scores: map[string]float64{"AAA": 9.0}}
	daily := newDaily(gw, &memoryWriter{}, []models.Signal{signalFor("AAA")}, nil)

	summary, err := daily.Run(context.Background(), Options{TopK: 1, MinSamples: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Records) != 1 {
		t.Fatalf("Records = %d", len(summary.Records))
	}
	path := summary.Records[0].Path
	if len(path) != 5 || path[len(path)-1] != "synthesis" {
		t.Errorf("Path = %v, want full five-stage trail", path)
	}
}
