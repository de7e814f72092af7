// Package enrich provides the signal source and the fundamentals
// enrichment collaborator the pipeline depends on.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"insightd/internal/models"
)

// Collector produces the day's raw signals, priority-sorted descending.
// The pipeline treats the order as a processing hint only.
type Collector interface {
	CollectDailySignals(ctx context.Context) ([]models.Signal, error)
}

// FileCollector reads signals from a JSON file produced by the external
// scraping jobs. Raw announcements (no signal type yet) are kept only when
// their subject indicates a special situation, and get a type assigned from
// it; signals without a priority get one from the same heuristics the
// scrapers use.
type FileCollector struct {
	Path string
}

var _ Collector = (*FileCollector)(nil)

// CollectDailySignals loads, classifies, scores and sorts the signal file.
func (f *FileCollector) CollectDailySignals(_ context.Context) ([]models.Signal, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}

	var raw []models.Signal
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse signals: %w", err)
	}

	signals := make([]models.Signal, 0, len(raw))
	for _, sig := range raw {
		if sig.SignalType == "" || sig.SignalType == "announcement" {
			subject, _ := sig.Data["subject"].(string)
			if !IsSpecialSituation(subject) {
				continue
			}
			sig.SignalType = ClassifyAnnouncement(subject)
		}
		if sig.Priority == 0 {
			sig.Priority = PrioritySignal(sig)
		}
		signals = append(signals, sig)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Priority > signals[j].Priority
	})

	return signals, nil
}

// PrioritySignal assigns a priority to a signal based on its type.
func PrioritySignal(sig models.Signal) int {
	switch sig.SignalType {
	case "insider_trading":
		return ScoreInsiderTrade(sig.Data)
	case "bulk_deal":
		return 4
	case "board_meeting":
		return 3
	default:
		return 5
	}
}

// ScoreInsiderTrade scores an insider trade's priority on a 1-10 scale.
// Promoter buys with large holding changes rank highest.
func ScoreInsiderTrade(data map[string]any) int {
	score := 5

	if category, _ := data["category"].(string); strings.Contains(strings.ToLower(category), "promoter") {
		score += 2
	}
	if txType, _ := data["transaction_type"].(string); strings.Contains(strings.ToLower(txType), "buy") {
		score++
	}

	change := numField(data, "percentage_after") - numField(data, "percentage_before")
	if change < 0 {
		change = -change
	}
	switch {
	case change > 1.0:
		score += 2
	case change > 0.5:
		score++
	}

	if score > 10 {
		score = 10
	}
	return score
}

var specialSituationKeywords = []string{
	"merger", "amalgamation", "demerger", "spinoff", "scheme of arrangement",
	"buyback", "delisting", "rights issue", "preferential",
	"nclt", "resolution", "restructuring", "acquisition",
}

// IsSpecialSituation reports whether an announcement subject indicates a
// special situation worth researching.
func IsSpecialSituation(subject string) bool {
	subject = strings.ToLower(subject)
	for _, kw := range specialSituationKeywords {
		if strings.Contains(subject, kw) {
			return true
		}
	}
	return false
}

// ClassifyAnnouncement maps an announcement subject to a signal type.
func ClassifyAnnouncement(subject string) string {
	subject = strings.ToLower(subject)

	switch {
	case strings.Contains(subject, "merger"), strings.Contains(subject, "amalgamation"):
		return "merger_arb"
	case strings.Contains(subject, "demerger"), strings.Contains(subject, "spinoff"):
		return "spinoff"
	case strings.Contains(subject, "buyback"):
		return "buyback"
	case strings.Contains(subject, "delisting"):
		return "delisting"
	case strings.Contains(subject, "rights"), strings.Contains(subject, "preferential"), strings.Contains(subject, "qip"):
		return "capital_raise"
	case strings.Contains(subject, "nclt"):
		return "distressed_debt"
	default:
		return "corporate_action"
	}
}

func numField(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
