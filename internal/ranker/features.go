// Package ranker learns from star-rating feedback which insights readers
// find valuable and reorders each day's batch by predicted quality.
package ranker

import (
	"strings"

	"insightd/internal/models"
)

// featureCount is the fixed width of the feature vector. Order matters:
// trained weights are positional.
const featureCount = 7

var featureNames = [featureCount]string{
	"initial_score",
	"has_promoter_activity",
	"has_fundamental_confluence",
	"has_historical_precedent",
	"signal_priority",
	"fact_count",
	"analysis_length",
}

var historicalKeywords = []string{"past", "historical", "previously", "track record"}

// extractFeatures maps an insight onto the fixed feature vector.
func extractFeatures(ins *models.Insight) [featureCount]float64 {
	var f [featureCount]float64

	score := ins.Score
	if score == 0 {
		score = 5.0
	}
	f[0] = score

	if strings.Contains(strings.ToLower(ins.SignalType), "promoter") {
		f[1] = 1.0
	}

	analysis := strings.ToLower(ins.Analysis)
	if strings.Contains(analysis, "fundamental") && strings.Contains(analysis, "signal") {
		f[2] = 1.0
	}

	for _, kw := range historicalKeywords {
		if strings.Contains(analysis, kw) {
			f[3] = 1.0
			break
		}
	}

	priority := float64(ins.SignalPriority)
	if priority == 0 {
		priority = 5.0
	}
	f[4] = priority

	f[5] = float64(len(ins.Evidence))

	// Analysis length as a rough depth proxy.
	f[6] = float64(len(ins.Analysis)) / 1000.0

	return f
}
