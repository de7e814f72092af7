// Package models defines the data structures flowing through the research
// pipeline: signals, research records, insights and feedback.
package models

// Signal is a discrete market event eligible for research. Signals are
// produced by the collector and are immutable once handed to the pipeline.
type Signal struct {
	SignalType string         `json:"signal_type"`
	Source     string         `json:"source"`
	Data       map[string]any `json:"data"`
	Priority   int            `json:"priority"`

	// Fundamentals is attached by the enrichment step, keyed by metric name.
	// Nil until enriched; values degrade to "N/A" when the upstream has no
	// data for the symbol.
	Fundamentals map[string]any `json:"fundamentals,omitempty"`
}

// Symbol returns the company symbol from the signal data, or "" if absent.
func (s Signal) Symbol() string {
	return s.dataString("symbol")
}

// Company returns the company name from the signal data, or "" if absent.
func (s Signal) Company() string {
	return s.dataString("company")
}

func (s Signal) dataString(key string) string {
	if s.Data == nil {
		return ""
	}
	if v, ok := s.Data[key].(string); ok {
		return v
	}
	return ""
}

// Fundamental returns a named fundamental as a display string, or "N/A"
// when the signal has not been enriched or the metric is missing.
func (s Signal) Fundamental(key string) string {
	if s.Fundamentals == nil {
		return "N/A"
	}
	v, ok := s.Fundamentals[key]
	if !ok || v == nil {
		return "N/A"
	}
	if str, ok := v.(string); ok {
		if str == "" {
			return "N/A"
		}
		return str
	}
	return toDisplayString(v)
}
