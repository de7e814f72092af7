package llm

import "strings"

// ParseVerdict reports whether an LLM response contains the given verdict
// marker, e.g. "INTERESTING: YES" or "VERIFIED: YES". The match is a
// case-insensitive substring check: an intentionally loose contract at the
// model boundary, isolated here so it can be swapped for structured-output
// parsing without touching callers.
func ParseVerdict(text, marker string) bool {
	return strings.Contains(strings.ToUpper(text), strings.ToUpper(marker))
}
