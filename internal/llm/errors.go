package llm

import "errors"

// Sentinel errors for gateway operations. Use errors.Is() in calling code.
var (
	// ErrUpstream indicates an LLM call exhausted its retries and, for the
	// fast tier, the deep-tier fallback. Fatal to the current signal's run.
	ErrUpstream = errors.New("upstream llm failure")

	// ErrNoChoices indicates the upstream returned an empty response.
	ErrNoChoices = errors.New("no response choices")
)
