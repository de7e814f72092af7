// Package llm provides the two-tier chat-completion gateway with response
// caching, retry with exponential backoff and fast-to-deep tier fallback.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"insightd/internal/cache"
	"insightd/internal/metrics"
)

// Tier selects a class of LLM backend by cost/quality tradeoff.
type Tier string

const (
	// TierFast is the cheap, low-latency tier used for discovery filtering.
	TierFast Tier = "fast"
	// TierDeep is the reasoning tier used for research and synthesis.
	TierDeep Tier = "deep"
)

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

const maxAttempts = 3

// Gateway routes completion requests to the configured tier upstreams.
// The cache is its only mutable state; the gateway itself is safe for
// concurrent use.
type Gateway struct {
	upstreams map[Tier]Upstream
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
	collector *metrics.Collector

	// Backoff intervals, overridable for tests.
	backoffInitial time.Duration
	backoffMax     time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Gateway) { g.collector = c }
}

// WithBackoffIntervals overrides the retry backoff intervals (tests).
func WithBackoffIntervals(initial, max time.Duration) Option {
	return func(g *Gateway) {
		g.backoffInitial = initial
		g.backoffMax = max
	}
}

// NewGateway creates a gateway over the given tier upstreams.
func NewGateway(fast, deep Upstream, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		upstreams:      map[Tier]Upstream{TierFast: fast, TierDeep: deep},
		cache:          c,
		cacheTTL:       cacheTTL,
		logger:         logger,
		backoffInitial: time.Second,
		backoffMax:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete issues a chat completion against the requested tier.
//
// When useCache is set, a cache hit returns immediately with no upstream
// call. On a miss the request is retried up to 3 attempts with exponential
// backoff; the fast tier then falls back once to the deep tier before
// surfacing ErrUpstream. Successful responses are cached under the
// originally requested tier's key regardless of which tier served them.
func (g *Gateway) Complete(ctx context.Context, tier Tier, messages []Message, temperature float64, maxTokens int, useCache bool) (string, error) {
	upstream, ok := g.upstreams[tier]
	if !ok {
		return "", fmt.Errorf("unknown tier: %s", tier)
	}

	key := cacheKey(upstream.Model(), messages, temperature)
	if useCache {
		if cached, err := g.cache.Get(ctx, key); err == nil {
			g.logger.Debug("llm cache hit", "tier", tier, "model", upstream.Model())
			g.record(func(c *metrics.Collector) { c.RecordCacheHit() })
			return cached, nil
		}
		g.record(func(c *metrics.Collector) { c.RecordCacheMiss() })
	}

	text, err := g.callWithRetry(ctx, tier, upstream, messages, temperature, maxTokens)
	if err != nil && tier == TierFast {
		// Deliberate redundancy policy: one fallback call to the deep
		// tier, not a retry of the fast tier.
		g.logger.Warn("fast tier exhausted, falling back to deep tier", "error", err)
		deep := g.upstreams[TierDeep]
		text, err = g.call(ctx, TierDeep, deep, messages, temperature, maxTokens)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if useCache {
		if cacheErr := g.cache.Set(ctx, key, text, g.cacheTTL); cacheErr != nil {
			g.logger.Warn("llm cache write failed", "error", cacheErr)
		}
	}

	return text, nil
}

// callWithRetry retries one tier with exponential backoff. Backoff state is
// local to this call and independent of cache state.
func (g *Gateway) callWithRetry(ctx context.Context, tier Tier, upstream Upstream, messages []Message, temperature float64, maxTokens int) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.backoffInitial
	bo.MaxInterval = g.backoffMax

	var text string
	operation := func() error {
		var err error
		text, err = g.call(ctx, tier, upstream, messages, temperature, maxTokens)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
	if err != nil {
		return "", err
	}
	return text, nil
}

// call issues exactly one upstream request and records metrics.
func (g *Gateway) call(ctx context.Context, tier Tier, upstream Upstream, messages []Message, temperature float64, maxTokens int) (string, error) {
	start := time.Now()
	text, err := upstream.Generate(ctx, messages, temperature, maxTokens)
	duration := time.Since(start)

	if err != nil {
		g.logger.Warn("llm call failed", "tier", tier, "model", upstream.Model(), "duration_ms", duration.Milliseconds(), "error", err)
		return "", err
	}

	g.logger.Debug("llm call ok", "tier", tier, "model", upstream.Model(), "duration_ms", duration.Milliseconds(), "response_len", len(text))
	g.record(func(c *metrics.Collector) { c.RecordTiming(metrics.OpLLMCall(string(tier)), duration) })
	return text, nil
}

func (g *Gateway) record(fn func(*metrics.Collector)) {
	if g.collector != nil {
		fn(g.collector)
	}
}

// cacheKey builds the deterministic cache key for a request. Identical
// (model, messages, temperature) triples always hash to the same key.
func cacheKey(model string, messages []Message, temperature float64) string {
	payload, _ := json.Marshal(struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
	}{model, messages, temperature})

	sum := sha256.Sum256(payload)
	return "llm:" + hex.EncodeToString(sum[:])
}

// IsUpstreamErr reports whether err is a gateway upstream failure.
func IsUpstreamErr(err error) bool {
	return errors.Is(err, ErrUpstream)
}
