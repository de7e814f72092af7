package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"insightd/internal/cache"
	"insightd/internal/models"
)

// ErrNoData indicates the fundamentals upstream has nothing for a symbol.
var ErrNoData = errors.New("no fundamentals data")

// FundamentalsClient fetches fundamental metrics for one company symbol.
// The HTTP scraper implementing this lives outside the research core.
type FundamentalsClient interface {
	Fetch(ctx context.Context, symbol string) (map[string]any, error)
}

// Enricher attaches cached fundamentals to signals. Missing data degrades
// to an unenriched signal whose prompts render "N/A" placeholders; an
// enrichment miss is never fatal.
type Enricher struct {
	client FundamentalsClient
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewEnricher creates an enricher over the given fundamentals client.
func NewEnricher(client FundamentalsClient, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{client: client, cache: c, ttl: ttl, logger: logger}
}

// Enrich returns a copy of the signal with its fundamentals attached.
// Idempotent: repeat calls for the same symbol within the TTL hit the cache.
func (e *Enricher) Enrich(ctx context.Context, sig models.Signal) models.Signal {
	symbol := sig.Symbol()
	if symbol == "" || sig.Fundamentals != nil {
		return sig
	}

	key := CacheKey(symbol)
	if cached, err := e.cache.Get(ctx, key); err == nil {
		var fundamentals map[string]any
		if err := json.Unmarshal([]byte(cached), &fundamentals); err == nil {
			sig.Fundamentals = fundamentals
			return sig
		}
		e.logger.Warn("corrupt fundamentals cache entry", "symbol", symbol, "error", err)
	}

	fundamentals, err := e.client.Fetch(ctx, symbol)
	if err != nil {
		// Degrade, never throw: prompts substitute "N/A".
		e.logger.Warn("fundamentals unavailable", "symbol", symbol, "error", err)
		return sig
	}

	sig.Fundamentals = fundamentals

	if data, err := json.Marshal(fundamentals); err == nil {
		if err := e.cache.Set(ctx, key, string(data), e.ttl); err != nil {
			e.logger.Warn("fundamentals cache write failed", "symbol", symbol, "error", err)
		}
	}

	return sig
}

// CacheKey returns the cache key used for a symbol, for diagnostics.
func CacheKey(symbol string) string {
	return fmt.Sprintf("fundamentals:%s", symbol)
}
