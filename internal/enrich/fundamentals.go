package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FileFundamentals serves fundamentals from a JSON file keyed by symbol,
// as exported by the external screener scrape. Symbols match
// case-insensitively.
type FileFundamentals struct {
	Path string
}

var _ FundamentalsClient = (*FileFundamentals)(nil)

// Fetch looks a symbol up in the file. Returns ErrNoData when the symbol
// is absent so the enricher can degrade to placeholders.
func (f *FileFundamentals) Fetch(_ context.Context, symbol string) (map[string]any, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read fundamentals: %w", err)
	}

	var bySymbol map[string]map[string]any
	if err := json.Unmarshal(data, &bySymbol); err != nil {
		return nil, fmt.Errorf("parse fundamentals: %w", err)
	}

	for key, fundamentals := range bySymbol {
		if strings.EqualFold(key, symbol) {
			return fundamentals, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
}

// NoFundamentals is a client with no data source; every signal degrades to
// placeholder prompts. Used when no fundamentals file is configured.
type NoFundamentals struct{}

var _ FundamentalsClient = NoFundamentals{}

// Fetch always reports a miss.
func (NoFundamentals) Fetch(_ context.Context, symbol string) (map[string]any, error) {
	return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
}
