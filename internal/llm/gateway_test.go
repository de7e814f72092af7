package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"insightd/internal/cache"
)

// fakeUpstream scripts a sequence of responses/errors for Generate.
type fakeUpstream struct {
	model    string
	calls    int
	respond  func(call int) (string, error)
	lastTemp float64
}

func (f *fakeUpstream) Generate(_ context.Context, _ []Message, temperature float64, _ int) (string, error) {
	f.calls++
	f.lastTemp = temperature
	return f.respond(f.calls)
}

func (f *fakeUpstream) Model() string { return f.model }

func always(text string) func(int) (string, error) {
	return func(int) (string, error) { return text, nil }
}

func alwaysFail(err error) func(int) (string, error) {
	return func(int) (string, error) { return "", err }
}

func newTestGateway(fast, deep Upstream) *Gateway {
	logger := slog.New(slog.DiscardHandler)
	return NewGateway(fast, deep, cache.NewMemory(), 24*time.Hour, logger,
		WithBackoffIntervals(time.Millisecond, 2*time.Millisecond))
}

func TestCompleteCacheIdempotence(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: always("cached answer")}
	deep := &fakeUpstream{model: "deep-model", respond: always("deep answer")}
	g := newTestGateway(fast, deep)

	msgs := []Message{System("classify"), User("signal")}

	got, err := g.Complete(context.Background(), TierFast, msgs, 0.3, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if got != "cached answer" {
		t.Errorf("first Complete = %q", got)
	}

	got, err = g.Complete(context.Background(), TierFast, msgs, 0.3, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if got != "cached answer" {
		t.Errorf("second Complete = %q", got)
	}

	if fast.calls != 1 {
		t.Errorf("upstream calls = %d, want exactly 1 (second must be a cache hit)", fast.calls)
	}
}

func TestCompleteCacheKeyedByTemperature(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: always("answer")}
	deep := &fakeUpstream{model: "deep-model", respond: always("deep")}
	g := newTestGateway(fast, deep)

	msgs := []Message{User("same prompt")}

	_, _ = g.Complete(context.Background(), TierFast, msgs, 0.3, 0, true)
	_, _ = g.Complete(context.Background(), TierFast, msgs, 0.7, 0, true)

	if fast.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 (different temperature must miss)", fast.calls)
	}
}

func TestCompleteNoCacheBypassesLookup(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: always("answer")}
	deep := &fakeUpstream{model: "deep-model", respond: always("deep")}
	g := newTestGateway(fast, deep)

	msgs := []Message{User("prompt")}
	_, _ = g.Complete(context.Background(), TierFast, msgs, 0.3, 0, false)
	_, _ = g.Complete(context.Background(), TierFast, msgs, 0.3, 0, false)

	if fast.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 with useCache=false", fast.calls)
	}
}

func TestRetrySucceedsOnThirdAttempt(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: func(call int) (string, error) {
		if call < 3 {
			return "", errors.New("transient 502")
		}
		return "recovered", nil
	}}
	deep := &fakeUpstream{model: "deep-model", respond: always("deep")}
	g := newTestGateway(fast, deep)

	got, err := g.Complete(context.Background(), TierFast, []Message{User("p")}, 0.3, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Errorf("Complete = %q, want recovered", got)
	}
	if fast.calls != 3 {
		t.Errorf("fast calls = %d, want 3", fast.calls)
	}
	if deep.calls != 0 {
		t.Errorf("deep calls = %d, want 0 (no fallback on eventual success)", deep.calls)
	}
}

func TestFastTierFallsBackOnceToDeep(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: alwaysFail(errors.New("always down"))}
	deep := &fakeUpstream{model: "deep-model", respond: always("deep served it")}
	g := newTestGateway(fast, deep)

	got, err := g.Complete(context.Background(), TierFast, []Message{User("p")}, 0.3, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "deep served it" {
		t.Errorf("Complete = %q", got)
	}
	if fast.calls != 3 {
		t.Errorf("fast calls = %d, want 3 retries", fast.calls)
	}
	if deep.calls != 1 {
		t.Errorf("deep calls = %d, want exactly 1 fallback call", deep.calls)
	}
}

func TestFastAndFallbackBothFail(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: alwaysFail(errors.New("fast down"))}
	deep := &fakeUpstream{model: "deep-model", respond: alwaysFail(errors.New("deep down"))}
	g := newTestGateway(fast, deep)

	_, err := g.Complete(context.Background(), TierFast, []Message{User("p")}, 0.3, 0, false)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if deep.calls != 1 {
		t.Errorf("deep calls = %d, want exactly 1 fallback call before raising", deep.calls)
	}
}

func TestDeepTierDoesNotFallBack(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: always("fast")}
	deep := &fakeUpstream{model: "deep-model", respond: alwaysFail(errors.New("deep down"))}
	g := newTestGateway(fast, deep)

	_, err := g.Complete(context.Background(), TierDeep, []Message{User("p")}, 0.2, 0, false)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if deep.calls != 3 {
		t.Errorf("deep calls = %d, want 3", deep.calls)
	}
	if fast.calls != 0 {
		t.Errorf("fast calls = %d, want 0 (deep never falls back)", fast.calls)
	}
}

func TestFallbackResultIsCachedUnderFastKey(t *testing.T) {
	fast := &fakeUpstream{model: "fast-model", respond: alwaysFail(errors.New("down"))}
	deep := &fakeUpstream{model: "deep-model", respond: always("deep answer")}
	g := newTestGateway(fast, deep)

	msgs := []Message{User("p")}
	_, err := g.Complete(context.Background(), TierFast, msgs, 0.3, 0, true)
	if err != nil {
		t.Fatal(err)
	}

	deepCallsBefore := deep.calls
	got, err := g.Complete(context.Background(), TierFast, msgs, 0.3, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if got != "deep answer" {
		t.Errorf("Complete = %q", got)
	}
	if deep.calls != deepCallsBefore {
		t.Errorf("second request hit upstream; want cache hit")
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	msgs := []Message{System("s"), User("u")}
	a := cacheKey("m", msgs, 0.3)
	b := cacheKey("m", []Message{System("s"), User("u")}, 0.3)
	if a != b {
		t.Errorf("identical requests produced different keys: %q vs %q", a, b)
	}
	if cacheKey("m2", msgs, 0.3) == a {
		t.Error("different model must produce a different key")
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		marker string
		want   bool
	}{
		{"exact", "INTERESTING: YES\nREASON: big buy", "INTERESTING: YES", true},
		{"lowercase response", "interesting: yes, promoter bought", "INTERESTING: YES", true},
		{"mixed case", "Interesting: Yes", "INTERESTING: YES", true},
		{"no", "INTERESTING: NO", "INTERESTING: YES", false},
		{"absent", "cannot assess", "INTERESTING: YES", false},
		{"verified", "VERIFIED: YES\nNOTES: consistent", "VERIFIED: YES", true},
		{"embedded in prose", "My verdict is INTERESTING: YES because...", "INTERESTING: YES", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVerdict(tt.text, tt.marker); got != tt.want {
				t.Errorf("ParseVerdict(%q, %q) = %v, want %v", tt.text, tt.marker, got, tt.want)
			}
		})
	}
}
