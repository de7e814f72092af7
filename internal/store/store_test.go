// Package store integration tests against a real SurrealDB container.
package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"insightd/internal/models"
)

const testEmbedDim = 8

var testStore *Client
var testContainer testcontainers.Container

// TestMain starts one SurrealDB container for all tests in this package.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testStore, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testStore.InitSchema(ctx, testEmbedDim); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testStore.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func dummyEmbedding(seed float32) []float32 {
	embedding := make([]float32, testEmbedDim)
	for i := range embedding {
		embedding[i] = seed + float32(i)/float32(testEmbedDim)
	}
	return embedding
}

func sampleInsight(symbol string, score float64) *models.Insight {
	return &models.Insight{
		Headline:       "Promoter doubles stake at " + symbol,
		CompanyName:    symbol + " Ltd",
		CompanySymbol:  symbol,
		SignalType:     "insider_trading",
		Analysis:       "Fundamental recovery meets insider signal.",
		Evidence:       []string{"stake up", "ROE improving"},
		Score:          score,
		Metadata:       map[string]any{"risk_level": "Medium"},
		SignalPriority: 8,
	}
}

func TestStoreSignal(t *testing.T) {
	ctx := context.Background()

	id, err := testStore.StoreSignal(ctx, models.Signal{
		SignalType: "insider_trading",
		Source:     "nse",
		Priority:   8,
		Data:       map[string]any{"symbol": "ABC", "transaction_type": "buy"},
	})
	if err != nil {
		t.Fatalf("StoreSignal failed: %v", err)
	}
	if id == "" {
		t.Error("StoreSignal returned empty ID")
	}
}

func TestStoreAndGetInsight(t *testing.T) {
	ctx := context.Background()

	ins := sampleInsight("ABC", 8.2)
	id, err := testStore.StoreInsight(ctx, ins)
	if err != nil {
		t.Fatalf("StoreInsight failed: %v", err)
	}
	if id == "" {
		t.Fatal("StoreInsight returned empty ID")
	}

	fetched, err := testStore.GetInsight(ctx, id)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetInsight returned nil for stored insight")
	}
	if fetched.Headline != ins.Headline {
		t.Errorf("Headline = %q, want %q", fetched.Headline, ins.Headline)
	}
	if fetched.Score != 8.2 {
		t.Errorf("Score = %v, want 8.2", fetched.Score)
	}
	if len(fetched.Evidence) != 2 {
		t.Errorf("Evidence = %v", fetched.Evidence)
	}

	missing, err := testStore.GetInsight(ctx, "does-not-exist")
	if err != nil {
		t.Errorf("GetInsight for missing ID should not error: %v", err)
	}
	if missing != nil {
		t.Error("GetInsight for missing ID should return nil")
	}
}

func TestStoreEmbeddingAndSimilarity(t *testing.T) {
	ctx := context.Background()

	for i, symbol := range []string{"EMB1", "EMB2", "EMB3"} {
		ins := sampleInsight(symbol, 7.0)
		id, err := testStore.StoreInsight(ctx, ins)
		if err != nil {
			t.Fatalf("StoreInsight failed: %v", err)
		}
		if err := testStore.StoreEmbedding(ctx, id, dummyEmbedding(float32(i))); err != nil {
			t.Fatalf("StoreEmbedding failed: %v", err)
		}
	}

	similar, err := testStore.SimilarInsights(ctx, dummyEmbedding(0), 2)
	if err != nil {
		t.Fatalf("SimilarInsights failed: %v", err)
	}
	if len(similar) == 0 {
		t.Fatal("SimilarInsights returned no results")
	}
	if len(similar) > 2 {
		t.Errorf("SimilarInsights = %d results, want at most 2", len(similar))
	}
	if similar[0].CompanySymbol != "EMB1" {
		t.Errorf("nearest = %s, want EMB1 (identical vector)", similar[0].CompanySymbol)
	}
}

func TestStoreEmbeddingIdempotentRetry(t *testing.T) {
	ctx := context.Background()

	id, err := testStore.StoreInsight(ctx, sampleInsight("RETRY", 7.0))
	if err != nil {
		t.Fatalf("StoreInsight failed: %v", err)
	}

	vec := dummyEmbedding(9)
	for i := 0; i < 2; i++ {
		if err := testStore.StoreEmbedding(ctx, id, vec); err != nil {
			t.Fatalf("StoreEmbedding attempt %d failed: %v", i+1, err)
		}
	}

	fetched, err := testStore.GetInsight(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetched.Embedding) != testEmbedDim {
		t.Errorf("Embedding length = %d, want %d", len(fetched.Embedding), testEmbedDim)
	}
}

func TestFeedbackRoundtrip(t *testing.T) {
	ctx := context.Background()

	insightID, err := testStore.StoreInsight(ctx, sampleInsight("FDBK", 8.0))
	if err != nil {
		t.Fatalf("StoreInsight failed: %v", err)
	}

	fbID, err := testStore.StoreFeedback(ctx, models.Feedback{
		InsightID:  insightID,
		StarRating: 5,
		Tags:       []string{"actionable"},
		Comment:    "great find",
	})
	if err != nil {
		t.Fatalf("StoreFeedback failed: %v", err)
	}
	if fbID == "" {
		t.Error("StoreFeedback returned empty ID")
	}

	// Multiple rows per insight are legal and all counted.
	if _, err := testStore.StoreFeedback(ctx, models.Feedback{
		InsightID:  insightID,
		StarRating: 3,
	}); err != nil {
		t.Fatalf("second StoreFeedback failed: %v", err)
	}

	pairs, err := testStore.ListFeedbackPairs(ctx)
	if err != nil {
		t.Fatalf("ListFeedbackPairs failed: %v", err)
	}

	matched := 0
	for _, pair := range pairs {
		if pair.Insight.CompanySymbol == "FDBK" {
			matched++
			if pair.Insight.Headline == "" {
				t.Error("pair insight not joined")
			}
			if pair.StarRating != 5 && pair.StarRating != 3 {
				t.Errorf("unexpected star rating %d", pair.StarRating)
			}
		}
	}
	if matched != 2 {
		t.Errorf("feedback pairs for FDBK = %d, want 2", matched)
	}
}

func TestFeedbackRatingBounds(t *testing.T) {
	ctx := context.Background()

	insightID, err := testStore.StoreInsight(ctx, sampleInsight("BNDS", 6.0))
	if err != nil {
		t.Fatalf("StoreInsight failed: %v", err)
	}

	if _, err := testStore.StoreFeedback(ctx, models.Feedback{
		InsightID:  insightID,
		StarRating: 9,
	}); err == nil {
		t.Error("StoreFeedback should reject rating outside 1..5")
	}
}

func TestTodaysInsights(t *testing.T) {
	ctx := context.Background()

	if _, err := testStore.StoreInsight(ctx, sampleInsight("TODY", 9.0)); err != nil {
		t.Fatalf("StoreInsight failed: %v", err)
	}

	insights, err := testStore.TodaysInsights(ctx)
	if err != nil {
		t.Fatalf("TodaysInsights failed: %v", err)
	}

	found := false
	for _, ins := range insights {
		if ins.CompanySymbol == "TODY" {
			found = true
		}
	}
	if !found {
		t.Error("TodaysInsights should include a just-stored insight")
	}
}

func TestCountAll(t *testing.T) {
	ctx := context.Background()

	before, err := testStore.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll failed: %v", err)
	}

	if _, err := testStore.StoreInsight(ctx, sampleInsight("CNT", 5.0)); err != nil {
		t.Fatalf("StoreInsight failed: %v", err)
	}

	after, err := testStore.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll failed: %v", err)
	}
	if after.Insights != before.Insights+1 {
		t.Errorf("Insights = %d, want %d", after.Insights, before.Insights+1)
	}
}
