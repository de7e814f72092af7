package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"insightd/internal/agents"
	"insightd/internal/cache"
	"insightd/internal/embedding"
	"insightd/internal/enrich"
	"insightd/internal/llm"
	"insightd/internal/metrics"
	"insightd/internal/pipeline"
	"insightd/internal/ranker"
	"insightd/internal/service"
)

var (
	runSignalsPath      string
	runFundamentalsPath string
	runTopK             int
	runNoEmbed          bool
	runNoProgress       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the daily research run",
	Long: `Collect the day's signals, research each through the pipeline, rank
the resulting insights against feedback history and store the top ones.

Examples:
  insightd run --signals signals.json
  insightd run --signals signals.json --fundamentals fundamentals.json --top 3`,
	RunE: runDaily,
}

func init() {
	runCmd.Flags().StringVar(&runSignalsPath, "signals", "", "path to the collected signals JSON file (required)")
	runCmd.Flags().StringVar(&runFundamentalsPath, "fundamentals", "", "path to a fundamentals JSON file keyed by symbol")
	runCmd.Flags().IntVar(&runTopK, "top", 0, "override the configured daily insight count")
	runCmd.Flags().BoolVar(&runNoEmbed, "no-embed", false, "skip embedding generation")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "disable the interactive progress display")
	_ = runCmd.MarkFlagRequired("signals")
}

func runDaily(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	responseCache, err := cache.OpenSQLite(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("open response cache: %w", err)
	}
	defer func() { _ = responseCache.Close() }()

	fast, err := llm.NewUpstream(ctx, cfg.FastTier, cfg)
	if err != nil {
		return fmt.Errorf("init fast tier: %w", err)
	}
	deep, err := llm.NewUpstream(ctx, cfg.DeepTier, cfg)
	if err != nil {
		return fmt.Errorf("init deep tier: %w", err)
	}

	collect := metrics.NewCollector()
	gateway := llm.NewGateway(fast, deep, responseCache, cfg.LLMCacheTTL, logger,
		llm.WithMetrics(collect))

	var fundamentals enrich.FundamentalsClient = enrich.NoFundamentals{}
	if runFundamentalsPath != "" {
		fundamentals = &enrich.FileFundamentals{Path: runFundamentalsPath}
	}
	enricher := enrich.NewEnricher(fundamentals, responseCache, cfg.FundamentalsTTL, logger)

	engine := pipeline.NewEngine(
		agents.NewDiscovery(gateway, logger),
		agents.NewDeepResearch(gateway, enricher, logger),
		agents.NewContext(gateway, logger),
		agents.NewValidation(gateway, logger),
		agents.NewSynthesis(gateway, cfg.InsightScoreThreshold, logger),
		logger,
		pipeline.WithMetrics(collect),
	)

	progress, finishProgress := batchProgress(runNoProgress)
	batch := pipeline.NewBatch(engine, logger, progress)

	var embedder embedding.Embedder
	if !runNoEmbed {
		embedder, err = embedding.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("init embedder: %w", err)
		}
	}

	topK := cfg.DailyInsightCount
	if runTopK > 0 {
		topK = runTopK
	}

	daily := service.NewDaily(
		&enrich.FileCollector{Path: runSignalsPath},
		batch,
		ranker.NewRanker(storeClient, logger, ranker.WithMetrics(collect)),
		embedder,
		storeClient,
		collect,
		logger,
	)

	summary, err := daily.Run(ctx, service.Options{
		TopK:       topK,
		MinSamples: cfg.RankerMinSamples,
	})
	finishProgress()
	if err != nil {
		return err
	}

	printDigest(cmd.OutOrStdout(), summary, cfg.DigestDir)
	printRunStats(cmd.OutOrStdout(), collect.Snapshot())
	return nil
}
