// Package cli provides the insightd command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"insightd/internal/config"
	"insightd/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global config, logger and store shared by subcommands.
	cfg         config.Config
	logger      *slog.Logger
	storeClient *store.Client
	logCleanup  func() error
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "insightd",
	Short: "Daily market-signal research pipeline",
	Long: `Insightd ingests market signals (insider trades, corporate actions,
special situations), drives each through a multi-stage LLM research
pipeline, ranks the results against human feedback and stores the best
insights of the day.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)

		ctx := context.Background()
		storeClient, err = store.NewClient(ctx, store.Config{
			URL:       cfg.StoreURL,
			Namespace: cfg.StoreNamespace,
			Database:  cfg.StoreDatabase,
			Username:  cfg.StoreUser,
			Password:  cfg.StorePass,
			AuthLevel: cfg.StoreAuthLevel,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to store: %w", err)
		}

		if err := storeClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if storeClient != nil {
			if err := storeClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(statsCmd)
}
