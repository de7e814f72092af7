package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"insightd/internal/feedback"
)

var feedbackAddr string

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Serve the insight rating form",
	Long: `Start the feedback web server: a page listing today's insights with
star-rating forms, plus a JSON endpoint for programmatic submission.
Ratings feed the quality ranker's training set.`,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackAddr, "addr", "", "listen address (default from config)")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	addr := cfg.FeedbackAddr
	if feedbackAddr != "" {
		addr = feedbackAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := feedback.New(addr, storeClient, logger)
	return srv.Run(ctx)
}
