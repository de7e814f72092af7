package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics and today's insights",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	w := cmd.OutOrStdout()

	counts, err := storeClient.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("count store rows: %w", err)
	}

	fmt.Fprintln(w, digestTitleStyle.Render("Store"))
	fmt.Fprintf(w, "Signals:  %d\n", counts.Signals)
	fmt.Fprintf(w, "Insights: %d\n", counts.Insights)
	fmt.Fprintf(w, "Feedback: %d\n", counts.Feedback)
	fmt.Fprintln(w)

	insights, err := storeClient.TodaysInsights(ctx)
	if err != nil {
		return fmt.Errorf("list todays insights: %w", err)
	}

	fmt.Fprintln(w, digestTitleStyle.Render("Today"))
	if len(insights) == 0 {
		fmt.Fprintln(w, "No insights stored today.")
		return nil
	}
	for i, ins := range insights {
		fmt.Fprintf(w, "%d. %s — %s (%s), score %.1f, quality %.2f\n",
			i+1, ins.Headline, ins.CompanyName, ins.CompanySymbol,
			ins.Score, ins.PredictedQuality)
	}
	return nil
}
