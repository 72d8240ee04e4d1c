package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"openlibrary-explorer/internal/models"
)

var popularLimit int

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Show the most popular queries recorded by the stats worker",
	Long: `Reads the query statistics the stats worker builds from search events.
Requires STATS_ENABLED=true and the Redis instance at REDIS_ADDR.`,
	Args: cobra.NoArgs,
	RunE: runPopular,
}

func init() {
	popularCmd.Flags().IntVarP(&popularLimit, "limit", "n", 10, "number of queries to show")
	rootCmd.AddCommand(popularCmd)
}

func runPopular(cmd *cobra.Command, args []string) error {
	if popularLimit < 1 {
		return fmt.Errorf("--limit must be at least 1")
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Stats == nil {
		return errors.New("query statistics are disabled (set STATS_ENABLED=true)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stats, err := a.Stats.Stats(ctx, popularLimit)
	if err != nil {
		return err
	}
	renderStats(cmd.OutOrStdout(), stats)
	return nil
}

func renderStats(out io.Writer, stats models.QueryStats) {
	fmt.Fprintln(out, titleStyle.Render("Popular queries"))
	if len(stats.Popular) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("no queries recorded yet"))
	}
	for i, q := range stats.Popular {
		fmt.Fprintf(out, "%2d. %s %s %s\n", i+1, q.Query, mutedStyle.Render("in "+string(q.Facet)), barStyle.Render(fmt.Sprintf("×%d", q.Count)))
	}

	if len(stats.Outcomes) == 0 {
		return
	}
	outcomes := make([]string, 0, len(stats.Outcomes))
	for outcome := range stats.Outcomes {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	fmt.Fprintln(out, headingStyle.Render("Outcomes"))
	for _, outcome := range outcomes {
		fmt.Fprintf(out, "%-8s %d\n", outcome, stats.Outcomes[outcome])
	}
}
