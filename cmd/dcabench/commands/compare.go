package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dcabench/internal/backtest"
	"dcabench/internal/report"
	"dcabench/internal/stats"
	"dcabench/internal/strategy"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run every strategy side by side",
	Long: `Runs all built-in strategies over the same symbol and date range,
prints a comparison table, and tests whether the period-return
differences are statistically significant.

Example:
  go run ./cmd/dcabench compare --symbol SPY --from 2010-01-01`,
	RunE: runCompareCmd,
}

var compareSignificance bool

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().BoolVar(&compareSignificance, "significance", false, "run pairwise t-tests on period returns")
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	opts, err := runOptions()
	if err != nil {
		return err
	}
	data, err := e.fetchSeries(cmd.Context(), flagSymbol)
	if err != nil {
		return err
	}

	strats := make([]strategy.Strategy, 0, len(strategy.Kinds))
	for _, kind := range strategy.Kinds {
		s, err := strategy.Config{Kind: kind}.New()
		if err != nil {
			return err
		}
		strats = append(strats, s)
	}

	items := e.engine.RunBatch(strats, data, opts)

	var results []*backtest.Result
	for _, item := range items {
		if item.Err != nil {
			fmt.Printf("%s: failed: %v\n", item.StrategyName, item.Err)
			continue
		}
		results = append(results, item.Result)
	}
	if len(results) == 0 {
		return fmt.Errorf("no strategy completed")
	}

	fmt.Println(report.ComparisonMarkdown(backtest.Compare(results)))

	if compareSignificance {
		printSignificance(results)
	}
	return nil
}

func printSignificance(results []*backtest.Result) {
	samples := map[string][]float64{}
	for _, res := range results {
		samples[res.StrategyName] = res.Ledger.PeriodReturns()
	}

	fmt.Println("Pairwise t-tests (Bonferroni corrected):")
	for _, row := range stats.PairwiseCompare(samples, 0.05) {
		fmt.Printf("  %s vs %s: %s\n", row.NameA, row.NameB, row.Result.Conclusion)
	}
}
