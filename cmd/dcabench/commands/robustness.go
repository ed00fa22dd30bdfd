package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dcabench/internal/report"
	"dcabench/internal/robustness"
	"dcabench/internal/series"
	"dcabench/internal/strategy"
)

var robustnessCmd = &cobra.Command{
	Use:   "robustness",
	Short: "Stress-test a strategy across starting conditions",
	Long: `Re-runs the same strategy across many starting conditions to see
how sensitive its results are to timing.

Example:
  go run ./cmd/dcabench robustness fixed --symbol SPY --strategy dip
  go run ./cmd/dcabench robustness montecarlo --simulations 300 --workers 4
  go run ./cmd/dcabench robustness window --window-years 5 --step-months 3`,
}

var (
	robustStrategy string
	robustParams   string
)

var robustFixedCmd = &cobra.Command{
	Use:   "fixed",
	Short: "Run from curated historical start dates",
	RunE:  runFixedCmd,
}

var (
	mcSimulations int
	mcMinYears    float64
	mcMaxYears    float64
	mcWorkers     int
	mcSeed        int64
)

var robustMonteCarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Run randomized start/duration simulations",
	RunE:  runMonteCarloCmd,
}

var (
	windowYears float64
	stepMonths  int
)

var robustWindowCmd = &cobra.Command{
	Use:   "window",
	Short: "Run sliding fixed-length windows",
	RunE:  runWindowCmd,
}

var crossSymbols string

var robustMarketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Run the same strategy across several markets",
	RunE:  runMarketsCmd,
}

func init() {
	rootCmd.AddCommand(robustnessCmd)
	robustnessCmd.AddCommand(robustFixedCmd, robustMonteCarloCmd, robustWindowCmd, robustMarketsCmd)

	robustnessCmd.PersistentFlags().StringVar(&robustStrategy, "strategy", "pure", "strategy kind (pure|dip|trend|vol|profit)")
	robustnessCmd.PersistentFlags().StringVar(&robustParams, "params", "", "parameter overrides as key=value,key=value")

	robustMonteCarloCmd.Flags().IntVar(&mcSimulations, "simulations", 300, "number of random simulations")
	robustMonteCarloCmd.Flags().Float64Var(&mcMinYears, "min-years", 3, "minimum window length in years")
	robustMonteCarloCmd.Flags().Float64Var(&mcMaxYears, "max-years", 20, "maximum window length in years")
	robustMonteCarloCmd.Flags().IntVar(&mcWorkers, "workers", 0, "worker pool size (default from config)")
	robustMonteCarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 seeds from the clock)")

	robustWindowCmd.Flags().Float64Var(&windowYears, "window-years", 3, "window length in years")
	robustWindowCmd.Flags().IntVar(&stepMonths, "step-months", 1, "step between windows in months")

	robustMarketsCmd.Flags().StringVar(&crossSymbols, "symbols", "", "comma-separated market symbols (required)")
	robustMarketsCmd.MarkFlagRequired("symbols")
}

func runFixedCmd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	strat, err := buildStrategy(robustStrategy, robustParams)
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

	analyzer := robustness.NewAnalyzer(e.engine, e.log)
	rows := analyzer.FixedStartPoints(strat, data, nil, opts, progressPrinter("fixed start points"))

	fmt.Println("| Start | Return (%) | CAGR (%) | Max DD (%) | Sharpe |")
	fmt.Println("|---|---|---|---|---|")
	for _, row := range rows {
		if row.Err != nil {
			fmt.Printf("| %s | error: %v | | | |\n", row.StartDate.Format("2006-01-02"), row.Err)
			continue
		}
		fmt.Printf("| %s | %.2f | %.2f | %.2f | %.2f |\n",
			row.StartDate.Format("2006-01-02"), row.TotalReturn, row.CAGR, row.MaxDrawdown, row.SharpeRatio)
	}
	return nil
}

func runMonteCarloCmd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	kind, err := strategy.ParseKind(robustStrategy)
	if err != nil {
		return err
	}
	params, err := parseParams(robustParams)
	if err != nil {
		return err
	}
	freq, err := series.ParseFrequency(flagFrequency)
	if err != nil {
		return err
	}
	data, err := e.fetchSeries(cmd.Context(), flagSymbol)
	if err != nil {
		return err
	}

	workers := mcWorkers
	if workers <= 0 {
		workers = e.cfg.Workers
	}

	analyzer := robustness.NewAnalyzer(e.engine, e.log)
	stats, err := analyzer.MonteCarlo(strategy.Config{Kind: kind, Params: params}, data, robustness.MCOptions{
		Simulations:    mcSimulations,
		MinYears:       mcMinYears,
		MaxYears:       mcMaxYears,
		Workers:        workers,
		Seed:           mcSeed,
		Frequency:      freq,
		BaseInvestment: flagAmount,
	}, progressPrinter("simulations"))
	if err != nil {
		return err
	}

	fmt.Println(report.MonteCarloMarkdown(stats))
	return nil
}

func runWindowCmd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	strat, err := buildStrategy(robustStrategy, robustParams)
	if err != nil {
		return err
	}
	freq, err := series.ParseFrequency(flagFrequency)
	if err != nil {
		return err
	}
	data, err := e.fetchSeries(cmd.Context(), flagSymbol)
	if err != nil {
		return err
	}

	analyzer := robustness.NewAnalyzer(e.engine, e.log)
	rows, err := analyzer.SlidingWindow(strat, data, robustness.WindowOptions{
		WindowYears:    windowYears,
		StepMonths:     stepMonths,
		Frequency:      freq,
		BaseInvestment: flagAmount,
	}, progressPrinter("windows"))
	if err != nil {
		return err
	}

	fmt.Println("| Window | Return (%) | CAGR (%) | Max DD (%) | Sharpe |")
	fmt.Println("|---|---|---|---|---|")
	for _, row := range rows {
		fmt.Printf("| %s to %s | %.2f | %.2f | %.2f | %.2f |\n",
			row.Start.Format("2006-01-02"), row.End.Format("2006-01-02"),
			row.TotalReturn, row.CAGR, row.MaxDrawdown, row.SharpeRatio)
	}
	return nil
}

func runMarketsCmd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	strat, err := buildStrategy(robustStrategy, robustParams)
	if err != nil {
		return err
	}
	opts, err := runOptions()
	if err != nil {
		return err
	}

	markets := map[string]series.Series{}
	for _, sym := range strings.Split(crossSymbols, ",") {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		data, err := e.fetchSeries(cmd.Context(), sym)
		if err != nil {
			return err
		}
		markets[sym] = data
	}
	if len(markets) == 0 {
		return fmt.Errorf("no symbols given")
	}

	analyzer := robustness.NewAnalyzer(e.engine, e.log)
	rows := analyzer.CrossMarket(strat, markets, opts, progressPrinter("markets"))

	fmt.Println("| Market | Return (%) | CAGR (%) | Max DD (%) | Sharpe | Sortino | Periods |")
	fmt.Println("|---|---|---|---|---|---|---|")
	for _, row := range rows {
		if row.Err != nil {
			fmt.Printf("| %s | error: %v | | | | | |\n", row.Market, row.Err)
			continue
		}
		fmt.Printf("| %s | %.2f | %.2f | %.2f | %.2f | %.2f | %d |\n",
			row.Market, row.TotalReturn, row.CAGR, row.MaxDrawdown,
			row.SharpeRatio, row.SortinoRatio, row.Periods)
	}
	return nil
}
