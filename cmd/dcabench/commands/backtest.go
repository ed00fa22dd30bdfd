package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dcabench/internal/report"
	"dcabench/internal/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one strategy backtest",
	Long: `Runs a single strategy over the selected symbol and date range and
prints the performance summary.

Example:
  go run ./cmd/dcabench backtest --symbol SPY --strategy dip
  go run ./cmd/dcabench backtest --strategy profit --params profit_threshold=0.25,cooldown_periods=3
  go run ./cmd/dcabench backtest --strategy trend --params ma_type=EMA --ledger ledger.csv`,
	RunE: runBacktestCmd,
}

var (
	backtestStrategy string
	backtestParams   string
	backtestLedger   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestStrategy, "strategy", "pure", "strategy kind (pure|dip|trend|vol|profit)")
	backtestCmd.Flags().StringVar(&backtestParams, "params", "", "parameter overrides as key=value,key=value")
	backtestCmd.Flags().StringVar(&backtestLedger, "ledger", "", "write the transaction ledger CSV to this file")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	strat, err := buildStrategy(backtestStrategy, backtestParams)
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

	res, err := e.engine.Run(strat, data, opts)
	if err != nil {
		return err
	}

	fmt.Println(report.SummaryMarkdown(res))

	if backtestLedger != "" {
		if err := os.WriteFile(backtestLedger, []byte(report.LedgerCSV(res)), 0o644); err != nil {
			return fmt.Errorf("write ledger: %w", err)
		}
		e.log.WithField("path", backtestLedger).Info("ledger written")
	}
	return nil
}

func buildStrategy(kindFlag, paramsFlag string) (strategy.Strategy, error) {
	kind, err := strategy.ParseKind(kindFlag)
	if err != nil {
		return nil, err
	}
	params, err := parseParams(paramsFlag)
	if err != nil {
		return nil, fmt.Errorf("--params: %w", err)
	}
	return strategy.Config{Kind: kind, Params: params}.New()
}
