package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dcabench/internal/report"
	"dcabench/internal/sensitivity"
	"dcabench/internal/strategy"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep strategy parameters",
	Long: `Runs the strategy once per value of one parameter, or over the full
grid of two, and reports how the headline metrics respond.

Example:
  go run ./cmd/dcabench sweep --strategy dip --param dip_threshold_1 --values 0.05,0.1,0.15
  go run ./cmd/dcabench sweep --strategy dip \
      --param dip_threshold_1 --values 0.05,0.1,0.15 \
      --param2 multiplier_1 --values2 1.25,1.5,2.0 --metric sharpe_ratio`,
	RunE: runSweepCmd,
}

var (
	sweepStrategy string
	sweepBase     string
	sweepParam    string
	sweepValues   string
	sweepParam2   string
	sweepValues2  string
	sweepMetric   string
	sweepOut      string
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepStrategy, "strategy", "dip", "strategy kind (pure|dip|trend|vol|profit)")
	sweepCmd.Flags().StringVar(&sweepBase, "base-params", "", "fixed parameter overrides as key=value,key=value")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter to vary (required)")
	sweepCmd.Flags().StringVar(&sweepValues, "values", "", "comma-separated values for --param (required)")
	sweepCmd.Flags().StringVar(&sweepParam2, "param2", "", "second parameter for a grid search")
	sweepCmd.Flags().StringVar(&sweepValues2, "values2", "", "comma-separated values for --param2")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", string(sensitivity.MetricSharpe), "grid matrix metric (sharpe_ratio|total_return|cagr)")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "write the result CSV to this file instead of stdout")
	sweepCmd.MarkFlagRequired("param")
	sweepCmd.MarkFlagRequired("values")
}

func runSweepCmd(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	kind, err := strategy.ParseKind(sweepStrategy)
	if err != nil {
		return err
	}
	base, err := parseParams(sweepBase)
	if err != nil {
		return fmt.Errorf("--base-params: %w", err)
	}
	values, err := parseValueList(sweepValues)
	if err != nil {
		return fmt.Errorf("--values: %w", err)
	}
	opts, err := runOptions()
	if err != nil {
		return err
	}
	data, err := e.fetchSeries(cmd.Context(), flagSymbol)
	if err != nil {
		return err
	}

	analyzer := sensitivity.NewAnalyzer(e.engine, e.log)

	var out string
	if sweepParam2 != "" {
		values2, err := parseValueList(sweepValues2)
		if err != nil {
			return fmt.Errorf("--values2: %w", err)
		}
		grid := analyzer.DualParam(kind, base, sweepParam, values, sweepParam2, values2,
			data, opts, sensitivity.Metric(sweepMetric), progressPrinter("grid"))
		out = report.GridCSV(grid)
	} else {
		rows := analyzer.SingleParam(kind, base, sweepParam, values,
			data, opts, progressPrinter("sweep"))
		out = report.SweepCSV(sweepParam, rows)
	}

	if sweepOut != "" {
		if err := os.WriteFile(sweepOut, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		e.log.WithField("path", sweepOut).Info("sweep written")
		return nil
	}
	fmt.Print(out)
	return nil
}
