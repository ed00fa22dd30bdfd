package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagSymbol    string
	flagFrequency string
	flagAmount    float64
	flagFrom      string
	flagTo        string
	flagVerbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dcabench",
	Short: "DCA strategy backtesting and robustness analysis",
	Long: `dcabench simulates periodic investment strategies over historical
price data and reports performance, risk, and robustness.

Examples:
  go run ./cmd/dcabench backtest --symbol SPY --strategy dip
  go run ./cmd/dcabench compare --symbol SPY
  go run ./cmd/dcabench robustness montecarlo --symbol SPY --simulations 300
  go run ./cmd/dcabench sweep --strategy dip --param dip_threshold_1 --values 0.05,0.1,0.15`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSymbol, "symbol", "SPY", "market symbol")
	rootCmd.PersistentFlags().StringVar(&flagFrequency, "frequency", "M", "investment frequency (W|M|Q)")
	rootCmd.PersistentFlags().Float64Var(&flagAmount, "amount", 1000, "base investment per period")
	rootCmd.PersistentFlags().StringVar(&flagFrom, "from", "", "start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&flagTo, "to", "", "end date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
}
