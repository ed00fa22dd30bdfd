// Package report renders completed results as delimited text and
// Markdown tables. It only formats the data structures the simulation
// already exposes.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"dcabench/internal/backtest"
	"dcabench/internal/robustness"
	"dcabench/internal/sensitivity"
)

const dateFormat = "2006-01-02"

// LedgerCSV renders the full transaction history, one row per
// investment period.
func LedgerCSV(res *backtest.Result) string {
	var b strings.Builder
	b.WriteString("date,price,investment,multiplier,shares_bought,shares_sold,sell_proceeds,total_shares,total_cost,current_value,return_pct,reason\n")
	for _, tx := range res.Ledger {
		fmt.Fprintf(&b, "%s,%.4f,%.2f,%.2f,%.6f,%.6f,%.2f,%.6f,%.2f,%.2f,%.4f,%s\n",
			tx.Date.Format(dateFormat), tx.Price, tx.Investment, tx.Multiplier,
			tx.SharesBought, tx.SharesSold, tx.SellProceeds,
			tx.TotalShares, tx.TotalCost, tx.CurrentValue, tx.ReturnPct,
			csvEscape(tx.Reason))
	}
	return b.String()
}

// SummaryMarkdown renders one run's headline metrics.
func SummaryMarkdown(res *backtest.Result) string {
	m := res.Metrics

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", res.StrategyName)
	fmt.Fprintf(&b, "%s to %s, %s frequency, base %.0f per period\n\n",
		res.StartDate.Format(dateFormat), res.EndDate.Format(dateFormat),
		res.Frequency, res.BaseInvestment)

	b.WriteString("| Metric | Value |\n|---|---|\n")
	rows := []struct {
		label string
		value string
	}{
		{"Total Invested", fmt.Sprintf("%.0f", m.TotalInvested)},
		{"Final Value", fmt.Sprintf("%.0f", m.FinalValue)},
		{"Total Return", fmt.Sprintf("%.2f%%", m.TotalReturn)},
		{"CAGR", fmt.Sprintf("%.2f%%", m.CAGR)},
		{"Volatility", fmt.Sprintf("%.2f%%", m.Volatility)},
		{"Max Drawdown", fmt.Sprintf("%.2f%% (%d days)", m.MaxDrawdown, m.MaxDrawdownDays)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio)},
		{"Sortino Ratio", fmt.Sprintf("%.2f", m.SortinoRatio)},
		{"Calmar Ratio", fmt.Sprintf("%.2f", m.CalmarRatio)},
		{"VaR 99%", fmt.Sprintf("%.2f%%", m.VaR99)},
		{"Win Rate", fmt.Sprintf("%.1f%%", m.WinRate)},
		{"Average Cost", fmt.Sprintf("%.2f", m.AverageCost)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r.label, r.value)
	}

	if len(m.AnnualReturns) > 0 {
		b.WriteString("\n### Annual Returns\n\n| Year | Return |\n|---|---|\n")
		years := make([]int, 0, len(m.AnnualReturns))
		for y := range m.AnnualReturns {
			years = append(years, y)
		}
		sort.Ints(years)
		for _, y := range years {
			fmt.Fprintf(&b, "| %d | %.2f%% |\n", y, m.AnnualReturns[y])
		}
	}
	return b.String()
}

// ComparisonMarkdown renders a side-by-side strategy table.
func ComparisonMarkdown(table backtest.ComparisonTable) string {
	var b strings.Builder
	b.WriteString("| Metric |")
	for _, name := range table.Strategies {
		fmt.Fprintf(&b, " %s |", name)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(table.Strategies)))
	b.WriteString("\n")
	for _, row := range table.Rows {
		fmt.Fprintf(&b, "| %s |", row.Metric)
		for _, v := range row.Values {
			fmt.Fprintf(&b, " %s |", v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// MonteCarloMarkdown renders the aggregate distribution of a Monte
// Carlo batch.
func MonteCarloMarkdown(stats *robustness.MCStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Monte Carlo (%d simulations)\n\n", stats.Simulations)
	b.WriteString("| Statistic | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Mean Return | %.2f%% |\n", stats.ReturnMean)
	fmt.Fprintf(&b, "| Median Return | %.2f%% |\n", stats.ReturnMedian)
	fmt.Fprintf(&b, "| Return Std | %.2f |\n", stats.ReturnStd)
	fmt.Fprintf(&b, "| Return Range | %.2f%% to %.2f%% |\n", stats.ReturnMin, stats.ReturnMax)
	fmt.Fprintf(&b, "| 5th / 95th Percentile | %.2f%% / %.2f%% |\n", stats.ReturnP5, stats.ReturnP95)
	fmt.Fprintf(&b, "| Win Rate | %.1f%% |\n", stats.WinRate)
	fmt.Fprintf(&b, "| Mean CAGR | %.2f%% |\n", stats.CAGRMean)
	fmt.Fprintf(&b, "| Median CAGR | %.2f%% |\n", stats.CAGRMedian)
	fmt.Fprintf(&b, "| Mean Sharpe | %.2f |\n", stats.SharpeMean)
	fmt.Fprintf(&b, "| Mean Drawdown | %.2f%% |\n", stats.DrawdownMean)
	fmt.Fprintf(&b, "| Worst Drawdown | %.2f%% |\n", stats.DrawdownWorst)
	return b.String()
}

// SweepCSV renders a single-parameter sweep, one row per value.
func SweepCSV(paramName string, rows []sensitivity.SweepRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s,total_return,cagr,max_drawdown,sharpe_ratio,sortino_ratio,error\n", paramName)
	for _, row := range rows {
		errText := ""
		if row.Err != nil {
			errText = csvEscape(row.Err.Error())
		}
		fmt.Fprintf(&b, "%v,%.4f,%.4f,%.4f,%.4f,%.4f,%s\n",
			row.Param1, row.TotalReturn, row.CAGR, row.MaxDrawdown,
			row.SharpeRatio, row.SortinoRatio, errText)
	}
	return b.String()
}

// GridCSV renders a dual-parameter metric matrix with the first
// parameter across columns and the second down rows. NaN cells render
// empty.
func GridCSV(grid *sensitivity.GridResult) string {
	var b strings.Builder
	b.WriteString("param2\\param1")
	for _, v := range grid.Param1Values {
		fmt.Fprintf(&b, ",%v", v)
	}
	b.WriteString("\n")
	for j, v2 := range grid.Param2Values {
		fmt.Fprintf(&b, "%v", v2)
		for i := range grid.Param1Values {
			cell := grid.Matrix[j][i]
			if math.IsNaN(cell) {
				b.WriteString(",")
			} else {
				fmt.Fprintf(&b, ",%.4f", cell)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
