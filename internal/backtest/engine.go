// Package backtest simulates periodic investment plans over a price
// series, producing a transaction ledger and a performance sheet per
// run.
package backtest

import (
	"fmt"
	"time"

	"dcabench/internal/ledger"
	"dcabench/internal/metrics"
	"dcabench/internal/series"
	"dcabench/internal/strategy"
	"dcabench/pkg/logger"
)

// Options configures one simulation run.
type Options struct {
	Symbol         string
	Frequency      series.Frequency
	BaseInvestment float64
	StartDate      time.Time // zero means unbounded
	EndDate        time.Time // zero means unbounded
}

// Result bundles the configuration, ledger, and metrics of one run.
type Result struct {
	Symbol         string
	StrategyName   string
	StrategyParams map[string]interface{}
	StartDate      time.Time
	EndDate        time.Time
	Frequency      series.Frequency
	BaseInvestment float64

	Ledger  ledger.Ledger
	Metrics metrics.Performance
}

// Engine runs simulations. It holds no per-run state and is safe for
// concurrent use as long as each concurrent run gets its own strategy
// instance.
type Engine struct {
	calc *metrics.Calculator
	log  *logger.Logger
}

func NewEngine(riskFreeRate float64, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		calc: metrics.NewCalculator(riskFreeRate),
		log:  log,
	}
}

// Run executes one full simulation: restrict the series to the date
// bounds, resample to investment dates, then walk the periods applying
// the strategy's decisions. The strategy is reset first so stateful
// variants start clean.
func (e *Engine) Run(strat strategy.Strategy, data series.Series, opts Options) (*Result, error) {
	if opts.BaseInvestment <= 0 {
		return nil, invalidInput("base investment must be positive, got %v", opts.BaseInvestment)
	}
	if err := data.Validate(); err != nil {
		return nil, invalidInput("%v", err)
	}

	data = data.Restrict(opts.StartDate, opts.EndDate)
	if len(data) == 0 {
		return nil, invalidInput("no data in range [%s, %s]",
			fmtDate(opts.StartDate), fmtDate(opts.EndDate))
	}

	investDates := data.Resample(opts.Frequency)
	if len(investDates) < 2 {
		return nil, invalidInput("need at least 2 investment dates, got %d", len(investDates))
	}

	strat.Reset()

	var (
		totalShares float64
		totalCost   float64
		rows        = make(ledger.Ledger, 0, len(investDates))
		cursor      = series.NewCursor(data)
	)

	for _, pt := range investDates {
		price := pt.Close
		history := cursor.HistoryThrough(pt.Date)

		currentValue := totalShares * price
		cumReturn := 0.0
		if totalCost > 0 {
			cumReturn = (currentValue - totalCost) / totalCost * 100
		}
		state := strategy.PortfolioState{
			TotalShares:      totalShares,
			TotalCost:        totalCost,
			CurrentValue:     currentValue,
			CumulativeReturn: cumReturn,
		}

		decision, err := decide(strat, price, pt.Date, history, state)
		if err != nil {
			return nil, err
		}

		investment := opts.BaseInvestment * decision.Multiplier

		var sharesSold, sellProceeds float64
		if decision.SellPct > 0 && totalShares > 0 {
			sharesSold = totalShares * decision.SellPct
			sellProceeds = sharesSold * price
			totalShares -= sharesSold
			// Selling removes shares only. The cost basis stays, so
			// returns keep measuring against all capital ever invested.
		}

		sharesBought := investment / price
		totalShares += sharesBought
		totalCost += investment

		currentValue = totalShares * price
		returnPct := 0.0
		if totalCost > 0 {
			returnPct = (currentValue - totalCost) / totalCost * 100
		}

		rows = append(rows, ledger.Transaction{
			Date:         pt.Date,
			Price:        price,
			Investment:   investment,
			Multiplier:   decision.Multiplier,
			SharesBought: sharesBought,
			SharesSold:   sharesSold,
			SellProceeds: sellProceeds,
			TotalShares:  totalShares,
			TotalCost:    totalCost,
			CurrentValue: currentValue,
			ReturnPct:    returnPct,
			Reason:       decision.Reason,
		})
	}

	perf := e.calc.ComputeAll(rows)

	e.log.WithFields(map[string]interface{}{
		"strategy": strat.Name(),
		"symbol":   opts.Symbol,
		"periods":  len(rows),
		"return":   perf.TotalReturn,
	}).Debug("backtest complete")

	return &Result{
		Symbol:         opts.Symbol,
		StrategyName:   strat.Name(),
		StrategyParams: strat.Params(),
		StartDate:      rows[0].Date,
		EndDate:        rows[len(rows)-1].Date,
		Frequency:      opts.Frequency,
		BaseInvestment: opts.BaseInvestment,
		Ledger:         rows,
		Metrics:        perf,
	}, nil
}

// decide calls the strategy and converts a panic from inside it into a
// StrategyError so batch runners can isolate the failing unit.
func decide(strat strategy.Strategy, price float64, date time.Time, history series.Series, state strategy.PortfolioState) (d strategy.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StrategyError{Strategy: strat.Name(), Err: fmt.Errorf("%v", r)}
		}
	}()
	d = strat.Decide(price, date, history, state)
	return d, nil
}

// BatchItem is one strategy's outcome within a batch. Exactly one of
// Result and Err is set.
type BatchItem struct {
	StrategyName string
	Result       *Result
	Err          error
}

// RunBatch runs every strategy over the same data. A failing strategy
// is recorded in its own row and never aborts the rest.
func (e *Engine) RunBatch(strats []strategy.Strategy, data series.Series, opts Options) []BatchItem {
	items := make([]BatchItem, 0, len(strats))
	for _, s := range strats {
		res, err := e.Run(s, data, opts)
		if err != nil {
			e.log.WithError(err).Warnf("strategy %s failed, continuing batch", s.Name())
			items = append(items, BatchItem{StrategyName: s.Name(), Err: err})
			continue
		}
		items = append(items, BatchItem{StrategyName: s.Name(), Result: res})
	}
	return items
}

// ComparisonTable is a side-by-side view of several completed runs,
// one column per strategy, one row per headline metric.
type ComparisonTable struct {
	Strategies []string
	Rows       []ComparisonRow
}

type ComparisonRow struct {
	Metric string
	Values []string
}

var comparisonMetrics = []struct {
	label  string
	format func(m metrics.Performance) string
}{
	{"Total Return (%)", func(m metrics.Performance) string { return fmt.Sprintf("%.2f", m.TotalReturn) }},
	{"CAGR (%)", func(m metrics.Performance) string { return fmt.Sprintf("%.2f", m.CAGR) }},
	{"Max Drawdown (%)", func(m metrics.Performance) string { return fmt.Sprintf("%.2f", m.MaxDrawdown) }},
	{"Volatility (%)", func(m metrics.Performance) string { return fmt.Sprintf("%.2f", m.Volatility) }},
	{"Sharpe Ratio", func(m metrics.Performance) string { return fmt.Sprintf("%.2f", m.SharpeRatio) }},
	{"Sortino Ratio", func(m metrics.Performance) string { return fmt.Sprintf("%.2f", m.SortinoRatio) }},
	{"Calmar Ratio", func(m metrics.Performance) string { return fmt.Sprintf("%.2f", m.CalmarRatio) }},
	{"Total Invested", func(m metrics.Performance) string { return fmt.Sprintf("%.0f", m.TotalInvested) }},
	{"Final Value", func(m metrics.Performance) string { return fmt.Sprintf("%.0f", m.FinalValue) }},
	{"Trades", func(m metrics.Performance) string { return fmt.Sprintf("%d", m.TotalTrades) }},
	{"Win Rate (%)", func(m metrics.Performance) string { return fmt.Sprintf("%.1f", m.WinRate) }},
}

// Compare lays out completed results side by side. It recomputes
// nothing, it only formats what each result already carries.
func Compare(results []*Result) ComparisonTable {
	table := ComparisonTable{}
	for _, r := range results {
		table.Strategies = append(table.Strategies, r.StrategyName)
	}
	for _, cm := range comparisonMetrics {
		row := ComparisonRow{Metric: cm.label}
		for _, r := range results {
			row.Values = append(row.Values, cm.format(r.Metrics))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
