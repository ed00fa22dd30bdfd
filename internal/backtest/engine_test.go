package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcabench/internal/series"
	"dcabench/internal/strategy"
)

// monthlySeries builds one point on the first of each month.
func monthlySeries(start time.Time, prices []float64) series.Series {
	s := make(series.Series, len(prices))
	for i, p := range prices {
		s[i] = series.Point{Date: start.AddDate(0, i, 0), Close: p}
	}
	return s
}

func monthlyOpts() Options {
	return Options{Frequency: series.Monthly, BaseInvestment: 1000}
}

func TestRunPureFlatYear(t *testing.T) {
	// $1000/month for 12 months at a constant $100.
	data := monthlySeries(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []float64{
		100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
	})
	engine := NewEngine(0.02, nil)

	res, err := engine.Run(strategy.NewPure(), data, monthlyOpts())
	require.NoError(t, err)
	require.Len(t, res.Ledger, 12)

	final := res.Ledger.Final()
	assert.Equal(t, 12000.0, final.TotalCost)
	assert.InDelta(t, 120.0, final.TotalShares, 1e-9)
	assert.InDelta(t, 12000.0, final.CurrentValue, 1e-9)
	assert.Zero(t, res.Metrics.TotalReturn)
}

func TestRunDipBuyingTriggersTierOne(t *testing.T) {
	// 100 flat months at $100, then a month at $85: 15% below the
	// trailing high lands in the first dip tier.
	prices := make([]float64, 101)
	for i := range prices {
		prices[i] = 100
	}
	prices[100] = 85
	data := monthlySeries(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), prices)

	engine := NewEngine(0.02, nil)
	res, err := engine.Run(strategy.NewDipBuying(nil), data, monthlyOpts())
	require.NoError(t, err)

	last := res.Ledger.Final()
	assert.Equal(t, 1.5, last.Multiplier)
	assert.Equal(t, 1500.0, last.Investment)
	assert.InDelta(t, 1500.0/85.0, last.SharesBought, 1e-9)
}

func TestRunCostBasisMonotonic(t *testing.T) {
	data := monthlySeries(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), []float64{
		100, 120, 90, 150, 80, 200, 110, 95, 130, 160, 140, 170,
	})
	engine := NewEngine(0.02, nil)

	res, err := engine.Run(strategy.NewProfitTaking(map[string]interface{}{
		"profit_threshold": 0.05,
		"cooldown_periods": 1,
	}), data, monthlyOpts())
	require.NoError(t, err)

	sold := false
	prevCost := 0.0
	for i, tx := range res.Ledger {
		assert.GreaterOrEqual(t, tx.TotalCost, prevCost, "row %d", i)
		prevCost = tx.TotalCost
		if tx.SharesSold > 0 {
			sold = true
		}
	}
	assert.True(t, sold, "scenario should have triggered at least one sell")
}

func TestRunRejectsBadInput(t *testing.T) {
	engine := NewEngine(0.02, nil)
	good := monthlySeries(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []float64{100, 100, 100})

	_, err := engine.Run(strategy.NewPure(), nil, monthlyOpts())
	assert.ErrorIs(t, err, ErrInvalidInput, "empty series")

	_, err = engine.Run(strategy.NewPure(), good, Options{Frequency: series.Monthly})
	assert.ErrorIs(t, err, ErrInvalidInput, "zero base investment")

	opts := monthlyOpts()
	opts.StartDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = engine.Run(strategy.NewPure(), good, opts)
	assert.ErrorIs(t, err, ErrInvalidInput, "empty date range")
}

func TestRunResamplingMinimum(t *testing.T) {
	// Ten days inside one month resample to a single monthly date.
	data := make(series.Series, 10)
	for i := range data {
		data[i] = series.Point{
			Date:  time.Date(2020, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Close: 100,
		}
	}
	engine := NewEngine(0.02, nil)

	_, err := engine.Run(strategy.NewPure(), data, monthlyOpts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var iie *InvalidInputError
	require.ErrorAs(t, err, &iie)
	assert.Contains(t, iie.Reason, "investment dates")
}

type panicStrategy struct{ strategy.Strategy }

func (p panicStrategy) Name() string { return "panics" }
func (p panicStrategy) Decide(price float64, date time.Time, history series.Series, state strategy.PortfolioState) strategy.Decision {
	panic("boom")
}
func (p panicStrategy) Reset() {}

func TestRunBatchPartialFailure(t *testing.T) {
	data := monthlySeries(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []float64{
		100, 105, 110, 95, 120, 115,
	})
	engine := NewEngine(0.02, nil)

	items := engine.RunBatch([]strategy.Strategy{
		strategy.NewPure(),
		panicStrategy{Strategy: strategy.NewPure()},
		strategy.NewDipBuying(nil),
	}, data, monthlyOpts())

	require.Len(t, items, 3, "every requested unit gets a row")

	var ok, failed int
	for _, item := range items {
		if item.Err != nil {
			failed++
			assert.Equal(t, "panics", item.StrategyName)
			var se *StrategyError
			assert.True(t, errors.As(item.Err, &se))
		} else {
			ok++
			assert.NotNil(t, item.Result)
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
}

func TestRunStrategySeesNoLookahead(t *testing.T) {
	data := monthlySeries(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []float64{
		100, 110, 120, 130, 140, 150,
	})
	spy := &historySpy{}
	engine := NewEngine(0.02, nil)

	_, err := engine.Run(spy, data, monthlyOpts())
	require.NoError(t, err)
	require.NotEmpty(t, spy.calls)

	for _, c := range spy.calls {
		assert.False(t, c.lastHistoryDate.After(c.date),
			"history must end at the decision date")
	}
}

type spyCall struct {
	date            time.Time
	lastHistoryDate time.Time
}

type historySpy struct {
	calls []spyCall
}

func (h *historySpy) Name() string                     { return "spy" }
func (h *historySpy) ShortName() string                { return "spy" }
func (h *historySpy) Description() string              { return "" }
func (h *historySpy) Params() map[string]interface{}   { return nil }
func (h *historySpy) ParamSpecs() []strategy.ParamSpec { return nil }
func (h *historySpy) Reset()                           {}

func (h *historySpy) Decide(price float64, date time.Time, history series.Series, state strategy.PortfolioState) strategy.Decision {
	h.calls = append(h.calls, spyCall{date: date, lastHistoryDate: history.Last().Date})
	return strategy.Neutral("spy")
}

func TestCompareShape(t *testing.T) {
	data := monthlySeries(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []float64{
		100, 105, 110, 95, 120, 115,
	})
	engine := NewEngine(0.02, nil)

	a, err := engine.Run(strategy.NewPure(), data, monthlyOpts())
	require.NoError(t, err)
	b, err := engine.Run(strategy.NewDipBuying(nil), data, monthlyOpts())
	require.NoError(t, err)

	table := Compare([]*Result{a, b})
	assert.Equal(t, []string{a.StrategyName, b.StrategyName}, table.Strategies)
	require.NotEmpty(t, table.Rows)
	for _, row := range table.Rows {
		assert.Len(t, row.Values, 2, row.Metric)
	}
}
