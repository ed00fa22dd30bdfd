package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcabench/internal/ledger"
)

func monthlyLedger(values []float64, costs []float64) ledger.Ledger {
	start := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	l := make(ledger.Ledger, len(values))
	for i := range values {
		tx := ledger.Transaction{
			Date:         start.AddDate(0, i, 0),
			CurrentValue: values[i],
			TotalCost:    costs[i],
		}
		if tx.TotalCost > 0 {
			tx.ReturnPct = (tx.CurrentValue - tx.TotalCost) / tx.TotalCost * 100
		}
		l[i] = tx
	}
	return l
}

func TestComputeAllEmptyLedger(t *testing.T) {
	perf := NewCalculator(0.03).ComputeAll(nil)
	assert.Zero(t, perf.TotalReturn)
	assert.Zero(t, perf.CAGR)
	assert.Zero(t, perf.SharpeRatio)
	assert.NotNil(t, perf.AnnualReturns)
}

func TestComputeAllZeroCostBasis(t *testing.T) {
	l := monthlyLedger([]float64{0, 0, 0, 0}, []float64{0, 0, 0, 0})
	perf := NewCalculator(0.03).ComputeAll(l)

	for name, v := range map[string]float64{
		"total return": perf.TotalReturn,
		"cagr":         perf.CAGR,
		"sharpe":       perf.SharpeRatio,
		"sortino":      perf.SortinoRatio,
		"calmar":       perf.CalmarRatio,
	} {
		assert.False(t, math.IsNaN(v), name)
		assert.Zero(t, v, name)
	}
}

func TestComputeAllFlatRun(t *testing.T) {
	// 12 months of $1000 at a constant price: value always equals cost.
	values := make([]float64, 12)
	costs := make([]float64, 12)
	for i := range values {
		costs[i] = float64(i+1) * 1000
		values[i] = costs[i]
	}
	perf := NewCalculator(0).ComputeAll(monthlyLedger(values, costs))

	assert.Equal(t, 12000.0, perf.TotalInvested)
	assert.Equal(t, 12000.0, perf.FinalValue)
	assert.Zero(t, perf.TotalReturn)
	assert.Zero(t, perf.MaxDrawdown)
	assert.Zero(t, perf.WinRate, "cumulative return never strictly positive")
}

func TestCAGRKnownValue(t *testing.T) {
	// Doubling over exactly two years is ~41.42% annualized.
	got := CAGR(10000, 20000, 2)
	assert.InDelta(t, (math.Sqrt2-1)*100, got, 1e-9)

	assert.Zero(t, CAGR(0, 20000, 2))
	assert.Zero(t, CAGR(10000, 20000, 0))
	assert.Zero(t, CAGR(10000, -5, 2))
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 200 at month 2, trough 100 at month 4: 50% drawdown.
	l := monthlyLedger(
		[]float64{100, 150, 200, 120, 100, 180},
		[]float64{100, 100, 100, 100, 100, 100},
	)
	dd, days := MaxDrawdown(l)
	assert.InDelta(t, 50.0, dd, 1e-9)

	wantDays := int(l[4].Date.Sub(l[2].Date).Hours() / 24)
	assert.Equal(t, wantDays, days)
}

func TestMaxDrawdownMonotonicSeries(t *testing.T) {
	l := monthlyLedger([]float64{100, 110, 120, 130}, []float64{100, 100, 100, 100})
	dd, days := MaxDrawdown(l)
	assert.Zero(t, dd)
	assert.Zero(t, days)
}

func TestDownsideVolatilityNeedsTwoPoints(t *testing.T) {
	assert.Zero(t, DownsideVolatility([]float64{0.01, 0.02, -0.03}))
	assert.Greater(t, DownsideVolatility([]float64{0.01, -0.02, -0.05}), 0.0)
}

func TestAnnualReturns(t *testing.T) {
	// Two calendar years. First year has no prior basis so it falls
	// back to the year-end cumulative return.
	start := time.Date(2020, 11, 15, 0, 0, 0, 0, time.UTC)
	l := ledger.Ledger{
		{Date: start, Investment: 1000, TotalCost: 1000, CurrentValue: 1000, ReturnPct: 0},
		{Date: start.AddDate(0, 1, 0), Investment: 1000, TotalCost: 2000, CurrentValue: 2100, ReturnPct: 5},
		{Date: start.AddDate(0, 2, 0), Investment: 1000, TotalCost: 3000, CurrentValue: 3300, ReturnPct: 10},
		{Date: start.AddDate(0, 3, 0), Investment: 1000, TotalCost: 4000, CurrentValue: 4600, ReturnPct: 15},
	}
	got := AnnualReturns(l)
	require.Len(t, got, 2)

	assert.Equal(t, 5.0, got[2020], "first year falls back to cumulative return")

	// 2021: start basis = 3300-1000 = 2300, invested 2000,
	// end value 4600 -> (4600-2300-2000)/2300.
	assert.InDelta(t, (4600.0-2300-2000)/2300*100, got[2021], 1e-9)
}

func TestPercentileInterpolation(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, Percentile(xs, 0))
	assert.Equal(t, 4.0, Percentile(xs, 100))
	assert.InDelta(t, 2.5, Percentile(xs, 50), 1e-9)
	assert.InDelta(t, 1.03, Percentile(xs, 1), 1e-9)
	assert.Zero(t, Percentile(nil, 50))
}

func TestSampleStdDev(t *testing.T) {
	assert.Zero(t, SampleStdDev([]float64{5}))
	assert.InDelta(t, 1.0, SampleStdDev([]float64{1, 2, 3}), 1e-9)
}
