package sensitivity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcabench/internal/backtest"
	"dcabench/internal/series"
	"dcabench/internal/strategy"
)

func testSeries() series.Series {
	start := time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC)
	s := make(series.Series, 72)
	price := 100.0
	for i := range s {
		price *= 1.005
		if i%9 == 4 {
			price *= 0.94
		}
		s[i] = series.Point{Date: start.AddDate(0, i, 0), Close: price}
	}
	return s
}

func testOpts() backtest.Options {
	return backtest.Options{Frequency: series.Monthly, BaseInvestment: 1000}
}

func TestSingleParamSweep(t *testing.T) {
	a := NewAnalyzer(backtest.NewEngine(0.02, nil), nil)

	values := []interface{}{0.05, 0.10, 0.15}
	var progressCalls []int
	rows := a.SingleParam(strategy.KindDipBuying, nil, "dip_threshold_1", values,
		testSeries(), testOpts(), func(done, total int) {
			progressCalls = append(progressCalls, done)
			assert.Equal(t, len(values), total)
		})

	require.Len(t, rows, 3)
	assert.Equal(t, []int{1, 2, 3}, progressCalls)
	for i, row := range rows {
		assert.NoError(t, row.Err)
		assert.Equal(t, values[i], row.Param1)
		assert.NotZero(t, row.TotalReturn)
	}
}

func TestSingleParamSweepRecordsFailures(t *testing.T) {
	a := NewAnalyzer(backtest.NewEngine(0.02, nil), nil)

	// Strategy construction fails on a wrong value type for an int
	// param; the row records the error, others proceed.
	rows := a.SingleParam(strategy.KindDipBuying, nil, "lookback_period",
		[]interface{}{126, "not-a-number", 252}, testSeries(), testOpts(), nil)

	require.Len(t, rows, 3)
	assert.NoError(t, rows[0].Err)
	assert.Error(t, rows[1].Err)
	assert.NoError(t, rows[2].Err)
}

func TestDualParamGridShape(t *testing.T) {
	a := NewAnalyzer(backtest.NewEngine(0.02, nil), nil)

	p1 := []interface{}{0.05, 0.10, 0.15}
	p2 := []interface{}{1.2, 1.5}

	var last int
	grid := a.DualParam(strategy.KindDipBuying, nil,
		"dip_threshold_1", p1, "multiplier_1", p2,
		testSeries(), testOpts(), MetricSharpe, func(done, total int) {
			assert.Equal(t, 6, total)
			assert.Greater(t, done, last)
			last = done
		})

	assert.Equal(t, 6, last, "progress must reach the full grid size")
	require.Len(t, grid.Matrix, len(p2), "rows indexed by second parameter")
	for _, row := range grid.Matrix {
		assert.Len(t, row, len(p1))
	}
	assert.Len(t, grid.Rows, 6)
}

func TestDualParamFailedCellsAreNaN(t *testing.T) {
	a := NewAnalyzer(backtest.NewEngine(0.02, nil), nil)

	grid := a.DualParam(strategy.KindDipBuying, nil,
		"dip_threshold_1", []interface{}{0.10, "bad"},
		"multiplier_1", []interface{}{1.5},
		testSeries(), testOpts(), MetricTotalReturn, nil)

	require.Len(t, grid.Matrix, 1)
	require.Len(t, grid.Matrix[0], 2)
	assert.False(t, math.IsNaN(grid.Matrix[0][0]))
	assert.True(t, math.IsNaN(grid.Matrix[0][1]), "failed cell keeps its slot as NaN")
	assert.Len(t, grid.Rows, 1, "only successful combinations get rows")
}
