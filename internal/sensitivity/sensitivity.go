// Package sensitivity sweeps strategy parameters over one or two axes
// and reports how the headline metrics respond.
package sensitivity

import (
	"math"

	"dcabench/internal/backtest"
	"dcabench/internal/robustness"
	"dcabench/internal/series"
	"dcabench/internal/strategy"
	"dcabench/pkg/logger"
)

// Metric selects which value fills a grid-search matrix cell.
type Metric string

const (
	MetricSharpe      Metric = "sharpe_ratio"
	MetricTotalReturn Metric = "total_return"
	MetricCAGR        Metric = "cagr"
	MetricMaxDrawdown Metric = "max_drawdown"
)

// Analyzer runs parameter sweeps around a backtest engine.
type Analyzer struct {
	engine *backtest.Engine
	log    *logger.Logger
}

func NewAnalyzer(engine *backtest.Engine, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{engine: engine, log: log}
}

// SweepRow is one parameter combination's outcome. Param2 is only set
// by grid searches.
type SweepRow struct {
	Param1       interface{}
	Param2       interface{}
	TotalReturn  float64
	CAGR         float64
	MaxDrawdown  float64
	SharpeRatio  float64
	SortinoRatio float64
	Err          error
}

// SingleParam runs the strategy once per value of one parameter, with
// every other parameter held at its base value. Failed values get an
// error row.
func (a *Analyzer) SingleParam(kind strategy.Kind, baseParams map[string]interface{}, paramName string, values []interface{}, data series.Series, opts backtest.Options, progress robustness.Progress) []SweepRow {
	rows := make([]SweepRow, 0, len(values))
	for i, v := range values {
		row := SweepRow{Param1: v}

		res, err := a.runWith(kind, baseParams, map[string]interface{}{paramName: v}, data, opts)
		if err != nil {
			a.log.WithError(err).WithField(paramName, v).Warn("sweep value failed")
			row.Err = err
		} else {
			row.TotalReturn = res.Metrics.TotalReturn
			row.CAGR = res.Metrics.CAGR
			row.MaxDrawdown = res.Metrics.MaxDrawdown
			row.SharpeRatio = res.Metrics.SharpeRatio
			row.SortinoRatio = res.Metrics.SortinoRatio
		}
		rows = append(rows, row)
		if progress != nil {
			progress(i+1, len(values))
		}
	}
	return rows
}

// GridResult is the output of a two-parameter search: a flat row per
// successful combination plus a dense matrix of one chosen metric.
// Matrix[j][i] holds the value for (param1Values[i], param2Values[j]);
// failed cells are NaN so the matrix keeps its shape.
type GridResult struct {
	Param1Values []interface{}
	Param2Values []interface{}
	Rows         []SweepRow
	Matrix       [][]float64
	Metric       Metric
}

// DualParam grid-searches two parameters jointly.
func (a *Analyzer) DualParam(kind strategy.Kind, baseParams map[string]interface{}, param1Name string, param1Values []interface{}, param2Name string, param2Values []interface{}, data series.Series, opts backtest.Options, metric Metric, progress robustness.Progress) *GridResult {
	grid := &GridResult{
		Param1Values: param1Values,
		Param2Values: param2Values,
		Metric:       metric,
		Matrix:       make([][]float64, len(param2Values)),
	}
	for j := range grid.Matrix {
		grid.Matrix[j] = make([]float64, len(param1Values))
	}

	total := len(param1Values) * len(param2Values)
	completed := 0

	for i, v1 := range param1Values {
		for j, v2 := range param2Values {
			res, err := a.runWith(kind, baseParams, map[string]interface{}{
				param1Name: v1,
				param2Name: v2,
			}, data, opts)

			if err != nil {
				grid.Matrix[j][i] = math.NaN()
			} else {
				grid.Rows = append(grid.Rows, SweepRow{
					Param1:      v1,
					Param2:      v2,
					TotalReturn: res.Metrics.TotalReturn,
					CAGR:        res.Metrics.CAGR,
					MaxDrawdown: res.Metrics.MaxDrawdown,
					SharpeRatio: res.Metrics.SharpeRatio,
				})
				grid.Matrix[j][i] = pickMetric(res, metric)
			}

			completed++
			if progress != nil {
				progress(completed, total)
			}
		}
	}
	return grid
}

func (a *Analyzer) runWith(kind strategy.Kind, base, overrides map[string]interface{}, data series.Series, opts backtest.Options) (*backtest.Result, error) {
	params := make(map[string]interface{}, len(base)+len(overrides))
	for k, v := range base {
		params[k] = v
	}
	for k, v := range overrides {
		params[k] = v
	}

	strat, err := strategy.Config{Kind: kind, Params: params}.New()
	if err != nil {
		return nil, err
	}
	return a.engine.Run(strat, data, opts)
}

func pickMetric(res *backtest.Result, metric Metric) float64 {
	switch metric {
	case MetricTotalReturn:
		return res.Metrics.TotalReturn
	case MetricCAGR:
		return res.Metrics.CAGR
	case MetricMaxDrawdown:
		return res.Metrics.MaxDrawdown
	default:
		return res.Metrics.SharpeRatio
	}
}
