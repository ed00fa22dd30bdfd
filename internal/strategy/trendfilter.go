package strategy

import (
	"fmt"
	"strings"
	"time"

	"dcabench/internal/series"
)

// TrendFilter is the V2 variant: compare the price to a trailing moving
// average and overweight below it.
type TrendFilter struct {
	params map[string]interface{}

	maPeriod  int
	maType    string // SMA or EMA
	aboveMult float64
	belowMult float64
}

var trendDefaults = map[string]interface{}{
	"ma_period":        200,
	"ma_type":          "SMA",
	"above_multiplier": 1.0,
	"below_multiplier": 1.5,
}

// NewTrendFilter creates a trend-filter strategy with overrides applied
// over the defaults.
func NewTrendFilter(params map[string]interface{}) *TrendFilter {
	p := overlay(trendDefaults, params)
	return &TrendFilter{
		params:    p,
		maPeriod:  intParam(p, "ma_period", 200),
		maType:    strings.ToUpper(stringParam(p, "ma_type", "SMA")),
		aboveMult: floatParam(p, "above_multiplier", 1.0),
		belowMult: floatParam(p, "below_multiplier", 1.5),
	}
}

func (t *TrendFilter) Name() string      { return "Trend Filter" }
func (t *TrendFilter) ShortName() string { return "V2" }
func (t *TrendFilter) Description() string {
	return "Adjusts the investment by the price's position against a long moving average. Below the MA buys more."
}

func (t *TrendFilter) Params() map[string]interface{} { return t.params }

func (t *TrendFilter) ParamSpecs() []ParamSpec {
	return []ParamSpec{
		{Name: "ma_period", Label: "MA period", Kind: ParamInt, Default: 200, Min: 20, Max: 400, Step: 10,
			Description: "Moving average window in trading days"},
		{Name: "ma_type", Label: "MA type", Kind: ParamChoice, Default: "SMA", Options: []string{"SMA", "EMA"},
			Description: "Simple or exponential moving average"},
		{Name: "above_multiplier", Label: "Multiplier above MA", Kind: ParamFloat, Default: 1.0, Min: 0.5, Max: 2.0, Step: 0.1,
			Description: "Investment multiplier when the price is at or above the MA"},
		{Name: "below_multiplier", Label: "Multiplier below MA", Kind: ParamFloat, Default: 1.5, Min: 1.0, Max: 3.0, Step: 0.1,
			Description: "Investment multiplier when the price is below the MA"},
	}
}

func (t *TrendFilter) Decide(price float64, date time.Time, history series.Series, state PortfolioState) Decision {
	if len(history) < t.maPeriod {
		return Neutral(fmt.Sprintf("insufficient history (%d/%d days)", len(history), t.maPeriod))
	}

	ma := t.movingAverage(history.Closes())
	if ma <= 0 {
		return Neutral("invalid moving average")
	}

	if price < ma {
		pctBelow := (ma - price) / ma * 100
		return Decision{
			Multiplier: t.belowMult,
			Reason:     fmt.Sprintf("price %.1f%% below %s%d, invest %.1fx", pctBelow, t.maType, t.maPeriod, t.belowMult),
		}
	}
	pctAbove := (price - ma) / ma * 100
	return Decision{
		Multiplier: t.aboveMult,
		Reason:     fmt.Sprintf("price %.1f%% above %s%d, normal investment", pctAbove, t.maType, t.maPeriod),
	}
}

// movingAverage returns the latest MA value over the close series.
func (t *TrendFilter) movingAverage(closes []float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	if t.maType == "EMA" {
		alpha := 2.0 / (float64(t.maPeriod) + 1.0)
		ema := closes[0]
		for _, c := range closes[1:] {
			ema = alpha*c + (1-alpha)*ema
		}
		return ema
	}
	// SMA over the trailing window
	window := closes
	if len(window) > t.maPeriod {
		window = window[len(window)-t.maPeriod:]
	}
	sum := 0.0
	for _, c := range window {
		sum += c
	}
	return sum / float64(len(window))
}

func (t *TrendFilter) Reset() {}
