package strategy

import (
	"fmt"
	"math"
	"time"

	"dcabench/internal/series"
)

// Volatility is the V3 variant: size the investment by realized
// volatility against its own trailing average. Panicky markets get more,
// quiet markets get less.
type Volatility struct {
	params map[string]interface{}

	window     int
	lookback   int
	highThresh float64
	lowThresh  float64
	highMult   float64
	lowMult    float64
}

var volDefaults = map[string]interface{}{
	"volatility_window":   20,
	"lookback_period":     252,
	"high_vol_threshold":  1.5,
	"low_vol_threshold":   0.8,
	"high_vol_multiplier": 1.5,
	"low_vol_multiplier":  0.8,
}

// NewVolatility creates a volatility-adjustment strategy with overrides
// applied over the defaults.
func NewVolatility(params map[string]interface{}) *Volatility {
	p := overlay(volDefaults, params)
	return &Volatility{
		params:     p,
		window:     intParam(p, "volatility_window", 20),
		lookback:   intParam(p, "lookback_period", 252),
		highThresh: floatParam(p, "high_vol_threshold", 1.5),
		lowThresh:  floatParam(p, "low_vol_threshold", 0.8),
		highMult:   floatParam(p, "high_vol_multiplier", 1.5),
		lowMult:    floatParam(p, "low_vol_multiplier", 0.8),
	}
}

func (v *Volatility) Name() string      { return "Volatility Adjustment" }
func (v *Volatility) ShortName() string { return "V3" }
func (v *Volatility) Description() string {
	return "Scales the investment by current realized volatility against its trailing average."
}

func (v *Volatility) Params() map[string]interface{} { return v.params }

func (v *Volatility) ParamSpecs() []ParamSpec {
	return []ParamSpec{
		{Name: "volatility_window", Label: "Volatility window (days)", Kind: ParamInt, Default: 20, Min: 5, Max: 60, Step: 5,
			Description: "Window for the current realized volatility"},
		{Name: "lookback_period", Label: "Average lookback (days)", Kind: ParamInt, Default: 252, Min: 60, Max: 504, Step: 21,
			Description: "Window for the long-run average volatility"},
		{Name: "high_vol_threshold", Label: "High-vol ratio", Kind: ParamFloat, Default: 1.5, Min: 1.1, Max: 3.0, Step: 0.1,
			Description: "Current/average ratio above which to overweight"},
		{Name: "low_vol_threshold", Label: "Low-vol ratio", Kind: ParamFloat, Default: 0.8, Min: 0.3, Max: 0.95, Step: 0.05,
			Description: "Current/average ratio below which to underweight"},
		{Name: "high_vol_multiplier", Label: "High-vol multiplier", Kind: ParamFloat, Default: 1.5, Min: 1.0, Max: 3.0, Step: 0.1,
			Description: "Investment multiplier during high volatility"},
		{Name: "low_vol_multiplier", Label: "Low-vol multiplier", Kind: ParamFloat, Default: 0.8, Min: 0.3, Max: 1.0, Step: 0.1,
			Description: "Investment multiplier during low volatility"},
	}
}

func (v *Volatility) Decide(price float64, date time.Time, history series.Series, state PortfolioState) Decision {
	minRequired := v.window
	if v.lookback > minRequired {
		minRequired = v.lookback
	}
	minRequired++
	if len(history) < minRequired {
		return Neutral(fmt.Sprintf("insufficient history (%d/%d days)", len(history), minRequired))
	}

	vols := rollingVolatility(history.Closes(), v.window)
	if len(vols) == 0 {
		return Neutral("volatility not computable")
	}

	currentVol := vols[len(vols)-1]

	avgWindow := vols
	if len(avgWindow) > v.lookback {
		avgWindow = avgWindow[len(avgWindow)-v.lookback:]
	}
	sum := 0.0
	for _, x := range avgWindow {
		sum += x
	}
	avgVol := sum / float64(len(avgWindow))

	if avgVol == 0 || math.IsNaN(currentVol) || math.IsNaN(avgVol) {
		return Neutral("degenerate volatility reference")
	}

	ratio := currentVol / avgVol
	switch {
	case ratio >= v.highThresh:
		return Decision{
			Multiplier: v.highMult,
			Reason:     fmt.Sprintf("high volatility (%.1f%% = %.1fx average), invest %.1fx", currentVol*100, ratio, v.highMult),
		}
	case ratio <= v.lowThresh:
		return Decision{
			Multiplier: v.lowMult,
			Reason:     fmt.Sprintf("low volatility (%.1f%% = %.1fx average), invest %.1fx", currentVol*100, ratio, v.lowMult),
		}
	default:
		return Decision{
			Multiplier: 1.0,
			Reason:     fmt.Sprintf("normal volatility (%.1f%% = %.1fx average)", currentVol*100, ratio),
		}
	}
}

func (v *Volatility) Reset() {}

// rollingVolatility returns the annualized rolling standard deviation of
// daily returns. Only fully-formed windows are emitted.
func rollingVolatility(closes []float64, window int) []float64 {
	if len(closes) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < window {
		return nil
	}

	out := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		out = append(out, stdev(returns[i-window:i])*math.Sqrt(252))
	}
	return out
}

// stdev is the sample standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}
