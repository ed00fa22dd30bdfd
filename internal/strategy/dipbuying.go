package strategy

import (
	"fmt"
	"time"

	"dcabench/internal/series"
)

// DipBuying is the V1 variant: overweight when the price has fallen from
// its trailing high. Two tiers, evaluated deepest first, so a drop past
// the second threshold gets the tier-2 multiplier and nothing stacks.
type DipBuying struct {
	params map[string]interface{}

	lookback    int
	threshold1  float64
	multiplier1 float64
	threshold2  float64
	multiplier2 float64
}

var dipDefaults = map[string]interface{}{
	"lookback_period": 252,
	"dip_threshold_1": 0.10,
	"multiplier_1":    1.5,
	"dip_threshold_2": 0.20,
	"multiplier_2":    2.0,
}

// NewDipBuying creates a dip-buying strategy with overrides applied over
// the defaults.
func NewDipBuying(params map[string]interface{}) *DipBuying {
	p := overlay(dipDefaults, params)
	return &DipBuying{
		params:      p,
		lookback:    intParam(p, "lookback_period", 252),
		threshold1:  floatParam(p, "dip_threshold_1", 0.10),
		multiplier1: floatParam(p, "multiplier_1", 1.5),
		threshold2:  floatParam(p, "dip_threshold_2", 0.20),
		multiplier2: floatParam(p, "multiplier_2", 2.0),
	}
}

func (d *DipBuying) Name() string      { return "Dip Buying" }
func (d *DipBuying) ShortName() string { return "V1" }
func (d *DipBuying) Description() string {
	return "Increases the investment when the price drops from its trailing high. Deeper dip, bigger multiplier."
}

func (d *DipBuying) Params() map[string]interface{} { return d.params }

func (d *DipBuying) ParamSpecs() []ParamSpec {
	return []ParamSpec{
		{Name: "lookback_period", Label: "Lookback (trading days)", Kind: ParamInt, Default: 252, Min: 20, Max: 504, Step: 21,
			Description: "Window for the trailing high (252 days is roughly one year)"},
		{Name: "dip_threshold_1", Label: "Tier-1 dip threshold", Kind: ParamFloat, Default: 0.10, Min: 0.05, Max: 0.30, Step: 0.01,
			Description: "Drop from the trailing high that triggers the first tier"},
		{Name: "multiplier_1", Label: "Tier-1 multiplier", Kind: ParamFloat, Default: 1.5, Min: 1.0, Max: 3.0, Step: 0.1,
			Description: "Investment multiplier at the first tier"},
		{Name: "dip_threshold_2", Label: "Tier-2 dip threshold", Kind: ParamFloat, Default: 0.20, Min: 0.10, Max: 0.50, Step: 0.01,
			Description: "Drop from the trailing high that triggers the second tier"},
		{Name: "multiplier_2", Label: "Tier-2 multiplier", Kind: ParamFloat, Default: 2.0, Min: 1.5, Max: 5.0, Step: 0.1,
			Description: "Investment multiplier at the second tier"},
	}
}

func (d *DipBuying) Decide(price float64, date time.Time, history series.Series, state PortfolioState) Decision {
	if len(history) < 2 {
		return Neutral("insufficient history")
	}

	window := history
	if len(window) > d.lookback {
		window = window[len(window)-d.lookback:]
	}

	recentHigh := 0.0
	for _, p := range window {
		if p.Close > recentHigh {
			recentHigh = p.Close
		}
	}
	if recentHigh <= 0 {
		return Neutral("invalid price data")
	}

	drawdown := (recentHigh - price) / recentHigh

	switch {
	case drawdown >= d.threshold2:
		return Decision{
			Multiplier: d.multiplier2,
			Reason:     fmt.Sprintf("drop %.1f%% >= %.0f%%, invest %.1fx", drawdown*100, d.threshold2*100, d.multiplier2),
		}
	case drawdown >= d.threshold1:
		return Decision{
			Multiplier: d.multiplier1,
			Reason:     fmt.Sprintf("drop %.1f%% >= %.0f%%, invest %.1fx", drawdown*100, d.threshold1*100, d.multiplier1),
		}
	default:
		return Decision{
			Multiplier: 1.0,
			Reason:     fmt.Sprintf("drop %.1f%% < %.0f%%, normal investment", drawdown*100, d.threshold1*100),
		}
	}
}

func (d *DipBuying) Reset() {}
