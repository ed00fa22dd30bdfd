package strategy

import (
	"fmt"
	"time"

	"dcabench/internal/series"
)

// ProfitTaking is the V5 variant: normal DCA buying plus a partial sell
// whenever the cumulative return crosses a threshold and the cooldown has
// elapsed. It is the only variant with cross-call state; Reset must be
// called before reusing an instance for an independent run.
type ProfitTaking struct {
	params map[string]interface{}

	threshold float64
	sellPct   float64
	cooldown  int

	// running state
	hasSold          bool
	periodsSinceSell int
}

var profitDefaults = map[string]interface{}{
	"profit_threshold": 0.30,
	"sell_percentage":  0.30,
	"cooldown_periods": 6,
}

// NewProfitTaking creates a profit-taking strategy with overrides applied
// over the defaults.
func NewProfitTaking(params map[string]interface{}) *ProfitTaking {
	p := overlay(profitDefaults, params)
	return &ProfitTaking{
		params:    p,
		threshold: floatParam(p, "profit_threshold", 0.30),
		sellPct:   floatParam(p, "sell_percentage", 0.30),
		cooldown:  intParam(p, "cooldown_periods", 6),
	}
}

func (p *ProfitTaking) Name() string      { return "Profit Taking" }
func (p *ProfitTaking) ShortName() string { return "V5" }
func (p *ProfitTaking) Description() string {
	return "Keeps buying every period and locks in gains with a partial sell once the cumulative return crosses the target."
}

func (p *ProfitTaking) Params() map[string]interface{} { return p.params }

func (p *ProfitTaking) ParamSpecs() []ParamSpec {
	return []ParamSpec{
		{Name: "profit_threshold", Label: "Profit threshold", Kind: ParamFloat, Default: 0.30, Min: 0.10, Max: 1.0, Step: 0.05,
			Description: "Cumulative return that triggers a sell"},
		{Name: "sell_percentage", Label: "Sell fraction", Kind: ParamFloat, Default: 0.30, Min: 0.10, Max: 0.50, Step: 0.05,
			Description: "Fraction of held shares sold on each trigger"},
		{Name: "cooldown_periods", Label: "Cooldown (periods)", Kind: ParamInt, Default: 6, Min: 1, Max: 24, Step: 1,
			Description: "Minimum periods between two sells"},
	}
}

func (p *ProfitTaking) Decide(price float64, date time.Time, history series.Series, state PortfolioState) Decision {
	cumReturn := state.CumulativeReturn / 100

	if p.hasSold {
		p.periodsSinceSell++
	}

	cooldownOver := !p.hasSold || p.periodsSinceSell >= p.cooldown
	if cumReturn >= p.threshold && cooldownOver && state.TotalShares > 0 {
		p.hasSold = true
		p.periodsSinceSell = 0
		return Decision{
			Multiplier: 1.0,
			SellPct:    p.sellPct,
			Reason:     fmt.Sprintf("return %.1f%% >= %.0f%%, sell %.0f%% of holdings", cumReturn*100, p.threshold*100, p.sellPct*100),
		}
	}

	reason := "normal investment"
	if cumReturn >= p.threshold && !cooldownOver {
		reason = fmt.Sprintf("cooling down (%d/%d), normal investment", p.periodsSinceSell, p.cooldown)
	}
	return Decision{Multiplier: 1.0, SellPct: 0, Reason: reason}
}

// Reset clears the sell cooldown so the instance can drive a new run.
func (p *ProfitTaking) Reset() {
	p.hasSold = false
	p.periodsSinceSell = 0
}
