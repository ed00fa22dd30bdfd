package strategy

import (
	"time"

	"dcabench/internal/series"
)

// Pure is the V0 baseline: a fixed amount every period regardless of
// market conditions. Every other variant is compared against it.
type Pure struct{}

// NewPure creates the baseline strategy. It has no parameters.
func NewPure() *Pure { return &Pure{} }

func (p *Pure) Name() string        { return "Pure DCA" }
func (p *Pure) ShortName() string   { return "V0" }
func (p *Pure) Description() string {
	return "Invests the same amount every period. Baseline for all adjusted variants."
}

func (p *Pure) Params() map[string]interface{} { return map[string]interface{}{} }
func (p *Pure) ParamSpecs() []ParamSpec        { return nil }

func (p *Pure) Decide(price float64, date time.Time, history series.Series, state PortfolioState) Decision {
	return Decision{Multiplier: 1.0, SellPct: 0, Reason: "fixed periodic investment"}
}

func (p *Pure) Reset() {}
