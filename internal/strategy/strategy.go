// Package strategy defines the periodic-investment decision contract and
// the built-in DCA variants. A strategy sees only the current price, the
// history up to that date and the portfolio state; it never looks ahead.
package strategy

import (
	"fmt"
	"time"

	"dcabench/internal/series"
)

// Decision is a strategy's instruction for a single investment period.
type Decision struct {
	Multiplier float64 // scale on the base investment amount; 1.0 = unchanged, 0 = skip
	SellPct    float64 // fraction of held shares to liquidate this period, in [0,1]
	Reason     string  // human-readable rationale, diagnostic only
}

// Neutral is the decision returned whenever a strategy cannot evaluate
// its rule (insufficient history, degenerate reference values).
func Neutral(reason string) Decision {
	return Decision{Multiplier: 1.0, SellPct: 0, Reason: reason}
}

// PortfolioState is the portfolio snapshot handed to Decide before the
// period's action. CumulativeReturn is in percent.
type PortfolioState struct {
	TotalShares      float64
	TotalCost        float64
	CurrentValue     float64
	CumulativeReturn float64
}

// ParamKind tags a tunable parameter's type for configuration UIs.
type ParamKind string

const (
	ParamInt    ParamKind = "int"
	ParamFloat  ParamKind = "float"
	ParamChoice ParamKind = "choice"
)

// ParamSpec describes one tunable parameter. Min/Max are inclusive and
// only meaningful for numeric kinds; Options only for ParamChoice. The
// schema exists for external configuration and sweeps; decision logic
// never consults it.
type ParamSpec struct {
	Name        string
	Label       string
	Kind        ParamKind
	Default     interface{}
	Min         float64
	Max         float64
	Step        float64
	Options     []string
	Description string
}

// Strategy is the closed contract every DCA variant implements.
// Decide must be a function of its inputs, the strategy's parameters and
// any strategy-private running state; Reset clears that state so one
// configuration can drive independent runs.
type Strategy interface {
	Name() string
	ShortName() string
	Description() string
	Params() map[string]interface{}
	ParamSpecs() []ParamSpec
	Decide(price float64, date time.Time, history series.Series, state PortfolioState) Decision
	Reset()
}

// Kind identifies a built-in strategy variant.
type Kind string

const (
	KindPure         Kind = "pure"
	KindDipBuying    Kind = "dip"
	KindTrendFilter  Kind = "trend"
	KindVolatility   Kind = "vol"
	KindProfitTaking Kind = "profit"
)

// Kinds lists the built-in variants in display order.
var Kinds = []Kind{KindPure, KindDipBuying, KindTrendFilter, KindVolatility, KindProfitTaking}

// ParseKind converts a flag value into a Kind, accepting both the kind
// string and the short name (v0..v5).
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pure", "v0", "V0":
		return KindPure, nil
	case "dip", "v1", "V1":
		return KindDipBuying, nil
	case "trend", "v2", "V2":
		return KindTrendFilter, nil
	case "vol", "volatility", "v3", "V3":
		return KindVolatility, nil
	case "profit", "v5", "V5":
		return KindProfitTaking, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Config names a variant and its parameter overrides. Harnesses hold a
// Config and call New once per independent run, so stateful variants
// never share an instance across goroutines.
type Config struct {
	Kind   Kind
	Params map[string]interface{}
}

// New constructs a fresh strategy instance, overlaying Params on the
// variant's defaults. Values of the wrong type are rejected; values
// outside the documented ranges are the caller's responsibility.
func (c Config) New() (Strategy, error) {
	var s Strategy
	switch c.Kind {
	case KindPure:
		s = NewPure()
	case KindDipBuying:
		s = NewDipBuying(c.Params)
	case KindTrendFilter:
		s = NewTrendFilter(c.Params)
	case KindVolatility:
		s = NewVolatility(c.Params)
	case KindProfitTaking:
		s = NewProfitTaking(c.Params)
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", c.Kind)
	}
	if err := checkParamTypes(s.ParamSpecs(), c.Params); err != nil {
		return nil, err
	}
	return s, nil
}

func checkParamTypes(specs []ParamSpec, params map[string]interface{}) error {
	for _, spec := range specs {
		v, ok := params[spec.Name]
		if !ok {
			continue
		}
		switch spec.Kind {
		case ParamChoice:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("parameter %s: expected string, got %T", spec.Name, v)
			}
		default:
			switch v.(type) {
			case int, float64:
			default:
				return fmt.Errorf("parameter %s: expected number, got %T", spec.Name, v)
			}
		}
	}
	return nil
}

// overlay merges overrides onto a copy of defaults.
func overlay(defaults, overrides map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// floatParam reads a numeric parameter, accepting int or float values.
func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// intParam reads an integer parameter, accepting int or float values.
func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

// stringParam reads a string parameter.
func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return fallback
}
