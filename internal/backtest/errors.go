package backtest

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks validation failures on the inputs to a run:
// empty price data, an empty date-filtered range, or too few resampled
// investment dates. Use errors.Is to test for it.
var ErrInvalidInput = errors.New("invalid backtest input")

// InvalidInputError carries the specific validation failure.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid backtest input: %s", e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(format string, args ...interface{}) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// StrategyError wraps a failure raised from inside a strategy's Decide
// call, including recovered panics. The single-run engine propagates
// it; batch runners record it per unit and continue.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s failed: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }
