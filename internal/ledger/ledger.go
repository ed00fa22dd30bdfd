// Package ledger holds the transaction history a backtest produces and
// the metrics engine consumes. It carries no behavior beyond column
// accessors so that both sides can depend on it without depending on
// each other.
package ledger

import "time"

// Transaction is one investment period's row: the state of the
// portfolio after that period's sell and buy were applied.
//
// TotalCost is cumulative money invested and is never reduced by
// sells, so ReturnPct always measures value against everything ever
// put in.
type Transaction struct {
	Date         time.Time
	Price        float64
	Investment   float64
	Multiplier   float64
	SharesBought float64
	SharesSold   float64
	SellProceeds float64
	TotalShares  float64
	TotalCost    float64
	CurrentValue float64
	ReturnPct    float64
	Reason       string
}

// Ledger is the full period-by-period history of one run, in date order.
type Ledger []Transaction

func (l Ledger) Empty() bool { return len(l) == 0 }

// Final returns the last row. Callers must check Empty first.
func (l Ledger) Final() Transaction { return l[len(l)-1] }

// Values returns the portfolio value column.
func (l Ledger) Values() []float64 {
	out := make([]float64, len(l))
	for i, tx := range l {
		out[i] = tx.CurrentValue
	}
	return out
}

// Returns returns the cumulative return column, in percent.
func (l Ledger) Returns() []float64 {
	out := make([]float64, len(l))
	for i, tx := range l {
		out[i] = tx.ReturnPct
	}
	return out
}

// PeriodReturns returns simple period-over-period portfolio value
// changes. A row whose predecessor has zero value yields zero rather
// than a division error. The result has len(l)-1 entries, or none for
// ledgers shorter than two rows.
func (l Ledger) PeriodReturns() []float64 {
	if len(l) < 2 {
		return nil
	}
	out := make([]float64, 0, len(l)-1)
	for i := 1; i < len(l); i++ {
		prev := l[i-1].CurrentValue
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (l[i].CurrentValue-prev)/prev)
	}
	return out
}
