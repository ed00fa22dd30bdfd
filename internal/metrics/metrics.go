// Package metrics turns a backtest ledger into performance and risk
// numbers. Every formula degrades to 0 on degenerate input (empty
// ledger, zero cost basis, flat series) so that callers never have to
// branch on missing values.
package metrics

import (
	"math"

	"dcabench/internal/ledger"
)

// Performance is the full result sheet for one run. All percentage
// fields are expressed as percents (5.0 means five percent), ratios
// are dimensionless.
type Performance struct {
	TotalReturn        float64
	TotalReturnAmount  float64
	CAGR               float64
	Volatility         float64
	DownsideVolatility float64
	VaR99              float64
	MaxDrawdown        float64
	MaxDrawdownDays    int
	SharpeRatio        float64
	SortinoRatio       float64
	CalmarRatio        float64
	WinRate            float64
	AnnualReturns      map[int]float64

	TotalTrades      int
	TotalInvested    float64
	FinalValue       float64
	TotalShares      float64
	AverageCost      float64
	InvestmentMonths int
	InvestmentYears  float64
}

// periodsPerYear is the annualization factor applied to period-return
// volatility. It is fixed at 12 for every frequency, a documented
// simplification carried over so results stay reproducible.
const periodsPerYear = 12

// Calculator computes Performance sheets. RiskFreeRate is the annual
// rate as a fraction (0.03 for 3%), used by Sharpe and Sortino.
type Calculator struct {
	RiskFreeRate float64
}

func NewCalculator(riskFreeRate float64) *Calculator {
	return &Calculator{RiskFreeRate: riskFreeRate}
}

// ComputeAll derives the full Performance sheet from a ledger. It is a
// pure function of the ledger and the configured risk-free rate.
func (c *Calculator) ComputeAll(l ledger.Ledger) Performance {
	perf := Performance{AnnualReturns: map[int]float64{}}
	if l.Empty() {
		return perf
	}

	final := l.Final()
	perf.TotalInvested = final.TotalCost
	perf.FinalValue = final.CurrentValue
	perf.TotalShares = final.TotalShares
	perf.TotalTrades = len(l)
	perf.InvestmentMonths = len(l)
	perf.InvestmentYears = final.Date.Sub(l[0].Date).Hours() / 24 / 365.25

	perf.TotalReturn = TotalReturn(perf.TotalInvested, perf.FinalValue)
	perf.TotalReturnAmount = perf.FinalValue - perf.TotalInvested
	perf.CAGR = CAGR(perf.TotalInvested, perf.FinalValue, perf.InvestmentYears)
	perf.AnnualReturns = AnnualReturns(l)

	if perf.TotalShares > 0 {
		perf.AverageCost = perf.TotalInvested / perf.TotalShares
	}

	values := l.Values()
	returns := periodReturns(values)

	perf.MaxDrawdown, perf.MaxDrawdownDays = MaxDrawdown(l)

	if len(returns) > 1 {
		perf.Volatility = Volatility(returns)
		perf.DownsideVolatility = DownsideVolatility(returns)
		perf.VaR99 = Percentile(returns, 1) * 100

		perf.SharpeRatio = c.sharpe(perf.CAGR, perf.Volatility)
		perf.SortinoRatio = c.sharpe(perf.CAGR, perf.DownsideVolatility)
		perf.CalmarRatio = Calmar(perf.CAGR, perf.MaxDrawdown)
	}

	perf.WinRate = WinRate(l)
	return perf
}

// TotalReturn is (finalValue - totalCost) / totalCost * 100, or 0 when
// nothing was invested.
func TotalReturn(totalCost, finalValue float64) float64 {
	if totalCost <= 0 {
		return 0
	}
	return (finalValue - totalCost) / totalCost * 100
}

// CAGR annualizes the total return over the elapsed calendar years.
// The single elapsed-years denominator over periodic contributions is
// a known approximation and is kept as such rather than replaced with
// an IRR.
func CAGR(totalCost, finalValue, years float64) float64 {
	if totalCost <= 0 || years <= 0 || finalValue <= 0 {
		return 0
	}
	return (math.Pow(finalValue/totalCost, 1/years) - 1) * 100
}

// periodReturns is the simple percentage change of successive values,
// with non-finite entries dropped.
func periodReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		r := (values[i] - values[i-1]) / values[i-1]
		if finite(r) {
			out = append(out, r)
		}
	}
	return out
}

// Volatility is the annualized sample standard deviation of period
// returns, in percent.
func Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return SampleStdDev(returns) * math.Sqrt(periodsPerYear) * 100
}

// DownsideVolatility annualizes the deviation of only the below-zero
// period returns. Fewer than two qualifying points yields 0.
func DownsideVolatility(returns []float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}
	return SampleStdDev(downside) * math.Sqrt(periodsPerYear) * 100
}

// MaxDrawdown returns the deepest peak-to-trough decline of the
// portfolio value column as a positive percentage, and the calendar
// days from the all-time peak to the subsequent trough.
func MaxDrawdown(l ledger.Ledger) (float64, int) {
	if len(l) < 2 {
		return 0, 0
	}

	maxDD := 0.0
	runningMax := l[0].CurrentValue
	peakIdx := 0
	for i, tx := range l {
		if tx.CurrentValue > runningMax {
			runningMax = tx.CurrentValue
		}
		if runningMax > 0 {
			dd := (runningMax - tx.CurrentValue) / runningMax * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
		if tx.CurrentValue > l[peakIdx].CurrentValue {
			peakIdx = i
		}
	}

	// Duration runs from the global peak to the lowest point after it.
	troughIdx := peakIdx
	for i := peakIdx; i < len(l); i++ {
		if l[i].CurrentValue < l[troughIdx].CurrentValue {
			troughIdx = i
		}
	}
	days := int(l[troughIdx].Date.Sub(l[peakIdx].Date).Hours() / 24)

	return maxDD, days
}

func (c *Calculator) sharpe(cagr, vol float64) float64 {
	if vol <= 0 {
		return 0
	}
	return (cagr - c.RiskFreeRate*100) / vol
}

// Calmar divides CAGR by the max drawdown magnitude.
func Calmar(cagr, maxDrawdown float64) float64 {
	if maxDrawdown <= 0 {
		return 0
	}
	return cagr / maxDrawdown
}

// WinRate is the share of ledger rows whose cumulative return is
// strictly positive, in percent.
func WinRate(l ledger.Ledger) float64 {
	if l.Empty() {
		return 0
	}
	positive := 0
	for _, tx := range l {
		if tx.ReturnPct > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(l)) * 100
}

// AnnualReturns computes one return per calendar year present in the
// ledger: year-end value against the year-start cost basis net of new
// money added during the year. Years whose starting basis is
// non-positive (typically the first year) fall back to the year-end
// cumulative return.
func AnnualReturns(l ledger.Ledger) map[int]float64 {
	out := map[int]float64{}
	if l.Empty() {
		return out
	}

	start := 0
	for i := 1; i <= len(l); i++ {
		if i < len(l) && l[i].Date.Year() == l[start].Date.Year() {
			continue
		}
		first, last := l[start], l[i-1]
		var invested float64
		for _, tx := range l[start:i] {
			invested += tx.Investment
		}

		startValue := first.CurrentValue - first.Investment
		if startValue > 0 {
			out[first.Date.Year()] = (last.CurrentValue - startValue - invested) / startValue * 100
		} else {
			out[first.Date.Year()] = last.ReturnPct
		}
		start = i
	}
	return out
}
