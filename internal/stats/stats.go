// Package stats provides the significance tests used to compare
// strategy return distributions: two-sample t-tests, mean confidence
// intervals, Bonferroni-corrected pairwise comparisons, and
// distribution summaries.
package stats

import (
	"fmt"
	"math"
	"sort"

	"dcabench/internal/metrics"
)

// TTestResult holds the outcome of an independent two-sample t-test.
// Valid is false when either sample is too small to test.
type TTestResult struct {
	TStatistic  float64
	PValue      float64
	Significant bool
	MeanA       float64
	MeanB       float64
	MeanDiff    float64
	Valid       bool
	Conclusion  string
}

// TTest compares the means of two independent samples with a pooled
// variance two-sample t-test and a two-tailed p-value. Samples with
// fewer than two points produce an invalid result, not an error.
func TTest(a, b []float64, alpha float64) TTestResult {
	if len(a) < 2 || len(b) < 2 {
		return TTestResult{Conclusion: "insufficient data for a t-test"}
	}

	meanA, meanB := metrics.Mean(a), metrics.Mean(b)
	varA := variance(a, meanA)
	varB := variance(b, meanB)
	na, nb := float64(len(a)), float64(len(b))

	df := na + nb - 2
	pooled := ((na-1)*varA + (nb-1)*varB) / df
	se := math.Sqrt(pooled * (1/na + 1/nb))

	res := TTestResult{
		MeanA:    meanA,
		MeanB:    meanB,
		MeanDiff: meanA - meanB,
		Valid:    true,
	}
	if se == 0 {
		// Identical constant samples: no evidence of a difference.
		res.PValue = 1
		res.Conclusion = fmt.Sprintf("no significant difference (p = %.4f > %v)", res.PValue, alpha)
		return res
	}

	res.TStatistic = res.MeanDiff / se
	res.PValue = studentTPValue(res.TStatistic, df)
	res.Significant = res.PValue < alpha

	switch {
	case res.Significant && res.MeanDiff > 0:
		res.Conclusion = fmt.Sprintf("sample A significantly higher (diff %.2f, p = %.4f)", res.MeanDiff, res.PValue)
	case res.Significant:
		res.Conclusion = fmt.Sprintf("sample B significantly higher (diff %.2f, p = %.4f)", -res.MeanDiff, res.PValue)
	default:
		res.Conclusion = fmt.Sprintf("no significant difference (p = %.4f > %v)", res.PValue, alpha)
	}
	return res
}

// ConfidenceInterval returns the (lower, upper) bounds of the mean at
// the given confidence level, using the Student-t critical value.
// Fewer than two points yields (0, 0).
func ConfidenceInterval(xs []float64, confidence float64) (float64, float64) {
	if len(xs) < 2 {
		return 0, 0
	}
	n := float64(len(xs))
	mean := metrics.Mean(xs)
	stdErr := metrics.SampleStdDev(xs) / math.Sqrt(n)

	alpha := 1 - confidence
	tCrit := studentTQuantile(1-alpha/2, n-1)
	margin := tCrit * stdErr
	return mean - margin, mean + margin
}

// PairwiseRow is one strategy pair's comparison under the corrected
// significance level.
type PairwiseRow struct {
	NameA  string
	NameB  string
	Result TTestResult
}

// PairwiseCompare t-tests every pair of samples with a Bonferroni
// correction: each individual test runs at alpha divided by the number
// of comparisons. Pairs are emitted in sorted name order.
func PairwiseCompare(samples map[string][]float64, alpha float64) []PairwiseRow {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) < 2 {
		return nil
	}

	comparisons := len(names) * (len(names) - 1) / 2
	adjusted := alpha / float64(comparisons)

	rows := make([]PairwiseRow, 0, comparisons)
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			rows = append(rows, PairwiseRow{
				NameA:  names[i],
				NameB:  names[j],
				Result: TTest(samples[names[i]], samples[names[j]], adjusted),
			})
		}
	}
	return rows
}

// Summary describes a sample's distribution. Skewness and Kurtosis use
// the bias-corrected estimators; Kurtosis is excess kurtosis (0 for a
// normal distribution).
type Summary struct {
	Mean        float64
	Median      float64
	Std         float64
	Min         float64
	Max         float64
	Skewness    float64
	Kurtosis    float64
	Count       int
	PositivePct float64
}

// Summarize computes the distribution summary. Fewer than two points
// yields the zero Summary with only Count set.
func Summarize(xs []float64) Summary {
	s := Summary{Count: len(xs)}
	if len(xs) < 2 {
		return s
	}

	s.Mean = metrics.Mean(xs)
	s.Median = metrics.Median(xs)
	s.Std = metrics.SampleStdDev(xs)
	s.Min, s.Max = xs[0], xs[0]

	positive := 0
	for _, x := range xs {
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
		if x > 0 {
			positive++
		}
	}
	s.PositivePct = float64(positive) / float64(len(xs)) * 100
	s.Skewness = skewness(xs, s.Mean, s.Std)
	s.Kurtosis = kurtosis(xs, s.Mean, s.Std)
	return s
}

func variance(xs []float64, mean float64) float64 {
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}

// skewness is the adjusted Fisher-Pearson estimator, needing at least
// three points and nonzero spread.
func skewness(xs []float64, mean, std float64) float64 {
	n := float64(len(xs))
	if n < 3 || std == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		z := (x - mean) / std
		sum += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// kurtosis is the bias-corrected excess kurtosis, needing at least
// four points and nonzero spread.
func kurtosis(xs []float64, mean, std float64) float64 {
	n := float64(len(xs))
	if n < 4 || std == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		z := (x - mean) / std
		sum += z * z * z * z
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*sum - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// studentTPValue is the two-tailed p-value of a t statistic with df
// degrees of freedom, via the regularized incomplete beta function.
func studentTPValue(t, df float64) float64 {
	x := df / (df + t*t)
	return regIncBeta(df/2, 0.5, x)
}

// studentTQuantile inverts the Student-t CDF for p in (0.5, 1) by
// bisection. Accuracy is far below anything visible at reporting
// precision.
func studentTQuantile(p, df float64) float64 {
	if p <= 0.5 {
		return 0
	}
	lo, hi := 0.0, 1000.0
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		// CDF(mid) = 1 - pValue(mid)/2 for mid >= 0.
		cdf := 1 - studentTPValue(mid, df)/2
		if cdf < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// regIncBeta is the regularized incomplete beta function I_x(a, b),
// evaluated with the continued fraction expansion.
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	front := math.Exp(lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betacf(a, b, x) / a
	}
	return 1 - front*betacf(b, a, 1-x)/b
}

// betacf evaluates the continued fraction for the incomplete beta
// function by the modified Lentz method.
func betacf(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		tiny    = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}
