package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTestIdenticalSamples(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	res := TTest(a, a, 0.05)

	require.True(t, res.Valid)
	assert.InDelta(t, 0, res.TStatistic, 1e-12)
	assert.InDelta(t, 1, res.PValue, 1e-9)
	assert.False(t, res.Significant)
	assert.Zero(t, res.MeanDiff)
}

func TestTTestClearlyDifferentSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = 10 + rng.NormFloat64()
		b[i] = 0 + rng.NormFloat64()
	}

	res := TTest(a, b, 0.05)
	require.True(t, res.Valid)
	assert.True(t, res.Significant)
	assert.Greater(t, res.TStatistic, 10.0)
	assert.Less(t, res.PValue, 1e-6)
	assert.InDelta(t, 10, res.MeanDiff, 1.0)
}

func TestTTestKnownValue(t *testing.T) {
	// Two small samples with a hand-checked pooled t statistic.
	a := []float64{2, 4, 6, 8}
	b := []float64{1, 2, 3, 4}

	res := TTest(a, b, 0.05)
	require.True(t, res.Valid)
	// mean diff 2.5, pooled var (3*20/3 + 3*5/3)/6 = 25/6,
	// se = sqrt(25/6 * 1/2), t = 2.5/se.
	wantT := 2.5 / math.Sqrt(25.0/6.0/2.0)
	assert.InDelta(t, wantT, res.TStatistic, 1e-9)
	assert.Greater(t, res.PValue, 0.0)
	assert.Less(t, res.PValue, 1.0)
}

func TestTTestInsufficientData(t *testing.T) {
	res := TTest([]float64{1}, []float64{1, 2, 3}, 0.05)
	assert.False(t, res.Valid)
	assert.False(t, res.Significant)
}

func TestTTestZeroVariance(t *testing.T) {
	res := TTest([]float64{3, 3, 3}, []float64{3, 3, 3}, 0.05)
	require.True(t, res.Valid)
	assert.False(t, res.Significant)
	assert.False(t, math.IsNaN(res.PValue))
}

func TestConfidenceIntervalContainsMean(t *testing.T) {
	xs := []float64{8, 9, 10, 11, 12}
	lo, hi := ConfidenceInterval(xs, 0.95)

	assert.Less(t, lo, 10.0)
	assert.Greater(t, hi, 10.0)
	assert.InDelta(t, 10.0, (lo+hi)/2, 1e-6, "interval is symmetric around the mean")

	// t critical for df=4 at 97.5% is 2.776; se = sqrt(2.5)/sqrt(5).
	wantMargin := 2.7764451052 * math.Sqrt(2.5) / math.Sqrt(5)
	assert.InDelta(t, wantMargin, hi-10.0, 1e-4)
}

func TestConfidenceIntervalDegenerate(t *testing.T) {
	lo, hi := ConfidenceInterval([]float64{5}, 0.95)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestPairwiseCompareBonferroni(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	noise := func(center float64) []float64 {
		xs := make([]float64, 30)
		for i := range xs {
			xs[i] = center + rng.NormFloat64()
		}
		return xs
	}

	rows := PairwiseCompare(map[string][]float64{
		"pure":   noise(5),
		"dip":    noise(5.1),
		"profit": noise(20),
	}, 0.05)

	require.Len(t, rows, 3, "three strategies give three pairs")
	assert.Equal(t, "dip", rows[0].NameA)
	assert.Equal(t, "profit", rows[0].NameB)

	for _, row := range rows {
		require.True(t, row.Result.Valid, "%s vs %s", row.NameA, row.NameB)
		involvesProfit := row.NameA == "profit" || row.NameB == "profit"
		assert.Equal(t, involvesProfit, row.Result.Significant,
			"%s vs %s", row.NameA, row.NameB)
	}
}

func TestPairwiseCompareTooFew(t *testing.T) {
	assert.Nil(t, PairwiseCompare(map[string][]float64{"only": {1, 2, 3}}, 0.05))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{-1, 0, 1, 2, 3, 4, 5})

	assert.Equal(t, 7, s.Count)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.Equal(t, 2.0, s.Median)
	assert.Equal(t, -1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 5.0/7.0*100, s.PositivePct, 1e-9)
	assert.InDelta(t, 0.0, s.Skewness, 1e-9, "symmetric sample")
}

func TestSummarizeSkewedSample(t *testing.T) {
	s := Summarize([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 100})
	assert.Greater(t, s.Skewness, 2.0)
	assert.Greater(t, s.Kurtosis, 5.0)
}

func TestSummarizeDegenerate(t *testing.T) {
	s := Summarize([]float64{42})
	assert.Equal(t, 1, s.Count)
	assert.Zero(t, s.Mean)
	assert.Zero(t, s.Std)
}

func TestStudentTDistributionSanity(t *testing.T) {
	// Large df approaches the normal distribution: P(|T| > 1.96) ~ 5%.
	p := studentTPValue(1.96, 1000)
	assert.InDelta(t, 0.05, p, 0.002)

	// Quantile inverts the p-value.
	q := studentTQuantile(0.975, 1000)
	assert.InDelta(t, 1.96, q, 0.01)
}
