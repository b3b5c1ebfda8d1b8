package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"surveycli/pkg/contracts/domain"
)

// Describe summarises values. Std is the sample standard deviation (0 for
// a single value); quartiles interpolate linearly between order statistics.
func Describe(values []float64) domain.NumericSummary {
	if len(values) == 0 {
		return domain.NumericSummary{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	summary := domain.NumericSummary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    floats.Max(sorted),
	}
	if len(sorted) > 1 {
		summary.Std = stat.StdDev(sorted, nil)
	}
	return summary
}

// Quantile returns the p-quantile of sorted values using linear
// interpolation at position p·(n−1).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Stars renders the conventional significance marker for p
func Stars(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "n.s."
	}
}

// BonferroniAdjust multiplies p by the number of comparisons, capped at 1
func BonferroniAdjust(p float64, comparisons int) float64 {
	if comparisons < 1 {
		return p
	}
	return math.Min(1, p*float64(comparisons))
}
