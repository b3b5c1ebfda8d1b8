package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	apperrors "surveycli/internal/errors"
	"surveycli/pkg/contracts/domain"
)

// rankAll assigns average ranks (1-based) to the concatenation of groups
// and returns the per-group rank sums plus the tie term Σ(t³−t).
func rankAll(groups [][]float64) (rankSums []float64, tieTerm float64, n int) {
	type obs struct {
		value float64
		group int
	}
	var all []obs
	for g, values := range groups {
		for _, v := range values {
			all = append(all, obs{v, g})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].value < all[j].value })

	n = len(all)
	rankSums = make([]float64, len(groups))
	for i := 0; i < n; {
		j := i
		for j < n && all[j].value == all[i].value {
			j++
		}
		// positions i..j-1 share the average of ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			rankSums[all[k].group] += avg
		}
		if t := float64(j - i); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j
	}
	return rankSums, tieTerm, n
}

// MannWhitneyU runs the two-sided Mann-Whitney U test using the
// tie-corrected normal approximation with continuity correction.
// The reported statistic is U for x.
func MannWhitneyU(x, y []float64) (domain.TestResult, error) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return domain.TestResult{}, fmt.Errorf("mann-whitney needs two non-empty samples: %w", apperrors.ErrInsufficientData)
	}

	sums, tieTerm, n := rankAll([][]float64{x, y})
	fn1, fn2, fn := float64(n1), float64(n2), float64(n)

	u1 := sums[0] - fn1*(fn1+1)/2
	mu := fn1 * fn2 / 2
	variance := fn1 * fn2 / 12 * ((fn + 1) - tieTerm/(fn*(fn-1)))

	result := domain.TestResult{
		Method:    domain.MethodMannWhitneyU,
		Statistic: u1,
		PValue:    1,
		N:         n,
	}
	if variance <= 0 {
		result.Note = "所有數值相同"
		return result, nil
	}

	z := (math.Abs(u1-mu) - 0.5) / math.Sqrt(variance)
	if z < 0 {
		z = 0
	}
	result.PValue = math.Min(1, 2*distuv.UnitNormal.Survival(z))
	return result, nil
}

// KruskalWallis runs the tie-corrected Kruskal-Wallis H test. Empty groups
// are ignored; at least two non-empty groups are required.
func KruskalWallis(groups ...[]float64) (domain.TestResult, error) {
	var kept [][]float64
	for _, g := range groups {
		if len(g) > 0 {
			kept = append(kept, g)
		}
	}
	if len(kept) < 2 {
		return domain.TestResult{}, fmt.Errorf("kruskal-wallis needs two non-empty groups: %w", apperrors.ErrInsufficientData)
	}

	sums, tieTerm, n := rankAll(kept)
	fn := float64(n)

	var h float64
	for i, g := range kept {
		h += sums[i] * sums[i] / float64(len(g))
	}
	h = 12/(fn*(fn+1))*h - 3*(fn+1)

	dof := len(kept) - 1
	result := domain.TestResult{
		Method: domain.MethodKruskalWallis,
		PValue: 1,
		DOF:    dof,
		N:      n,
	}

	correction := 1 - tieTerm/(fn*fn*fn-fn)
	if correction <= 0 {
		result.Note = "所有數值相同"
		return result, nil
	}
	h /= correction
	result.Statistic = h
	result.PValue = distuv.ChiSquared{K: float64(dof)}.Survival(h)
	return result, nil
}
