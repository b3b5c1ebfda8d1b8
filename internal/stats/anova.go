package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "surveycli/internal/errors"
	"surveycli/pkg/contracts/domain"
)

// OneWayANOVA compares group means with the F(k−1, n−k) distribution.
// Empty groups are ignored.
func OneWayANOVA(groups ...[]float64) (domain.TestResult, error) {
	var kept [][]float64
	n := 0
	for _, g := range groups {
		if len(g) > 0 {
			kept = append(kept, g)
			n += len(g)
		}
	}
	k := len(kept)
	if k < 2 || n <= k {
		return domain.TestResult{}, fmt.Errorf("anova needs two groups and n > k: %w", apperrors.ErrInsufficientData)
	}

	var all []float64
	for _, g := range kept {
		all = append(all, g...)
	}
	grand := stat.Mean(all, nil)

	var between, within float64
	for _, g := range kept {
		m := stat.Mean(g, nil)
		between += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			within += (v - m) * (v - m)
		}
	}

	df1, df2 := float64(k-1), float64(n-k)
	if within == 0 {
		return domain.TestResult{}, fmt.Errorf("anova with no within-group variance: %w", apperrors.ErrInsufficientData)
	}

	f := (between / df1) / (within / df2)
	return domain.TestResult{
		Method:    domain.MethodANOVA,
		Statistic: f,
		PValue:    distuv.F{D1: df1, D2: df2}.Survival(f),
		DOF:       k - 1,
		N:         n,
		Note:      fmt.Sprintf("df = (%d, %d)", k-1, n-k),
	}, nil
}
