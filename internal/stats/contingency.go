package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "surveycli/internal/errors"
	"surveycli/pkg/contracts/domain"
)

// fisherTolerance is the relative tolerance when comparing table
// probabilities in the two-sided Fisher test
const fisherTolerance = 1e-7

// ChiSquare runs Pearson's chi-square test of independence. Rows and
// columns summing to zero are dropped first; 2×2 tables get Yates'
// continuity correction.
func ChiSquare(table [][]int) (domain.TestResult, error) {
	t := dropEmpty(table)
	if len(t) < 2 || len(t[0]) < 2 {
		return domain.TestResult{}, fmt.Errorf("chi-square needs a 2×2 table or larger: %w", apperrors.ErrInsufficientData)
	}

	rows, cols := len(t), len(t[0])
	rowTotals := make([]float64, rows)
	colTotals := make([]float64, cols)
	var n float64
	for i := range t {
		for j := range t[i] {
			v := float64(t[i][j])
			rowTotals[i] += v
			colTotals[j] += v
			n += v
		}
	}

	yates := rows == 2 && cols == 2
	var chi2 float64
	small := 0
	for i := range t {
		for j := range t[i] {
			expected := rowTotals[i] * colTotals[j] / n
			if expected < 5 {
				small++
			}
			diff := math.Abs(float64(t[i][j]) - expected)
			if yates {
				diff = math.Max(0, diff-0.5)
			}
			chi2 += diff * diff / expected
		}
	}

	dof := (rows - 1) * (cols - 1)
	result := domain.TestResult{
		Method:    domain.MethodChiSquare,
		Statistic: chi2,
		PValue:    distuv.ChiSquared{K: float64(dof)}.Survival(chi2),
		DOF:       dof,
		N:         int(n),
	}
	if small > 0 {
		result.Note = fmt.Sprintf("%d/%d 個格子期望次數小於 5", small, rows*cols)
	}
	return result, nil
}

// FisherExact runs the two-sided Fisher exact test on the 2×2 table
// [[a, b], [c, d]]. The statistic is the sample odds ratio, with 0.5 added
// to every cell when one of them is zero.
func FisherExact(a, b, c, d int) (domain.TestResult, error) {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return domain.TestResult{}, fmt.Errorf("negative cell count in 2×2 table")
	}
	n := a + b + c + d
	if n == 0 {
		return domain.TestResult{}, fmt.Errorf("fisher exact on empty table: %w", apperrors.ErrInsufficientData)
	}

	row1 := a + b
	col1 := a + c
	logDenom := combin.LogGeneralizedBinomial(float64(n), float64(row1))
	logPMF := func(x int) float64 {
		return combin.LogGeneralizedBinomial(float64(col1), float64(x)) +
			combin.LogGeneralizedBinomial(float64(n-col1), float64(row1-x)) -
			logDenom
	}

	lo := max(0, row1+col1-n)
	hi := min(row1, col1)
	observed := logPMF(a)
	limit := observed + math.Log1p(fisherTolerance)

	var p float64
	for x := lo; x <= hi; x++ {
		if lp := logPMF(x); lp <= limit {
			p += math.Exp(lp)
		}
	}

	odds := oddsRatio(float64(a), float64(b), float64(c), float64(d))
	return domain.TestResult{
		Method:    domain.MethodFisherExact,
		Statistic: odds,
		PValue:    math.Min(1, p),
		N:         n,
	}, nil
}

func oddsRatio(a, b, c, d float64) float64 {
	if a == 0 || b == 0 || c == 0 || d == 0 {
		a, b, c, d = a+0.5, b+0.5, c+0.5, d+0.5
	}
	return a * d / (b * c)
}

// dropEmpty removes all-zero rows and columns and returns a rectangular copy
func dropEmpty(table [][]int) [][]int {
	if len(table) == 0 {
		return nil
	}
	width := 0
	for _, row := range table {
		width = max(width, len(row))
	}
	colUsed := make([]bool, width)
	var rows [][]int
	for _, row := range table {
		sum := 0
		for j, v := range row {
			sum += v
			if v != 0 {
				colUsed[j] = true
			}
		}
		if sum > 0 {
			rows = append(rows, row)
		}
	}

	out := make([][]int, 0, len(rows))
	for _, row := range rows {
		var kept []int
		for j := 0; j < width; j++ {
			if !colUsed[j] {
				continue
			}
			v := 0
			if j < len(row) {
				v = row[j]
			}
			kept = append(kept, v)
		}
		out = append(out, kept)
	}
	return out
}
