package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "surveycli/internal/errors"
)

func TestMannWhitneyU(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		wantU float64
		wantP float64
	}{
		{
			name:  "fully separated",
			x:     []float64{1, 2, 3, 4, 5},
			y:     []float64{6, 7, 8, 9, 10},
			wantU: 0,
			wantP: 0.012185780,
		},
		{
			name:  "symmetric in direction",
			x:     []float64{6, 7, 8, 9, 10},
			y:     []float64{1, 2, 3, 4, 5},
			wantU: 25,
			wantP: 0.012185780,
		},
		{
			name:  "identical samples",
			x:     []float64{3, 3, 3},
			y:     []float64{3, 3},
			wantU: 3,
			wantP: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MannWhitneyU(tt.x, tt.y)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantU, res.Statistic, 1e-9)
			assert.InDelta(t, tt.wantP, res.PValue, 1e-6)
			assert.Equal(t, len(tt.x)+len(tt.y), res.N)
		})
	}

	_, err := MannWhitneyU(nil, []float64{1})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
}

func TestKruskalWallis(t *testing.T) {
	res, err := KruskalWallis([]float64{1, 2, 3}, []float64{4, 5, 6}, []float64{7, 8, 9}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 7.2, res.Statistic, 1e-9)
	assert.InDelta(t, 0.027323722, res.PValue, 1e-6)
	assert.Equal(t, 2, res.DOF)
	assert.Equal(t, 9, res.N)

	res, err = KruskalWallis([]float64{2, 2}, []float64{2, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.PValue)
	assert.NotEmpty(t, res.Note)

	_, err = KruskalWallis([]float64{1, 2}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
}

func TestRankAll_Ties(t *testing.T) {
	sums, tieTerm, n := rankAll([][]float64{{1, 2, 2}, {2, 3}})
	// ranks: 1 -> 1, 2s -> 3, 3 -> 5
	assert.Equal(t, []float64{7, 8}, sums)
	assert.Equal(t, 24.0, tieTerm)
	assert.Equal(t, 5, n)
}

func TestOneWayANOVA(t *testing.T) {
	res, err := OneWayANOVA([]float64{1, 2, 3}, []float64{2, 3, 4}, []float64{3, 4, 5})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Statistic, 1e-9)
	assert.InDelta(t, 0.125, res.PValue, 1e-9)
	assert.Equal(t, 2, res.DOF)
	assert.Equal(t, "df = (2, 6)", res.Note)

	_, err = OneWayANOVA([]float64{1, 1}, []float64{2, 2})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	_, err = OneWayANOVA([]float64{1}, []float64{2})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
}
