package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/config"
	"surveycli/pkg/contracts/domain"
)

func newTestRecommender() *Recommender {
	return NewRecommender(config.Default().Ranking, 0.05, nil)
}

func categorical(id string, n int, missing float64, categories int, p float64) domain.QuestionAnalysis {
	a := domain.QuestionAnalysis{
		Question:    domain.MergedQuestion{ID: id, Text: "題目 " + id},
		Type:        domain.AnswerCategorical,
		N:           n,
		MissingRate: missing,
		ByRespondent: domain.Crosstab{
			Categories: make([]string, categories),
		},
	}
	if p >= 0 {
		a.RespondentTest = &domain.TestResult{Method: domain.MethodChiSquare, Statistic: 9.1, PValue: p}
	}
	return a
}

func TestRecommend_Score(t *testing.T) {
	withPhase := categorical("Q001", 40, 0, 4, 0.0005)
	withPhase.PhaseTest = &domain.TestResult{Method: domain.MethodChiSquare, PValue: 0.01}

	numeric := domain.QuestionAnalysis{
		Question: domain.MergedQuestion{ID: "Q006"},
		Type:     domain.AnswerNumeric,
		N:        20,
		Numeric:  &domain.NumericSummary{Count: 20, Std: 1.2},
	}

	tests := []struct {
		name     string
		analysis domain.QuestionAnalysis
		score    float64
		tier     domain.PriorityTier
		reason   string
	}{
		{name: "capped at five", analysis: withPhase, score: 5, tier: domain.TierHigh, reason: "不同階段間差異顯著"},
		{name: "significant with gaps", analysis: categorical("Q002", 30, 0.2, 2, 0.03), score: 2.8, tier: domain.TierMedium, reason: "資料完整度 80.0%"},
		{name: "marginal p", analysis: categorical("Q003", 20, 0, 2, 0.07), score: 2, tier: domain.TierMedium, reason: "接近顯著"},
		{name: "small sample floors at zero", analysis: categorical("Q004", 5, 0.5, 2, -1), score: 0, tier: domain.TierLow, reason: "樣本數偏少（n=5）"},
		{name: "failed", analysis: domain.QuestionAnalysis{Question: domain.MergedQuestion{ID: "Q005"}, Err: "boom"}, score: 0, tier: domain.TierLow, reason: "分析失敗"},
		{name: "numeric spread", analysis: numeric, score: 1.5, tier: domain.TierLow, reason: "數值分布具變異"},
	}

	r := newTestRecommender()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := r.Recommend(tt.analysis)
			assert.InDelta(t, tt.score, rec.Score, 1e-9)
			assert.Equal(t, tt.tier, rec.Tier)
			require.NotEmpty(t, rec.Reasons)
			assert.Contains(t, joined(rec.Reasons), tt.reason)
		})
	}
}

func joined(reasons []string) string {
	out := ""
	for _, r := range reasons {
		out += r + "；"
	}
	return out
}

func TestRecommend_CarriesTest(t *testing.T) {
	rec := newTestRecommender().Recommend(categorical("Q001", 40, 0.1, 2, 0.004))
	assert.True(t, rec.HasPValue)
	assert.Equal(t, domain.MethodChiSquare, rec.Method)
	assert.Equal(t, 9.1, rec.Statistic)
	assert.Equal(t, "題目 Q001", rec.Text)
	assert.True(t, rec.Significant(0.05))
	assert.Contains(t, rec.Reasons[0], "p = 0.004")
}

func TestRank_Order(t *testing.T) {
	analyses := []domain.QuestionAnalysis{
		categorical("Q004", 20, 0, 2, -1),    // 1.0
		categorical("Q003", 20, 0, 2, -1),    // 1.0, sorts by ID
		categorical("Q002", 20, 0, 2, 0.04),  // 3.0
		categorical("Q001", 20, 0, 2, 0.001), // 3.5
		categorical("Q005", 20, 0, 2, 0.02),  // 3.0, smaller p first
	}

	recs := newTestRecommender().Rank(analyses)
	var ids []string
	for _, rec := range recs {
		ids = append(ids, rec.QuestionID)
	}
	assert.Equal(t, []string{"Q001", "Q005", "Q002", "Q003", "Q004"}, ids)

	counts := CountTiers(recs)
	assert.Equal(t, 3, counts[domain.TierHigh])
	assert.Equal(t, 0, counts[domain.TierMedium])
	assert.Equal(t, 2, counts[domain.TierLow])

	high := FilterTier(recs, domain.TierHigh, domain.TierMedium)
	assert.Len(t, high, 3)
	assert.Len(t, Top(recs, 2), 2)
	assert.Len(t, Top(recs, 10), 5)
}

func TestTier(t *testing.T) {
	r := newTestRecommender()
	assert.Equal(t, domain.TierHigh, r.Tier(3))
	assert.Equal(t, domain.TierMedium, r.Tier(2.99))
	assert.Equal(t, domain.TierMedium, r.Tier(2))
	assert.Equal(t, domain.TierLow, r.Tier(1.99))
}
