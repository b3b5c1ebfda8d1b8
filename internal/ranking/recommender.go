package ranking

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"surveycli/internal/analysis"
	"surveycli/internal/config"
	"surveycli/pkg/contracts/domain"
)

// MaxScore bounds every recommendation score
const MaxScore = 5.0

// Recommender turns question analyses into ranked recommendations
type Recommender struct {
	cfg    config.RankingConfig
	alpha  float64
	logger *slog.Logger
}

// NewRecommender creates a recommender. alpha is the significance level
// used for the phase bonus and the reasons text.
func NewRecommender(cfg config.RankingConfig, alpha float64, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	return &Recommender{cfg: cfg, alpha: alpha, logger: logger}
}

// Rank scores every analysis and sorts the result by score descending,
// then p ascending, then question ID
func (r *Recommender) Rank(analyses []domain.QuestionAnalysis) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(analyses))
	for _, a := range analyses {
		recs = append(recs, r.Recommend(a))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		pi, pj := sortP(recs[i]), sortP(recs[j])
		if pi != pj {
			return pi < pj
		}
		return recs[i].QuestionID < recs[j].QuestionID
	})

	counts := CountTiers(recs)
	r.logger.Info("Questions ranked",
		slog.Int("questions", len(recs)),
		slog.Int("high", counts[domain.TierHigh]),
		slog.Int("medium", counts[domain.TierMedium]),
		slog.Int("low", counts[domain.TierLow]))
	return recs
}

func sortP(rec domain.Recommendation) float64 {
	if !rec.HasPValue {
		return math.Inf(1)
	}
	return rec.PValue
}

// Recommend scores a single analysis
func (r *Recommender) Recommend(a domain.QuestionAnalysis) domain.Recommendation {
	rec := domain.Recommendation{
		QuestionID:  a.Question.ID,
		Text:        a.Question.Text,
		Type:        a.Type,
		SampleSize:  a.N,
		MissingRate: a.MissingRate,
	}
	if t := a.RespondentTest; t != nil {
		rec.Method = t.Method
		rec.Statistic = t.Statistic
		rec.PValue = t.PValue
		rec.HasPValue = true
	}

	if a.Failed() {
		rec.Tier = domain.TierLow
		rec.Reasons = []string{"分析失敗：" + a.Err}
		return rec
	}
	if a.Type == domain.AnswerEmpty {
		rec.Tier = domain.TierLow
		rec.Reasons = []string{"無有效回答"}
		return rec
	}

	var score float64
	var reasons []string

	if rec.HasPValue {
		if s := significanceScore(rec.PValue); s > 0 {
			score += s
			reasons = append(reasons, fmt.Sprintf("公司方與投資方差異%s（%s，%s）",
				significanceWord(rec.PValue, r.alpha), rec.Method.Label(), analysis.FormatP(rec.PValue)))
		}
	}

	completeness := 1 - a.MissingRate
	score += completeness * r.cfg.CompletenessWeight
	reasons = append(reasons, fmt.Sprintf("資料完整度 %.1f%%", completeness*100))

	if d, ok := diversity(a); ok {
		score += r.cfg.DiversityBonus
		reasons = append(reasons, d)
	}

	if a.PhaseTest != nil && a.PhaseTest.PValue < r.alpha {
		score += r.cfg.PhaseBonus
		reasons = append(reasons, fmt.Sprintf("不同階段間差異顯著（%s）", analysis.FormatP(a.PhaseTest.PValue)))
	}

	if a.N < r.cfg.MinSample {
		score -= r.cfg.SmallSamplePenalty
		reasons = append(reasons, fmt.Sprintf("樣本數偏少（n=%d）", a.N))
	}

	rec.Score = math.Round(clamp(score, 0, MaxScore)*100) / 100
	rec.Tier = r.Tier(rec.Score)
	rec.Reasons = reasons
	return rec
}

// Tier maps a score onto a priority tier
func (r *Recommender) Tier(score float64) domain.PriorityTier {
	switch {
	case score >= r.cfg.HighThreshold:
		return domain.TierHigh
	case score >= r.cfg.MediumThreshold:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

func significanceScore(p float64) float64 {
	switch {
	case p < 0.001:
		return 3.0
	case p < 0.01:
		return 2.5
	case p < 0.05:
		return 2.0
	case p < 0.10:
		return 1.0
	default:
		return 0
	}
}

func significanceWord(p, alpha float64) string {
	if p < alpha {
		return "達統計顯著"
	}
	return "接近顯著"
}

// diversity reports whether answers spread over at least three options,
// or for numeric questions whether the values vary at all
func diversity(a domain.QuestionAnalysis) (string, bool) {
	if a.Type == domain.AnswerNumeric {
		if a.Numeric != nil && a.Numeric.Std > 0 {
			return "數值分布具變異", true
		}
		return "", false
	}
	if n := len(a.ByRespondent.Categories); n >= 3 {
		return fmt.Sprintf("選項分布多元（%d 個選項）", n), true
	}
	return "", false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// CountTiers counts recommendations per tier
func CountTiers(recs []domain.Recommendation) map[domain.PriorityTier]int {
	counts := map[domain.PriorityTier]int{
		domain.TierHigh:   0,
		domain.TierMedium: 0,
		domain.TierLow:    0,
	}
	for _, rec := range recs {
		counts[rec.Tier]++
	}
	return counts
}

// FilterTier keeps the recommendations of the given tiers, preserving order
func FilterTier(recs []domain.Recommendation, tiers ...domain.PriorityTier) []domain.Recommendation {
	want := make(map[domain.PriorityTier]bool, len(tiers))
	for _, t := range tiers {
		want[t] = true
	}
	var out []domain.Recommendation
	for _, rec := range recs {
		if want[rec.Tier] {
			out = append(out, rec)
		}
	}
	return out
}

// Top returns at most n recommendations
func Top(recs []domain.Recommendation, n int) []domain.Recommendation {
	if n < 0 || n >= len(recs) {
		return recs
	}
	return recs[:n]
}
