package ranking

import (
	"sort"

	"surveycli/pkg/contracts/domain"
)

// Completeness grades
const (
	GradeExcellent = "優良"
	GradeGood      = "良好"
	GradeAttention = "需注意"
)

// QuestionGap is a question whose missing rate exceeds the flag level
type QuestionGap struct {
	QuestionID  string  `json:"question_id"`
	Text        string  `json:"text"`
	MissingRate float64 `json:"missing_rate"`
}

// CompletenessReport summarises how much of the expected data was answered
type CompletenessReport struct {
	Questions int           `json:"questions"`
	Expected  int           `json:"expected"`
	Answered  int           `json:"answered"`
	Rate      float64       `json:"rate"`
	Grade     string        `json:"grade"`
	Gaps      []QuestionGap `json:"gaps"`
}

// Completeness measures answered cells against applicable cells over all
// analysed questions. Questions missing more than flag are listed, worst
// first.
func Completeness(analyses []domain.QuestionAnalysis, flag float64) CompletenessReport {
	var rep CompletenessReport
	for _, a := range analyses {
		if a.Failed() {
			continue
		}
		rep.Questions++
		rep.Expected += a.Applicable
		rep.Answered += a.N
		if a.MissingRate > flag {
			rep.Gaps = append(rep.Gaps, QuestionGap{
				QuestionID:  a.Question.ID,
				Text:        a.Question.Text,
				MissingRate: a.MissingRate,
			})
		}
	}
	if rep.Expected > 0 {
		rep.Rate = float64(rep.Answered) / float64(rep.Expected)
	}
	rep.Grade = Grade(rep.Rate)

	sort.SliceStable(rep.Gaps, func(i, j int) bool {
		if rep.Gaps[i].MissingRate != rep.Gaps[j].MissingRate {
			return rep.Gaps[i].MissingRate > rep.Gaps[j].MissingRate
		}
		return rep.Gaps[i].QuestionID < rep.Gaps[j].QuestionID
	})
	return rep
}

// Grade maps a completeness rate onto its label
func Grade(rate float64) string {
	switch {
	case rate >= 0.95:
		return GradeExcellent
	case rate >= 0.85:
		return GradeGood
	default:
		return GradeAttention
	}
}
