package analysis

import (
	"fmt"
	"strings"

	"surveycli/internal/stats"
	"surveycli/pkg/contracts/domain"
)

// FormatP renders a p-value the way the reports print it
func FormatP(p float64) string {
	if p < 0.001 {
		return "p < 0.001"
	}
	return fmt.Sprintf("p = %.3f", p)
}

// Interpret summarises the respondent comparison of a question in one
// or two sentences
func Interpret(a domain.QuestionAnalysis, alpha float64) string {
	if a.Failed() {
		return "本題分析失敗：" + a.Err
	}
	if a.Type == domain.AnswerEmpty {
		return "本題無有效回答。"
	}

	var b strings.Builder
	if a.Type == domain.AnswerNumeric {
		for _, r := range domain.RespondentTypes {
			if s, ok := a.NumericByGroup[r]; ok && s.Count > 0 {
				fmt.Fprintf(&b, "%s平均為 %.2f（中位數 %.2f，n=%d）。", r, s.Mean, s.Median, s.Count)
			}
		}
	} else {
		var parts []string
		for j, g := range a.ByRespondent.Groups {
			if top, pct, ok := a.ByRespondent.TopCategory(j); ok {
				parts = append(parts, fmt.Sprintf("%s最多選擇「%s」（%.1f%%）", g, top, pct))
			}
		}
		if len(parts) > 0 {
			b.WriteString(strings.Join(parts, "，") + "。")
		}
	}

	t := a.RespondentTest
	switch {
	case t == nil && (a.CompanyN == 0 || a.InvestorN == 0):
		b.WriteString("僅有單一填答群體，未進行群體比較檢定。")
	case t == nil:
		b.WriteString("資料不足，無法進行顯著性檢定。")
	case t.PValue < alpha:
		fmt.Fprintf(&b, "%s顯示公司方與投資方達統計顯著差異（%s %s）。", t.Method.Label(), FormatP(t.PValue), stats.Stars(t.PValue))
	default:
		fmt.Fprintf(&b, "%s顯示公司方與投資方未達統計顯著差異（%s）。", t.Method.Label(), FormatP(t.PValue))
	}
	return b.String()
}

// InterpretPhase summarises the phase comparison of a question
func InterpretPhase(a domain.QuestionAnalysis, alpha float64) string {
	if a.Failed() || a.Type == domain.AnswerEmpty {
		return ""
	}
	t := a.PhaseTest
	if t == nil {
		if len(a.PhaseObservations) == 0 {
			return "無階段資料。"
		}
		return "各階段樣本不足以進行檢定，以描述性統計呈現：" + strings.Join(a.PhaseObservations, "；") + "。"
	}
	verdict := "未達統計顯著差異"
	if t.PValue < alpha {
		verdict = "達統計顯著差異"
	}
	return fmt.Sprintf("%s：不同發展階段之間%s（%s %s）。", t.Method.Label(), verdict, FormatP(t.PValue), stats.Stars(t.PValue))
}
