package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"surveycli/internal/analysis"
	"surveycli/internal/stats"
	"surveycli/pkg/contracts/domain"
)

func statSymbol(m domain.TestMethod) string {
	switch m {
	case domain.MethodChiSquare:
		return "χ²"
	case domain.MethodFisherExact:
		return "勝算比"
	case domain.MethodMannWhitneyU:
		return "U"
	case domain.MethodKruskalWallis:
		return "H"
	case domain.MethodANOVA:
		return "F"
	default:
		return "統計量"
	}
}

func significanceLabel(p, alpha float64) string {
	if p < alpha {
		return stats.Stars(p) + "，達顯著水準"
	}
	return "未達顯著水準"
}

// testLine renders a test result as one sentence
func testLine(t *domain.TestResult, alpha float64) string {
	if t == nil {
		return "未進行檢定。"
	}
	parts := []string{
		"檢定方法：" + t.Method.Label(),
		fmt.Sprintf("%s = %.3f", statSymbol(t.Method), t.Statistic),
	}
	if t.DOF > 0 {
		parts = append(parts, "自由度 = "+strconv.Itoa(t.DOF))
	}
	parts = append(parts, fmt.Sprintf("%s（%s）", analysis.FormatP(t.PValue), significanceLabel(t.PValue, alpha)))
	line := strings.Join(parts, "；")
	if t.Note != "" {
		line += "。" + t.Note
	}
	return line
}

func countCell(n int, pct float64) string {
	return fmt.Sprintf("%d (%.1f%%)", n, pct)
}

// crosstabTable lays out a crosstab with a total column and a total row
func crosstabTable(ct domain.Crosstab, firstColumn string) ([]string, [][]string) {
	header := append([]string{firstColumn}, ct.Groups...)
	header = append(header, "合計")

	total := ct.Total()
	rows := make([][]string, 0, len(ct.Categories)+1)
	for i, c := range ct.Categories {
		row := []string{c}
		for j := range ct.Groups {
			row = append(row, countCell(ct.Counts[i][j], ct.Percent(i, j)))
		}
		row = append(row, countCell(ct.CategoryTotal(i), percentOf(ct.CategoryTotal(i), total)))
		rows = append(rows, row)
	}

	totalRow := []string{"合計"}
	for j := range ct.Groups {
		totalRow = append(totalRow, strconv.Itoa(ct.GroupTotal(j)))
	}
	totalRow = append(totalRow, strconv.Itoa(total))
	return header, append(rows, totalRow)
}

func percentOf(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// numericTable lists the summary of each group that has values
func numericTable(byGroup map[string]domain.NumericSummary, order []string) ([]string, [][]string) {
	header := []string{"群體", "n", "平均數", "標準差", "最小值", "中位數", "最大值"}
	var rows [][]string
	for _, g := range order {
		s, ok := byGroup[g]
		if !ok || s.Count == 0 {
			continue
		}
		rows = append(rows, []string{
			g,
			strconv.Itoa(s.Count),
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.2f", s.Std),
			formatNumber(s.Min),
			formatNumber(s.Median),
			formatNumber(s.Max),
		})
	}
	return header, rows
}

func respondentSummaries(a domain.QuestionAnalysis) (map[string]domain.NumericSummary, []string) {
	out := make(map[string]domain.NumericSummary)
	var order []string
	for _, r := range domain.RespondentTypes {
		order = append(order, string(r))
		if s, ok := a.NumericByGroup[r]; ok {
			out[string(r)] = s
		}
	}
	return out, order
}

func phaseSummaries(a domain.QuestionAnalysis) (map[string]domain.NumericSummary, []string) {
	out := make(map[string]domain.NumericSummary)
	var order []string
	for _, p := range append(append([]domain.Phase{}, domain.Phases...), domain.PhaseUnspecified) {
		order = append(order, string(p))
		if values := a.NumericByPhase[p]; len(values) > 0 {
			out[string(p)] = stats.Describe(values)
		}
	}
	return out, order
}

func optionTestTable(tests []domain.OptionTest, alpha float64) ([]string, [][]string) {
	header := []string{"選項", "選擇人數", "檢定", "p 值", "校正後 p 值", "顯著性"}
	rows := make([][]string, len(tests))
	for i, t := range tests {
		rows[i] = []string{
			t.Option,
			strconv.Itoa(t.Selected),
			t.Result.Method.Label(),
			analysis.FormatP(t.Result.PValue),
			analysis.FormatP(t.Adjusted),
			significanceLabel(t.Adjusted, alpha),
		}
	}
	return header, rows
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	return t.Format("2006年01月02日")
}
