package analysis

import (
	"fmt"
	"sort"

	"surveycli/internal/dataprocessing"
	"surveycli/internal/matcher"
	"surveycli/internal/stats"
	"surveycli/pkg/contracts/domain"
)

// respondentGroups lists the respondent types present in answers, in report order
func respondentGroups(answers []matcher.Answer) []string {
	present := make(map[domain.RespondentType]bool)
	for _, a := range answers {
		present[a.Respondent] = true
	}
	var groups []string
	for _, r := range domain.RespondentTypes {
		if present[r] {
			groups = append(groups, string(r))
		}
	}
	return groups
}

// phaseGroups lists the phases present in answers, chronologically
func phaseGroups(answers []matcher.Answer) []string {
	present := make(map[domain.Phase]bool)
	for _, a := range answers {
		present[a.Phase] = true
	}
	phases := make([]domain.Phase, 0, len(present))
	for p := range present {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].Order() < phases[j].Order() })

	groups := make([]string, len(phases))
	for i, p := range phases {
		groups[i] = string(p)
	}
	return groups
}

// buildCrosstab counts options per group. options(a) yields the categories
// one answer contributes; group(a) names its column.
func buildCrosstab(answers []matcher.Answer, groups []string, options func(matcher.Answer) []string, group func(matcher.Answer) string) domain.Crosstab {
	counts := make(map[string]map[string]int)
	for _, a := range answers {
		g := group(a)
		for _, opt := range options(a) {
			if counts[opt] == nil {
				counts[opt] = make(map[string]int)
			}
			counts[opt][g]++
		}
	}

	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	categories = stats.SortCategories(categories)

	ct := domain.Crosstab{Categories: categories, Groups: groups, Counts: make([][]int, len(categories))}
	for i, c := range categories {
		row := make([]int, len(groups))
		for j, g := range groups {
			row[j] = counts[c][g]
		}
		ct.Counts[i] = row
	}
	return ct
}

func byRespondent(a matcher.Answer) string { return string(a.Respondent) }
func byPhase(a matcher.Answer) string      { return string(a.Phase) }
func wholeAnswer(a matcher.Answer) []string {
	return []string{a.Value}
}
func answerOptions(a matcher.Answer) []string {
	return SplitOptions(a.Value)
}

func (e *Engine) analyzeCategorical(qa *domain.QuestionAnalysis, answers []matcher.Answer) {
	qa.ByRespondent = buildCrosstab(answers, respondentGroups(answers), wholeAnswer, byRespondent)
	qa.ByPhase = buildCrosstab(answers, phaseGroups(answers), wholeAnswer, byPhase)

	if qa.CompanyN > 0 && qa.InvestorN > 0 {
		if res, err := e.contingencyTest(qa.ByRespondent.Counts); err == nil {
			qa.RespondentTest = &res
		}
	}
	e.phaseContingency(qa)
}

func (e *Engine) analyzeMultiSelect(qa *domain.QuestionAnalysis, answers []matcher.Answer) {
	qa.ByRespondent = buildCrosstab(answers, respondentGroups(answers), answerOptions, byRespondent)
	qa.ByPhase = buildCrosstab(answers, phaseGroups(answers), answerOptions, byPhase)

	if qa.CompanyN > 0 && qa.InvestorN > 0 {
		e.optionTests(qa)
	}
	e.phaseContingency(qa)
}

// optionTests compares each option's selection rate between respondent
// groups. The question-level result is the option with the smallest
// Bonferroni-adjusted p.
func (e *Engine) optionTests(qa *domain.QuestionAnalysis) {
	ct := qa.ByRespondent
	ci := ct.GroupIndex(string(domain.RespondentCompany))
	ii := ct.GroupIndex(string(domain.RespondentInvestor))
	if ci < 0 || ii < 0 {
		return
	}

	var tests []domain.OptionTest
	for i, opt := range ct.Categories {
		sc, si := ct.Counts[i][ci], ct.Counts[i][ii]
		table := [][]int{
			{sc, si},
			{qa.CompanyN - sc, qa.InvestorN - si},
		}
		res, err := e.contingencyTest(table)
		if err != nil {
			continue
		}
		tests = append(tests, domain.OptionTest{Option: opt, Selected: sc + si, Result: res})
	}
	if len(tests) == 0 {
		return
	}

	best := 0
	for i := range tests {
		tests[i].Adjusted = stats.BonferroniAdjust(tests[i].Result.PValue, len(tests))
		if tests[i].Adjusted < tests[best].Adjusted {
			best = i
		}
	}
	qa.OptionTests = tests

	summary := tests[best].Result
	summary.PValue = tests[best].Adjusted
	summary.N = qa.CompanyN + qa.InvestorN
	summary.Note = fmt.Sprintf("選項「%s」差異最大（Bonferroni 校正，共 %d 項）", tests[best].Option, len(tests))
	qa.RespondentTest = &summary
}

// contingencyTest picks Fisher's exact test for small 2×2 tables and
// chi-square otherwise
func (e *Engine) contingencyTest(table [][]int) (domain.TestResult, error) {
	if len(table) == 2 && len(table[0]) == 2 {
		total := table[0][0] + table[0][1] + table[1][0] + table[1][1]
		if total < e.cfg.FisherThreshold {
			return stats.FisherExact(table[0][0], table[0][1], table[1][0], table[1][1])
		}
	}
	return stats.ChiSquare(table)
}

// phaseContingency tests the option × phase table and always records each
// phase's most frequent answer
func (e *Engine) phaseContingency(qa *domain.QuestionAnalysis) {
	ct := qa.ByPhase
	for j, phase := range ct.Groups {
		if top, pct, ok := ct.TopCategory(j); ok {
			qa.PhaseObservations = append(qa.PhaseObservations,
				fmt.Sprintf("%s：最多為「%s」（%.1f%%）", phase, top, pct))
		}
	}

	table, phases := labelledPhaseColumns(ct)
	if phases < 2 {
		return
	}
	if res, err := stats.ChiSquare(table); err == nil {
		qa.PhaseTest = &res
	}
}

// labelledPhaseColumns drops the unspecified-phase column from a phase
// crosstab and reports how many phase columns remain
func labelledPhaseColumns(ct domain.Crosstab) ([][]int, int) {
	var keep []int
	for j, g := range ct.Groups {
		if domain.Phase(g) != domain.PhaseUnspecified {
			keep = append(keep, j)
		}
	}
	table := make([][]int, len(ct.Counts))
	for i, row := range ct.Counts {
		table[i] = make([]int, len(keep))
		for k, j := range keep {
			table[i][k] = row[j]
		}
	}
	return table, len(keep)
}

func (e *Engine) analyzeNumeric(qa *domain.QuestionAnalysis, answers []matcher.Answer) {
	var all []float64
	var numeric []matcher.Answer
	qa.NumericByResp = make(map[domain.RespondentType][]float64)
	qa.NumericByPhase = make(map[domain.Phase][]float64)

	for _, a := range answers {
		v, ok := dataprocessing.ParseNumber(a.Value)
		if !ok {
			continue
		}
		all = append(all, v)
		numeric = append(numeric, a)
		qa.NumericByResp[a.Respondent] = append(qa.NumericByResp[a.Respondent], v)
		qa.NumericByPhase[a.Phase] = append(qa.NumericByPhase[a.Phase], v)
	}

	summary := stats.Describe(all)
	qa.Numeric = &summary
	qa.NumericByGroup = make(map[domain.RespondentType]domain.NumericSummary)
	for r, values := range qa.NumericByResp {
		qa.NumericByGroup[r] = stats.Describe(values)
	}

	qa.ByRespondent = buildCrosstab(numeric, respondentGroups(numeric), wholeAnswer, byRespondent)
	qa.ByPhase = buildCrosstab(numeric, phaseGroups(numeric), wholeAnswer, byPhase)

	company := qa.NumericByResp[domain.RespondentCompany]
	investor := qa.NumericByResp[domain.RespondentInvestor]
	if len(company) > 0 && len(investor) > 0 {
		if res, err := stats.MannWhitneyU(company, investor); err == nil {
			qa.RespondentTest = &res
		}
	}

	e.phaseNumeric(qa)
}

// phaseNumeric runs Kruskal-Wallis and ANOVA across phases with at least
// MinGroupSize values, falling back to per-phase descriptions
func (e *Engine) phaseNumeric(qa *domain.QuestionAnalysis) {
	var groups [][]float64
	for _, p := range domain.Phases {
		values := qa.NumericByPhase[p]
		if len(values) == 0 {
			continue
		}
		s := stats.Describe(values)
		qa.PhaseObservations = append(qa.PhaseObservations,
			fmt.Sprintf("%s：平均 %.2f，中位數 %.2f（n=%d）", p, s.Mean, s.Median, s.Count))
		if len(values) >= e.cfg.MinGroupSize {
			groups = append(groups, values)
		}
	}

	if len(groups) < 2 {
		return
	}
	if res, err := stats.KruskalWallis(groups...); err == nil {
		qa.PhaseTest = &res
	}
	if res, err := stats.OneWayANOVA(groups...); err == nil {
		qa.PhaseANOVA = &res
	}
}
