package domain

// MergedQuestion is a canonical question combining equivalent columns
// from different source files.
type MergedQuestion struct {
	ID      string      `json:"id" validate:"required"`
	Text    string      `json:"text" validate:"required"`
	Members []RawColumn `json:"members" validate:"required,min=1"`
	Aliased bool        `json:"aliased"`
}

// Sources returns the distinct source files contributing to the question.
func (q MergedQuestion) Sources() []string {
	seen := make(map[string]bool, len(q.Members))
	var out []string
	for _, m := range q.Members {
		if !seen[m.Source] {
			seen[m.Source] = true
			out = append(out, m.Source)
		}
	}
	return out
}

// AnswerType classifies the answers of a merged question.
type AnswerType string

const (
	AnswerEmpty       AnswerType = "empty"
	AnswerMultiSelect AnswerType = "multi_select"
	AnswerNumeric     AnswerType = "numeric"
	AnswerCategorical AnswerType = "categorical"
)

// Label is the Chinese name used in reports.
func (t AnswerType) Label() string {
	switch t {
	case AnswerMultiSelect:
		return "複選題"
	case AnswerNumeric:
		return "數值題"
	case AnswerCategorical:
		return "類別題"
	default:
		return "無資料"
	}
}

// TestMethod names a significance test.
type TestMethod string

const (
	MethodChiSquare     TestMethod = "chi_square"
	MethodFisherExact   TestMethod = "fisher_exact"
	MethodMannWhitneyU  TestMethod = "mann_whitney_u"
	MethodKruskalWallis TestMethod = "kruskal_wallis"
	MethodANOVA         TestMethod = "one_way_anova"
	MethodDescriptive   TestMethod = "descriptive"
)

// Label is the Chinese name used in reports.
func (m TestMethod) Label() string {
	switch m {
	case MethodChiSquare:
		return "卡方檢定（Chi-square test）"
	case MethodFisherExact:
		return "Fisher 精確檢定"
	case MethodMannWhitneyU:
		return "Mann-Whitney U 檢定"
	case MethodKruskalWallis:
		return "Kruskal-Wallis H 檢定（無母數檢定）"
	case MethodANOVA:
		return "單因子變異數分析（One-way ANOVA）"
	default:
		return "描述性統計"
	}
}

// TestResult is the outcome of one significance test.
type TestResult struct {
	Method    TestMethod `json:"method"`
	Statistic float64    `json:"statistic"`
	PValue    float64    `json:"p_value"`
	DOF       int        `json:"dof,omitempty"`
	N         int        `json:"n"`
	Note      string     `json:"note,omitempty"`
}

// OptionTest is the respondent comparison of one multi-select option.
type OptionTest struct {
	Option   string     `json:"option"`
	Selected int        `json:"selected"`
	Result   TestResult `json:"result"`
	Adjusted float64    `json:"adjusted_p"`
}

// Crosstab counts answers per category and group.
// Counts[i][j] is the count of Categories[i] within Groups[j].
type Crosstab struct {
	Categories []string `json:"categories"`
	Groups     []string `json:"groups"`
	Counts     [][]int  `json:"counts"`
}

// GroupTotal returns the column total of group j.
func (c Crosstab) GroupTotal(j int) int {
	total := 0
	for i := range c.Counts {
		total += c.Counts[i][j]
	}
	return total
}

// CategoryTotal returns the row total of category i.
func (c Crosstab) CategoryTotal(i int) int {
	total := 0
	for _, v := range c.Counts[i] {
		total += v
	}
	return total
}

// Total returns the grand total.
func (c Crosstab) Total() int {
	total := 0
	for i := range c.Counts {
		total += c.CategoryTotal(i)
	}
	return total
}

// Percent returns Counts[i][j] as a percentage of group j.
func (c Crosstab) Percent(i, j int) float64 {
	total := c.GroupTotal(j)
	if total == 0 {
		return 0
	}
	return float64(c.Counts[i][j]) / float64(total) * 100
}

// GroupIndex returns the column index of a group or -1.
func (c Crosstab) GroupIndex(group string) int {
	for j, g := range c.Groups {
		if g == group {
			return j
		}
	}
	return -1
}

// TopCategory returns the most frequent category of group j and its percentage.
// Ties resolve to the first category in display order.
func (c Crosstab) TopCategory(j int) (string, float64, bool) {
	best, bestCount := -1, 0
	for i := range c.Counts {
		if c.Counts[i][j] > bestCount {
			best, bestCount = i, c.Counts[i][j]
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return c.Categories[best], c.Percent(best, j), true
}

// NumericSummary describes a numeric answer distribution.
type NumericSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// QuestionAnalysis is everything computed for one merged question.
type QuestionAnalysis struct {
	Question    MergedQuestion `json:"question"`
	Type        AnswerType     `json:"type"`
	N           int            `json:"n"`
	Applicable  int            `json:"applicable"`
	MissingRate float64        `json:"missing_rate"`
	CompanyN    int            `json:"company_n"`
	InvestorN   int            `json:"investor_n"`

	ByRespondent Crosstab `json:"by_respondent"`
	ByPhase      Crosstab `json:"by_phase"`

	Numeric           *NumericSummary                   `json:"numeric,omitempty"`
	NumericByGroup    map[RespondentType]NumericSummary `json:"numeric_by_group,omitempty"`
	NumericByPhase    map[Phase][]float64               `json:"-"`
	NumericByResp     map[RespondentType][]float64      `json:"-"`
	RespondentTest    *TestResult                       `json:"respondent_test,omitempty"`
	OptionTests       []OptionTest                      `json:"option_tests,omitempty"`
	PhaseTest         *TestResult                       `json:"phase_test,omitempty"`
	PhaseANOVA        *TestResult                       `json:"phase_anova,omitempty"`
	PhaseObservations []string                          `json:"phase_observations,omitempty"`

	Err string `json:"error,omitempty"`
}

// Failed reports whether the analysis of the question errored.
func (a QuestionAnalysis) Failed() bool {
	return a.Err != ""
}

// PValue returns the respondent-comparison p-value, if any.
func (a QuestionAnalysis) PValue() (float64, bool) {
	if a.RespondentTest == nil {
		return 0, false
	}
	return a.RespondentTest.PValue, true
}

// PriorityTier groups recommendations by score.
type PriorityTier string

const (
	TierHigh   PriorityTier = "high"
	TierMedium PriorityTier = "medium"
	TierLow    PriorityTier = "low"
)

// Label is the Chinese name used in reports.
func (t PriorityTier) Label() string {
	switch t {
	case TierHigh:
		return "高度優先"
	case TierMedium:
		return "重要關注"
	default:
		return "一般"
	}
}

// Recommendation ranks a question for inclusion in the report.
type Recommendation struct {
	QuestionID  string       `json:"question_id"`
	Text        string       `json:"text"`
	Type        AnswerType   `json:"type"`
	SampleSize  int          `json:"sample_size"`
	MissingRate float64      `json:"missing_rate"`
	Score       float64      `json:"score"`
	Tier        PriorityTier `json:"tier"`
	Method      TestMethod   `json:"method,omitempty"`
	Statistic   float64      `json:"statistic,omitempty"`
	PValue      float64      `json:"p_value"`
	HasPValue   bool         `json:"has_p_value"`
	Reasons     []string     `json:"reasons"`
}

// Significant reports whether the recommendation's test rejects at alpha.
func (r Recommendation) Significant(alpha float64) bool {
	return r.HasPValue && r.PValue < alpha
}
