package report

import (
	"sort"
	"time"

	"surveycli/internal/charts"
	"surveycli/internal/ranking"
	"surveycli/pkg/contracts/domain"
)

// SummaryCharts are the run-level figures, empty when not rendered
type SummaryCharts struct {
	Tiers       string
	Respondents string
}

// Input is everything the report writers draw from
type Input struct {
	Dataset         *domain.Dataset
	Selection       domain.Selection
	Questions       []domain.MergedQuestion
	Analyses        []domain.QuestionAnalysis
	Recommendations []domain.Recommendation
	Completeness    ranking.CompletenessReport
	Charts          map[string]charts.QuestionCharts
	Summary         SummaryCharts
	Alpha           float64
	GeneratedAt     time.Time

	byID map[string]int
}

// Analysis looks up the analysis of a question ID
func (in *Input) Analysis(id string) (domain.QuestionAnalysis, bool) {
	if in.byID == nil {
		in.byID = make(map[string]int, len(in.Analyses))
		for i, a := range in.Analyses {
			in.byID[a.Question.ID] = i
		}
	}
	i, ok := in.byID[id]
	if !ok {
		return domain.QuestionAnalysis{}, false
	}
	return in.Analyses[i], true
}

// SignificanceLevel is the alpha the run tested at, 0.05 when unset
func (in *Input) SignificanceLevel() float64 {
	return in.alpha()
}

func (in *Input) alpha() float64 {
	if in.Alpha <= 0 || in.Alpha >= 1 {
		return 0.05
	}
	return in.Alpha
}

func (in *Input) generated() time.Time {
	if in.GeneratedAt.IsZero() {
		return time.Now()
	}
	return in.GeneratedAt
}

// Count is one row of a distribution table
type Count struct {
	Label   string
	N       int
	Percent float64
}

// RespondentDistribution counts responses per respondent type, company and
// investor first
func (in *Input) RespondentDistribution() ([]Count, int) {
	if in.Dataset == nil {
		return nil, 0
	}
	counts := in.Dataset.CountByRespondent()
	order := append([]domain.RespondentType{}, domain.RespondentTypes...)
	order = append(order, domain.RespondentUnknown)

	labels := make([]string, 0, len(order))
	values := make(map[string]int, len(order))
	for _, r := range order {
		if counts[r] > 0 {
			labels = append(labels, string(r))
			values[string(r)] = counts[r]
		}
	}
	return distribution(labels, values)
}

// PhaseDistribution counts responses per phase in chronological order
func (in *Input) PhaseDistribution() ([]Count, int) {
	if in.Dataset == nil {
		return nil, 0
	}
	counts := in.Dataset.CountByPhase()
	var labels []string
	values := make(map[string]int)
	for _, p := range in.Dataset.PresentPhases() {
		labels = append(labels, string(p))
		values[string(p)] = counts[p]
	}
	return distribution(labels, values)
}

func distribution(labels []string, values map[string]int) ([]Count, int) {
	total := 0
	for _, l := range labels {
		total += values[l]
	}
	out := make([]Count, len(labels))
	for i, l := range labels {
		out[i] = Count{Label: l, N: values[l]}
		if total > 0 {
			out[i].Percent = float64(values[l]) / float64(total) * 100
		}
	}
	return out, total
}

// TypeCounts counts analysed questions per answer type, most common first
func (in *Input) TypeCounts() []Count {
	values := make(map[string]int)
	for _, a := range in.Analyses {
		values[a.Type.Label()]++
	}
	labels := make([]string, 0, len(values))
	for l := range values {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if values[labels[i]] != values[labels[j]] {
			return values[labels[i]] > values[labels[j]]
		}
		return labels[i] < labels[j]
	})
	out, _ := distribution(labels, values)
	return out
}
