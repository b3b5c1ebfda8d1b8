package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/ranking"
	"surveycli/internal/report"
	"surveycli/pkg/contracts/domain"
)

func boardQuestion() domain.MergedQuestion {
	return domain.MergedQuestion{
		ID:   "Q001",
		Text: "董事會是否設置獨立董事？",
		Members: []domain.RawColumn{
			{Header: "董事會是否設置獨立董事？", Source: "company_p1.csv", Respondent: domain.RespondentCompany, Phase: domain.PhaseFirst},
			{Header: "董事會是否設置獨立董事", Source: "investor_p1.csv", Respondent: domain.RespondentInvestor, Phase: domain.PhaseFirst},
		},
		Aliased: true,
	}
}

func revenueQuestion() domain.MergedQuestion {
	return domain.MergedQuestion{
		ID:      "Q002",
		Text:    "去年營收（億元）",
		Members: []domain.RawColumn{{Header: "去年營收（億元）", Source: "company_p1.csv", Respondent: domain.RespondentCompany}},
	}
}

func sampleInput() *report.Input {
	analyses := []domain.QuestionAnalysis{
		{
			Question: boardQuestion(), Type: domain.AnswerCategorical,
			N: 40, Applicable: 40, CompanyN: 20, InvestorN: 20,
			RespondentTest: &domain.TestResult{Method: domain.MethodChiSquare, Statistic: 9.5, PValue: 0.002, DOF: 1, N: 40},
			PhaseTest:      &domain.TestResult{Method: domain.MethodChiSquare, Statistic: 1.2, PValue: 0.55, DOF: 2, N: 40},
		},
		{
			Question: revenueQuestion(), Type: domain.AnswerNumeric,
			N: 16, Applicable: 20, MissingRate: 0.2, CompanyN: 16,
			Numeric: &domain.NumericSummary{Count: 16, Mean: 3.2},
			Err:     "",
		},
	}
	recs := []domain.Recommendation{
		{QuestionID: "Q001", Text: boardQuestion().Text, Type: domain.AnswerCategorical, SampleSize: 40, Score: 4.5, Tier: domain.TierHigh,
			Method: domain.MethodChiSquare, Statistic: 9.5, PValue: 0.002, HasPValue: true, Reasons: []string{"資料完整度 100%", "選項分布多元（3 個選項）"}},
		{QuestionID: "Q002", Text: revenueQuestion().Text, Type: domain.AnswerNumeric, SampleSize: 16, MissingRate: 0.2, Score: 1.1, Tier: domain.TierLow},
	}

	return &report.Input{
		Dataset: &domain.Dataset{Responses: []domain.Response{
			{ID: "r1", Respondent: domain.RespondentCompany, Phase: domain.PhaseFirst},
			{ID: "r2", Respondent: domain.RespondentCompany, Phase: domain.PhaseFirst},
			{ID: "r3", Respondent: domain.RespondentInvestor, Phase: domain.PhaseSecond},
		}},
		Questions:       []domain.MergedQuestion{boardQuestion(), revenueQuestion()},
		Analyses:        analyses,
		Recommendations: recs,
		Completeness:    ranking.Completeness(analyses, 0.1),
		Alpha:           0.05,
		GeneratedAt:     time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestRecommendationRecords(t *testing.T) {
	records := RecommendationRecords(sampleInput().Recommendations)
	require.Len(t, records, 2)

	first := records[0]
	require.Len(t, first, len(RecommendationHeaders))
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "Q001", first[1])
	assert.Equal(t, "4.50", first[4])
	assert.Equal(t, "高度優先", first[5])
	assert.Equal(t, domain.MethodChiSquare.Label(), first[6])
	assert.Equal(t, "0.0020", first[8])
	assert.Equal(t, "資料完整度 100%；選項分布多元（3 個選項）", first[11])

	// no test leaves the test columns blank
	second := records[1]
	assert.Equal(t, "2", second[0])
	assert.Empty(t, second[6])
	assert.Empty(t, second[7])
	assert.Empty(t, second[8])
	assert.Equal(t, "20.0%", second[10])
}

func TestQuestionRecords(t *testing.T) {
	records := QuestionRecords([]domain.MergedQuestion{boardQuestion(), revenueQuestion()})
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"Q001",
		"董事會是否設置獨立董事？",
		"company_p1.csv; investor_p1.csv",
		"2",
		"是",
		"company_p1.csv: 董事會是否設置獨立董事？ | investor_p1.csv: 董事會是否設置獨立董事",
	}, records[0])
	assert.Equal(t, "否", records[1][4])
}

func TestAnalysisRecords(t *testing.T) {
	records := AnalysisRecords(sampleInput().Analyses, 0.05)
	require.Len(t, records, 2)

	board := records[0]
	require.Len(t, board, len(AnalysisHeaders))
	assert.Equal(t, "類別題", board[2])
	assert.Equal(t, "9.50", board[9])
	assert.Equal(t, "0.0020", board[10])
	assert.Equal(t, "是", board[11])
	assert.Equal(t, "0.5500", board[13])
	assert.Empty(t, board[14])

	revenue := records[1]
	assert.Equal(t, "20.0%", revenue[5])
	assert.Empty(t, revenue[8])
	assert.Empty(t, revenue[11])
}

func TestSurveyExporter(t *testing.T) {
	dir := t.TempDir()
	in := sampleInput()
	exp := NewSurveyExporter(dir, quietLogger())

	require.NoError(t, exp.ExportRecommendations("recommendations.csv", in.Recommendations))
	require.NoError(t, exp.ExportQuestions("questions.csv", in.Questions))
	require.NoError(t, exp.ExportAnalyses("analysis.csv", in.Analyses, in.Alpha))

	tests := []struct {
		file    string
		headers []string
		rows    int
	}{
		{file: "recommendations.csv", headers: RecommendationHeaders, rows: 2},
		{file: "questions.csv", headers: QuestionHeaders, rows: 2},
		{file: "analysis.csv", headers: AnalysisHeaders, rows: 2},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, hasBOM := readCSV(t, filepath.Join(dir, tt.file))
			assert.True(t, hasBOM)
			require.Len(t, got, tt.rows+1)
			assert.Equal(t, tt.headers, got[0])
		})
	}
}
