package exporter

import (
	"log/slog"
	"strings"

	"surveycli/pkg/contracts/domain"
)

var (
	// RecommendationHeaders are the columns of recommendations.csv
	RecommendationHeaders = []string{"排名", "題號", "題目", "題型", "推薦分數", "優先等級", "檢定方法", "統計量", "p值", "樣本數", "缺漏率", "推薦理由"}
	// QuestionHeaders are the columns of questions.csv
	QuestionHeaders = []string{"題號", "題目", "來源檔案", "欄位數", "別名合併", "原始欄位"}
	// AnalysisHeaders are the columns of analysis.csv
	AnalysisHeaders = []string{"題號", "題目", "題型", "樣本數", "適用數", "缺漏率", "公司方", "投資方", "檢定方法", "統計量", "p值", "顯著", "階段檢定", "階段p值", "變異數分析p值", "錯誤"}
)

// RecommendationRecords flattens ranked recommendations into CSV rows
func RecommendationRecords(recs []domain.Recommendation) [][]string {
	records := make([][]string, 0, len(recs))
	for i, r := range recs {
		method := ""
		statistic := ""
		if r.HasPValue {
			method = r.Method.Label()
			statistic = formatFloat(r.Statistic)
		}
		records = append(records, []string{
			formatInt(i + 1),
			r.QuestionID,
			r.Text,
			r.Type.Label(),
			formatFloat(r.Score),
			r.Tier.Label(),
			method,
			statistic,
			formatPValue(r.PValue, r.HasPValue),
			formatInt(r.SampleSize),
			formatPercent(r.MissingRate),
			strings.Join(r.Reasons, "；"),
		})
	}
	return records
}

// QuestionRecords flattens the merged question index into CSV rows
func QuestionRecords(questions []domain.MergedQuestion) [][]string {
	records := make([][]string, 0, len(questions))
	for _, q := range questions {
		headers := make([]string, 0, len(q.Members))
		for _, m := range q.Members {
			headers = append(headers, m.Source+": "+m.Header)
		}
		records = append(records, []string{
			q.ID,
			q.Text,
			joinSources(q),
			formatInt(len(q.Members)),
			formatBool(q.Aliased),
			strings.Join(headers, " | "),
		})
	}
	return records
}

// AnalysisRecords flattens question analyses into CSV rows
func AnalysisRecords(analyses []domain.QuestionAnalysis, alpha float64) [][]string {
	records := make([][]string, 0, len(analyses))
	for _, a := range analyses {
		records = append(records, analysisRecord(a, alpha))
	}
	return records
}

func analysisRecord(a domain.QuestionAnalysis, alpha float64) []string {
	method, statistic, p := formatTest(a.RespondentTest)
	significant := ""
	if pv, ok := a.PValue(); ok {
		significant = formatBool(pv < alpha)
	}
	phaseMethod, _, phaseP := formatTest(a.PhaseTest)
	_, _, anovaP := formatTest(a.PhaseANOVA)

	return []string{
		a.Question.ID,
		a.Question.Text,
		a.Type.Label(),
		formatInt(a.N),
		formatInt(a.Applicable),
		formatPercent(a.MissingRate),
		formatInt(a.CompanyN),
		formatInt(a.InvestorN),
		method,
		statistic,
		p,
		significant,
		phaseMethod,
		phaseP,
		anovaP,
		a.Err,
	}
}

// SurveyExporter writes the tabular survey artifacts
type SurveyExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewSurveyExporter creates an exporter writing below outputDir
func NewSurveyExporter(outputDir string, logger *slog.Logger) *SurveyExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurveyExporter{
		csv:    NewCSVWriter(outputDir, logger),
		logger: logger,
	}
}

// ExportRecommendations writes the ranked recommendation list
func (e *SurveyExporter) ExportRecommendations(path string, recs []domain.Recommendation) error {
	return e.csv.WriteSimpleCSV(path, RecommendationHeaders, RecommendationRecords(recs))
}

// ExportQuestions writes the merged question index
func (e *SurveyExporter) ExportQuestions(path string, questions []domain.MergedQuestion) error {
	return e.csv.WriteSimpleCSV(path, QuestionHeaders, QuestionRecords(questions))
}

// ExportAnalyses streams one row per analysed question
func (e *SurveyExporter) ExportAnalyses(path string, analyses []domain.QuestionAnalysis, alpha float64) error {
	stream, err := e.csv.CreateStreamWriter(path, AnalysisHeaders)
	if err != nil {
		return err
	}
	for _, a := range analyses {
		if err := stream.Write(analysisRecord(a, alpha)); err != nil {
			stream.Close()
			return err
		}
	}
	if err := stream.Close(); err != nil {
		return err
	}

	e.logger.Info("Exported question analyses",
		slog.String("path", path),
		slog.Int("rows", stream.Rows()))
	return nil
}
