package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"surveycli/internal/files"
	"surveycli/internal/ranking"
	"surveycli/internal/report"
	"surveycli/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetSummary         = "Summary"
	SheetQuestions       = "Questions"
	SheetTests           = "Tests"
	SheetRecommendations = "Recommendations"
)

// WorkbookWriter writes the analysis workbook with excelize
type WorkbookWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{files: files.NewManager("", logger), logger: logger}
}

// Write builds the workbook for in and saves it to path
func (w *WorkbookWriter) Write(path string, in *report.Input) error {
	f, err := w.Build(in)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.files.WriteAtomic(path, func(out io.Writer) error {
		return f.Write(out)
	}); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("questions", len(in.Analyses)),
		slog.Int("recommendations", len(in.Recommendations)))
	return nil
}

// Build lays out the four sheets. The caller closes the returned file.
func (w *WorkbookWriter) Build(in *report.Input) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetQuestions, SheetTests, SheetRecommendations} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, int, *report.Input) error{
		summarySheet,
		questionSheet,
		testSheet,
		recommendationSheet,
	}
	for _, step := range steps {
		if err := step(f, header, in); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func summarySheet(f *excelize.File, header int, in *report.Input) error {
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	rows := [][]interface{}{
		{"項目", "數值", "比例"},
		{"報告產生時間", generated.Format("2006-01-02 15:04"), nil},
		{"分析範圍", in.Selection.Label(), nil},
		{"顯著水準", in.SignificanceLevel(), nil},
	}

	respondents, total := in.RespondentDistribution()
	rows = append(rows, []interface{}{"回覆總數", total, nil})
	for _, c := range respondents {
		rows = append(rows, []interface{}{"填答者：" + c.Label, c.N, c.Percent / 100})
	}
	phases, _ := in.PhaseDistribution()
	for _, c := range phases {
		rows = append(rows, []interface{}{"階段：" + c.Label, c.N, c.Percent / 100})
	}

	rows = append(rows, []interface{}{"題目數", len(in.Analyses), nil})
	for _, c := range in.TypeCounts() {
		rows = append(rows, []interface{}{"題型：" + c.Label, c.N, c.Percent / 100})
	}

	tiers := ranking.CountTiers(in.Recommendations)
	for _, t := range []domain.PriorityTier{domain.TierHigh, domain.TierMedium, domain.TierLow} {
		rows = append(rows, []interface{}{"優先等級：" + t.Label(), tiers[t], nil})
	}

	rows = append(rows,
		[]interface{}{"資料完整度", in.Completeness.Rate, nil},
		[]interface{}{"完整度等級", in.Completeness.Grade, nil},
	)

	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "B", "C", 18); err != nil {
		return err
	}
	return styleHeader(f, SheetSummary, header, 3, false)
}

func questionSheet(f *excelize.File, header int, in *report.Input) error {
	questions := in.Questions
	if len(questions) == 0 {
		for _, a := range in.Analyses {
			questions = append(questions, a.Question)
		}
	}

	rows := [][]interface{}{toRow(QuestionHeaders)}
	for _, q := range questions {
		members := make([]string, 0, len(q.Members))
		for _, m := range q.Members {
			members = append(members, m.Source+": "+m.Header)
		}
		rows = append(rows, []interface{}{
			q.ID, q.Text, joinSources(q), len(q.Members), formatBool(q.Aliased), strings.Join(members, "\n"),
		})
	}

	if err := writeRows(f, SheetQuestions, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetQuestions, "B", "B", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetQuestions, "C", "F", 24); err != nil {
		return err
	}
	return styleHeader(f, SheetQuestions, header, len(QuestionHeaders), len(rows) > 1)
}

func testSheet(f *excelize.File, header int, in *report.Input) error {
	alpha := in.SignificanceLevel()
	rows := [][]interface{}{toRow(AnalysisHeaders)}
	for _, a := range in.Analyses {
		row := []interface{}{
			a.Question.ID, a.Question.Text, a.Type.Label(),
			a.N, a.Applicable, a.MissingRate, a.CompanyN, a.InvestorN,
		}
		row = append(row, testCells(a.RespondentTest)...)
		if p, ok := a.PValue(); ok {
			row = append(row, formatBool(p < alpha))
		} else {
			row = append(row, nil)
		}
		phase := testCells(a.PhaseTest)
		row = append(row, phase[0], phase[2], testCells(a.PhaseANOVA)[2], a.Err)
		rows = append(rows, row)
	}

	if err := writeRows(f, SheetTests, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetTests, "B", "B", 50); err != nil {
		return err
	}
	return styleHeader(f, SheetTests, header, len(AnalysisHeaders), len(rows) > 1)
}

// testCells returns method label, statistic and p-value; nil cells stay blank
func testCells(t *domain.TestResult) []interface{} {
	if t == nil {
		return []interface{}{nil, nil, nil}
	}
	return []interface{}{t.Method.Label(), t.Statistic, t.PValue}
}

func recommendationSheet(f *excelize.File, header int, in *report.Input) error {
	rows := [][]interface{}{toRow(RecommendationHeaders)}
	for i, r := range in.Recommendations {
		var method, statistic, p interface{}
		if r.HasPValue {
			method, statistic, p = r.Method.Label(), r.Statistic, r.PValue
		}
		rows = append(rows, []interface{}{
			i + 1, r.QuestionID, r.Text, r.Type.Label(), r.Score, r.Tier.Label(),
			method, statistic, p, r.SampleSize, r.MissingRate, strings.Join(r.Reasons, "；"),
		})
	}

	if err := writeRows(f, SheetRecommendations, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetRecommendations, "C", "C", 50); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetRecommendations, "L", "L", 60); err != nil {
		return err
	}
	return styleHeader(f, SheetRecommendations, header, len(RecommendationHeaders), len(rows) > 1)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// styleHeader bolds the header row and freezes it; filter adds an autofilter
// over the header columns
func styleHeader(f *excelize.File, sheet string, style, columns int, filter bool) error {
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if !filter {
		return nil
	}
	return f.AutoFilter(sheet, "A1:"+last, nil)
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
