package report

import (
	"fmt"
	"log/slog"

	"surveycli/internal/analysis"
	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
	"surveycli/pkg/contracts/domain"
)

// DescriptiveWriter writes the topic-by-topic Word report
type DescriptiveWriter struct {
	cfg       config.ReportConfig
	catalogue *config.TopicCatalogue
	files     *files.Manager
	logger    *slog.Logger
}

// NewDescriptiveWriter creates a writer for the given topic catalogue
func NewDescriptiveWriter(cfg config.ReportConfig, catalogue *config.TopicCatalogue, logger *slog.Logger) *DescriptiveWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DescriptiveWriter{
		cfg:       cfg,
		catalogue: catalogue,
		files:     files.NewManager("", logger),
		logger:    logger,
	}
}

// Write builds the report and saves it to path
func (w *DescriptiveWriter) Write(path string, in *Input) error {
	doc, sections, err := w.Build(in)
	if err != nil {
		return apperrors.NewRenderError("failed to build descriptive report", err)
	}
	if err := w.files.WriteAtomic(path, doc.Write); err != nil {
		return apperrors.NewRenderError("failed to write descriptive report", err).WithContext("path", path)
	}

	topics := 0
	for _, s := range sections {
		topics += len(s.Topics)
	}
	w.logger.Info("Descriptive report written",
		slog.String("path", path),
		slog.Int("sections", len(sections)),
		slog.Int("topics", topics),
		slog.Int("images", doc.Images()))
	return nil
}

// Build lays out the document and returns it with the topic sections used
func (w *DescriptiveWriter) Build(in *Input) (*Document, []Section, error) {
	threshold := w.cfg.TopicMatchThreshold
	if threshold <= 0 {
		threshold = 0.8
	}
	fallback := w.cfg.FallbackTopics
	if fallback <= 0 {
		fallback = 20
	}
	sections, fromCatalogue := SelectTopics(w.catalogue, in, threshold, fallback)

	doc, err := NewDocument()
	if err != nil {
		return nil, nil, err
	}
	w.cover(doc, in)
	w.introduction(doc, in)
	w.sampleDistribution(doc, in)
	w.topicSelection(doc, sections, fromCatalogue)

	for _, sec := range sections {
		doc.Heading(1, sec.Name)
		if sec.Summary != "" {
			doc.Paragraph(sec.Summary)
		}
		for _, t := range sec.Topics {
			w.topic(doc, in, t)
			doc.PageBreak()
		}
	}
	return doc, sections, nil
}

func (w *DescriptiveWriter) cover(doc *Document, in *Input) {
	doc.Title(w.cfg.Title)
	if w.cfg.Subtitle != "" {
		doc.Subtitle(w.cfg.Subtitle)
	}
	if !in.Selection.IsZero() {
		doc.Subtitle(in.Selection.Label())
	}
	if w.cfg.Organization != "" {
		doc.Subtitle(w.cfg.Organization)
	}
	doc.Subtitle(formatDate(in.generated()))
	doc.PageBreak()
}

func (w *DescriptiveWriter) introduction(doc *Document, in *Input) {
	doc.Heading(1, "一、前言")
	sources, responses := 0, 0
	if in.Dataset != nil {
		sources, responses = len(in.Dataset.Files), len(in.Dataset.Responses)
	}
	doc.Paragraph(fmt.Sprintf(
		"本報告彙整 %d 份問卷資料檔、共 %d 筆回覆，經題目比對合併為 %d 個題目。"+
			"各題以公司方與投資方之回答分布進行比較，並檢視不同發展階段之差異；"+
			"類別題採卡方檢定（小樣本 2×2 表採 Fisher 精確檢定），數值題採 Mann-Whitney U 檢定與 Kruskal-Wallis H 檢定，顯著水準 α = %.2f。",
		sources, responses, len(in.Analyses), in.alpha()))
}

func (w *DescriptiveWriter) sampleDistribution(doc *Document, in *Input) {
	doc.Heading(1, "二、樣本分布")

	counts, total := in.RespondentDistribution()
	doc.Caption("表 1　填答者類型分布")
	rows := make([][]string, 0, len(counts)+1)
	for _, c := range counts {
		rows = append(rows, []string{c.Label, fmt.Sprint(c.N), fmt.Sprintf("%.1f%%", c.Percent)})
	}
	rows = append(rows, []string{"合計", fmt.Sprint(total), "100.0%"})
	doc.Table([]string{"填答者類型", "人數", "百分比"}, rows, true)

	if in.Summary.Respondents != "" {
		w.image(doc, in.Summary.Respondents, 4)
		doc.Caption("圖 1　填答者類型分布")
	}

	phases, total := in.PhaseDistribution()
	if len(phases) > 0 {
		doc.Caption("表 2　發展階段分布")
		rows = rows[:0]
		for _, c := range phases {
			rows = append(rows, []string{c.Label, fmt.Sprint(c.N), fmt.Sprintf("%.1f%%", c.Percent)})
		}
		rows = append(rows, []string{"合計", fmt.Sprint(total), "100.0%"})
		doc.Table([]string{"發展階段", "人數", "百分比"}, rows, true)
	}
}

func (w *DescriptiveWriter) topicSelection(doc *Document, sections []Section, fromCatalogue bool) {
	doc.Heading(1, "三、議題選擇")
	if !fromCatalogue {
		doc.Paragraph("問卷題目未能對應預設之核心議題，以下改以推薦分數最高之題目進行分析。")
		return
	}
	if w.catalogue != nil && w.catalogue.Introduction != "" {
		doc.Paragraph(w.catalogue.Introduction)
	}
	if w.catalogue != nil {
		for i, d := range w.catalogue.Dimensions {
			doc.Bullet(fmt.Sprintf("%d. %s：%s", i+1, d.Name, d.Summary))
		}
	}
	n := 0
	for _, s := range sections {
		n += len(s.Topics)
	}
	doc.Paragraph(fmt.Sprintf("本次資料共對應 %d 個核心議題。", n))
}

func (w *DescriptiveWriter) topic(doc *Document, in *Input, t TopicEntry) {
	a := t.Analysis
	alpha := in.alpha()
	charts := in.Charts[a.Question.ID]

	doc.Heading(2, t.Number+" "+t.Title)
	if t.Description != "" {
		doc.Paragraph(t.Description)
	}
	doc.Styled("", Run{Text: "題目：", Bold: true}, Run{Text: a.Question.Text})
	doc.Paragraph(fmt.Sprintf("題型：%s；有效樣本 %d（公司方 %d、投資方 %d）；缺漏率 %.1f%%。",
		a.Type.Label(), a.N, a.CompanyN, a.InvestorN, a.MissingRate*100))

	doc.Heading(3, "公司方與投資方比較")
	if a.Type == domain.AnswerNumeric {
		groups, order := respondentSummaries(a)
		header, rows := numericTable(groups, order)
		doc.Table(header, rows, false)
	} else if len(a.ByRespondent.Categories) > 0 {
		header, rows := crosstabTable(a.ByRespondent, "選項")
		doc.Table(header, rows, true)
	}
	if charts.Respondent != "" {
		w.image(doc, charts.Respondent, 6)
	}
	doc.Styled("", Run{Text: "統計檢定：", Bold: true}, Run{Text: testLine(a.RespondentTest, alpha)})
	if len(a.OptionTests) > 0 {
		header, rows := optionTestTable(a.OptionTests, alpha)
		doc.Table(header, rows, false)
	}
	doc.Styled("", Run{Text: "結果解讀：", Bold: true}, Run{Text: analysis.Interpret(a, alpha)})

	doc.Heading(3, "各階段比較")
	if a.Type == domain.AnswerNumeric {
		groups, order := phaseSummaries(a)
		if header, rows := numericTable(groups, order); len(rows) > 0 {
			doc.Table(header, rows, false)
		}
	} else if len(a.ByPhase.Groups) > 0 && len(a.ByPhase.Categories) > 0 {
		header, rows := crosstabTable(a.ByPhase, "選項")
		doc.Table(header, rows, true)
	}
	if charts.Phase != "" {
		w.image(doc, charts.Phase, 6)
	}
	if a.PhaseTest != nil {
		doc.Styled("", Run{Text: "階段檢定：", Bold: true}, Run{Text: testLine(a.PhaseTest, alpha)})
	}
	if a.PhaseANOVA != nil {
		doc.Styled("", Run{Text: "變異數分析：", Bold: true}, Run{Text: testLine(a.PhaseANOVA, alpha)})
	}
	if s := analysis.InterpretPhase(a, alpha); s != "" {
		doc.Paragraph(s)
	}
}

// image embeds a chart, logging instead of failing when it cannot be read
func (w *DescriptiveWriter) image(doc *Document, path string, width float64) {
	if err := doc.Image(path, width); err != nil {
		w.logger.Warn("Skipping chart image", slog.String("path", path), slog.String("error", err.Error()))
	}
}
