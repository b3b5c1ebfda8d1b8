package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"surveycli/internal/analysis"
	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
	"surveycli/internal/ranking"
	"surveycli/pkg/contracts/domain"
)

var chapters = []string{
	"壹、前言",
	"貳、填答者分布",
	"參、發展階段分布",
	"肆、資料完整度",
	"伍、高度優先議題",
	"陸、重要關注議題",
	"柒、統計檢定結果彙整",
	"捌、階段差異分析",
	"玖、結論與政策建議",
	"附錄一、全部議題一覽",
	"附錄二、統計方法說明",
}

// GovernmentReport writes the formal analytical report as Markdown and HTML
type GovernmentReport struct {
	cfg    config.ReportConfig
	files  *files.Manager
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewGovernmentReport creates the report writer
func NewGovernmentReport(cfg config.ReportConfig, logger *slog.Logger) *GovernmentReport {
	if logger == nil {
		logger = slog.Default()
	}
	return &GovernmentReport{
		cfg:   cfg,
		files: files.NewManager("", logger),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		logger: logger,
	}
}

// mdDoc accumulates markdown and numbers tables and figures as they are added
type mdDoc struct {
	b       strings.Builder
	baseDir string
	tables  []string
	figures []string
}

func (d *mdDoc) line(format string, args ...any) {
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteString("\n")
}

func (d *mdDoc) heading(level int, text string) {
	d.line("\n%s %s\n", strings.Repeat("#", level), text)
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func (d *mdDoc) table(caption string, header []string, rows [][]string) {
	d.tables = append(d.tables, caption)
	d.line("\n**表 %d　%s**\n", len(d.tables), caption)
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = mdCell(h)
	}
	d.line("| %s |", strings.Join(cells, " | "))
	d.line("|%s", strings.Repeat(" --- |", len(header)))
	for _, row := range rows {
		cells = cells[:0]
		for _, c := range row {
			cells = append(cells, mdCell(c))
		}
		d.line("| %s |", strings.Join(cells, " | "))
	}
	d.line("")
}

func (d *mdDoc) figure(caption, path string) {
	if path == "" {
		return
	}
	if d.baseDir != "" {
		if rel, err := filepath.Rel(d.baseDir, path); err == nil {
			path = rel
		}
	}
	d.figures = append(d.figures, caption)
	d.line("\n![%s](%s)\n", caption, filepath.ToSlash(path))
	d.line("*圖 %d　%s*\n", len(d.figures), caption)
}

// Markdown renders the report. Image links are made relative to baseDir,
// the directory the markdown file is written to.
func (g *GovernmentReport) Markdown(in *Input, baseDir string) string {
	body := &mdDoc{baseDir: baseDir}
	alpha := in.alpha()

	g.introduction(body, in)
	g.distributions(body, in)
	g.completeness(body, in)
	g.priorityTopics(body, in, alpha)
	g.testSummary(body, in, alpha)
	g.phaseSection(body, in, alpha)
	g.conclusion(body, in, alpha)
	g.appendices(body, in)

	var out strings.Builder
	fmt.Fprintf(&out, "# %s\n\n", g.cfg.Title)
	if g.cfg.Subtitle != "" {
		fmt.Fprintf(&out, "**%s**\n\n", g.cfg.Subtitle)
	}
	if !in.Selection.IsZero() {
		fmt.Fprintf(&out, "分析範圍：%s\n\n", in.Selection.Label())
	}
	if g.cfg.Organization != "" {
		fmt.Fprintf(&out, "%s\n\n", g.cfg.Organization)
	}
	fmt.Fprintf(&out, "%s\n\n", formatDate(in.generated()))

	out.WriteString("## 摘要\n\n")
	out.WriteString(g.abstract(in, alpha) + "\n\n")

	out.WriteString("## 目錄\n\n")
	for _, c := range chapters {
		fmt.Fprintf(&out, "- %s\n", c)
	}
	out.WriteString("\n## 表目錄\n\n")
	for i, t := range body.tables {
		fmt.Fprintf(&out, "- 表 %d　%s\n", i+1, t)
	}
	out.WriteString("\n## 圖目錄\n\n")
	if len(body.figures) == 0 {
		out.WriteString("- （無）\n")
	}
	for i, f := range body.figures {
		fmt.Fprintf(&out, "- 圖 %d　%s\n", i+1, f)
	}
	out.WriteString(body.b.String())
	return out.String()
}

func (g *GovernmentReport) abstract(in *Input, alpha float64) string {
	_, total := in.RespondentDistribution()
	counts := ranking.CountTiers(in.Recommendations)
	significant := 0
	for _, rec := range in.Recommendations {
		if rec.Significant(alpha) {
			significant++
		}
	}
	return fmt.Sprintf("本報告分析 %d 筆問卷回覆、%d 個題目。公司方與投資方之回答於 %d 題達統計顯著差異（α = %.2f）；"+
		"依推薦分數評定%s %d 題、%s %d 題。整體資料完整度 %.1f%%，評等為「%s」。",
		total, len(in.Analyses), significant, alpha,
		domain.TierHigh.Label(), counts[domain.TierHigh],
		domain.TierMedium.Label(), counts[domain.TierMedium],
		in.Completeness.Rate*100, in.Completeness.Grade)
}

func (g *GovernmentReport) introduction(d *mdDoc, in *Input) {
	d.heading(2, chapters[0])
	sources := 0
	if in.Dataset != nil {
		sources = len(in.Dataset.Files)
	}
	d.line("本研究彙整 %d 份問卷資料檔，將不同版本問卷中語意相同之題目合併後，比較公司方與投資方之回答差異，並檢視不同發展階段間之變化。", sources)
	d.line("")
	var types []string
	for _, c := range in.TypeCounts() {
		types = append(types, fmt.Sprintf("%s %d 題", c.Label, c.N))
	}
	if len(types) > 0 {
		d.line("題目依回答型態分類為：%s。", strings.Join(types, "、"))
	}
}

func (g *GovernmentReport) distributions(d *mdDoc, in *Input) {
	d.heading(2, chapters[1])
	resp, total := in.RespondentDistribution()
	d.table("填答者類型分布", []string{"填答者類型", "人數", "百分比"}, countRows(resp, total))
	d.figure("填答者類型分布", in.Summary.Respondents)

	d.heading(2, chapters[2])
	phases, total := in.PhaseDistribution()
	if len(phases) == 0 {
		d.line("資料未標註發展階段。")
		return
	}
	d.table("發展階段分布", []string{"發展階段", "人數", "百分比"}, countRows(phases, total))
}

func countRows(counts []Count, total int) [][]string {
	rows := make([][]string, 0, len(counts)+1)
	for _, c := range counts {
		rows = append(rows, []string{c.Label, fmt.Sprint(c.N), fmt.Sprintf("%.1f%%", c.Percent)})
	}
	return append(rows, []string{"合計", fmt.Sprint(total), "100.0%"})
}

func (g *GovernmentReport) completeness(d *mdDoc, in *Input) {
	d.heading(2, chapters[3])
	c := in.Completeness
	d.line("應答格數 %d 中共有 %d 格為有效回答，整體完整度 %.1f%%，評等為「%s」。", c.Expected, c.Answered, c.Rate*100, c.Grade)
	if len(c.Gaps) == 0 {
		d.line("")
		d.line("所有題目之缺漏率均在可接受範圍內。")
		return
	}
	rows := make([][]string, len(c.Gaps))
	for i, gap := range c.Gaps {
		rows[i] = []string{gap.QuestionID, truncateText(gap.Text, 40), fmt.Sprintf("%.1f%%", gap.MissingRate*100)}
	}
	d.table("缺漏率偏高之題目", []string{"題號", "題目", "缺漏率"}, rows)
}

func (g *GovernmentReport) priorityTopics(d *mdDoc, in *Input, alpha float64) {
	d.heading(2, chapters[4])
	high := ranking.FilterTier(in.Recommendations, domain.TierHigh)
	if len(high) == 0 {
		d.line("本次分析無高度優先議題。")
	}
	for i, rec := range high {
		a, ok := in.Analysis(rec.QuestionID)
		if !ok {
			continue
		}
		d.heading(3, fmt.Sprintf("%d. %s", i+1, rec.Text))
		d.line("推薦分數 %.2f。推薦理由：%s。", rec.Score, strings.Join(rec.Reasons, "；"))
		if a.Type == domain.AnswerNumeric {
			groups, order := respondentSummaries(a)
			header, rows := numericTable(groups, order)
			d.table(truncateText(rec.Text, 30)+"：數值摘要", header, rows)
		} else if len(a.ByRespondent.Categories) > 0 {
			header, rows := crosstabTable(a.ByRespondent, "選項")
			d.table(truncateText(rec.Text, 30)+"：公司方與投資方交叉表", header, rows)
		}
		d.figure(truncateText(rec.Text, 30)+"：公司方與投資方比較", in.Charts[a.Question.ID].Respondent)
		d.line("%s", testLine(a.RespondentTest, alpha))
		d.line("")
		d.line("%s", analysis.Interpret(a, alpha))
	}

	d.heading(2, chapters[5])
	medium := ranking.FilterTier(in.Recommendations, domain.TierMedium)
	if len(medium) == 0 {
		d.line("本次分析無重要關注議題。")
	}
	for i, rec := range medium {
		a, ok := in.Analysis(rec.QuestionID)
		if !ok {
			continue
		}
		d.line("%d. **%s**（推薦分數 %.2f）：%s", i+1, mdCell(rec.Text), rec.Score, analysis.Interpret(a, alpha))
	}
}

func (g *GovernmentReport) testSummary(d *mdDoc, in *Input, alpha float64) {
	d.heading(2, chapters[6])
	var rows [][]string
	for _, a := range in.Analyses {
		t := a.RespondentTest
		if t == nil {
			continue
		}
		rows = append(rows, []string{
			a.Question.ID,
			truncateText(a.Question.Text, 30),
			t.Method.Label(),
			fmt.Sprintf("%.3f", t.Statistic),
			analysis.FormatP(t.PValue),
			significanceLabel(t.PValue, alpha),
		})
	}
	if len(rows) == 0 {
		d.line("本次資料無可進行群體比較之題目。")
		return
	}
	d.table("公司方與投資方差異檢定結果", []string{"題號", "題目", "檢定方法", "統計量", "p 值", "顯著性"}, rows)
}

func (g *GovernmentReport) phaseSection(d *mdDoc, in *Input, alpha float64) {
	d.heading(2, chapters[7])
	var rows [][]string
	for _, a := range in.Analyses {
		for _, t := range []*domain.TestResult{a.PhaseTest, a.PhaseANOVA} {
			if t == nil {
				continue
			}
			dof := "-"
			if t.DOF > 0 {
				dof = fmt.Sprint(t.DOF)
			}
			rows = append(rows, []string{
				a.Question.ID,
				truncateText(a.Question.Text, 30),
				t.Method.Label(),
				fmt.Sprintf("%.3f", t.Statistic),
				dof,
				analysis.FormatP(t.PValue),
				significanceLabel(t.PValue, alpha),
			})
		}
	}
	if len(rows) == 0 {
		d.line("各階段樣本不足，未進行階段差異檢定。")
		return
	}
	d.table("發展階段差異檢定結果（Kruskal-Wallis／ANOVA／卡方）", []string{"題號", "題目", "檢定方法", "統計量", "自由度", "p 值", "顯著性"}, rows)
}

func (g *GovernmentReport) conclusion(d *mdDoc, in *Input, alpha float64) {
	d.heading(2, chapters[8])
	significant := 0
	phaseDiff := 0
	for _, a := range in.Analyses {
		if p, ok := a.PValue(); ok && p < alpha {
			significant++
		}
		if a.PhaseTest != nil && a.PhaseTest.PValue < alpha {
			phaseDiff++
		}
	}

	d.line("### 研究發現\n")
	d.line("- 公司方與投資方於 %d 個題目呈現統計顯著差異，顯示雙方對公司治理實務之認知存在落差。", significant)
	d.line("- 不同發展階段間有 %d 個題目呈現顯著差異。", phaseDiff)
	d.line("- 整體資料完整度為 %.1f%%（%s）。", in.Completeness.Rate*100, in.Completeness.Grade)

	d.line("\n### 政策建議\n")
	d.line("1. 針對高度優先議題，建議主管機關優先納入輔導與查核重點，縮小公司方與投資方之認知差距。")
	d.line("2. 強化財務報告與資訊揭露之頻率與品質，提升投資人監督之基礎。")
	d.line("3. 依公司發展階段提供差異化之治理指引，避免一體適用之要求造成早期公司過重負擔。")
	if len(in.Completeness.Gaps) > 0 {
		d.line("4. 缺漏率偏高之 %d 個題目建議於後續問卷修訂題意或作答方式。", len(in.Completeness.Gaps))
	}
}

func (g *GovernmentReport) appendices(d *mdDoc, in *Input) {
	d.heading(2, chapters[9])
	rows := make([][]string, len(in.Recommendations))
	for i, rec := range in.Recommendations {
		p := "-"
		if rec.HasPValue {
			p = analysis.FormatP(rec.PValue)
		}
		rows[i] = []string{
			fmt.Sprint(i + 1),
			rec.QuestionID,
			truncateText(rec.Text, 40),
			rec.Type.Label(),
			fmt.Sprint(rec.SampleSize),
			fmt.Sprintf("%.2f", rec.Score),
			rec.Tier.Label(),
			p,
		}
	}
	d.table("全部議題推薦排序", []string{"排名", "題號", "題目", "題型", "樣本數", "分數", "等級", "p 值"}, rows)

	d.heading(2, chapters[10])
	for _, m := range []domain.TestMethod{
		domain.MethodChiSquare, domain.MethodFisherExact, domain.MethodMannWhitneyU,
		domain.MethodKruskalWallis, domain.MethodANOVA,
	} {
		d.line("- **%s**：%s", m.Label(), methodNotes[m])
	}
}

var methodNotes = map[domain.TestMethod]string{
	domain.MethodChiSquare:     "檢定兩類別變項是否獨立，2×2 表採 Yates 連續性校正；期望次數小於 5 之格子比例過高時結果僅供參考。",
	domain.MethodFisherExact:   "樣本數小於門檻之 2×2 表改採精確機率計算，不依賴大樣本近似。",
	domain.MethodMannWhitneyU:  "比較兩獨立樣本之分布位置，不假設常態分布，採常態近似並校正同分與連續性。",
	domain.MethodKruskalWallis: "Mann-Whitney 之多組推廣，用於比較三個以上發展階段之數值分布。",
	domain.MethodANOVA:         "比較多組平均數差異之母數方法，與 Kruskal-Wallis 結果互相對照。",
}

// HTML converts the markdown to a standalone HTML page
func (g *GovernmentReport) HTML(markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := g.md.Convert([]byte(markdown), &body); err != nil {
		return nil, apperrors.NewRenderError("failed to convert markdown", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"zh-Hant\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", htmlEscape(g.cfg.Title))
	fmt.Fprintf(&page, "<style>body{font-family:%q,sans-serif;max-width:960px;margin:2em auto;line-height:1.7}"+
		"table{border-collapse:collapse;margin:1em 0}th,td{border:1px solid #999;padding:4px 8px}"+
		"th{background:#f0f0f0}img{max-width:100%%}</style>\n", g.cfg.Font)
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func htmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}

// Write renders the report to mdPath and its HTML conversion to htmlPath
func (g *GovernmentReport) Write(mdPath, htmlPath string, in *Input) error {
	markdown := g.Markdown(in, filepath.Dir(mdPath))
	if err := g.files.WriteFile(mdPath, []byte(markdown)); err != nil {
		return apperrors.NewRenderError("failed to write markdown report", err).WithContext("path", mdPath)
	}

	page, err := g.HTML(markdown)
	if err != nil {
		return err
	}
	if err := g.files.WriteFile(htmlPath, page); err != nil {
		return apperrors.NewRenderError("failed to write html report", err).WithContext("path", htmlPath)
	}
	g.logger.Info("Government report written", slog.String("markdown", mdPath), slog.String("html", htmlPath))
	return nil
}
