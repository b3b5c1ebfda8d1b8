package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/charts"
	"surveycli/internal/config"
	"surveycli/pkg/contracts/domain"
)

func TestDescriptiveWriter(t *testing.T) {
	dir := t.TempDir()
	in := fixtureInput(t, dir)
	cfg := config.Default().Report
	cat := boardCatalogue("請問公司董事會是否設置獨立董事")

	path := filepath.Join(dir, "report.docx")
	require.NoError(t, NewDescriptiveWriter(cfg, cat, quietLogger()).Write(path, in))

	body := readZipPart(t, path, "word/document.xml")
	requireWellFormed(t, body)
	for _, want := range []string{
		cfg.Title,
		"2026年03月01日",
		"二、樣本分布",
		"董事會治理機制",
		"議題 請問公司董事會是否設置獨立董事",
		"16 (80.0%)",
		"合計",
		"卡方檢定",
		"χ² = 9.600",
		"p = 0.002",
		"各階段比較",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "董事席次", "unmatched questions stay out of catalogue reports")
	assert.Len(t, zipParts(t, path, "word/media/"), 1)
}

func TestDescriptiveWriter_FallbackAndMissingChart(t *testing.T) {
	dir := t.TempDir()
	in := fixtureInput(t, dir)
	in.Charts["Q002"] = charts.QuestionCharts{Respondent: filepath.Join(dir, "missing.png")}
	in.Selection = domain.Selection{Respondents: []domain.RespondentType{domain.RespondentCompany}}

	doc, sections, err := NewDescriptiveWriter(config.Default().Report, nil, quietLogger()).Build(in)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Len(t, sections[0].Topics, 2)
	assert.Equal(t, 1, doc.Images(), "unreadable charts are skipped")

	path := filepath.Join(dir, "fallback.docx")
	require.NoError(t, NewDescriptiveWriter(config.Default().Report, nil, quietLogger()).Write(path, in))
	body := readZipPart(t, path, "word/document.xml")
	assert.Contains(t, body, "改以推薦分數最高之題目")
	assert.Contains(t, body, "公司方 不分階段")
	assert.Contains(t, body, "平均數")
}

func TestBriefWriter(t *testing.T) {
	dir := t.TempDir()
	in := fixtureInput(t, dir)

	path := filepath.Join(dir, "brief.docx")
	require.NoError(t, NewBriefWriter(config.Default().Report, quietLogger()).Write(path, in))

	body := readZipPart(t, path, "word/document.xml")
	assert.Contains(t, body, "重點議題摘要")
	assert.Contains(t, body, domain.TierHigh.Label())
	assert.Contains(t, body, boardQuestion)
	assert.Contains(t, body, "推薦理由")
	assert.Contains(t, body, "資料缺漏提醒")
}

func TestGovernmentReport_Markdown(t *testing.T) {
	dir := t.TempDir()
	in := fixtureInput(t, dir)
	g := NewGovernmentReport(config.Default().Report, quietLogger())

	md := g.Markdown(in, dir)
	assert.True(t, strings.HasPrefix(md, "# "+config.Default().Report.Title))
	for _, c := range chapters {
		assert.Contains(t, md, "## "+c)
	}
	assert.Contains(t, md, "- 表 1　填答者類型分布")
	assert.Contains(t, md, "**表 1　填答者類型分布**")
	assert.Contains(t, md, "| 公司方 | 20 | 66.7% |")
	assert.Contains(t, md, "](charts/Q001_respondent.png)")
	assert.Contains(t, md, "缺漏率偏高之題目")
	assert.Contains(t, md, "Kruskal-Wallis")

	// every listed table is actually captioned in the body
	tables := strings.Count(md, "\n- 表 ")
	assert.Equal(t, tables, strings.Count(md, "**表 "))
}

func TestGovernmentReport_Write(t *testing.T) {
	dir := t.TempDir()
	in := fixtureInput(t, dir)
	g := NewGovernmentReport(config.Default().Report, quietLogger())

	mdPath := filepath.Join(dir, "report.md")
	htmlPath := filepath.Join(dir, "report.html")
	require.NoError(t, g.Write(mdPath, htmlPath, in))

	assert.FileExists(t, mdPath)
	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "<title>"+config.Default().Report.Title+"</title>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `<img src="charts/Q001_respondent.png"`)
	assert.Contains(t, html, "<h2>摘要</h2>")
}
