package charts

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/pkg/contracts/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func categoricalAnalysis() domain.QuestionAnalysis {
	return domain.QuestionAnalysis{
		Question:  domain.MergedQuestion{ID: "Q001", Text: "公司是否設置獨立董事"},
		Type:      domain.AnswerCategorical,
		N:         40,
		CompanyN:  20,
		InvestorN: 20,
		ByRespondent: domain.Crosstab{
			Categories: []string{"是", "否", "規劃中"},
			Groups:     []string{"公司方", "投資方"},
			Counts:     [][]int{{12, 5}, {6, 13}, {2, 2}},
		},
		ByPhase: domain.Crosstab{
			Categories: []string{"是", "否", "規劃中"},
			Groups:     []string{"第一階段", "第二階段", "第三階段"},
			Counts:     [][]int{{5, 6, 6}, {8, 6, 5}, {1, 1, 2}},
		},
	}
}

func numericAnalysis() domain.QuestionAnalysis {
	return domain.QuestionAnalysis{
		Question: domain.MergedQuestion{ID: "Q002", Text: "董事席次"},
		Type:     domain.AnswerNumeric,
		NumericByResp: map[domain.RespondentType][]float64{
			domain.RespondentCompany:  {3, 5, 5, 7, 9},
			domain.RespondentInvestor: {5, 7, 7, 9, 11},
		},
		NumericByPhase: map[domain.Phase][]float64{
			domain.PhaseFirst:       {3, 5, 5, 7},
			domain.PhaseUnspecified: {9, 11},
		},
	}
}

func TestGroupColor(t *testing.T) {
	assert.Equal(t, "#1f77b4", GroupColor("公司方", 5))
	assert.Equal(t, "#ff7f0e", GroupColor("投資方", 0))
	assert.Equal(t, "#2ca02c", GroupColor("第三階段", 2))
	assert.Equal(t, "#1f77b4", GroupColor("其他", 10))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "董事會", truncate("董事會", 3))
	assert.Equal(t, "董事…", truncate("董事會組成", 3))
	assert.Equal(t, "abc", truncate("abc", 0))
}

func TestStaticRenderer_RenderQuestion(t *testing.T) {
	dir := t.TempDir()
	r, err := NewStaticRenderer(config.Default().Charts, dir, quietLogger())
	require.NoError(t, err)

	t.Run("categorical", func(t *testing.T) {
		out, err := r.RenderQuestion(categoricalAnalysis())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "Q001_respondent.png"), out.Respondent)
		assertPNG(t, out.Respondent)
		assertPNG(t, out.Phase)
	})

	t.Run("numeric", func(t *testing.T) {
		out, err := r.RenderQuestion(numericAnalysis())
		require.NoError(t, err)
		assertPNG(t, out.Respondent)
		assertPNG(t, out.Phase)
	})

	t.Run("nothing to draw", func(t *testing.T) {
		out, err := r.RenderQuestion(domain.QuestionAnalysis{Question: domain.MergedQuestion{ID: "Q003"}, Type: domain.AnswerEmpty})
		require.NoError(t, err)
		assert.Empty(t, out.Respondent)
		assert.Empty(t, out.Phase)

		noPhase := categoricalAnalysis()
		noPhase.Question.ID = "Q004"
		noPhase.ByPhase = domain.Crosstab{}
		out, err = r.RenderQuestion(noPhase)
		require.NoError(t, err)
		assert.NotEmpty(t, out.Respondent)
		assert.Empty(t, out.Phase)
	})
}

func TestStaticRenderer_MissingFont(t *testing.T) {
	cfg := config.Default().Charts
	cfg.FontFile = filepath.Join(t.TempDir(), "missing.ttf")

	_, err := NewStaticRenderer(cfg, t.TempDir(), quietLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = NewSummaryRenderer(cfg, t.TempDir(), quietLogger())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestSummaryRenderer(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSummaryRenderer(config.Default().Charts, dir, quietLogger())
	require.NoError(t, err)

	path, err := s.TierDistribution(map[domain.PriorityTier]int{domain.TierHigh: 4, domain.TierMedium: 9, domain.TierLow: 30})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "priority_distribution.png"), path)
	assertPNG(t, path)

	path, err = s.RespondentDistribution(map[domain.RespondentType]int{domain.RespondentCompany: 60, domain.RespondentInvestor: 25})
	require.NoError(t, err)
	assertPNG(t, path)

	_, err = s.TierDistribution(map[domain.PriorityTier]int{})
	assert.ErrorIs(t, err, ErrNoData)
	_, err = s.RespondentDistribution(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestInteractiveRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactive.html")
	r := NewInteractiveRenderer("互動圖表", quietLogger())

	analyses := []domain.QuestionAnalysis{
		categoricalAnalysis(),
		numericAnalysis(),
		{Question: domain.MergedQuestion{ID: "Q009"}, Err: "failed"},
	}
	_, added := r.Page(analyses)
	assert.Equal(t, 2, added)

	require.NoError(t, r.Write(path, analyses))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)
	assert.Contains(t, html, "互動圖表")
	assert.Contains(t, html, "Q001")
	assert.Contains(t, html, "Q002")
	assert.NotContains(t, html, "Q009")
	assert.Contains(t, html, "#1f77b4")

	assert.ErrorIs(t, r.Write(path, nil), ErrNoData)
}

func TestChromeRasterizer_Errors(t *testing.T) {
	dir := t.TempDir()
	c := NewChromeRasterizer(5*time.Second, filepath.Join(dir, "no-chrome"), quietLogger())

	err := c.Rasterize(context.Background(), filepath.Join(dir, "missing.html"), filepath.Join(dir, "out.png"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeRender))

	page := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(page, []byte("<html><body>x</body></html>"), 0644))
	err = c.Rasterize(context.Background(), page, filepath.Join(dir, "out.png"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}
