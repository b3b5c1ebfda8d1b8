package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"surveycli/internal/charts"
	"surveycli/internal/config"
	"surveycli/internal/ranking"
	"surveycli/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

const boardQuestion = "請問公司董事會是否設置獨立董事？"

// fixtureInput builds a two-question run with charts under dir/charts
func fixtureInput(t *testing.T, dir string) *Input {
	t.Helper()
	chartPath := filepath.Join(dir, "charts", "Q001_respondent.png")
	writePNG(t, chartPath, 80, 45)

	ds := &domain.Dataset{Files: []domain.SourceFile{{Name: "a.csv"}, {Name: "b.csv"}}}
	for i := 0; i < 20; i++ {
		ds.Responses = append(ds.Responses, domain.Response{Respondent: domain.RespondentCompany, Phase: domain.PhaseFirst})
	}
	for i := 0; i < 10; i++ {
		ds.Responses = append(ds.Responses, domain.Response{Respondent: domain.RespondentInvestor, Phase: domain.PhaseSecond})
	}

	board := domain.QuestionAnalysis{
		Question:  domain.MergedQuestion{ID: "Q001", Text: boardQuestion, Members: []domain.RawColumn{{Header: boardQuestion, Source: "a.csv"}}},
		Type:      domain.AnswerCategorical,
		N:         30,
		CompanyN:  20,
		InvestorN: 10,
		ByRespondent: domain.Crosstab{
			Categories: []string{"是", "否"},
			Groups:     []string{"公司方", "投資方"},
			Counts:     [][]int{{16, 2}, {4, 8}},
		},
		ByPhase: domain.Crosstab{
			Categories: []string{"是", "否"},
			Groups:     []string{"第一階段", "第二階段"},
			Counts:     [][]int{{16, 2}, {4, 8}},
		},
		RespondentTest:    &domain.TestResult{Method: domain.MethodChiSquare, Statistic: 9.6, PValue: 0.0019, DOF: 1, N: 30},
		PhaseTest:         &domain.TestResult{Method: domain.MethodChiSquare, Statistic: 9.6, PValue: 0.0019, DOF: 1, N: 30},
		PhaseObservations: []string{"第一階段：最多為「是」（80.0%）"},
	}
	seats := domain.QuestionAnalysis{
		Question:    domain.MergedQuestion{ID: "Q002", Text: "董事席次 <含獨董>"},
		Type:        domain.AnswerNumeric,
		N:           24,
		Applicable:  30,
		MissingRate: 0.2,
		CompanyN:    16,
		InvestorN:   8,
		NumericByGroup: map[domain.RespondentType]domain.NumericSummary{
			domain.RespondentCompany:  {Count: 16, Mean: 5, Median: 5, Min: 3, Max: 7},
			domain.RespondentInvestor: {Count: 8, Mean: 6, Median: 6, Min: 5, Max: 9},
		},
		NumericByPhase: map[domain.Phase][]float64{domain.PhaseFirst: {3, 5, 7}},
		RespondentTest: &domain.TestResult{Method: domain.MethodMannWhitneyU, Statistic: 40, PValue: 0.2},
	}
	board.Applicable = 30
	analyses := []domain.QuestionAnalysis{board, seats}

	recs := ranking.NewRecommender(config.Default().Ranking, 0.05, quietLogger()).Rank(analyses)
	return &Input{
		Dataset:         ds,
		Analyses:        analyses,
		Recommendations: recs,
		Completeness:    ranking.Completeness(analyses, 0.10),
		Charts:          map[string]charts.QuestionCharts{"Q001": {Respondent: chartPath}},
		Alpha:           0.05,
		GeneratedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// zipParts lists the part names of a zip package that start with prefix
func zipParts(t *testing.T, path, prefix string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, prefix) {
			names = append(names, f.Name)
		}
	}
	return names
}

// readZipPart returns one part of a zip package
func readZipPart(t *testing.T, path, part string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == part {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("%s has no part %s", path, part)
	return ""
}

func requireWellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader([]byte(doc)))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
	}
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}
