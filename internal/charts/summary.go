package charts

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
	"surveycli/pkg/contracts/domain"
)

var tierHex = map[domain.PriorityTier]string{
	domain.TierHigh:   "d62728",
	domain.TierMedium: "ff7f0e",
	domain.TierLow:    "7f7f7f",
}

// SummaryRenderer draws the run overview charts with go-chart
type SummaryRenderer struct {
	cfg    config.ChartsConfig
	dir    string
	files  *files.Manager
	font   *truetype.Font
	logger *slog.Logger
}

// NewSummaryRenderer creates a renderer writing into dir
func NewSummaryRenderer(cfg config.ChartsConfig, dir string, logger *slog.Logger) (*SummaryRenderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SummaryRenderer{
		cfg:    cfg,
		dir:    dir,
		files:  files.NewManager(dir, logger),
		logger: logger,
	}
	if cfg.FontFile != "" {
		data, err := os.ReadFile(cfg.FontFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to read chart font", err).WithContext("font_file", cfg.FontFile)
		}
		if s.font, err = truetype.Parse(data); err != nil {
			return nil, apperrors.NewConfigError("failed to parse chart font", err).WithContext("font_file", cfg.FontFile)
		}
	}
	return s, nil
}

func (s *SummaryRenderer) size() (int, int) {
	return int(s.cfg.WidthInches * 96), int(s.cfg.HeightInches * 96)
}

// TierDistribution draws the number of questions per priority tier
func (s *SummaryRenderer) TierDistribution(counts map[domain.PriorityTier]int) (string, error) {
	var bars []chart.Value
	maxCount := 0
	for _, tier := range []domain.PriorityTier{domain.TierHigh, domain.TierMedium, domain.TierLow} {
		n := counts[tier]
		maxCount = max(maxCount, n)
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%d)", tier.Label(), n),
			Value: float64(n),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(tierHex[tier]),
				StrokeColor: drawing.ColorFromHex(tierHex[tier]),
			},
		})
	}
	if maxCount == 0 {
		return "", ErrNoData
	}

	width, height := s.size()
	bc := chart.BarChart{
		Title:      "議題優先等級分布",
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Width:      width,
		Height:     height,
		BarWidth:   width / 6,
		Bars:       bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.15},
		},
		Font: s.font,
	}
	return s.save("priority_distribution.png", bc.Render)
}

// RespondentDistribution draws the share of responses per respondent type
func (s *SummaryRenderer) RespondentDistribution(counts map[domain.RespondentType]int) (string, error) {
	var values []chart.Value
	types := append([]domain.RespondentType{}, domain.RespondentTypes...)
	types = append(types, domain.RespondentUnknown)
	for i, rt := range types {
		n := counts[rt]
		if n == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %d", rt, n),
			Value: float64(n),
			Style: chart.Style{FillColor: drawing.ColorFromHex(groupHex(string(rt), i+2))},
		})
	}
	if len(values) == 0 {
		return "", ErrNoData
	}

	_, height := s.size()
	pie := chart.PieChart{
		Title:  "填答者類型分布",
		Width:  height,
		Height: height,
		Values: values,
		Font:   s.font,
	}
	return s.save("respondent_distribution.png", pie.Render)
}

func (s *SummaryRenderer) save(name string, render func(chart.RendererProvider, io.Writer) error) (string, error) {
	if err := s.files.WriteAtomic(name, func(w io.Writer) error {
		return render(chart.PNG, w)
	}); err != nil {
		return "", apperrors.NewRenderError("failed to render summary chart", err).WithContext("chart", name)
	}
	return filepath.Join(s.dir, name), nil
}
