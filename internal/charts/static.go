package charts

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
	"surveycli/pkg/contracts/domain"
)

const cjkTypeface = font.Typeface("survey-cjk")

// QuestionCharts holds the image paths rendered for one question. Empty
// paths mean the chart had no data.
type QuestionCharts struct {
	Respondent string
	Phase      string
}

// StaticRenderer draws per-question PNG charts with gonum/plot
type StaticRenderer struct {
	cfg      config.ChartsConfig
	dir      string
	files    *files.Manager
	typeface font.Typeface
	logger   *slog.Logger
}

// NewStaticRenderer creates a renderer writing into dir. When cfg.FontFile
// is set the font is registered and used for every text element, which is
// how CJK labels get real glyphs.
func NewStaticRenderer(cfg config.ChartsConfig, dir string, logger *slog.Logger) (*StaticRenderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &StaticRenderer{
		cfg:    cfg,
		dir:    dir,
		files:  files.NewManager(dir, logger),
		logger: logger,
	}
	if cfg.FontFile != "" {
		if err := registerFont(cfg.FontFile); err != nil {
			return nil, apperrors.NewConfigError("failed to load chart font", err).WithContext("font_file", cfg.FontFile)
		}
		r.typeface = cjkTypeface
	}
	return r, nil
}

func registerFont(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ttf, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	font.DefaultCache.Add(font.Collection{{Font: font.Font{Typeface: cjkTypeface}, Face: ttf}})
	return nil
}

// RenderQuestion draws the respondent and phase charts of a question.
// Numeric questions get box plots, everything else grouped bars.
func (r *StaticRenderer) RenderQuestion(a domain.QuestionAnalysis) (QuestionCharts, error) {
	var out QuestionCharts
	if a.Failed() || a.Type == domain.AnswerEmpty {
		return out, nil
	}

	var respondent, phase *plot.Plot
	var err error
	if a.Type == domain.AnswerNumeric {
		respondent, err = r.boxPlot(chartTitle(a.Question)+"（公司方 vs 投資方）", respondentSeries(a))
		if err == nil {
			phase, err = r.boxPlot(chartTitle(a.Question)+"（各階段）", phaseSeries(a))
		}
	} else {
		respondent, err = r.groupedBars(chartTitle(a.Question)+"（公司方 vs 投資方）", a.ByRespondent)
		if err == nil {
			phase, err = r.groupedBars(chartTitle(a.Question)+"（各階段）", a.ByPhase)
		}
	}
	if err != nil {
		return out, apperrors.NewRenderError("failed to build chart", err).WithContext("question_id", a.Question.ID)
	}

	if respondent != nil {
		if out.Respondent, err = r.save(respondent, a.Question.ID+"_respondent.png"); err != nil {
			return out, err
		}
	}
	if phase != nil {
		if out.Phase, err = r.save(phase, a.Question.ID+"_phase.png"); err != nil {
			return out, err
		}
	}
	return out, nil
}

// groupedBars draws one bar series per crosstab group with the bars of a
// category side by side. Heights are percentages of each group. A crosstab
// without categories yields a nil plot.
func (r *StaticRenderer) groupedBars(title string, ct domain.Crosstab) (*plot.Plot, error) {
	if len(ct.Categories) == 0 || len(ct.Groups) == 0 {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "百分比 (%)"
	p.Y.Min = 0

	groups := len(ct.Groups)
	width := vg.Points(math.Max(6, math.Min(28, 240/float64(len(ct.Categories)*groups))))
	maxPct := 0.0
	for j, g := range ct.Groups {
		values := make(plotter.Values, len(ct.Categories))
		for i := range ct.Categories {
			values[i] = ct.Percent(i, j)
			maxPct = math.Max(maxPct, values[i])
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, err
		}
		bars.Color = groupColor(g, j)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(j)-float64(groups-1)/2) * width
		p.Add(bars)
		p.Legend.Add(g, bars)
	}
	p.Y.Max = math.Min(100, maxPct*1.15+1)
	p.Legend.Top = true

	labels := make([]string, len(ct.Categories))
	for i, c := range ct.Categories {
		labels[i] = truncate(c, 10)
	}
	p.NominalX(labels...)
	if len(labels) > 4 {
		p.X.Tick.Label.Rotation = math.Pi / 6
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	p.Add(plotter.NewGrid())

	r.applyFont(p)
	return p, nil
}

type series struct {
	name   string
	values []float64
}

func respondentSeries(a domain.QuestionAnalysis) []series {
	var out []series
	for _, rt := range domain.RespondentTypes {
		if v := a.NumericByResp[rt]; len(v) > 0 {
			out = append(out, series{name: string(rt), values: v})
		}
	}
	return out
}

func phaseSeries(a domain.QuestionAnalysis) []series {
	phases := append([]domain.Phase{}, domain.Phases...)
	phases = append(phases, domain.PhaseUnspecified)

	var out []series
	for _, ph := range phases {
		if v := a.NumericByPhase[ph]; len(v) > 0 {
			out = append(out, series{name: string(ph), values: v})
		}
	}
	return out
}

// boxPlot draws one box per series. No series yields a nil plot.
func (r *StaticRenderer) boxPlot(title string, data []series) (*plot.Plot, error) {
	if len(data) == 0 {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "數值"

	names := make([]string, len(data))
	for i, s := range data {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(s.values))
		if err != nil {
			return nil, err
		}
		box.FillColor = groupColor(s.name, i)
		p.Add(box)
		names[i] = fmt.Sprintf("%s (n=%d)", s.name, len(s.values))
	}
	p.NominalX(names...)
	p.Add(plotter.NewGrid())

	r.applyFont(p)
	return p, nil
}

func (r *StaticRenderer) applyFont(p *plot.Plot) {
	if r.typeface == "" {
		return
	}
	p.Title.TextStyle.Font.Typeface = r.typeface
	p.X.Label.TextStyle.Font.Typeface = r.typeface
	p.Y.Label.TextStyle.Font.Typeface = r.typeface
	p.X.Tick.Label.Font.Typeface = r.typeface
	p.Y.Tick.Label.Font.Typeface = r.typeface
	p.Legend.TextStyle.Font.Typeface = r.typeface
}

func (r *StaticRenderer) save(p *plot.Plot, name string) (string, error) {
	width := vg.Length(r.cfg.WidthInches) * vg.Inch
	height := vg.Length(r.cfg.HeightInches) * vg.Inch
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return "", apperrors.NewRenderError("failed to render chart", err).WithContext("chart", name)
	}
	if err := r.files.WriteAtomic(name, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	}); err != nil {
		return "", apperrors.NewRenderError("failed to write chart", err).WithContext("chart", name)
	}
	return filepath.Join(r.dir, name), nil
}
