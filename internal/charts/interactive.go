package charts

import (
	"fmt"
	"io"
	"log/slog"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
	"surveycli/internal/stats"
	"surveycli/pkg/contracts/domain"
)

// InteractiveRenderer builds one HTML page holding a chart per question
type InteractiveRenderer struct {
	title  string
	files  *files.Manager
	logger *slog.Logger
}

// NewInteractiveRenderer creates a renderer for pages titled title
func NewInteractiveRenderer(title string, logger *slog.Logger) *InteractiveRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractiveRenderer{title: title, files: files.NewManager("", logger), logger: logger}
}

// Page assembles the page. Numeric questions become box plots, the rest
// grouped percentage bars. Questions without data are skipped and the
// number of charts added is returned.
func (r *InteractiveRenderer) Page(analyses []domain.QuestionAnalysis) (*components.Page, int) {
	page := components.NewPage()
	page.PageTitle = r.title
	page.SetLayout(components.PageFlexLayout)

	added := 0
	for _, a := range analyses {
		if a.Failed() || a.Type == domain.AnswerEmpty {
			continue
		}
		if a.Type == domain.AnswerNumeric {
			if box := numericBox(a); box != nil {
				page.AddCharts(box)
				added++
			}
			continue
		}
		if bar := crosstabBar(a); bar != nil {
			page.AddCharts(bar)
			added++
		}
	}
	return page, added
}

// Write renders the page for analyses into path
func (r *InteractiveRenderer) Write(path string, analyses []domain.QuestionAnalysis) error {
	page, added := r.Page(analyses)
	if added == 0 {
		return ErrNoData
	}
	if err := r.files.WriteAtomic(path, func(w io.Writer) error {
		return page.Render(w)
	}); err != nil {
		return apperrors.NewRenderError("failed to write interactive charts", err).WithContext("path", path)
	}
	r.logger.Info("Interactive charts written", slog.String("path", path), slog.Int("charts", added))
	return nil
}

func globalOptions(a domain.QuestionAnalysis) []echarts.GlobalOpts {
	return []echarts.GlobalOpts{
		echarts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		echarts.WithTitleOpts(opts.Title{
			Title:    a.Question.ID,
			Subtitle: truncate(a.Question.Text, 60),
		}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
	}
}

func crosstabBar(a domain.QuestionAnalysis) *echarts.Bar {
	ct := a.ByRespondent
	if len(ct.Categories) == 0 || len(ct.Groups) == 0 {
		return nil
	}

	bar := echarts.NewBar()
	bar.SetGlobalOptions(globalOptions(a)...)
	bar.SetGlobalOptions(echarts.WithYAxisOpts(opts.YAxis{Name: "%"}))
	bar.SetXAxis(ct.Categories)
	for j, g := range ct.Groups {
		data := make([]opts.BarData, len(ct.Categories))
		for i := range ct.Categories {
			data[i] = opts.BarData{
				Name:  fmt.Sprintf("%s：%d 人", ct.Categories[i], ct.Counts[i][j]),
				Value: roundPct(ct.Percent(i, j)),
			}
		}
		bar.AddSeries(g, data, echarts.WithItemStyleOpts(opts.ItemStyle{Color: GroupColor(g, j)}))
	}
	return bar
}

func numericBox(a domain.QuestionAnalysis) *echarts.BoxPlot {
	var names []string
	var data []opts.BoxPlotData
	for _, s := range respondentSeries(a) {
		sum := stats.Describe(s.values)
		names = append(names, fmt.Sprintf("%s (n=%d)", s.name, len(s.values)))
		data = append(data, opts.BoxPlotData{
			Name:  s.name,
			Value: []float64{sum.Min, sum.Q1, sum.Median, sum.Q3, sum.Max},
		})
	}
	if len(data) == 0 {
		return nil
	}

	box := echarts.NewBoxPlot()
	box.SetGlobalOptions(globalOptions(a)...)
	box.SetXAxis(names)
	box.AddSeries("分布", data)
	return box
}

func roundPct(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
