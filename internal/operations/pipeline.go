package operations

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"surveycli/internal/analysis"
	"surveycli/internal/charts"
	"surveycli/internal/config"
	"surveycli/internal/dataprocessing"
	"surveycli/internal/exporter"
	"surveycli/internal/files"
	"surveycli/internal/infrastructure"
	"surveycli/internal/matcher"
	"surveycli/internal/ranking"
	"surveycli/internal/report"
)

// PipelineOptions are the run settings that do not come from the
// configuration file
type PipelineOptions struct {
	Tracer     trace.Tracer
	Metrics    *infrastructure.SurveyMetrics
	Rasterize  bool
	ChromePath string
	// Title overrides the report title in the interactive page
	Title string
}

// NewPipeline wires every survey step into a manager
func NewPipeline(cfg *config.Config, paths *config.Paths, opts PipelineOptions, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalogue, err := config.LoadTopics(cfg.Report.TopicsFile)
	if err != nil {
		return nil, err
	}
	rules, err := config.LoadAliases(cfg.Matcher.AliasFile)
	if err != nil {
		return nil, err
	}

	m, err := matcher.New(cfg.Matcher, rules, infrastructure.WithComponent(logger, "matcher"))
	if err != nil {
		return nil, err
	}

	engineOpts := []analysis.Option{analysis.WithMetrics(opts.Metrics)}
	if opts.Tracer != nil {
		engineOpts = append(engineOpts, analysis.WithTracer(opts.Tracer))
	}
	engine := analysis.NewEngine(cfg.Analysis, cfg.Ingest.NumericThreshold,
		infrastructure.WithComponent(logger, "analysis"), engineOpts...)

	renderers, err := newRenderers(cfg, paths, opts, catalogue, logger)
	if err != nil {
		return nil, err
	}

	pipelineCfg := NewConfig()
	if cfg.Analysis.Timeout > 0 {
		pipelineCfg.StepTimeouts[StepIDStatistics] = cfg.Analysis.Timeout
	}
	// only the render step reports retryable failures
	pipelineCfg.RetryConfig.MaxAttempts = cfg.Report.WriteAttempts

	managerOpts := []ManagerOption{WithMetrics(opts.Metrics)}
	if opts.Tracer != nil {
		managerOpts = append(managerOpts, WithTracer(opts.Tracer))
	}
	manager := NewManager(NewRegistry(), pipelineCfg, logger, managerOpts...)

	steps := []Step{
		NewIngestStep(files.NewDiscovery(paths.BaseDir),
			dataprocessing.NewLoader(cfg.Ingest, infrastructure.WithComponent(logger, "ingest")),
			opts.Metrics, infrastructure.WithComponent(logger, "ingest")),
		NewMatchStep(m, opts.Metrics),
		NewClassifyStep(engine, infrastructure.WithComponent(logger, "classify")),
		NewStatisticsStep(engine),
		NewRankStep(ranking.NewRecommender(cfg.Ranking, cfg.Analysis.Alpha,
			infrastructure.WithComponent(logger, "ranking")), cfg.Ranking.MissingFlag),
		NewRenderStep(paths, renderers, cfg.Analysis.Alpha, opts.Metrics,
			infrastructure.WithComponent(logger, "render")),
	}
	for _, step := range steps {
		if err := manager.RegisterStep(step); err != nil {
			return nil, fmt.Errorf("register step %s: %w", step.ID(), err)
		}
	}
	return manager, nil
}

func newRenderers(cfg *config.Config, paths *config.Paths, opts PipelineOptions, catalogue *config.TopicCatalogue, logger *slog.Logger) (Renderers, error) {
	chartLogger := infrastructure.WithComponent(logger, "charts")
	reportLogger := infrastructure.WithComponent(logger, "report")

	static, err := charts.NewStaticRenderer(cfg.Charts, paths.ChartsDir, chartLogger)
	if err != nil {
		return Renderers{}, err
	}
	summary, err := charts.NewSummaryRenderer(cfg.Charts, paths.ChartsDir, chartLogger)
	if err != nil {
		return Renderers{}, err
	}

	title := opts.Title
	if title == "" {
		title = cfg.Report.Title
	}

	r := Renderers{
		Static:      static,
		Summary:     summary,
		Interactive: charts.NewInteractiveRenderer(title, chartLogger),
		Descriptive: report.NewDescriptiveWriter(cfg.Report, catalogue, reportLogger),
		Brief:       report.NewBriefWriter(cfg.Report, reportLogger),
		Government:  report.NewGovernmentReport(cfg.Report, reportLogger),
		Exports:     exporter.NewSurveyExporter(paths.OutputDir, infrastructure.WithComponent(logger, "exporter")),
		Workbook:    exporter.NewWorkbookWriter(infrastructure.WithComponent(logger, "exporter")),
	}
	if opts.Rasterize || cfg.Charts.Rasterize {
		r.Rasterizer = charts.NewChromeRasterizer(cfg.Charts.ChromeTimeout, opts.ChromePath, chartLogger)
	}
	return r, nil
}
