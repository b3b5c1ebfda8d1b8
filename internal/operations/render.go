package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"surveycli/internal/charts"
	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/exporter"
	"surveycli/internal/infrastructure"
	"surveycli/internal/ranking"
	"surveycli/internal/report"
	"surveycli/internal/validation"
	"surveycli/pkg/contracts/domain"
)

// Renderers are the writers the render step drives. Nil chart renderers and
// a nil rasterizer are skipped.
type Renderers struct {
	Static      *charts.StaticRenderer
	Summary     *charts.SummaryRenderer
	Interactive *charts.InteractiveRenderer
	Rasterizer  *charts.ChromeRasterizer
	Descriptive *report.DescriptiveWriter
	Brief       *report.BriefWriter
	Government  *report.GovernmentReport
	Exports     *exporter.SurveyExporter
	Workbook    *exporter.WorkbookWriter
}

// RenderStep writes every chart, report and export of the run
type RenderStep struct {
	BaseStep
	paths     *config.Paths
	renderers Renderers
	alpha     float64
	validator *validation.FileValidator
	metrics   *infrastructure.SurveyMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewRenderStep creates the render step
func NewRenderStep(paths *config.Paths, renderers Renderers, alpha float64, metrics *infrastructure.SurveyMetrics, logger *slog.Logger) *RenderStep {
	return &RenderStep{
		BaseStep:  NewBaseStep(StepIDRender, StepNameRender, []string{StepIDRank}),
		paths:     paths,
		renderers: renderers,
		alpha:     alpha,
		validator: validation.NewFileValidator(logger),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Validate requires ranked analyses
func (s *RenderStep) Validate(state *OperationState) error {
	results := state.Results()
	if len(results.Analyses) == 0 {
		return fmt.Errorf("no question analyses")
	}
	if results.Dataset == nil {
		return fmt.Errorf("no dataset loaded")
	}
	return nil
}

// renderTask writes one artifact. Optional tasks only log their failures.
type renderTask struct {
	kind     string
	paths    []string
	optional bool
	run      func(ctx context.Context) error
}

// Execute renders charts first so the documents can embed them
func (s *RenderStep) Execute(ctx context.Context, state *OperationState) error {
	if err := s.validator.ValidateOutputDirectory(s.paths.OutputDir); err != nil {
		return apperrors.NewRenderError("output directory", err)
	}
	if err := s.paths.EnsureDirectories(); err != nil {
		return apperrors.NewRenderError("output directory", err)
	}

	results := state.Results()
	results.Artifacts = nil
	step := state.GetStep(s.ID())

	results.Charts = s.questionCharts(ctx, results.Analyses)
	results.Summary = s.summaryCharts(ctx, results)
	step.SetMetadata("question_charts", len(results.Charts))

	in := results.ReportInput(s.alpha, s.now())
	tasks := s.tasks(in)
	progress := NewProgressTracker(step, len(tasks))

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := task.run(ctx)
		switch {
		case err == nil:
			for _, p := range task.paths {
				results.Artifacts = append(results.Artifacts, Artifact{Kind: task.kind, Path: p})
			}
			progress.Record(task.kind, OutcomeWritten)
			s.metrics.RecordArtifact(ctx, task.kind)
			remaining, _ := progress.Remaining()
			s.logger.InfoContext(ctx, "Artifact written",
				slog.String("kind", task.kind),
				slog.Any("paths", task.paths),
				slog.Duration("remaining", remaining.Round(time.Millisecond)))
		case errors.Is(err, charts.ErrNoData):
			progress.Record(task.kind, OutcomeSkipped)
			s.logger.InfoContext(ctx, "Artifact skipped, nothing to draw", slog.String("kind", task.kind))
		case task.optional:
			progress.Record(task.kind, OutcomeFailed)
			s.logger.WarnContext(ctx, "Optional artifact failed",
				slog.String("kind", task.kind),
				slog.String("error", err.Error()))
		default:
			progress.Record(task.kind, OutcomeFailed)
			return s.requiredFailure(task.kind, err)
		}
	}

	if skipped := progress.Tasks(OutcomeSkipped); len(skipped) > 0 {
		step.SetMetadata("skipped_artifacts", skipped)
	}
	if failed := progress.Tasks(OutcomeFailed); len(failed) > 0 {
		step.SetMetadata("failed_artifacts", failed)
	}
	step.SetMetadata("artifacts", len(results.Artifacts))
	return nil
}

// requiredFailure wraps the error of a required artifact. An output held
// open by another program is retryable, so the manager runs the step again
// once the file may have been closed.
func (s *RenderStep) requiredFailure(kind string, err error) error {
	renderErr := apperrors.NewRenderError(kind, err)
	if errors.Is(err, apperrors.ErrFileInUse) {
		return NewExecutionError(s.ID(), renderErr, true)
	}
	return renderErr
}

func (s *RenderStep) tasks(in *report.Input) []renderTask {
	r := s.renderers
	p := s.paths

	tasks := []renderTask{
		{kind: "recommendations_csv", paths: []string{p.RecommendationsCSV}, run: func(context.Context) error {
			return r.Exports.ExportRecommendations(p.RecommendationsCSV, in.Recommendations)
		}},
		{kind: "questions_csv", paths: []string{p.QuestionsCSV}, run: func(context.Context) error {
			return r.Exports.ExportQuestions(p.QuestionsCSV, in.Questions)
		}},
		{kind: "analysis_csv", paths: []string{p.AnalysisCSV}, run: func(context.Context) error {
			return r.Exports.ExportAnalyses(p.AnalysisCSV, in.Analyses, in.SignificanceLevel())
		}},
		{kind: "workbook", paths: []string{p.WorkbookXLSX}, run: func(context.Context) error {
			return r.Workbook.Write(p.WorkbookXLSX, in)
		}},
		{kind: "interactive_html", paths: []string{p.InteractiveHTML}, optional: true, run: func(context.Context) error {
			return r.Interactive.Write(p.InteractiveHTML, in.Analyses)
		}},
	}

	if r.Rasterizer != nil {
		tasks = append(tasks, renderTask{kind: "interactive_png", paths: []string{p.InteractivePNG}, optional: true, run: func(ctx context.Context) error {
			return r.Rasterizer.Rasterize(ctx, p.InteractiveHTML, p.InteractivePNG)
		}})
	}

	return append(tasks,
		renderTask{kind: "report_docx", paths: []string{p.ReportDocx}, run: func(context.Context) error {
			return r.Descriptive.Write(p.ReportDocx, in)
		}},
		renderTask{kind: "brief_docx", paths: []string{p.BriefDocx}, run: func(context.Context) error {
			return r.Brief.Write(p.BriefDocx, in)
		}},
		renderTask{kind: "government_report", paths: []string{p.GovernmentMarkdown, p.GovernmentHTML}, run: func(context.Context) error {
			return r.Government.Write(p.GovernmentMarkdown, p.GovernmentHTML, in)
		}},
	)
}

// questionCharts draws the per-question figures. A question whose charts
// fail is reported without figures.
func (s *RenderStep) questionCharts(ctx context.Context, analyses []domain.QuestionAnalysis) map[string]charts.QuestionCharts {
	out := make(map[string]charts.QuestionCharts)
	if s.renderers.Static == nil {
		return out
	}

	for _, a := range analyses {
		if ctx.Err() != nil {
			break
		}
		if a.Failed() || a.Type == domain.AnswerEmpty {
			continue
		}
		qc, err := s.renderers.Static.RenderQuestion(a)
		if err != nil && !errors.Is(err, charts.ErrNoData) {
			s.logger.WarnContext(ctx, "Question chart failed",
				slog.String("question_id", a.Question.ID),
				slog.String("error", err.Error()))
		}
		if qc.Respondent != "" || qc.Phase != "" {
			out[a.Question.ID] = qc
			s.metrics.RecordArtifact(ctx, "chart")
		}
	}
	return out
}

func (s *RenderStep) summaryCharts(ctx context.Context, results *Results) report.SummaryCharts {
	var out report.SummaryCharts
	if s.renderers.Summary == nil {
		return out
	}

	path, err := s.renderers.Summary.TierDistribution(ranking.CountTiers(results.Recommendations))
	if err == nil {
		out.Tiers = path
	} else if !errors.Is(err, charts.ErrNoData) {
		s.logger.WarnContext(ctx, "Tier chart failed", slog.String("error", err.Error()))
	}

	path, err = s.renderers.Summary.RespondentDistribution(results.Dataset.CountByRespondent())
	if err == nil {
		out.Respondents = path
	} else if !errors.Is(err, charts.ErrNoData) {
		s.logger.WarnContext(ctx, "Respondent chart failed", slog.String("error", err.Error()))
	}
	return out
}
