package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/infrastructure"
	"surveycli/internal/matcher"
	"surveycli/pkg/contracts/domain"
)

// Engine runs the per-question statistics over a dataset
type Engine struct {
	cfg              config.AnalysisConfig
	numericThreshold float64
	tracer           trace.Tracer
	metrics          *infrastructure.SurveyMetrics
	logger           *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithTracer sets the tracer used for per-question spans
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithMetrics records analysis metrics on m
func WithMetrics(m *infrastructure.SurveyMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an analysis engine
func NewEngine(cfg config.AnalysisConfig, numericThreshold float64, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		cfg.Alpha = 0.05
	}
	if cfg.MinGroupSize < 1 {
		cfg.MinGroupSize = 3
	}

	e := &Engine{
		cfg:              cfg,
		numericThreshold: numericThreshold,
		tracer:           otel.Tracer(infrastructure.InstrumentationName),
		logger:           logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Alpha returns the significance level in use
func (e *Engine) Alpha() float64 {
	return e.cfg.Alpha
}

// ClassifyQuestion classifies the answered values of q
func (e *Engine) ClassifyQuestion(ds *domain.Dataset, q domain.MergedQuestion) domain.AnswerType {
	var values []string
	for _, ans := range matcher.Project(ds, q) {
		if ans.Applicable && ans.Value != "" {
			values = append(values, ans.Value)
		}
	}
	return Classify(values, e.numericThreshold)
}

// Analyze analyses every question with at most cfg.Workers running at
// once, using the answer type types holds for each question ID. Questions
// missing from types are classified here. Results keep the order of
// questions. A question that fails is returned with Err set; only
// cancellation aborts the batch.
func (e *Engine) Analyze(ctx context.Context, ds *domain.Dataset, questions []domain.MergedQuestion, types map[string]domain.AnswerType) ([]domain.QuestionAnalysis, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	results := make([]domain.QuestionAnalysis, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i := range questions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.AnalyzeQuestion(gctx, ds, questions[i], types[questions[i].ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	e.logger.InfoContext(ctx, "Questions analysed",
		slog.Int("questions", len(results)),
		slog.Int("failed", failed),
		slog.Int("workers", e.cfg.Workers))
	return results, nil
}

// AnalyzeQuestion analyses one question as answer type t, or as the type
// Classify finds when t is empty. Errors and panics are captured in the
// returned analysis.
func (e *Engine) AnalyzeQuestion(ctx context.Context, ds *domain.Dataset, q domain.MergedQuestion, t domain.AnswerType) (a domain.QuestionAnalysis) {
	ctx, span := e.tracer.Start(ctx, "analysis.question",
		trace.WithAttributes(
			attribute.String("question.id", q.ID),
			attribute.Int("question.members", len(q.Members)),
		))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a = domain.QuestionAnalysis{Question: q, Type: domain.AnswerEmpty}
			a.Err = fmt.Sprintf("panic: %v", r)
			e.logger.ErrorContext(ctx, "Question analysis panicked",
				slog.String("question_id", q.ID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
		if a.Failed() {
			infrastructure.RecordError(ctx, errors.New(a.Err))
		}
		span.SetAttributes(
			attribute.String("answer.type", string(a.Type)),
			attribute.Int("answers", a.N))
		span.End()
		e.metrics.RecordQuestionAnalysis(ctx, string(a.Type), time.Since(start), a.Failed())
		if a.RespondentTest != nil {
			e.metrics.RecordTest(ctx, string(a.RespondentTest.Method), a.RespondentTest.PValue < e.cfg.Alpha)
		}
	}()

	a, err := e.analyze(ds, q, t)
	if err != nil {
		wrapped := apperrors.NewAnalysisError(q.ID, err)
		a.Err = wrapped.Error()
		e.logger.WarnContext(ctx, "Question analysis failed",
			slog.String("question_id", q.ID),
			slog.String("error", a.Err))
	}
	return a
}

func (e *Engine) analyze(ds *domain.Dataset, q domain.MergedQuestion, t domain.AnswerType) (domain.QuestionAnalysis, error) {
	a := domain.QuestionAnalysis{Question: q}
	if len(q.Members) == 0 {
		a.Type = domain.AnswerEmpty
		return a, fmt.Errorf("question has no member columns")
	}

	var answered []matcher.Answer
	var values []string
	for _, ans := range matcher.Project(ds, q) {
		if !ans.Applicable {
			continue
		}
		a.Applicable++
		if ans.Value == "" {
			continue
		}
		answered = append(answered, ans)
		values = append(values, ans.Value)
		switch ans.Respondent {
		case domain.RespondentCompany:
			a.CompanyN++
		case domain.RespondentInvestor:
			a.InvestorN++
		}
	}
	a.N = len(answered)
	if a.Applicable > 0 {
		a.MissingRate = float64(a.Applicable-a.N) / float64(a.Applicable)
	}

	if t == "" {
		t = Classify(values, e.numericThreshold)
	}
	if len(answered) == 0 {
		t = domain.AnswerEmpty
	}
	a.Type = t

	switch t {
	case domain.AnswerEmpty:
		return a, nil
	case domain.AnswerNumeric:
		e.analyzeNumeric(&a, answered)
	case domain.AnswerMultiSelect:
		e.analyzeMultiSelect(&a, answered)
	case domain.AnswerCategorical:
		e.analyzeCategorical(&a, answered)
	default:
		return a, fmt.Errorf("unknown answer type %q", t)
	}
	return a, nil
}
