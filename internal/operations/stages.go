package operations

import (
	"context"
	"fmt"
	"log/slog"

	"surveycli/internal/analysis"
	"surveycli/internal/dataprocessing"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/files"
	"surveycli/internal/infrastructure"
	"surveycli/internal/matcher"
	"surveycli/internal/ranking"
	"surveycli/internal/validation"
	"surveycli/pkg/contracts/domain"
)

// IngestStep discovers, validates and loads the survey exports, then applies
// the requested selection
type IngestStep struct {
	BaseStep
	discovery *files.Discovery
	validator *validation.FileValidator
	loader    *dataprocessing.Loader
	metrics   *infrastructure.SurveyMetrics
	logger    *slog.Logger
}

// NewIngestStep creates the ingest step
func NewIngestStep(discovery *files.Discovery, loader *dataprocessing.Loader, metrics *infrastructure.SurveyMetrics, logger *slog.Logger) *IngestStep {
	return &IngestStep{
		BaseStep:  NewBaseStep(StepIDIngest, StepNameIngest, nil),
		discovery: discovery,
		validator: validation.NewFileValidator(logger),
		loader:    loader,
		metrics:   metrics,
		logger:    logger,
	}
}

// Validate requires at least one input path
func (s *IngestStep) Validate(state *OperationState) error {
	if len(inputs(state)) == 0 {
		return apperrors.ErrNoInputFiles
	}
	return nil
}

// Execute loads the dataset
func (s *IngestStep) Execute(ctx context.Context, state *OperationState) error {
	paths, err := s.discovery.Expand(inputs(state))
	if err != nil {
		return err
	}
	paths, err = s.validator.ValidateInputFiles(paths)
	if err != nil {
		return err
	}

	full, err := s.loader.Load(ctx, paths)
	if err != nil {
		return err
	}
	s.metrics.RecordIngest(ctx, len(full.Files), len(full.Responses))

	sel := selection(state)
	ds := full.Filter(sel)
	if len(ds.Responses) == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("selection %q keeps no responses", sel.Label())).
			WithContext("loaded", len(full.Responses))
	}

	results := state.Results()
	results.Inputs = paths
	results.Selection = sel
	results.Dataset = ds

	step := state.GetStep(s.ID())
	step.SetMetadata("files", len(ds.Files))
	step.SetMetadata("responses", len(ds.Responses))

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"survey.files":     len(ds.Files),
		"survey.responses": len(ds.Responses),
		"survey.selection": sel.Label(),
	})
	s.logger.InfoContext(ctx, "Selection applied",
		slog.String("selection", sel.Label()),
		slog.Int("loaded", len(full.Responses)),
		slog.Int("kept", len(ds.Responses)))
	return nil
}

func inputs(state *OperationState) []string {
	v, _ := state.GetConfig(ParamInputs)
	paths, _ := v.([]string)
	return paths
}

func selection(state *OperationState) domain.Selection {
	v, _ := state.GetConfig(ParamSelection)
	sel, _ := v.(domain.Selection)
	return sel
}

// MatchStep merges equivalent columns into questions
type MatchStep struct {
	BaseStep
	matcher *matcher.Matcher
	metrics *infrastructure.SurveyMetrics
}

// NewMatchStep creates the match step
func NewMatchStep(m *matcher.Matcher, metrics *infrastructure.SurveyMetrics) *MatchStep {
	return &MatchStep{
		BaseStep: NewBaseStep(StepIDMatch, StepNameMatch, []string{StepIDIngest}),
		matcher:  m,
		metrics:  metrics,
	}
}

// Validate requires a loaded dataset
func (s *MatchStep) Validate(state *OperationState) error {
	return requireDataset(state)
}

// Execute merges the dataset's columns
func (s *MatchStep) Execute(ctx context.Context, state *OperationState) error {
	results := state.Results()
	questions := s.matcher.Merge(results.Dataset.Columns)
	if len(questions) == 0 {
		return apperrors.NewAnalysisError("no question columns to merge", apperrors.ErrInsufficientData)
	}
	results.Questions = questions
	s.metrics.RecordMerge(ctx, len(questions))

	aliased := 0
	for _, q := range questions {
		if q.Aliased {
			aliased++
			infrastructure.AddSpanEvent(ctx, "question.aliased", map[string]interface{}{
				"question.id":   q.ID,
				"question.text": q.Text,
			})
		}
	}
	step := state.GetStep(s.ID())
	step.SetMetadata("questions", len(questions))
	step.SetMetadata("aliased", aliased)
	return nil
}

func requireDataset(state *OperationState) error {
	if state.Results().Dataset == nil {
		return fmt.Errorf("no dataset loaded")
	}
	return nil
}

// ClassifyStep assigns an answer type to every merged question. The
// statistics step analyses each question as the type recorded here.
type ClassifyStep struct {
	BaseStep
	engine *analysis.Engine
	logger *slog.Logger
}

// NewClassifyStep creates the classify step
func NewClassifyStep(engine *analysis.Engine, logger *slog.Logger) *ClassifyStep {
	return &ClassifyStep{
		BaseStep: NewBaseStep(StepIDClassify, StepNameClassify, []string{StepIDMatch}),
		engine:   engine,
		logger:   logger,
	}
}

// Validate requires merged questions
func (s *ClassifyStep) Validate(state *OperationState) error {
	if err := requireDataset(state); err != nil {
		return err
	}
	if len(state.Results().Questions) == 0 {
		return fmt.Errorf("no merged questions")
	}
	return nil
}

// Execute classifies the answered values of each question
func (s *ClassifyStep) Execute(ctx context.Context, state *OperationState) error {
	results := state.Results()
	types := make(map[string]domain.AnswerType, len(results.Questions))
	counts := make(map[domain.AnswerType]int)

	for _, q := range results.Questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := s.engine.ClassifyQuestion(results.Dataset, q)
		types[q.ID] = t
		counts[t]++
	}
	results.Types = types

	step := state.GetStep(s.ID())
	for t, n := range counts {
		step.SetMetadata(string(t), n)
	}
	s.logger.InfoContext(ctx, "Questions classified",
		slog.Int("categorical", counts[domain.AnswerCategorical]),
		slog.Int("multi_select", counts[domain.AnswerMultiSelect]),
		slog.Int("numeric", counts[domain.AnswerNumeric]),
		slog.Int("empty", counts[domain.AnswerEmpty]))
	return nil
}

// StatisticsStep runs the per-question comparisons and tests
type StatisticsStep struct {
	BaseStep
	engine *analysis.Engine
}

// NewStatisticsStep creates the statistics step
func NewStatisticsStep(engine *analysis.Engine) *StatisticsStep {
	return &StatisticsStep{
		BaseStep: NewBaseStep(StepIDStatistics, StepNameStatistics, []string{StepIDClassify}),
		engine:   engine,
	}
}

// Validate requires merged questions
func (s *StatisticsStep) Validate(state *OperationState) error {
	if err := requireDataset(state); err != nil {
		return err
	}
	if len(state.Results().Questions) == 0 {
		return fmt.Errorf("no merged questions")
	}
	return nil
}

// Execute analyses every question. Failed questions are kept with their
// error; only cancellation fails the step.
func (s *StatisticsStep) Execute(ctx context.Context, state *OperationState) error {
	results := state.Results()
	analyses, err := s.engine.Analyze(ctx, results.Dataset, results.Questions, results.Types)
	if err != nil {
		return err
	}
	results.Analyses = analyses

	failed, significant := 0, 0
	for _, a := range analyses {
		if a.Failed() {
			failed++
		}
		if p, ok := a.PValue(); ok && p < s.engine.Alpha() {
			significant++
		}
	}
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"analysis.questions":   len(analyses),
		"analysis.failed":      failed,
		"analysis.significant": significant,
	})
	step := state.GetStep(s.ID())
	step.SetMetadata("analysed", len(analyses))
	step.SetMetadata("failed", failed)
	step.SetMetadata("significant", significant)
	return nil
}

// RankStep scores the analysed questions and measures completeness
type RankStep struct {
	BaseStep
	recommender *ranking.Recommender
	missingFlag float64
}

// NewRankStep creates the rank step
func NewRankStep(recommender *ranking.Recommender, missingFlag float64) *RankStep {
	return &RankStep{
		BaseStep:    NewBaseStep(StepIDRank, StepNameRank, []string{StepIDStatistics}),
		recommender: recommender,
		missingFlag: missingFlag,
	}
}

// Validate requires analyses
func (s *RankStep) Validate(state *OperationState) error {
	if len(state.Results().Analyses) == 0 {
		return fmt.Errorf("no question analyses")
	}
	return nil
}

// Execute ranks the analyses
func (s *RankStep) Execute(ctx context.Context, state *OperationState) error {
	results := state.Results()
	results.Recommendations = s.recommender.Rank(results.Analyses)
	results.Completeness = ranking.Completeness(results.Analyses, s.missingFlag)

	tiers := ranking.CountTiers(results.Recommendations)
	step := state.GetStep(s.ID())
	step.SetMetadata("high", tiers[domain.TierHigh])
	step.SetMetadata("medium", tiers[domain.TierMedium])
	step.SetMetadata("completeness", results.Completeness.Rate)
	return nil
}
