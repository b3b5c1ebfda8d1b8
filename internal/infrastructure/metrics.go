package infrastructure

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SurveyMetrics holds the instruments recorded during a report run. Metric
// attribute keys use underscores so the textfile stays readable by the
// node exporter's textfile collector.
type SurveyMetrics struct {
	FilesLoaded       metric.Int64Counter
	ResponsesLoaded   metric.Int64Counter
	QuestionsMerged   metric.Int64Counter
	QuestionAnalyses  metric.Int64Counter
	AnalysisDuration  metric.Float64Histogram
	SignificanceTests metric.Int64Counter
	StepsTotal        metric.Int64Counter
	StepDuration      metric.Float64Histogram
	ArtifactsWritten  metric.Int64Counter
}

// CreateSurveyMetrics creates the run instruments on meter
func CreateSurveyMetrics(meter metric.Meter) (*SurveyMetrics, error) {
	var (
		m   SurveyMetrics
		err error
	)

	if m.FilesLoaded, err = meter.Int64Counter("survey_files_loaded_total",
		metric.WithDescription("Survey export files loaded")); err != nil {
		return nil, err
	}
	if m.ResponsesLoaded, err = meter.Int64Counter("survey_responses_loaded_total",
		metric.WithDescription("Survey responses loaded")); err != nil {
		return nil, err
	}
	if m.QuestionsMerged, err = meter.Int64Counter("survey_questions_merged_total",
		metric.WithDescription("Merged questions produced by the matcher")); err != nil {
		return nil, err
	}
	if m.QuestionAnalyses, err = meter.Int64Counter("survey_question_analyses_total",
		metric.WithDescription("Question analyses by answer type and status")); err != nil {
		return nil, err
	}
	if m.AnalysisDuration, err = meter.Float64Histogram("survey_question_analysis_duration_seconds",
		metric.WithDescription("Time spent analysing one question"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.SignificanceTests, err = meter.Int64Counter("survey_significance_tests_total",
		metric.WithDescription("Significance tests run by method and outcome")); err != nil {
		return nil, err
	}
	if m.StepsTotal, err = meter.Int64Counter("operation_steps_total",
		metric.WithDescription("Pipeline steps executed")); err != nil {
		return nil, err
	}
	if m.StepDuration, err = meter.Float64Histogram("operation_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.ArtifactsWritten, err = meter.Int64Counter("survey_artifacts_written_total",
		metric.WithDescription("Report artifacts written by kind")); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordIngest records the files and responses of the ingest step
func (m *SurveyMetrics) RecordIngest(ctx context.Context, files, responses int) {
	if m == nil {
		return
	}
	m.FilesLoaded.Add(ctx, int64(files))
	m.ResponsesLoaded.Add(ctx, int64(responses))
}

// RecordMerge records how many merged questions the matcher produced
func (m *SurveyMetrics) RecordMerge(ctx context.Context, questions int) {
	if m == nil {
		return
	}
	m.QuestionsMerged.Add(ctx, int64(questions))
}

// RecordQuestionAnalysis records one question analysis
func (m *SurveyMetrics) RecordQuestionAnalysis(ctx context.Context, answerType string, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("answer_type", answerType),
		attribute.String("status", statusLabel(!failed)),
	)
	m.QuestionAnalyses.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTest records one significance test outcome
func (m *SurveyMetrics) RecordTest(ctx context.Context, method string, significant bool) {
	if m == nil {
		return
	}
	m.SignificanceTests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("test_method", method),
		attribute.String("significant", strconv.FormatBool(significant)),
	))
}

// RecordStep records a pipeline step execution
func (m *SurveyMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("step_id", stepID),
		attribute.String("status", statusLabel(success)),
	)
	m.StepsTotal.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordArtifact records a written report artifact
func (m *SurveyMetrics) RecordArtifact(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact_kind", kind)))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
