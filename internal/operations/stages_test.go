package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveycli/internal/analysis"
	"surveycli/internal/config"
	apperrors "surveycli/internal/errors"
	"surveycli/internal/shared/testutil"
	"surveycli/pkg/contracts/domain"
)

const (
	boardHeader = "董事會是否設置獨立董事？"
	staffHeader = "公司員工人數？"
)

// writeSurveys writes a company and an investor export into dir/in
func writeSurveys(t *testing.T, dir string) {
	t.Helper()
	in := filepath.Join(dir, "in")
	header := []string{boardHeader, staffHeader}
	testutil.WriteSurveyCSV(t, in, testutil.SurveyFileName(testutil.CompanyFirstPhase, "問卷第一階段"), header, testutil.YesNoRows(12, 10, 20, 3))
	testutil.WriteSurveyCSV(t, in, testutil.SurveyFileName(testutil.InvestorFirstPhase, "問卷投資方"), header, testutil.YesNoRows(12, 3, 80, 3))
}

func newTestPipeline(t *testing.T, dir string) (*Manager, *config.Paths) {
	t.Helper()
	cfg := config.Default()
	paths, err := config.ResolvePaths(config.PathsConfig{
		BaseDir:   dir,
		InputDir:  "in",
		OutputDir: "out",
		LogsDir:   "logs",
	})
	require.NoError(t, err)

	m, err := NewPipeline(cfg, paths, PipelineOptions{Title: "測試報告"}, quietLogger())
	require.NoError(t, err)
	return m, paths
}

func TestNewPipeline_RegistersSurveySteps(t *testing.T) {
	m, _ := newTestPipeline(t, t.TempDir())

	ordered, err := m.GetRegistry().GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{
		StepIDIngest, StepIDMatch, StepIDClassify, StepIDStatistics, StepIDRank, StepIDRender,
	}, stepIDs(ordered))
}

func TestPipeline_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeSurveys(t, dir)
	m, paths := newTestPipeline(t, dir)

	resp, err := m.Execute(context.Background(), OperationRequest{
		Parameters: map[string]interface{}{
			ParamInputs: []string{"in"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, OperationStatusCompleted, resp.Status)

	results := resp.Results
	require.NotNil(t, results.Dataset)
	assert.Len(t, results.Dataset.Responses, 24)
	assert.Len(t, results.Inputs, 2)

	t.Run("columns merge across files", func(t *testing.T) {
		require.Len(t, results.Questions, 2)
		for _, q := range results.Questions {
			assert.Len(t, q.Members, 2, q.Text)
		}
	})

	t.Run("questions are classified", func(t *testing.T) {
		byText := make(map[string]domain.AnswerType)
		for _, q := range results.Questions {
			byText[q.Text] = results.Types[q.ID]
		}
		assert.Equal(t, domain.AnswerCategorical, byText[boardHeader])
		assert.Equal(t, domain.AnswerNumeric, byText[staffHeader])
	})

	t.Run("every question is analysed and ranked", func(t *testing.T) {
		require.Len(t, results.Analyses, 2)
		for _, a := range results.Analyses {
			assert.False(t, a.Failed(), a.Question.Text)
			assert.Equal(t, 12, a.CompanyN)
			assert.Equal(t, 12, a.InvestorN)
		}
		require.Len(t, results.Recommendations, 2)
		assert.GreaterOrEqual(t, results.Recommendations[0].Score, results.Recommendations[1].Score)
	})

	t.Run("artifacts are written", func(t *testing.T) {
		kinds := make(map[string]bool)
		for _, a := range results.ArtifactPaths() {
			kinds[a.Kind] = true
			assert.FileExists(t, a.Path)
		}
		for _, kind := range []string{
			"recommendations_csv", "questions_csv", "analysis_csv", "workbook",
			"interactive_html", "report_docx", "brief_docx", "government_report",
		} {
			assert.True(t, kinds[kind], kind)
		}
		assert.False(t, kinds["interactive_png"], "rasterizing is off by default")
		assert.FileExists(t, paths.GovernmentHTML)
		assert.NotEmpty(t, results.Charts)
	})

	t.Run("steps record metadata", func(t *testing.T) {
		assert.Equal(t, 24, resp.Steps[StepIDIngest].Metadata["responses"])
		assert.Equal(t, 2, resp.Steps[StepIDMatch].Metadata["questions"])
		assert.Equal(t, 2, resp.Steps[StepIDStatistics].Metadata["analysed"])
	})
}

func TestPipeline_Selection(t *testing.T) {
	dir := t.TempDir()
	writeSurveys(t, dir)

	t.Run("investor only", func(t *testing.T) {
		m, _ := newTestPipeline(t, dir)
		resp, err := m.Execute(context.Background(), OperationRequest{
			Parameters: map[string]interface{}{
				ParamInputs:    []string{"in"},
				ParamSelection: domain.Selection{Respondents: []domain.RespondentType{domain.RespondentInvestor}},
				ParamStep:      StepIDIngest,
			},
		})
		require.NoError(t, err)
		assert.Len(t, resp.Results.Dataset.Responses, 12)
		for _, r := range resp.Results.Dataset.Responses {
			assert.Equal(t, domain.RespondentInvestor, r.Respondent)
		}
	})

	t.Run("selection keeping nothing fails ingest", func(t *testing.T) {
		m, _ := newTestPipeline(t, dir)
		resp, err := m.Execute(context.Background(), OperationRequest{
			Parameters: map[string]interface{}{
				ParamInputs:    []string{"in"},
				ParamSelection: domain.Selection{Phases: []domain.Phase{domain.PhaseThird}},
			},
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		assert.Equal(t, StepStatusFailed, resp.Steps[StepIDIngest].GetStatus())
		assert.Equal(t, StepStatusSkipped, resp.Steps[StepIDRender].GetStatus())
	})
}

func TestIngestStep_Validate(t *testing.T) {
	step := NewIngestStep(nil, nil, nil, quietLogger())
	state := NewOperationState("run")

	assert.ErrorIs(t, step.Validate(state), apperrors.ErrNoInputFiles)

	state.SetConfig(ParamInputs, []string{"in"})
	assert.NoError(t, step.Validate(state))
}

func TestPipeline_RejectedInputIsLogged(t *testing.T) {
	dir := t.TempDir()
	writeSurveys(t, dir)
	notes := testutil.WriteSurveyCSV(t, filepath.Join(dir, "in"), "notes.txt", []string{"x"}, nil)

	logger, logs := testutil.NewTestLogger(nil)
	paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: dir, InputDir: "in", OutputDir: "out", LogsDir: "logs"})
	require.NoError(t, err)
	m, err := NewPipeline(config.Default(), paths, PipelineOptions{}, logger)
	require.NoError(t, err)

	resp, err := m.Execute(context.Background(), OperationRequest{
		Parameters: map[string]interface{}{
			ParamInputs: []string{"in", notes},
			ParamStep:   StepIDIngest,
		},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results.Inputs, 2)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Rejected survey input")
	assert.True(t, logs.ContainsAttr("component", "operations"))
	testutil.AssertNoErrors(t, logs)
}

func TestPipeline_MissingInput(t *testing.T) {
	m, _ := newTestPipeline(t, t.TempDir())

	_, err := m.Execute(context.Background(), OperationRequest{
		Parameters: map[string]interface{}{ParamInputs: []string{"nowhere"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestStepValidation_RequiresEarlierResults(t *testing.T) {
	state := NewOperationState("run")

	assert.Error(t, NewMatchStep(nil, nil).Validate(state))
	assert.Error(t, NewClassifyStep(nil, quietLogger()).Validate(state))
	assert.Error(t, NewStatisticsStep(nil).Validate(state))
	assert.Error(t, NewRankStep(nil, 0.1).Validate(state))
	assert.Error(t, NewRenderStep(&config.Paths{}, Renderers{}, 0.05, nil, quietLogger()).Validate(state))

	state.Results().Dataset = &domain.Dataset{}
	assert.NoError(t, NewMatchStep(nil, nil).Validate(state))
}

func TestClassifyAndStatistics_ShareTypes(t *testing.T) {
	ds := &domain.Dataset{}
	for i := 0; i < 8; i++ {
		resp := domain.RespondentCompany
		if i%2 == 1 {
			resp = domain.RespondentInvestor
		}
		ds.Responses = append(ds.Responses, domain.Response{
			ID:         fmt.Sprintf("a.csv#%d", i+1),
			SourceFile: "a.csv",
			Respondent: resp,
			Phase:      domain.PhaseFirst,
			Answers:    map[string]string{staffHeader: strconv.Itoa(10 * (i + 1))},
		})
	}
	q := domain.MergedQuestion{ID: "Q001", Text: staffHeader, Members: []domain.RawColumn{{Source: "a.csv", Header: staffHeader}}}
	engine := analysis.NewEngine(config.Default().Analysis, 0.7, quietLogger())

	tests := []struct {
		name     string
		override domain.AnswerType
		want     domain.AnswerType
	}{
		{"classified type is used", "", domain.AnswerNumeric},
		{"overridden type is used", domain.AnswerCategorical, domain.AnswerCategorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewOperationState("run")
			state.Results().Dataset = ds
			state.Results().Questions = []domain.MergedQuestion{q}

			classify := NewClassifyStep(engine, quietLogger())
			state.SetStep(classify.ID(), NewStepState(classify.ID(), classify.Name()))
			require.NoError(t, classify.Execute(context.Background(), state))
			assert.Equal(t, domain.AnswerNumeric, state.Results().Types[q.ID])

			if tt.override != "" {
				state.Results().Types[q.ID] = tt.override
			}
			statistics := NewStatisticsStep(engine)
			state.SetStep(statistics.ID(), NewStepState(statistics.ID(), statistics.Name()))
			require.NoError(t, statistics.Execute(context.Background(), state))

			require.Len(t, state.Results().Analyses, 1)
			assert.Equal(t, tt.want, state.Results().Analyses[0].Type)
		})
	}
}

func TestRenderStep_RequiredFailure(t *testing.T) {
	step := NewRenderStep(&config.Paths{}, Renderers{}, 0.05, nil, quietLogger())

	tests := []struct {
		name          string
		err           error
		wantRetryable bool
	}{
		{"output held open", fmt.Errorf("failed to move report.docx into place: %w", apperrors.ErrFileInUse), true},
		{"renderer error", errors.New("template missing"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := step.requiredFailure("report_docx", tt.err)
			assert.Equal(t, tt.wantRetryable, IsRetryable(err))
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeRender))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPipeline_RetriesOutputHeldOpen(t *testing.T) {
	render := NewRenderStep(&config.Paths{}, Renderers{}, 0.05, nil, quietLogger())
	locked := fmt.Errorf("failed to move report.docx into place: %w", apperrors.ErrFileInUse)

	tests := []struct {
		name      string
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"closed before the second attempt", 3, 2, false},
		{"single attempt gives up", 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Report.WriteAttempts = tt.attempts
			paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: t.TempDir(), InputDir: "in", OutputDir: "out", LogsDir: "logs"})
			require.NoError(t, err)
			pipeline, err := NewPipeline(cfg, paths, PipelineOptions{Title: "測試報告"}, quietLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.attempts, pipeline.config.RetryConfig.MaxAttempts)

			retryCfg := *pipeline.config
			retryCfg.RetryConfig.InitialDelay = time.Millisecond
			retryCfg.RetryConfig.MaxDelay = time.Millisecond

			writer := newFakeStep(StepIDRender)
			writer.execute = func(_ context.Context, _ *OperationState, call int) error {
				if call == 1 {
					return render.requiredFailure("report_docx", locked)
				}
				return nil
			}
			m, _ := newTestManager(t, &retryCfg, writer)

			_, err = m.Execute(context.Background(), OperationRequest{})
			assert.Equal(t, tt.wantCalls, writer.Calls())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrFileInUse)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
