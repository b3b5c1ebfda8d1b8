package operations

import (
	"sort"
	"sync"
	"time"

	"surveycli/internal/charts"
	"surveycli/internal/ranking"
	"surveycli/internal/report"
	"surveycli/pkg/contracts/domain"
)

// OperationStatusValue represents the overall operation status enum
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// Artifact is a file written by the render step
type Artifact struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Results carries what each step produces to the steps after it
type Results struct {
	Inputs          []string                         `json:"inputs"`
	Selection       domain.Selection                 `json:"selection"`
	Dataset         *domain.Dataset                  `json:"-"`
	Questions       []domain.MergedQuestion          `json:"questions"`
	Types           map[string]domain.AnswerType     `json:"types"`
	Analyses        []domain.QuestionAnalysis        `json:"analyses"`
	Recommendations []domain.Recommendation          `json:"recommendations"`
	Completeness    ranking.CompletenessReport       `json:"completeness"`
	Charts          map[string]charts.QuestionCharts `json:"-"`
	Summary         report.SummaryCharts             `json:"-"`
	Artifacts       []Artifact                       `json:"artifacts"`
}

// ReportInput assembles the input of the report writers
func (r *Results) ReportInput(alpha float64, generated time.Time) *report.Input {
	return &report.Input{
		Dataset:         r.Dataset,
		Selection:       r.Selection,
		Questions:       r.Questions,
		Analyses:        r.Analyses,
		Recommendations: r.Recommendations,
		Completeness:    r.Completeness,
		Charts:          r.Charts,
		Summary:         r.Summary,
		Alpha:           alpha,
		GeneratedAt:     generated,
	}
}

// ArtifactPaths returns the written artifact paths sorted by kind
func (r *Results) ArtifactPaths() []Artifact {
	out := append([]Artifact(nil), r.Artifacts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// OperationState represents the complete state of a pipeline run
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	// Config holds the request parameters
	Config map[string]interface{} `json:"config"`

	results *Results

	Error error `json:"-"`
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Config:    make(map[string]interface{}),
		results:   &Results{},
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the current operation status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStep returns the state of a specific step
func (p *OperationState) GetStep(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stepID]
}

// SetStep updates the state of a specific step
func (p *OperationState) SetStep(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stepID] = state
}

// GetConfig retrieves a request parameter
func (p *OperationState) GetConfig(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Config[key]
	return val, ok
}

// SetConfig sets a request parameter
func (p *OperationState) SetConfig(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Config[key] = value
}

// Results returns the shared step results. Steps run one at a time, so
// each step owns the results while it executes.
func (p *OperationState) Results() *Results {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.results
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// StepsWithStatus returns the IDs of steps in status, sorted
func (p *OperationState) StepsWithStatus(status StepStatus) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var ids []string
	for id, step := range p.Steps {
		if step.GetStatus() == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// HasFailures returns true if any step has failed
func (p *OperationState) HasFailures() bool {
	return len(p.StepsWithStatus(StepStatusFailed)) > 0
}
