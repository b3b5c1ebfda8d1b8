package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StepIDIngest     = "ingest"
	StepIDMatch      = "match"
	StepIDClassify   = "classify"
	StepIDStatistics = "statistics"
	StepIDRank       = "rank"
	StepIDRender     = "render"
)

// Pipeline step names
const (
	StepNameIngest     = "Survey Ingestion"
	StepNameMatch      = "Question Matching"
	StepNameClassify   = "Answer Classification"
	StepNameStatistics = "Significance Testing"
	StepNameRank       = "Topic Ranking"
	StepNameRender     = "Report Rendering"
)

// Request parameter keys
const (
	ParamInputs    = "inputs"
	ParamSelection = "selection"
	ParamStep      = "step"
)

// Default timeouts
const (
	DefaultStepTimeout       = 10 * time.Minute
	DefaultIngestTimeout     = 5 * time.Minute
	DefaultStatisticsTimeout = 15 * time.Minute
	DefaultRenderTimeout     = 15 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration. Survey steps are
// deterministic, so a single attempt is the default.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Config holds pipeline execution settings
type Config struct {
	StepTimeouts    map[string]time.Duration `json:"step_timeouts"`
	RetryConfig     RetryConfig              `json:"retry_config"`
	ContinueOnError bool                     `json:"continue_on_error"`
}

// NewConfig returns the default pipeline configuration
func NewConfig() *Config {
	return &Config{
		StepTimeouts: map[string]time.Duration{
			StepIDIngest:     DefaultIngestTimeout,
			StepIDStatistics: DefaultStatisticsTimeout,
			StepIDRender:     DefaultRenderTimeout,
		},
		RetryConfig: NewRetryConfig(),
	}
}

// StepTimeout returns the timeout for a step
func (c *Config) StepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok && timeout > 0 {
		return timeout
	}
	return DefaultStepTimeout
}

// OperationRequest represents a request to run the pipeline
type OperationRequest struct {
	ID         string                 `json:"id"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the outcome of a pipeline run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Results  *Results              `json:"-"`
	Error    string                `json:"error,omitempty"`
}
