package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"surveycli/internal/infrastructure"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   trace.Tracer
	metrics  *infrastructure.SurveyMetrics
	logger   *slog.Logger

	// Active operations
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithTracer sets the tracer used for operation and step spans
func WithTracer(tracer trace.Tracer) ManagerOption {
	return func(m *Manager) { m.tracer = tracer }
}

// WithMetrics records step metrics on metrics
func WithMetrics(metrics *infrastructure.SurveyMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a pipeline manager
func NewManager(registry *Registry, config *Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if config.RetryConfig.MaxAttempts < 1 {
		config.RetryConfig.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		registry:   registry,
		config:     config,
		tracer:     otel.Tracer(infrastructure.InstrumentationName),
		logger:     infrastructure.WithComponent(logger, "operations"),
		operations: make(map[string]*OperationState),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterStep registers a step with the pipeline
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry of pipeline steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs the pipeline. With a "step" parameter only that step runs;
// otherwise every registered step runs in dependency order.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GetRunID(ctx)
	}
	if req.ID == "" {
		req.ID = infrastructure.NewRunID()
	}
	if infrastructure.GetRunID(ctx) == "" {
		ctx = infrastructure.WithRunID(ctx, req.ID)
	}

	state := NewOperationState(req.ID)
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	m.storeOperation(state)
	defer m.removeOperation(req.ID)

	ctx, span := m.tracer.Start(ctx, "operation.execute",
		trace.WithAttributes(attribute.String("operation.id", req.ID)))
	defer span.End()

	steps, err := m.planSteps(req)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		span.SetStatus(codes.Error, err.Error())
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}
	span.SetAttributes(attribute.Int("operation.steps", len(steps)))

	m.logOperationStart(ctx, req.ID, steps)
	state.Start()

	err = m.executeSequential(ctx, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	m.logOperationComplete(ctx, req.ID, state.Duration(), string(state.GetStatus()))
	return m.createResponse(state), err
}

func (m *Manager) planSteps(req OperationRequest) ([]Step, error) {
	if name, ok := req.Parameters[ParamStep].(string); ok && name != "" {
		step, err := m.registry.Get(name)
		if err != nil {
			return nil, err
		}
		return []Step{step}, nil
	}
	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		return nil, NewFatalError("failed to order steps", err)
	}
	if len(steps) == 0 {
		return nil, NewFatalError("no steps registered", nil)
	}
	return steps, nil
}

// executeSequential runs steps one by one. Without ContinueOnError the first
// failure skips every remaining step; with it, only the failed step's
// dependents are skipped and the first failure is returned at the end.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error

	for i, step := range steps {
		stepState := state.GetStep(step.ID())

		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID())
		}
		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "step_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "executing_step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		err := m.executeStep(ctx, state, step)
		if err == nil {
			continue
		}

		m.logStepError(ctx, state.ID, step.ID(), err)
		if GetErrorType(err) == ErrorTypeCancellation || !m.config.ContinueOnError {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			return err
		}
		m.skipDependents(state, step.ID())
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// executeStep runs a single step with its timeout and retry policy
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		return err
	}

	ctx, span := m.tracer.Start(ctx, "operation.step."+step.ID(),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID),
			attribute.String("step.id", step.ID()),
		))
	defer span.End()

	start := time.Now()
	err := m.runStep(ctx, state, step, stepState)
	m.metrics.RecordStep(ctx, step.ID(), time.Since(start), err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		stepState.Fail(err)
		return err
	}

	stepState.Complete()
	m.logStepComplete(ctx, state.ID, step.ID(), stepState.Duration())
	return nil
}

func (m *Manager) runStep(ctx context.Context, state *OperationState, step Step, stepState *StepState) error {
	stepState.Start()
	m.logStepStart(ctx, state.ID, step.ID())

	if err := step.Validate(state); err != nil {
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := m.config.StepTimeout(step.ID())
	retry := m.config.RetryConfig

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		err := step.Execute(stepCtx, state)
		deadline := errors.Is(stepCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			return nil
		}

		switch {
		case ctx.Err() != nil:
			return NewCancellationError(step.ID())
		case deadline:
			lastErr = NewTimeoutError(step.ID(), timeout.String())
		default:
			lastErr = WrapError(err, step.ID(), "step execution failed")
		}

		if !IsRetryable(lastErr) || attempt >= retry.MaxAttempts {
			return lastErr
		}

		delay := m.calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(ctx, "step_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return NewCancellationError(step.ID())
		}
	}
	return lastErr
}

// checkDependencies verifies that all dependencies completed in this run.
// Dependencies outside the planned steps are not checked, so a single step
// can run on its own.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			continue
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep,
				fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// skipDependents marks every step depending on failedID, directly or not,
// as skipped
func (m *Manager) skipDependents(state *OperationState, failedID string) {
	for _, dependent := range m.registry.GetDependents(failedID) {
		stepState := state.GetStep(dependent.ID())
		if stepState == nil || stepState.GetStatus() != StepStatusPending {
			continue
		}
		stepState.Skip(fmt.Sprintf("dependency %s failed", failedID))
		m.skipDependents(state, dependent.ID())
	}
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if stepState := state.GetStep(step.ID()); stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
		}
	}
}

// calculateRetryDelay returns the backoff before the next attempt
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.Multiplier)
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
		Results:  state.Results(),
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

// GetOperation returns the state of a running operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s not found", id)
	}
	return state, nil
}

func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}
