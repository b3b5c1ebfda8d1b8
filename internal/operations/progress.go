package operations

import (
	"sync"
	"time"
)

// TaskOutcome is how one unit of step work ended
type TaskOutcome string

const (
	OutcomeWritten TaskOutcome = "written"
	OutcomeSkipped TaskOutcome = "skipped"
	OutcomeFailed  TaskOutcome = "failed"
)

// ProgressTracker counts finished tasks of a step and mirrors the percentage
// onto the step's state, so a status table shows partial progress when a
// step fails halfway.
type ProgressTracker struct {
	mu       sync.Mutex
	step     *StepState
	total    int
	done     int
	started  time.Time
	outcomes map[TaskOutcome][]string
}

// NewProgressTracker tracks total tasks. step may be nil.
func NewProgressTracker(step *StepState, total int) *ProgressTracker {
	return &ProgressTracker{
		step:     step,
		total:    total,
		started:  time.Now(),
		outcomes: make(map[TaskOutcome][]string),
	}
}

// Record marks the task named kind finished and returns the new percentage
func (p *ProgressTracker) Record(kind string, outcome TaskOutcome) float64 {
	p.mu.Lock()
	p.done++
	p.outcomes[outcome] = append(p.outcomes[outcome], kind)
	pct := p.percentLocked()
	p.mu.Unlock()

	if p.step != nil {
		p.step.UpdateProgress(pct, kind)
	}
	return pct
}

// Percent returns the share of finished tasks, 0 when there are none
func (p *ProgressTracker) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percentLocked()
}

func (p *ProgressTracker) percentLocked() float64 {
	if p.total <= 0 {
		return 0
	}
	return float64(p.done) / float64(p.total) * 100
}

// Remaining estimates the time left from the rate so far. ok is false until
// at least one task has finished.
func (p *ProgressTracker) Remaining() (d time.Duration, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == 0 || p.total == 0 {
		return 0, false
	}
	if p.done >= p.total {
		return 0, true
	}
	perTask := time.Since(p.started) / time.Duration(p.done)
	return perTask * time.Duration(p.total-p.done), true
}

// Tasks returns the kinds that ended with outcome, in completion order
func (p *ProgressTracker) Tasks(outcome TaskOutcome) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.outcomes[outcome]...)
}

// Done reports whether every task was recorded
func (p *ProgressTracker) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done >= p.total
}
