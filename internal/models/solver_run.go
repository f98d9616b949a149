package models

import (
	"time"

	"github.com/noah-isme/defense-scheduler-api/internal/engine"
)

// RunStatus captures the lifecycle of one solver run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "QUEUED"
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFinished RunStatus = "FINISHED"
	RunStatusFailed   RunStatus = "FAILED"
)

// SolverRunParams echoes the knobs a run was started with.
type SolverRunParams struct {
	Strategy       string  `json:"strategy"`
	Seed           int64   `json:"seed"`
	TimeBudgetMS   int64   `json:"time_budget_ms"`
	MaxIterations  uint64  `json:"max_iterations"`
	LoadTolerance  float64 `json:"load_tolerance"`
	TabuSize       int     `json:"tabu_size,omitempty"`
	PopulationSize int     `json:"population_size,omitempty"`
	ColonySize     int     `json:"colony_size,omitempty"`
}

// ExcludedProject mirrors a project dropped before solving.
type ExcludedProject struct {
	ProjectID string `json:"project_id"`
	Reason    string `json:"reason"`
}

// SolverRun is the run document kept in the run store under a TTL. The
// embedded result marshals the solver output contract verbatim.
type SolverRun struct {
	ID          string            `json:"id"`
	Status      RunStatus         `json:"status"`
	Params      SolverRunParams   `json:"params"`
	Excluded    []ExcludedProject `json:"excluded_projects,omitempty"`
	Result      *engine.Result    `json:"result,omitempty"`
	Termination string            `json:"termination,omitempty"`
	Error       *string           `json:"error,omitempty"`
	RequestedBy string            `json:"requested_by"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
}
