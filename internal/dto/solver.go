package dto

import (
	"time"

	"github.com/noah-isme/defense-scheduler-api/internal/engine"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
)

// StartRunRequest captures POST /solver/runs payload. Zero values fall back
// to the configured solver defaults.
type StartRunRequest struct {
	Strategy       string   `json:"strategy" validate:"omitempty,oneof=tabu genetic colony"`
	Seed           *int64   `json:"seed"`
	TimeBudgetMS   int64    `json:"timeBudgetMs" validate:"omitempty,min=1"`
	MaxIterations  uint64   `json:"maxIterations"`
	LoadTolerance  *float64 `json:"loadTolerance" validate:"omitempty,gt=0"`
	TabuSize       int      `json:"tabuSize" validate:"omitempty,min=1"`
	PopulationSize int      `json:"populationSize" validate:"omitempty,min=2"`
	ColonySize     int      `json:"colonySize" validate:"omitempty,min=1"`
}

// RunResponse exposes one run document. Result marshals the solver output
// contract: assignments, score, iterations, elapsed_seconds,
// validation_report.
type RunResponse struct {
	ID         string                   `json:"id"`
	Status     models.RunStatus         `json:"status"`
	Params     models.SolverRunParams   `json:"params"`
	Excluded   []models.ExcludedProject `json:"excludedProjects,omitempty"`
	Result     *engine.Result           `json:"result,omitempty"`
	Error      *string                  `json:"error,omitempty"`
	CreatedAt  time.Time                `json:"createdAt"`
	StartedAt  *time.Time               `json:"startedAt,omitempty"`
	FinishedAt *time.Time               `json:"finishedAt,omitempty"`
}

// RunSummary is the list projection of a run document, without the
// embedded result.
type RunSummary struct {
	ID         string           `json:"id"`
	Status     models.RunStatus `json:"status"`
	Strategy   string           `json:"strategy"`
	Score      *float64         `json:"score,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// AssignmentInput is one booking in a posted assignment list. Keys match
// the records the solver emits so run output round-trips into validation.
type AssignmentInput struct {
	ProjectID     string   `json:"project_id" validate:"required"`
	ClassroomID   string   `json:"classroom_id" validate:"required"`
	TimeslotID    string   `json:"timeslot_id" validate:"required"`
	InstructorIDs []string `json:"instructor_ids" validate:"required,min=1,dive,required"`
}

// ValidateRequest captures POST /solver/validate payload.
type ValidateRequest struct {
	Assignments   []AssignmentInput `json:"assignments" validate:"required,min=1,dive"`
	LoadTolerance *float64          `json:"loadTolerance" validate:"omitempty,gt=0"`
}

// SaveScheduleRequest persists a finished run under a human-facing name.
type SaveScheduleRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// SavedScheduleResponse summarises a persisted schedule.
type SavedScheduleResponse struct {
	ID              string    `json:"id"`
	RunID           string    `json:"runId"`
	Name            string    `json:"name"`
	Strategy        string    `json:"strategy"`
	Score           float64   `json:"score"`
	Accepted        bool      `json:"accepted"`
	AssignmentCount int       `json:"assignmentCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// StrategyListResponse names the selectable solver strategies.
type StrategyListResponse struct {
	Strategies []string `json:"strategies"`
	Default    string   `json:"default"`
}
