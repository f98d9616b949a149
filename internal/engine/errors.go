package engine

import "fmt"

// ConfigurationError reports input that makes a run impossible, such as an
// empty instructor, classroom or timeslot pool. It is the only engine error
// that propagates to the caller.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "scheduler configuration: " + e.Reason
}

// MissingResponsibleError marks a project whose responsible instructor is
// absent from the roster. The project is excluded from the run and the run
// continues.
type MissingResponsibleError struct {
	ProjectID     string
	ResponsibleID string
}

func (e *MissingResponsibleError) Error() string {
	if e.ResponsibleID == "" {
		return fmt.Sprintf("project %s has no responsible instructor", e.ProjectID)
	}
	return fmt.Sprintf("project %s references unknown responsible instructor %s", e.ProjectID, e.ResponsibleID)
}

// InfeasibleRoleError marks a final project for which no eligible jury
// candidate could be seated. The project is reported unassigned in the
// validation report.
type InfeasibleRoleError struct {
	ProjectID string
}

func (e *InfeasibleRoleError) Error() string {
	return fmt.Sprintf("project %s has no eligible jury candidate", e.ProjectID)
}

// TerminationReason records why a run's search loop stopped. Running out of
// budget is a normal outcome, not an error.
type TerminationReason string

const (
	TerminationBudget     TerminationReason = "time_budget_exceeded"
	TerminationIterations TerminationReason = "iteration_cap_reached"
	TerminationCancelled  TerminationReason = "cancelled"
)
