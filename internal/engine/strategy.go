package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Strategy is the plug-in contract every search heuristic implements. The
// harness only ever drives these three calls; all heuristic state (tabu
// memory, population, cohort) lives behind them. A strategy remembers what
// it last proposed, so Accept can update that state from the scores alone.
type Strategy interface {
	Initialize(ctx *SchedulerContext, r *Roster, eval *Evaluator) (*Solution, error)
	ProposeNeighbor(current *Solution) *Solution
	Accept(currentScore, candidateScore float64) bool
}

// Options bounds a run and tunes the strategies. Zero values fall back to
// the defaults in withDefaults.
type Options struct {
	TimeBudget       time.Duration
	MaxIterations    uint64
	LoadTolerance    float64
	NeighborAttempts int

	TabuSize         int
	AspirationMargin float64
	RestartAfter     int

	PopulationSize int
	EliteCount     int
	TournamentSize int
	MutationRate   float64

	ColonySize int
	TrialLimit int
}

func (o Options) withDefaults() Options {
	if o.TimeBudget <= 0 {
		o.TimeBudget = 10 * time.Second
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = 20000
	}
	if o.LoadTolerance <= 0 {
		o.LoadTolerance = DefaultLoadTolerance
	}
	if o.NeighborAttempts <= 0 {
		o.NeighborAttempts = 8
	}
	if o.TabuSize <= 0 {
		o.TabuSize = 64
	}
	if o.AspirationMargin < 0 {
		o.AspirationMargin = 0
	}
	if o.RestartAfter <= 0 {
		o.RestartAfter = 400
	}
	if o.PopulationSize <= 1 {
		o.PopulationSize = 24
	}
	if o.EliteCount <= 0 || o.EliteCount >= o.PopulationSize {
		o.EliteCount = 4
	}
	if o.TournamentSize <= 1 {
		o.TournamentSize = 3
	}
	if o.MutationRate <= 0 || o.MutationRate > 1 {
		o.MutationRate = 0.3
	}
	if o.ColonySize <= 0 {
		o.ColonySize = 12
	}
	if o.TrialLimit <= 0 {
		o.TrialLimit = 30
	}
	return o
}

// AssignmentRecord is the external-id projection of one assignment. The
// instructor ids keep slate order, responsible first.
type AssignmentRecord struct {
	ProjectID     string   `json:"project_id"`
	ClassroomID   string   `json:"classroom_id"`
	TimeslotID    string   `json:"timeslot_id"`
	StartsAt      string   `json:"starts_at"`
	InstructorIDs []string `json:"instructor_ids"`
}

// Records materializes the placed assignments of a solution, ordered by
// timeslot then classroom.
func Records(r *Roster, s *Solution) []AssignmentRecord {
	var placed []int
	for i := range s.Assignments {
		if s.Assignments[i].Placed() {
			placed = append(placed, i)
		}
	}
	sort.Slice(placed, func(i, j int) bool {
		a, b := &s.Assignments[placed[i]], &s.Assignments[placed[j]]
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Classroom < b.Classroom
	})
	out := make([]AssignmentRecord, 0, len(placed))
	for _, p := range placed {
		a := &s.Assignments[p]
		rec := AssignmentRecord{
			ProjectID:   r.Projects[a.Project].ExternalID,
			ClassroomID: r.Classrooms[a.Classroom].ExternalID,
			TimeslotID:  r.Slots[a.Slot].ExternalID,
			StartsAt:    r.Slots[a.Slot].Label(),
		}
		for _, ins := range a.Instructors {
			rec.InstructorIDs = append(rec.InstructorIDs, r.Instructors[ins].ExternalID)
		}
		out = append(out, rec)
	}
	return out
}

// Result is the output contract of one run.
type Result struct {
	Assignments    []AssignmentRecord `json:"assignments"`
	Score          float64            `json:"score"`
	Iterations     uint64             `json:"iterations"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	Report         *ValidationReport  `json:"validation_report"`

	Termination TerminationReason `json:"-"`
	Solution    *Solution         `json:"-"`
}

// Solve drives one strategy to its wall-clock budget or iteration cap.
// The loop is single threaded: propose, score, accept, track the best.
// Cancellation is cooperative and checked at the top of every iteration,
// never mid-mutation, so the returned best is always structurally sound.
// Running out of time or being cancelled is a normal termination, not an
// error; the validation report tells the caller whether the result is
// usable as-is.
func Solve(ctx context.Context, sctx *SchedulerContext, r *Roster, strat Strategy, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	eval := NewEvaluator(r)
	start := time.Now()

	current, err := strat.Initialize(sctx, r, eval)
	if err != nil {
		return nil, err
	}
	currentScore := eval.Score(current)
	best := current.Clone()
	bestScore := currentScore

	termination := TerminationIterations
	var iterations uint64
	for iterations < opts.MaxIterations {
		if ctx.Err() != nil {
			termination = TerminationCancelled
			break
		}
		if time.Since(start) >= opts.TimeBudget {
			termination = TerminationBudget
			break
		}
		iterations++
		candidate := strat.ProposeNeighbor(current)
		if candidate == nil {
			continue
		}
		score := eval.Score(candidate)
		if strat.Accept(currentScore, score) {
			current, currentScore = candidate, score
		}
		if score > bestScore {
			best, bestScore = candidate.Clone(), score
		}
	}

	if moved := ResolveConflicts(sctx, r, best); moved > 0 {
		RepairGaps(r, best)
		bestScore = eval.Score(best)
	}
	report := ValidateAssignments(r, best.Assignments, opts.LoadTolerance)
	elapsed := time.Since(start)

	sctx.Log.Info("scheduling run finished",
		zap.Float64("score", bestScore),
		zap.Uint64("iterations", iterations),
		zap.Duration("elapsed", elapsed),
		zap.String("termination", string(termination)),
		zap.Bool("accepted", report.Accepted))

	return &Result{
		Assignments:    Records(r, best),
		Score:          bestScore,
		Iterations:     iterations,
		ElapsedSeconds: elapsed.Seconds(),
		Report:         report,
		Termination:    termination,
		Solution:       best,
	}, nil
}

// NewStrategy maps a strategy name onto its implementation. The empty
// name selects tabu.
func NewStrategy(name string, opts Options) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tabu":
		return NewTabuSearch(opts), nil
	case "genetic", "population":
		return NewGeneticSearch(opts), nil
	case "colony", "bee", "swarm":
		return NewColonySearch(opts), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// StrategyNames lists the canonical strategy names.
func StrategyNames() []string {
	return []string{"tabu", "genetic", "colony"}
}
