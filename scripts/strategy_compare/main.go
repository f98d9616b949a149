package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler-api/internal/engine"
)

type rosterFile struct {
	Instructors []instructorEntry `json:"instructors"`
	Projects    []projectEntry    `json:"projects"`
	Classrooms  []classroomEntry  `json:"classrooms"`
	Timeslots   []timeslotEntry   `json:"timeslots"`
}

type instructorEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type projectEntry struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	ResponsibleID string `json:"responsibleId"`
	Makeup        bool   `json:"makeup"`
}

type classroomEntry struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
}

type timeslotEntry struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type outcome struct {
	Strategy string
	Result   *engine.Result
	Err      error
}

func main() {
	var (
		rosterPath  string
		strategies  string
		seed        int64
		budget      time.Duration
		iterations  uint64
		tolerance   float64
		instructors int
		projects    int
		classrooms  int
		slots       int
		verbose     bool
	)

	flag.StringVar(&rosterPath, "roster", "", "Path to a JSON roster file (empty generates a synthetic roster)")
	flag.StringVar(&strategies, "strategies", strings.Join(engine.StrategyNames(), ","), "Comma-separated strategy names to compare")
	flag.Int64Var(&seed, "seed", 1, "RNG seed shared by every strategy")
	flag.DurationVar(&budget, "budget", 5*time.Second, "Wall-clock budget per strategy")
	flag.Uint64Var(&iterations, "iterations", 0, "Iteration cap per strategy (0 uses the engine default)")
	flag.Float64Var(&tolerance, "tolerance", engine.DefaultLoadTolerance, "Load-balance tolerance for validation")
	flag.IntVar(&instructors, "instructors", 12, "Synthetic roster: instructor count")
	flag.IntVar(&projects, "projects", 40, "Synthetic roster: project count")
	flag.IntVar(&classrooms, "classrooms", 4, "Synthetic roster: classroom count")
	flag.IntVar(&slots, "slots", 16, "Synthetic roster: timeslot count")
	flag.BoolVar(&verbose, "v", false, "Log engine progress")
	flag.Parse()

	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}
		defer logger.Sync()
	}

	input, source, err := resolveInput(rosterPath, instructors, projects, classrooms, slots)
	if err != nil {
		log.Fatalf("failed to load roster: %v", err)
	}

	roster, err := engine.BuildRoster(input, logger)
	if err != nil {
		log.Fatalf("failed to build roster: %v", err)
	}

	names := splitStrategies(strategies)
	if len(names) == 0 {
		log.Fatalf("no strategies selected")
	}

	opts := engine.Options{
		TimeBudget:    budget,
		MaxIterations: iterations,
		LoadTolerance: tolerance,
	}

	var outcomes []outcome
	for _, name := range names {
		outcomes = append(outcomes, runStrategy(name, seed, roster, opts, logger))
	}

	printReport(source, roster, outcomes)

	best := bestAccepted(outcomes)
	if best == nil {
		fmt.Println("No strategy produced an accepted schedule")
		os.Exit(1)
	}
	fmt.Printf("Best: %s (score %.4f)\n", best.Strategy, best.Result.Score)
}

// runStrategy builds a fresh scheduler context from the shared seed so
// every strategy searches from the same starting point.
func runStrategy(name string, seed int64, roster *engine.Roster, opts engine.Options, logger *zap.Logger) outcome {
	strat, err := engine.NewStrategy(name, opts)
	if err != nil {
		return outcome{Strategy: name, Err: err}
	}
	sctx := engine.NewSchedulerContext(seed, logger)
	res, err := engine.Solve(context.Background(), sctx, roster, strat, opts)
	if err != nil {
		return outcome{Strategy: name, Err: err}
	}
	return outcome{Strategy: name, Result: res}
}

func resolveInput(path string, instructors, projects, classrooms, slots int) (engine.RosterInput, string, error) {
	if path != "" {
		in, err := loadRoster(path)
		return in, path, err
	}
	return syntheticRoster(instructors, projects, classrooms, slots), "synthetic", nil
}

func loadRoster(path string) (engine.RosterInput, error) {
	var in engine.RosterInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	var cfg rosterFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return in, err
	}
	if len(cfg.Projects) == 0 {
		return in, fmt.Errorf("no projects defined in %s", path)
	}
	for _, e := range cfg.Instructors {
		in.Instructors = append(in.Instructors, engine.InstructorInput{ID: e.ID, Name: e.Name, Category: e.Category})
	}
	for _, e := range cfg.Projects {
		in.Projects = append(in.Projects, engine.ProjectInput{ID: e.ID, Kind: e.Kind, ResponsibleID: e.ResponsibleID, Makeup: e.Makeup})
	}
	for _, e := range cfg.Classrooms {
		in.Classrooms = append(in.Classrooms, engine.ClassroomInput{ID: e.ID, Capacity: e.Capacity})
	}
	for _, e := range cfg.Timeslots {
		in.Timeslots = append(in.Timeslots, engine.TimeslotInput{ID: e.ID, Start: e.Start, End: e.End})
	}
	return in, nil
}

// syntheticRoster builds a deterministic workload: half interim and half
// final projects spread round-robin over the instructors, every third
// instructor junior, 30-minute slots starting at 09:00.
func syntheticRoster(instructors, projects, classrooms, slots int) engine.RosterInput {
	var in engine.RosterInput
	for i := 0; i < instructors; i++ {
		category := "senior"
		if i%3 == 2 {
			category = "junior"
		}
		in.Instructors = append(in.Instructors, engine.InstructorInput{
			ID:       fmt.Sprintf("i%02d", i+1),
			Name:     fmt.Sprintf("Instructor %02d", i+1),
			Category: category,
		})
	}
	for p := 0; p < projects; p++ {
		kind := "interim"
		if p%2 == 1 {
			kind = "final"
		}
		in.Projects = append(in.Projects, engine.ProjectInput{
			ID:            fmt.Sprintf("p%03d", p+1),
			Kind:          kind,
			ResponsibleID: fmt.Sprintf("i%02d", p%instructors+1),
			Makeup:        p%10 == 9,
		})
	}
	for c := 0; c < classrooms; c++ {
		in.Classrooms = append(in.Classrooms, engine.ClassroomInput{
			ID:       fmt.Sprintf("c%02d", c+1),
			Capacity: 24,
		})
	}
	for s := 0; s < slots; s++ {
		start := 9*60 + 30*s
		end := start + 30
		in.Timeslots = append(in.Timeslots, engine.TimeslotInput{
			ID:    fmt.Sprintf("t%02d", s+1),
			Start: fmt.Sprintf("%02d:%02d", start/60, start%60),
			End:   fmt.Sprintf("%02d:%02d", end/60, end%60),
		})
	}
	return in
}

func splitStrategies(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func bestAccepted(outcomes []outcome) *outcome {
	var best *outcome
	for i := range outcomes {
		out := &outcomes[i]
		if out.Err != nil || out.Result == nil || !out.Result.Report.Accepted {
			continue
		}
		if best == nil || out.Result.Score > best.Result.Score {
			best = out
		}
	}
	return best
}

func printReport(source string, roster *engine.Roster, outcomes []outcome) {
	fmt.Println("Strategy Comparison Report")
	fmt.Println("==========================")
	fmt.Printf("Roster: %s (%d projects, %d instructors, %d classrooms, %d slots",
		source, len(roster.Projects), len(roster.Instructors), len(roster.Classrooms), len(roster.Slots))
	if len(roster.Excluded) > 0 {
		fmt.Printf(", %d excluded", len(roster.Excluded))
	}
	fmt.Println(")")

	for _, out := range outcomes {
		if out.Err != nil {
			fmt.Printf("[ERROR] %s\n", out.Strategy)
			fmt.Printf("  Error: %v\n", out.Err)
			continue
		}
		res := out.Result
		status := "OK"
		if !res.Report.Accepted {
			status = "REJECTED"
		}
		placed := len(roster.Projects) - len(res.Report.Coverage.Missing)
		fmt.Printf("[%s] %s\n", status, out.Strategy)
		fmt.Printf("  Score: %.4f | Iterations: %d | Elapsed: %.2fs | Termination: %s\n",
			res.Score, res.Iterations, res.ElapsedSeconds, res.Termination)
		fmt.Printf("  Placed: %d/%d | Gaps: %d | Late slots: %d | Load violations: %d\n",
			placed, len(roster.Projects), len(res.Report.Gaps), len(res.Report.LateSlots), len(res.Report.LoadViolations))
	}
}
