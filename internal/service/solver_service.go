package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler-api/internal/dto"
	"github.com/noah-isme/defense-scheduler-api/internal/engine"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
	"github.com/noah-isme/defense-scheduler-api/pkg/jobs"
)

type rosterInstructorSource interface {
	ListActive(ctx context.Context) ([]models.Instructor, error)
}

type rosterProjectSource interface {
	ListActive(ctx context.Context) ([]models.Project, error)
}

type rosterClassroomSource interface {
	ListActive(ctx context.Context) ([]models.Classroom, error)
}

type rosterTimeslotSource interface {
	ListActive(ctx context.Context) ([]models.Timeslot, error)
}

type runDocumentStore interface {
	Save(ctx context.Context, run *models.SolverRun, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.SolverRun, error)
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type scheduleStore interface {
	Save(ctx context.Context, schedule *models.SavedSchedule, assignments []models.SavedAssignment) error
	FindByID(ctx context.Context, id string) (*models.SavedSchedule, []models.SavedAssignment, error)
	List(ctx context.Context, page, pageSize int) ([]models.SavedSchedule, int, error)
	Delete(ctx context.Context, id string) error
}

type solveDispatcher interface {
	Enqueue(job jobs.Job) error
}

type solverMetrics interface {
	RunStarted()
	RunFinished(strategy, outcome string, score float64, iterations uint64, duration time.Duration)
	QueueDepthChanged(delta int)
	RecordStoreLookup(hit bool)
}

// SolverService owns the run lifecycle: it loads the live roster, drives
// the search engine inline or through the job queue, and keeps run
// documents in the run store until their TTL lapses.
type SolverService struct {
	instructors rosterInstructorSource
	projects    rosterProjectSource
	classrooms  rosterClassroomSource
	timeslots   rosterTimeslotSource
	runs        runDocumentStore
	schedules   scheduleStore
	queue       solveDispatcher
	metrics     solverMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         SolverServiceConfig
}

// SolverServiceConfig governs defaults, caps and the inline-versus-queued
// split. MaxTimeBudget bounds the budget a client may request; the queue's
// job timeout is sized against it.
type SolverServiceConfig struct {
	DefaultStrategy string
	TimeBudget      time.Duration
	MaxTimeBudget   time.Duration
	MaxIterations   uint64
	LoadTolerance   float64
	RunTTL          time.Duration
	InlineBudget    time.Duration
}

// NewSolverService wires solver dependencies.
func NewSolverService(
	instructors rosterInstructorSource,
	projects rosterProjectSource,
	classrooms rosterClassroomSource,
	timeslots rosterTimeslotSource,
	runs runDocumentStore,
	schedules scheduleStore,
	queue solveDispatcher,
	metrics solverMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SolverServiceConfig,
) *SolverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = "tabu"
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 10 * time.Second
	}
	if cfg.MaxTimeBudget <= 0 {
		cfg.MaxTimeBudget = 5 * time.Minute
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 20000
	}
	if cfg.LoadTolerance <= 0 {
		cfg.LoadTolerance = engine.DefaultLoadTolerance
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 24 * time.Hour
	}
	if cfg.InlineBudget <= 0 {
		cfg.InlineBudget = 2 * time.Second
	}
	return &SolverService{
		instructors: instructors,
		projects:    projects,
		classrooms:  classrooms,
		timeslots:   timeslots,
		runs:        runs,
		schedules:   schedules,
		queue:       queue,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// StartRun creates a run document and either solves it inline, when the
// requested budget fits the inline ceiling, or hands it to the queue.
func (s *SolverService) StartRun(ctx context.Context, req dto.StartRunRequest, actorID string) (*dto.RunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solver run payload")
	}

	params := s.resolveParams(req)
	if _, err := engine.NewStrategy(params.Strategy, engine.Options{}); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnknownStrategy, fmt.Sprintf("unknown strategy %q", params.Strategy))
	}

	// Build the roster up front so infeasible data fails the request, not
	// the queued job.
	roster, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}

	run := &models.SolverRun{
		ID:          uuid.NewString(),
		Status:      models.RunStatusQueued,
		Params:      params,
		Excluded:    excludedFromEngine(roster.Excluded),
		RequestedBy: actorID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.runs.Save(ctx, run, s.cfg.RunTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store solver run")
	}

	if time.Duration(params.TimeBudgetMS)*time.Millisecond <= s.cfg.InlineBudget {
		if err := s.ExecuteRun(ctx, run.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "solver run failed")
		}
		stored, err := s.runs.Get(ctx, run.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solver run")
		}
		return runToResponse(stored), nil
	}

	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: "solver_run"}); err != nil {
		msg := "failed to enqueue solver run"
		run.Status = models.RunStatusFailed
		run.Error = &msg
		now := time.Now().UTC()
		run.FinishedAt = &now
		if saveErr := s.runs.Save(ctx, run, s.cfg.RunTTL); saveErr != nil {
			s.logger.Sugar().Warnw("failed to mark run failed after enqueue error", "run_id", run.ID, "error", saveErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}
	if s.metrics != nil {
		s.metrics.QueueDepthChanged(1)
	}
	return runToResponse(run), nil
}

// GetRun returns one run document.
func (s *SolverService) GetRun(ctx context.Context, id string) (*dto.RunResponse, error) {
	run, err := s.runs.Get(ctx, id)
	if s.metrics != nil {
		s.metrics.RecordStoreLookup(err == nil)
	}
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solver run not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solver run")
	}
	return runToResponse(run), nil
}

// ListRuns returns run summaries, newest first. Documents that expire
// between listing ids and fetching them are skipped.
func (s *SolverService) ListRuns(ctx context.Context) ([]dto.RunSummary, error) {
	ids, err := s.runs.ListIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list solver runs")
	}
	summaries := make([]dto.RunSummary, 0, len(ids))
	for _, id := range ids {
		run, err := s.runs.Get(ctx, id)
		if err != nil {
			if errors.Is(err, appErrors.ErrCacheMiss) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solver run")
		}
		summary := dto.RunSummary{
			ID:         run.ID,
			Status:     run.Status,
			Strategy:   run.Params.Strategy,
			CreatedAt:  run.CreatedAt,
			FinishedAt: run.FinishedAt,
		}
		if run.Result != nil {
			score := run.Result.Score
			summary.Score = &score
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// DeleteRun drops a run document before its TTL lapses.
func (s *SolverService) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.runs.Get(ctx, id); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return appErrors.Clone(appErrors.ErrNotFound, "solver run not found or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solver run")
	}
	if err := s.runs.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete solver run")
	}
	return nil
}

// HandleJob bridges queue jobs to run execution.
func (s *SolverService) HandleJob(ctx context.Context, job jobs.Job) error {
	if s.metrics != nil {
		s.metrics.QueueDepthChanged(-1)
	}
	return s.ExecuteRun(ctx, job.ID)
}

// ExecuteRun drives one queued run to a terminal state. Infeasible rosters
// fail the run document and return nil; only transient load or store
// errors propagate so the queue can retry them.
func (s *SolverService) ExecuteRun(ctx context.Context, runID string) error {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Sugar().Warnw("solver run expired before execution", "run_id", runID)
			return nil
		}
		return err
	}
	if run.Status == models.RunStatusFinished || run.Status == models.RunStatusFailed {
		return nil
	}

	roster, err := s.loadRoster(ctx)
	if err != nil {
		// Infeasible data is terminal; anything else is transient and the
		// queue may retry it.
		if appErrors.FromError(err).Code == appErrors.ErrRosterInvalid.Code {
			s.failRun(ctx, run, err.Error())
			return nil
		}
		return err
	}
	run.Excluded = excludedFromEngine(roster.Excluded)

	now := time.Now().UTC()
	run.Status = models.RunStatusRunning
	run.StartedAt = &now
	if err := s.runs.Save(ctx, run, s.cfg.RunTTL); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RunStarted()
	}
	started := time.Now()

	result, err := s.solve(ctx, roster, run.Params)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RunFinished(run.Params.Strategy, "failed", 0, 0, time.Since(started))
		}
		s.failRun(ctx, run, err.Error())
		return nil
	}

	appendExcludedToReport(result.Report, roster.Excluded)

	finished := time.Now().UTC()
	run.Status = models.RunStatusFinished
	run.Result = result
	run.Termination = string(result.Termination)
	run.Error = nil
	run.FinishedAt = &finished
	saveCtx, cancelSave := terminalSaveContext(ctx)
	defer cancelSave()
	if err := s.runs.Save(saveCtx, run, s.cfg.RunTTL); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RunFinished(run.Params.Strategy, string(result.Termination), result.Score, result.Iterations, time.Since(started))
	}
	s.logger.Sugar().Infow("solver run finished",
		"run_id", run.ID,
		"strategy", run.Params.Strategy,
		"score", result.Score,
		"iterations", result.Iterations,
		"accepted", result.Report != nil && result.Report.Accepted,
		"termination", result.Termination,
	)
	return nil
}

// RecoverPendingRuns replays queued run documents after a restart.
func (s *SolverService) RecoverPendingRuns(ctx context.Context) {
	ids, err := s.runs.ListIDs(ctx)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued solver runs", "error", err)
		return
	}
	for _, id := range ids {
		run, err := s.runs.Get(ctx, id)
		if err != nil {
			continue
		}
		if run.Status != models.RunStatusQueued && run.Status != models.RunStatusRunning {
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: "solver_run"}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue solver run", "run_id", run.ID, "error", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.QueueDepthChanged(1)
		}
	}
}

// ValidateAssignments checks a posted assignment list against the live
// roster and returns the full detector report.
func (s *SolverService) ValidateAssignments(ctx context.Context, req dto.ValidateRequest) (*engine.ValidationReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation payload")
	}
	roster, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}

	assignments := make([]engine.Assignment, 0, len(req.Assignments))
	for _, in := range req.Assignments {
		project, ok := roster.ProjectByExternal(in.ProjectID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown project id %q", in.ProjectID))
		}
		classroom, ok := roster.ClassroomByExternal(in.ClassroomID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown classroom id %q", in.ClassroomID))
		}
		slot, ok := roster.SlotByExternal(in.TimeslotID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot id %q", in.TimeslotID))
		}
		slate := make([]int, 0, len(in.InstructorIDs))
		for _, insID := range in.InstructorIDs {
			idx, ok := roster.InstructorByExternal(insID)
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown instructor id %q", insID))
			}
			slate = append(slate, idx)
		}
		assignments = append(assignments, engine.Assignment{
			Project:     project,
			Classroom:   classroom,
			Slot:        slot,
			Instructors: slate,
		})
	}

	tolerance := s.cfg.LoadTolerance
	if req.LoadTolerance != nil {
		tolerance = *req.LoadTolerance
	}
	report := engine.ValidateAssignments(roster, assignments, tolerance)
	appendExcludedToReport(report, roster.Excluded)
	return report, nil
}

// SaveRun persists the result of a finished run as a named schedule.
func (s *SolverService) SaveRun(ctx context.Context, runID string, req dto.SaveScheduleRequest, actorID string) (*dto.SavedScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solver run not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solver run")
	}
	if run.Status != models.RunStatusFinished || run.Result == nil {
		return nil, appErrors.Clone(appErrors.ErrRunNotFinished, "only finished runs can be saved")
	}

	schedule := &models.SavedSchedule{
		ID:        uuid.NewString(),
		RunID:     run.ID,
		Name:      req.Name,
		Strategy:  run.Params.Strategy,
		Score:     run.Result.Score,
		Accepted:  run.Result.Report != nil && run.Result.Report.Accepted,
		CreatedBy: actorID,
	}
	assignments := lo.Map(run.Result.Assignments, func(rec engine.AssignmentRecord, _ int) models.SavedAssignment {
		return models.SavedAssignment{
			ProjectID:     rec.ProjectID,
			ClassroomID:   rec.ClassroomID,
			TimeslotID:    rec.TimeslotID,
			InstructorIDs: models.StringList(rec.InstructorIDs),
		}
	})
	if err := s.schedules.Save(ctx, schedule, assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}
	s.logger.Sugar().Infow("schedule saved", "schedule_id", schedule.ID, "run_id", run.ID, "name", schedule.Name, "score", schedule.Score)
	return savedScheduleToResponse(schedule, len(assignments)), nil
}

// ListSchedules returns saved schedule headers with total count.
func (s *SolverService) ListSchedules(ctx context.Context, page, pageSize int) ([]dto.SavedScheduleResponse, int, error) {
	schedules, total, err := s.schedules.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	out := lo.Map(schedules, func(item models.SavedSchedule, _ int) dto.SavedScheduleResponse {
		return *savedScheduleToResponse(&item, 0)
	})
	return out, total, nil
}

// GetSchedule returns one saved schedule with its assignments.
func (s *SolverService) GetSchedule(ctx context.Context, id string) (*models.SavedSchedule, []models.SavedAssignment, error) {
	schedule, assignments, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, assignments, nil
}

// DeleteSchedule removes a saved schedule with its assignments.
func (s *SolverService) DeleteSchedule(ctx context.Context, id string) error {
	if _, _, err := s.schedules.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// Strategies lists the selectable strategy names.
func (s *SolverService) Strategies() dto.StrategyListResponse {
	return dto.StrategyListResponse{
		Strategies: engine.StrategyNames(),
		Default:    s.cfg.DefaultStrategy,
	}
}

func (s *SolverService) resolveParams(req dto.StartRunRequest) models.SolverRunParams {
	params := models.SolverRunParams{
		Strategy:       req.Strategy,
		TimeBudgetMS:   req.TimeBudgetMS,
		MaxIterations:  req.MaxIterations,
		TabuSize:       req.TabuSize,
		PopulationSize: req.PopulationSize,
		ColonySize:     req.ColonySize,
	}
	if params.Strategy == "" {
		params.Strategy = s.cfg.DefaultStrategy
	}
	if params.TimeBudgetMS <= 0 {
		params.TimeBudgetMS = s.cfg.TimeBudget.Milliseconds()
	}
	if max := s.cfg.MaxTimeBudget.Milliseconds(); params.TimeBudgetMS > max {
		params.TimeBudgetMS = max
	}
	if params.MaxIterations == 0 {
		params.MaxIterations = s.cfg.MaxIterations
	}
	if req.LoadTolerance != nil {
		params.LoadTolerance = *req.LoadTolerance
	} else {
		params.LoadTolerance = s.cfg.LoadTolerance
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	} else {
		params.Seed = time.Now().UnixNano()
	}
	return params
}

func (s *SolverService) loadRoster(ctx context.Context) (*engine.Roster, error) {
	instructors, err := s.instructors.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load projects")
	}
	classrooms, err := s.classrooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	timeslots, err := s.timeslots.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}

	input := engine.RosterInput{
		Instructors: lo.Map(instructors, func(item models.Instructor, _ int) engine.InstructorInput {
			return engine.InstructorInput{ID: item.ID, Name: item.FullName, Category: item.Category}
		}),
		Projects: lo.Map(projects, func(item models.Project, _ int) engine.ProjectInput {
			return engine.ProjectInput{ID: item.ID, Kind: item.Kind, ResponsibleID: item.ResponsibleID, Makeup: item.Makeup}
		}),
		Classrooms: lo.Map(classrooms, func(item models.Classroom, _ int) engine.ClassroomInput {
			return engine.ClassroomInput{ID: item.ID, Capacity: item.Capacity}
		}),
		Timeslots: lo.Map(timeslots, func(item models.Timeslot, _ int) engine.TimeslotInput {
			return engine.TimeslotInput{ID: item.ID, Start: item.StartsAt, End: item.EndsAt}
		}),
	}
	roster, err := engine.BuildRoster(input, s.logger)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRosterInvalid.Code, appErrors.ErrRosterInvalid.Status, err.Error())
	}
	return roster, nil
}

func (s *SolverService) solve(ctx context.Context, roster *engine.Roster, params models.SolverRunParams) (*engine.Result, error) {
	opts := engine.Options{
		TimeBudget:     time.Duration(params.TimeBudgetMS) * time.Millisecond,
		MaxIterations:  params.MaxIterations,
		LoadTolerance:  params.LoadTolerance,
		TabuSize:       params.TabuSize,
		PopulationSize: params.PopulationSize,
		ColonySize:     params.ColonySize,
	}
	strategy, err := engine.NewStrategy(params.Strategy, opts)
	if err != nil {
		return nil, err
	}
	sctx := engine.NewSchedulerContext(params.Seed, s.logger)
	return engine.Solve(ctx, sctx, roster, strategy, opts)
}

func (s *SolverService) failRun(ctx context.Context, run *models.SolverRun, msg string) {
	now := time.Now().UTC()
	run.Status = models.RunStatusFailed
	run.Error = &msg
	run.FinishedAt = &now
	saveCtx, cancel := terminalSaveContext(ctx)
	defer cancel()
	if err := s.runs.Save(saveCtx, run, s.cfg.RunTTL); err != nil {
		s.logger.Sugar().Warnw("failed to store failed run", "run_id", run.ID, "error", err)
	}
	s.logger.Sugar().Warnw("solver run failed", "run_id", run.ID, "strategy", run.Params.Strategy, "error", msg)
}

// terminalSaveContext keeps the final status write alive even when the job
// context has already expired; without it a timed-out run would sit in the
// store as "running" until the TTL collects it.
func terminalSaveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}

// appendExcludedToReport surfaces pre-solve exclusions in the coverage
// findings. Accepted is left as the detectors computed it: an excluded
// project is a roster defect, not a fault of the assignments.
func appendExcludedToReport(report *engine.ValidationReport, excluded []engine.ExcludedProject) {
	if report == nil || len(excluded) == 0 {
		return
	}
	seen := make(map[string]bool, len(report.Coverage.Missing))
	for _, id := range report.Coverage.Missing {
		seen[id] = true
	}
	for _, ex := range excluded {
		if !seen[ex.ProjectID] {
			report.Coverage.Missing = append(report.Coverage.Missing, ex.ProjectID)
			seen[ex.ProjectID] = true
		}
	}
}

func excludedFromEngine(in []engine.ExcludedProject) []models.ExcludedProject {
	return lo.Map(in, func(item engine.ExcludedProject, _ int) models.ExcludedProject {
		return models.ExcludedProject{ProjectID: item.ProjectID, Reason: item.Reason}
	})
}

func runToResponse(run *models.SolverRun) *dto.RunResponse {
	return &dto.RunResponse{
		ID:         run.ID,
		Status:     run.Status,
		Params:     run.Params,
		Excluded:   run.Excluded,
		Result:     run.Result,
		Error:      run.Error,
		CreatedAt:  run.CreatedAt,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func savedScheduleToResponse(schedule *models.SavedSchedule, assignmentCount int) *dto.SavedScheduleResponse {
	return &dto.SavedScheduleResponse{
		ID:              schedule.ID,
		RunID:           schedule.RunID,
		Name:            schedule.Name,
		Strategy:        schedule.Strategy,
		Score:           schedule.Score,
		Accepted:        schedule.Accepted,
		AssignmentCount: assignmentCount,
		CreatedAt:       schedule.CreatedAt,
	}
}
