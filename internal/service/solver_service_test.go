package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler-api/internal/dto"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
	"github.com/noah-isme/defense-scheduler-api/pkg/jobs"
)

type rosterSourceStub struct {
	instructors []models.Instructor
	projects    []models.Project
	classrooms  []models.Classroom
	timeslots   []models.Timeslot
	err         error
}

func (r *rosterSourceStub) ListActive(ctx context.Context) ([]models.Instructor, error) {
	return r.instructors, r.err
}

type projectSourceStub struct{ roster *rosterSourceStub }

func (p projectSourceStub) ListActive(ctx context.Context) ([]models.Project, error) {
	return p.roster.projects, p.roster.err
}

type classroomSourceStub struct{ roster *rosterSourceStub }

func (c classroomSourceStub) ListActive(ctx context.Context) ([]models.Classroom, error) {
	return c.roster.classrooms, c.roster.err
}

type timeslotSourceStub struct{ roster *rosterSourceStub }

func (s timeslotSourceStub) ListActive(ctx context.Context) ([]models.Timeslot, error) {
	return s.roster.timeslots, s.roster.err
}

type runStoreStub struct {
	runs map[string]*models.SolverRun
	err  error
}

func newRunStoreStub() *runStoreStub {
	return &runStoreStub{runs: map[string]*models.SolverRun{}}
}

func (r *runStoreStub) Save(ctx context.Context, run *models.SolverRun, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *runStoreStub) Get(ctx context.Context, id string) (*models.SolverRun, error) {
	if r.err != nil {
		return nil, r.err
	}
	run, ok := r.runs[id]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	copied := *run
	return &copied, nil
}

func (r *runStoreStub) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.runs))
	for id := range r.runs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *runStoreStub) Delete(ctx context.Context, id string) error {
	delete(r.runs, id)
	return nil
}

type scheduleStoreStub struct {
	saved       []*models.SavedSchedule
	assignments map[string][]models.SavedAssignment
	err         error
}

func newScheduleStoreStub() *scheduleStoreStub {
	return &scheduleStoreStub{assignments: map[string][]models.SavedAssignment{}}
}

func (s *scheduleStoreStub) Save(ctx context.Context, schedule *models.SavedSchedule, assignments []models.SavedAssignment) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, schedule)
	s.assignments[schedule.ID] = assignments
	return nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.SavedSchedule, []models.SavedAssignment, error) {
	for _, schedule := range s.saved {
		if schedule.ID == id {
			return schedule, s.assignments[id], nil
		}
	}
	return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
}

func (s *scheduleStoreStub) List(ctx context.Context, page, pageSize int) ([]models.SavedSchedule, int, error) {
	out := make([]models.SavedSchedule, 0, len(s.saved))
	for _, schedule := range s.saved {
		out = append(out, *schedule)
	}
	return out, len(out), nil
}

func (s *scheduleStoreStub) Delete(ctx context.Context, id string) error {
	for i, schedule := range s.saved {
		if schedule.ID == id {
			s.saved = append(s.saved[:i], s.saved[i+1:]...)
			delete(s.assignments, id)
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
}

type solveQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *solveQueueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func solverRosterFixture() *rosterSourceStub {
	return &rosterSourceStub{
		instructors: []models.Instructor{
			{ID: "ins-senior-1", FullName: "Senior One", Category: models.InstructorCategorySenior, Active: true},
			{ID: "ins-senior-2", FullName: "Senior Two", Category: models.InstructorCategorySenior, Active: true},
			{ID: "ins-junior-1", FullName: "Junior One", Category: models.InstructorCategoryJunior, Active: true},
		},
		projects: []models.Project{
			{ID: "proj-final-1", Title: "Final One", Kind: models.ProjectKindFinal, ResponsibleID: "ins-senior-1", Active: true},
			{ID: "proj-final-2", Title: "Final Two", Kind: models.ProjectKindFinal, ResponsibleID: "ins-senior-2", Active: true},
			{ID: "proj-interim-1", Title: "Interim One", Kind: models.ProjectKindInterim, ResponsibleID: "ins-junior-1", Active: true},
			{ID: "proj-orphan", Title: "Orphan", Kind: models.ProjectKindInterim, ResponsibleID: "ins-gone", Active: true},
		},
		classrooms: []models.Classroom{
			{ID: "room-1", Name: "D-101", Capacity: 30, Active: true},
			{ID: "room-2", Name: "D-102", Capacity: 30, Active: true},
		},
		timeslots: []models.Timeslot{
			{ID: "slot-1", StartsAt: "09:00", EndsAt: "09:30", Active: true},
			{ID: "slot-2", StartsAt: "09:30", EndsAt: "10:00", Active: true},
			{ID: "slot-3", StartsAt: "10:00", EndsAt: "10:30", Active: true},
			{ID: "slot-4", StartsAt: "10:30", EndsAt: "11:00", Active: true},
		},
	}
}

func newSolverServiceForTest(t *testing.T) (*SolverService, *rosterSourceStub, *runStoreStub, *scheduleStoreStub, *solveQueueStub) {
	t.Helper()
	roster := solverRosterFixture()
	runs := newRunStoreStub()
	schedules := newScheduleStoreStub()
	queue := &solveQueueStub{}
	svc := NewSolverService(
		roster,
		projectSourceStub{roster: roster},
		classroomSourceStub{roster: roster},
		timeslotSourceStub{roster: roster},
		runs,
		schedules,
		queue,
		NewMetricsService(),
		nil,
		zap.NewNop(),
		SolverServiceConfig{
			DefaultStrategy: "tabu",
			TimeBudget:      10 * time.Second,
			MaxIterations:   500,
			LoadTolerance:   1.0,
			RunTTL:          time.Hour,
			InlineBudget:    2 * time.Second,
		},
	)
	return svc, roster, runs, schedules, queue
}

func TestSolverServiceStartRunInline(t *testing.T) {
	svc, _, runs, _, queue := newSolverServiceForTest(t)

	seed := int64(42)
	resp, err := svc.StartRun(context.Background(), dto.StartRunRequest{
		Strategy:     "tabu",
		Seed:         &seed,
		TimeBudgetMS: 100,
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFinished, resp.Status)
	require.NotNil(t, resp.Result)
	require.NotNil(t, resp.Result.Report)
	assert.NotEmpty(t, resp.Result.Assignments)
	assert.Greater(t, resp.Result.Score, 0.0)
	assert.Empty(t, queue.jobs)
	assert.Contains(t, runs.runs, resp.ID)

	// The orphaned project surfaces both on the run document and in the
	// report's coverage findings.
	require.Len(t, resp.Excluded, 1)
	assert.Equal(t, "proj-orphan", resp.Excluded[0].ProjectID)
	assert.Contains(t, resp.Result.Report.Coverage.Missing, "proj-orphan")
}

func TestSolverServiceStartRunQueuedOverInlineBudget(t *testing.T) {
	svc, _, runs, _, queue := newSolverServiceForTest(t)

	resp, err := svc.StartRun(context.Background(), dto.StartRunRequest{
		Strategy:     "genetic",
		TimeBudgetMS: 8000,
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusQueued, resp.Status)
	assert.Nil(t, resp.Result)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
	assert.Contains(t, runs.runs, resp.ID)
}

func TestSolverServiceStartRunClampsTimeBudget(t *testing.T) {
	svc, _, runs, _, queue := newSolverServiceForTest(t)
	svc.cfg.MaxTimeBudget = 30 * time.Second

	resp, err := svc.StartRun(context.Background(), dto.StartRunRequest{
		Strategy:     "tabu",
		TimeBudgetMS: time.Hour.Milliseconds(),
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusQueued, resp.Status)
	assert.Equal(t, (30 * time.Second).Milliseconds(), resp.Params.TimeBudgetMS)
	require.Len(t, queue.jobs, 1)
	stored := runs.runs[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, (30 * time.Second).Milliseconds(), stored.Params.TimeBudgetMS)
}

func TestSolverServiceStartRunEnqueueFailureFailsRun(t *testing.T) {
	svc, _, runs, _, queue := newSolverServiceForTest(t)
	queue.err = assert.AnError

	_, err := svc.StartRun(context.Background(), dto.StartRunRequest{
		TimeBudgetMS: 8000,
	}, "user-1")
	require.Error(t, err)

	require.Len(t, runs.runs, 1)
	for _, run := range runs.runs {
		assert.Equal(t, models.RunStatusFailed, run.Status)
		require.NotNil(t, run.Error)
	}
}

func TestSolverServiceStartRunUnknownDefaultStrategy(t *testing.T) {
	svc, _, _, _, _ := newSolverServiceForTest(t)
	svc.cfg.DefaultStrategy = "simplex"

	_, err := svc.StartRun(context.Background(), dto.StartRunRequest{}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownStrategy.Code, appErrors.FromError(err).Code)
}

func TestSolverServiceExecuteRunQueuedToFinished(t *testing.T) {
	svc, _, runs, _, _ := newSolverServiceForTest(t)
	runs.runs["run-1"] = &models.SolverRun{
		ID:     "run-1",
		Status: models.RunStatusQueued,
		Params: models.SolverRunParams{
			Strategy:      "colony",
			Seed:          7,
			TimeBudgetMS:  100,
			MaxIterations: 300,
			LoadTolerance: 1.0,
		},
		RequestedBy: "user-1",
		CreatedAt:   time.Now().UTC(),
	}

	err := svc.ExecuteRun(context.Background(), "run-1")
	require.NoError(t, err)

	stored := runs.runs["run-1"]
	assert.Equal(t, models.RunStatusFinished, stored.Status)
	require.NotNil(t, stored.Result)
	assert.NotEmpty(t, stored.Termination)
	require.NotNil(t, stored.StartedAt)
	require.NotNil(t, stored.FinishedAt)
}

func TestSolverServiceExecuteRunInfeasibleRoster(t *testing.T) {
	svc, roster, runs, _, _ := newSolverServiceForTest(t)
	roster.classrooms = nil
	runs.runs["run-1"] = &models.SolverRun{
		ID:     "run-1",
		Status: models.RunStatusQueued,
		Params: models.SolverRunParams{Strategy: "tabu", TimeBudgetMS: 100, MaxIterations: 100, LoadTolerance: 1.0},
	}

	err := svc.ExecuteRun(context.Background(), "run-1")
	require.NoError(t, err)

	stored := runs.runs["run-1"]
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Contains(t, *stored.Error, "classroom")
}

func TestSolverServiceExecuteRunExpiredIsNoop(t *testing.T) {
	svc, _, _, _, _ := newSolverServiceForTest(t)
	err := svc.ExecuteRun(context.Background(), "gone")
	require.NoError(t, err)
}

func TestSolverServiceGetRunMissMapsToNotFound(t *testing.T) {
	svc, _, _, _, _ := newSolverServiceForTest(t)
	_, err := svc.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSolverServiceListRunsNewestFirst(t *testing.T) {
	svc, _, runs, _, _ := newSolverServiceForTest(t)
	base := time.Now().UTC()
	runs.runs["run-old"] = &models.SolverRun{ID: "run-old", Status: models.RunStatusFinished, Params: models.SolverRunParams{Strategy: "tabu"}, CreatedAt: base.Add(-time.Hour)}
	runs.runs["run-new"] = &models.SolverRun{ID: "run-new", Status: models.RunStatusQueued, Params: models.SolverRunParams{Strategy: "genetic"}, CreatedAt: base}

	list, err := svc.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-new", list[0].ID)
	assert.Equal(t, "run-old", list[1].ID)
}

func TestSolverServiceValidateRoundTrip(t *testing.T) {
	svc, _, _, _, _ := newSolverServiceForTest(t)

	seed := int64(11)
	resp, err := svc.StartRun(context.Background(), dto.StartRunRequest{
		Strategy:     "tabu",
		Seed:         &seed,
		TimeBudgetMS: 100,
	}, "user-1")
	require.NoError(t, err)
	require.NotNil(t, resp.Result)

	inputs := make([]dto.AssignmentInput, 0, len(resp.Result.Assignments))
	for _, rec := range resp.Result.Assignments {
		inputs = append(inputs, dto.AssignmentInput{
			ProjectID:     rec.ProjectID,
			ClassroomID:   rec.ClassroomID,
			TimeslotID:    rec.TimeslotID,
			InstructorIDs: rec.InstructorIDs,
		})
	}

	report, err := svc.ValidateAssignments(context.Background(), dto.ValidateRequest{Assignments: inputs})
	require.NoError(t, err)
	assert.Empty(t, report.Duplicates)
	assert.Empty(t, report.RoleViolations)
	assert.Contains(t, report.Coverage.Missing, "proj-orphan")
}

func TestSolverServiceValidateUnknownProject(t *testing.T) {
	svc, _, _, _, _ := newSolverServiceForTest(t)

	_, err := svc.ValidateAssignments(context.Background(), dto.ValidateRequest{
		Assignments: []dto.AssignmentInput{
			{ProjectID: "proj-ghost", ClassroomID: "room-1", TimeslotID: "slot-1", InstructorIDs: []string{"ins-senior-1"}},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSolverServiceSaveRunRequiresFinished(t *testing.T) {
	svc, _, runs, _, _ := newSolverServiceForTest(t)
	runs.runs["run-1"] = &models.SolverRun{ID: "run-1", Status: models.RunStatusQueued, Params: models.SolverRunParams{Strategy: "tabu"}}

	_, err := svc.SaveRun(context.Background(), "run-1", dto.SaveScheduleRequest{Name: "June finals"}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRunNotFinished.Code, appErrors.FromError(err).Code)
}

func TestSolverServiceSaveRunPersistsSchedule(t *testing.T) {
	svc, _, _, schedules, _ := newSolverServiceForTest(t)

	seed := int64(5)
	resp, err := svc.StartRun(context.Background(), dto.StartRunRequest{
		Strategy:     "tabu",
		Seed:         &seed,
		TimeBudgetMS: 100,
	}, "user-1")
	require.NoError(t, err)

	saved, err := svc.SaveRun(context.Background(), resp.ID, dto.SaveScheduleRequest{Name: "June finals"}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "June finals", saved.Name)
	assert.Equal(t, resp.ID, saved.RunID)
	assert.Equal(t, "tabu", saved.Strategy)
	assert.Equal(t, len(resp.Result.Assignments), saved.AssignmentCount)
	require.Len(t, schedules.saved, 1)
	assert.Len(t, schedules.assignments[schedules.saved[0].ID], len(resp.Result.Assignments))
}

func TestSolverServiceRecoverPendingRuns(t *testing.T) {
	svc, _, runs, _, queue := newSolverServiceForTest(t)
	runs.runs["run-queued"] = &models.SolverRun{ID: "run-queued", Status: models.RunStatusQueued, Params: models.SolverRunParams{Strategy: "tabu"}}
	runs.runs["run-done"] = &models.SolverRun{ID: "run-done", Status: models.RunStatusFinished, Params: models.SolverRunParams{Strategy: "tabu"}}

	svc.RecoverPendingRuns(context.Background())

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "run-queued", queue.jobs[0].ID)
}

func TestSolverServiceStrategies(t *testing.T) {
	svc, _, _, _, _ := newSolverServiceForTest(t)
	resp := svc.Strategies()
	assert.ElementsMatch(t, []string{"tabu", "genetic", "colony"}, resp.Strategies)
	assert.Equal(t, "tabu", resp.Default)
}
