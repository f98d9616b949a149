package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/defense-scheduler-api/internal/models"
)

// ScheduleRepository persists accepted solver results.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Save writes the schedule header and its assignments in one transaction.
func (r *ScheduleRepository) Save(ctx context.Context, schedule *models.SavedSchedule, assignments []models.SavedAssignment) (err error) {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const headerQuery = `INSERT INTO defense_schedules (id, run_id, name, strategy, score, accepted, created_by, created_at)
		VALUES (:id, :run_id, :name, :strategy, :score, :accepted, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, headerQuery, schedule); err != nil {
		return fmt.Errorf("insert schedule header: %w", err)
	}

	const assignmentQuery = `INSERT INTO defense_assignments (id, schedule_id, project_id, classroom_id, timeslot_id, instructor_ids, created_at)
		VALUES (:id, :schedule_id, :project_id, :classroom_id, :timeslot_id, :instructor_ids, :created_at)`
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		assignments[i].ScheduleID = schedule.ID
		if assignments[i].CreatedAt.IsZero() {
			assignments[i].CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, assignmentQuery, &assignments[i]); err != nil {
			return fmt.Errorf("insert schedule assignment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save schedule: %w", err)
	}
	return nil
}

// FindByID returns a schedule header with its assignments in slot order.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.SavedSchedule, []models.SavedAssignment, error) {
	const headerQuery = `SELECT id, run_id, name, strategy, score, accepted, created_by, created_at FROM defense_schedules WHERE id = $1`
	var schedule models.SavedSchedule
	if err := r.db.GetContext(ctx, &schedule, headerQuery, id); err != nil {
		return nil, nil, err
	}

	const assignmentQuery = `SELECT a.id, a.schedule_id, a.project_id, a.classroom_id, a.timeslot_id, a.instructor_ids, a.created_at
		FROM defense_assignments a
		JOIN timeslots t ON t.id = a.timeslot_id
		WHERE a.schedule_id = $1
		ORDER BY t.starts_at, a.classroom_id`
	var assignments []models.SavedAssignment
	if err := r.db.SelectContext(ctx, &assignments, assignmentQuery, id); err != nil {
		return nil, nil, fmt.Errorf("list schedule assignments: %w", err)
	}

	return &schedule, assignments, nil
}

// List returns saved schedule headers, newest first, with total count.
func (r *ScheduleRepository) List(ctx context.Context, page, pageSize int) ([]models.SavedSchedule, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT id, run_id, name, strategy, score, accepted, created_by, created_at FROM defense_schedules ORDER BY created_at DESC LIMIT %d OFFSET %d", pageSize, offset)
	var schedules []models.SavedSchedule
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM defense_schedules"); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// Delete removes a schedule and its assignments.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM defense_assignments WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule assignments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM defense_schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule header: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete schedule: %w", err)
	}
	return nil
}
