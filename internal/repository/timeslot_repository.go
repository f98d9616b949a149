package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/defense-scheduler-api/internal/models"
)

// TimeslotRepository manages persistence for timeslots.
type TimeslotRepository struct {
	db *sqlx.DB
}

// NewTimeslotRepository constructs a TimeslotRepository.
func NewTimeslotRepository(db *sqlx.DB) *TimeslotRepository {
	return &TimeslotRepository{db: db}
}

// List returns timeslots matching filters along with total count. Default
// order follows the clock, earliest first.
func (r *TimeslotRepository) List(ctx context.Context, filter models.TimeslotFilter) ([]models.Timeslot, int, error) {
	base := "FROM timeslots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "starts_at"
	}
	allowedSorts := map[string]string{
		"starts_at":  "starts_at",
		"label":      "label",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "starts_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, label, starts_at, ends_at, active, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timeslots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timeslots: %w", err)
	}

	return slots, total, nil
}

// ListActive returns every active timeslot in clock order for roster loads.
func (r *TimeslotRepository) ListActive(ctx context.Context) ([]models.Timeslot, error) {
	const query = `SELECT id, label, starts_at, ends_at, active, created_at, updated_at FROM timeslots WHERE active = TRUE ORDER BY starts_at, id`
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list active timeslots: %w", err)
	}
	return slots, nil
}

// FindByID fetches a timeslot by ID.
func (r *TimeslotRepository) FindByID(ctx context.Context, id string) (*models.Timeslot, error) {
	const query = `SELECT id, label, starts_at, ends_at, active, created_at, updated_at FROM timeslots WHERE id = $1`
	var slot models.Timeslot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a new timeslot record.
func (r *TimeslotRepository) Create(ctx context.Context, slot *models.Timeslot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO timeslots (id, label, starts_at, ends_at, active, created_at, updated_at)
		VALUES (:id, :label, :starts_at, :ends_at, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create timeslot: %w", err)
	}
	return nil
}

// Update modifies an existing timeslot record.
func (r *TimeslotRepository) Update(ctx context.Context, slot *models.Timeslot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timeslots SET label = :label, starts_at = :starts_at, ends_at = :ends_at, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update timeslot: %w", err)
	}
	return nil
}

// Deactivate sets a timeslot's active flag to false.
func (r *TimeslotRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE timeslots SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate timeslot: %w", err)
	}
	return nil
}
