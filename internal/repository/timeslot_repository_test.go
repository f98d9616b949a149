package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/defense-scheduler-api/internal/models"
)

func newTimeslotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimeslotRepositoryListDefaultsToClockOrder(t *testing.T) {
	db, mock, cleanup := newTimeslotRepoMock(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "label", "starts_at", "ends_at", "active", "created_at", "updated_at"}).
		AddRow("s1", "09:00", "09:00", "09:30", true, time.Now(), time.Now()).
		AddRow("s2", "09:30", "09:30", "10:00", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, label, starts_at, ends_at, active, created_at, updated_at FROM timeslots WHERE 1=1 ORDER BY starts_at ASC LIMIT 50 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timeslots WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	list, total, err := repo.List(context.Background(), models.TimeslotFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "09:00", list[0].StartsAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newTimeslotRepoMock(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "label", "starts_at", "ends_at", "active", "created_at", "updated_at"}).
		AddRow("s1", "09:00", "09:00", "09:30", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, label, starts_at, ends_at, active, created_at, updated_at FROM timeslots WHERE active = TRUE ORDER BY starts_at, id")).
		WillReturnRows(rows)

	list, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newTimeslotRepoMock(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	mock.ExpectExec("INSERT INTO timeslots").
		WithArgs(sqlmock.AnyArg(), "morning", "09:00", "09:30", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.Timeslot{Label: "morning", StartsAt: "09:00", EndsAt: "09:30", Active: true}
	require.NoError(t, repo.Create(context.Background(), slot))
	assert.NotEmpty(t, slot.ID)

	mock.ExpectExec("UPDATE timeslots SET active = FALSE").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
