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

func newInstructorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestInstructorRepositoryList(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "email", "full_name", "category", "active", "created_at", "updated_at"}).
		AddRow("i1", nil, "a@example.com", "Dr. A", models.InstructorCategorySenior, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, email, full_name, category, active, created_at, updated_at FROM instructors WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM instructors WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.InstructorFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryListFiltersByCategory(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	category := models.InstructorCategoryJunior
	rows := sqlmock.NewRows([]string{"id", "code", "email", "full_name", "category", "active", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, email, full_name, category, active, created_at, updated_at FROM instructors WHERE 1=1 AND category = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(category).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM instructors WHERE 1=1 AND category = $1")).
		WithArgs(category).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	list, total, err := repo.List(context.Background(), models.InstructorFilter{Category: &category})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "email", "full_name", "category", "active", "created_at", "updated_at"}).
		AddRow("i1", nil, "a@example.com", "Dr. A", models.InstructorCategorySenior, true, time.Now(), time.Now()).
		AddRow("i2", nil, "b@example.com", "Dr. B", models.InstructorCategoryJunior, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, email, full_name, category, active, created_at, updated_at FROM instructors WHERE active = TRUE ORDER BY id")).
		WillReturnRows(rows)

	list, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "i1", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectExec("INSERT INTO instructors").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "a@example.com", "Dr. A", models.InstructorCategorySenior, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	instructor := &models.Instructor{Email: "a@example.com", FullName: "Dr. A", Category: models.InstructorCategorySenior, Active: true}
	require.NoError(t, repo.Create(context.Background(), instructor))
	assert.NotEmpty(t, instructor.ID)

	mock.ExpectExec("UPDATE instructors SET active = FALSE").
		WithArgs("i1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM instructors WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "a@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
