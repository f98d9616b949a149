package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/noah-isme/defense-scheduler-api/internal/middleware"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	"github.com/noah-isme/defense-scheduler-api/internal/service"
)

type instructorSeedRepo struct {
	byID map[string]*models.Instructor
}

func (r *instructorSeedRepo) List(_ context.Context, _ models.InstructorFilter) ([]models.Instructor, int, error) {
	out := make([]models.Instructor, 0, len(r.byID))
	for _, in := range r.byID {
		out = append(out, *in)
	}
	return out, len(out), nil
}

func (r *instructorSeedRepo) FindByID(_ context.Context, id string) (*models.Instructor, error) {
	if in, ok := r.byID[id]; ok {
		copied := *in
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *instructorSeedRepo) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	for _, in := range r.byID {
		if in.Email == email && in.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *instructorSeedRepo) Create(_ context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = fmt.Sprintf("ins-%d", len(r.byID)+1)
	}
	copied := *instructor
	r.byID[instructor.ID] = &copied
	return nil
}

func (r *instructorSeedRepo) Update(_ context.Context, instructor *models.Instructor) error {
	copied := *instructor
	r.byID[instructor.ID] = &copied
	return nil
}

func (r *instructorSeedRepo) Deactivate(_ context.Context, id string) error {
	if in, ok := r.byID[id]; ok {
		in.Active = false
	}
	return nil
}

type projectSeedRepo struct{}

func (r *projectSeedRepo) List(_ context.Context, _ models.ProjectFilter) ([]models.Project, int, error) {
	return nil, 0, nil
}

func (r *projectSeedRepo) FindByID(_ context.Context, _ string) (*models.Project, error) {
	return nil, sql.ErrNoRows
}

func (r *projectSeedRepo) Create(_ context.Context, project *models.Project) error {
	project.ID = "proj-new"
	return nil
}

func (r *projectSeedRepo) Update(_ context.Context, _ *models.Project) error { return nil }

func (r *projectSeedRepo) Deactivate(_ context.Context, _ string) error { return nil }

type classroomSeedRepo struct{}

func (r *classroomSeedRepo) List(_ context.Context, _ models.ClassroomFilter) ([]models.Classroom, int, error) {
	return nil, 0, nil
}

func (r *classroomSeedRepo) FindByID(_ context.Context, _ string) (*models.Classroom, error) {
	return nil, sql.ErrNoRows
}

func (r *classroomSeedRepo) Create(_ context.Context, classroom *models.Classroom) error {
	classroom.ID = "room-new"
	return nil
}

func (r *classroomSeedRepo) Update(_ context.Context, _ *models.Classroom) error { return nil }

func (r *classroomSeedRepo) Deactivate(_ context.Context, _ string) error { return nil }

type timeslotSeedRepo struct{}

func (r *timeslotSeedRepo) List(_ context.Context, _ models.TimeslotFilter) ([]models.Timeslot, int, error) {
	return nil, 0, nil
}

func (r *timeslotSeedRepo) FindByID(_ context.Context, _ string) (*models.Timeslot, error) {
	return nil, sql.ErrNoRows
}

func (r *timeslotSeedRepo) Create(_ context.Context, slot *models.Timeslot) error {
	slot.ID = "slot-new"
	return nil
}

func (r *timeslotSeedRepo) Update(_ context.Context, _ *models.Timeslot) error { return nil }

func (r *timeslotSeedRepo) Deactivate(_ context.Context, _ string) error { return nil }

func newRosterRouterForTest() (*gin.Engine, *RosterHandler) {
	gin.SetMode(gin.TestMode)
	instructors := &instructorSeedRepo{byID: map[string]*models.Instructor{
		"11111111-1111-1111-1111-111111111111": {
			ID:       "11111111-1111-1111-1111-111111111111",
			Email:    "senior@univ.edu",
			FullName: "Senior One",
			Category: models.InstructorCategorySenior,
			Active:   true,
		},
	}}
	svc := service.NewRosterService(instructors, &projectSeedRepo{}, &classroomSeedRepo{}, &timeslotSeedRepo{}, nil, zap.NewNop())
	handler := NewRosterHandler(svc)

	router := gin.New()
	router.GET("/instructors", handler.ListInstructors)
	router.POST("/instructors", handler.CreateInstructor)
	router.GET("/instructors/:id", handler.GetInstructor)
	router.POST("/projects", handler.CreateProject)
	router.POST("/timeslots", handler.CreateTimeslot)
	return router, handler
}

func TestRosterHandlerListInstructors(t *testing.T) {
	router, _ := newRosterRouterForTest()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/instructors?active=true&pageSize=5", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data       []models.Instructor `json:"data"`
		Pagination *models.Pagination  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Pagination)
	require.Equal(t, 5, envelope.Pagination.PageSize)
}

func TestRosterHandlerCreateInstructor(t *testing.T) {
	router, _ := newRosterRouterForTest()

	payload := []byte(`{"email":"junior@univ.edu","fullName":"Junior Two","category":"junior"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/instructors", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "junior@univ.edu")
}

func TestRosterHandlerCreateInstructorBadCategory(t *testing.T) {
	router, _ := newRosterRouterForTest()

	payload := []byte(`{"email":"prof@univ.edu","fullName":"Professor","category":"emeritus"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/instructors", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRosterHandlerGetInstructorNotFound(t *testing.T) {
	router, _ := newRosterRouterForTest()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/instructors/99999999-9999-9999-9999-999999999999", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRosterHandlerCreateProjectUnknownResponsible(t *testing.T) {
	router, _ := newRosterRouterForTest()

	payload := []byte(`{"title":"Lost","studentName":"Student","kind":"final","responsibleId":"99999999-9999-9999-9999-999999999999"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/projects", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "responsible")
}

func TestRosterHandlerCreateTimeslotInvertedWindow(t *testing.T) {
	router, _ := newRosterRouterForTest()

	payload := []byte(`{"startsAt":"10:00","endsAt":"09:00"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timeslots", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRosterHandlerMutationForbiddenForViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newRosterRouterForTest()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "viewer-1", Role: models.RoleViewer})
		c.Next()
	})
	router.POST("/instructors", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleCoordinator)), handler.CreateInstructor)

	payload := []byte(`{"email":"x@univ.edu","fullName":"X","category":"junior"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/instructors", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}
