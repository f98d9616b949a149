package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler-api/internal/dto"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
	Deactivate(ctx context.Context, id string) error
}

type projectRepository interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	FindByID(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Deactivate(ctx context.Context, id string) error
}

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
	Deactivate(ctx context.Context, id string) error
}

type timeslotRepository interface {
	List(ctx context.Context, filter models.TimeslotFilter) ([]models.Timeslot, int, error)
	FindByID(ctx context.Context, id string) (*models.Timeslot, error)
	Create(ctx context.Context, slot *models.Timeslot) error
	Update(ctx context.Context, slot *models.Timeslot) error
	Deactivate(ctx context.Context, id string) error
}

// RosterService manages the four collections the solver schedules over.
// Deactivation never cascades: a project whose responsible instructor is
// deactivated is excluded at solve time, not deleted.
type RosterService struct {
	instructors instructorRepository
	projects    projectRepository
	classrooms  classroomRepository
	timeslots   timeslotRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRosterService wires roster dependencies.
func NewRosterService(
	instructors instructorRepository,
	projects projectRepository,
	classrooms classroomRepository,
	timeslots timeslotRepository,
	validate *validator.Validate,
	logger *zap.Logger,
) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		instructors: instructors,
		projects:    projects,
		classrooms:  classrooms,
		timeslots:   timeslots,
		validator:   validate,
		logger:      logger,
	}
}

// --- Instructors ---

// ListInstructors returns paginated instructors.
func (s *RosterService) ListInstructors(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.instructors.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetInstructor returns an instructor by id.
func (s *RosterService) GetInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.instructors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// CreateInstructor adds an instructor ensuring email uniqueness.
func (s *RosterService) CreateInstructor(ctx context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.instructors.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check instructor email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "instructor email already exists")
	}

	instructor := &models.Instructor{
		Code:     req.Code,
		Email:    email,
		FullName: req.FullName,
		Category: req.Category,
		Active:   true,
	}
	if err := s.instructors.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// UpdateInstructor modifies an existing instructor.
func (s *RosterService) UpdateInstructor(ctx context.Context, id string, req dto.UpdateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	instructor, err := s.GetInstructor(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.instructors.ExistsByEmail(ctx, email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check instructor email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "instructor email already exists")
	}

	instructor.Code = req.Code
	instructor.Email = email
	instructor.FullName = req.FullName
	instructor.Category = req.Category
	if req.Active != nil {
		instructor.Active = *req.Active
	}
	if err := s.instructors.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return instructor, nil
}

// DeactivateInstructor soft-deletes an instructor. Projects still pointing
// at it surface as excluded in later runs.
func (s *RosterService) DeactivateInstructor(ctx context.Context, id string) error {
	instructor, err := s.GetInstructor(ctx, id)
	if err != nil {
		return err
	}
	if err := s.instructors.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate instructor")
	}

	active := true
	orphans, _, err := s.projects.List(ctx, models.ProjectFilter{ResponsibleID: &instructor.ID, Active: &active, PageSize: 1})
	if err == nil && len(orphans) > 0 {
		s.logger.Sugar().Warnw("deactivated instructor still responsible for active projects", "instructor_id", id)
	}
	return nil
}

// --- Projects ---

// ListProjects returns paginated projects.
func (s *RosterService) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetProject returns a project by id.
func (s *RosterService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// CreateProject adds a project ensuring the responsible instructor exists.
func (s *RosterService) CreateProject(ctx context.Context, req dto.CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if err := s.ensureResponsible(ctx, req.ResponsibleID); err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:         req.Title,
		StudentName:   req.StudentName,
		Kind:          req.Kind,
		Makeup:        req.Makeup,
		ResponsibleID: req.ResponsibleID,
		Active:        true,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return project, nil
}

// UpdateProject modifies an existing project.
func (s *RosterService) UpdateProject(ctx context.Context, id string, req dto.UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureResponsible(ctx, req.ResponsibleID); err != nil {
		return nil, err
	}

	project.Title = req.Title
	project.StudentName = req.StudentName
	project.Kind = req.Kind
	project.Makeup = req.Makeup
	project.ResponsibleID = req.ResponsibleID
	if req.Active != nil {
		project.Active = *req.Active
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

// DeactivateProject soft-deletes a project.
func (s *RosterService) DeactivateProject(ctx context.Context, id string) error {
	if _, err := s.GetProject(ctx, id); err != nil {
		return err
	}
	if err := s.projects.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate project")
	}
	return nil
}

// --- Classrooms ---

// ListClassrooms returns paginated classrooms.
func (s *RosterService) ListClassrooms(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	classrooms, total, err := s.classrooms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetClassroom returns a classroom by id.
func (s *RosterService) GetClassroom(ctx context.Context, id string) (*models.Classroom, error) {
	classroom, err := s.classrooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	return classroom, nil
}

// CreateClassroom adds a classroom.
func (s *RosterService) CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom := &models.Classroom{
		Name:     req.Name,
		Building: req.Building,
		Capacity: req.Capacity,
		Active:   true,
	}
	if err := s.classrooms.Create(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return classroom, nil
}

// UpdateClassroom modifies an existing classroom.
func (s *RosterService) UpdateClassroom(ctx context.Context, id string, req dto.UpdateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom, err := s.GetClassroom(ctx, id)
	if err != nil {
		return nil, err
	}
	classroom.Name = req.Name
	classroom.Building = req.Building
	classroom.Capacity = req.Capacity
	if req.Active != nil {
		classroom.Active = *req.Active
	}
	if err := s.classrooms.Update(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom")
	}
	return classroom, nil
}

// DeactivateClassroom soft-deletes a classroom.
func (s *RosterService) DeactivateClassroom(ctx context.Context, id string) error {
	if _, err := s.GetClassroom(ctx, id); err != nil {
		return err
	}
	if err := s.classrooms.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate classroom")
	}
	return nil
}

// --- Timeslots ---

// ListTimeslots returns paginated timeslots in start order.
func (s *RosterService) ListTimeslots(ctx context.Context, filter models.TimeslotFilter) ([]models.Timeslot, *models.Pagination, error) {
	timeslots, total, err := s.timeslots.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timeslots")
	}
	return timeslots, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetTimeslot returns a timeslot by id.
func (s *RosterService) GetTimeslot(ctx context.Context, id string) (*models.Timeslot, error) {
	slot, err := s.timeslots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timeslot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslot")
	}
	return slot, nil
}

// CreateTimeslot adds a timeslot with an ordered time window.
func (s *RosterService) CreateTimeslot(ctx context.Context, req dto.CreateTimeslotRequest) (*models.Timeslot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeslot payload")
	}
	if err := ensureOrderedWindow(req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}
	label := req.Label
	if label == "" {
		label = req.StartsAt + "-" + req.EndsAt
	}
	slot := &models.Timeslot{
		Label:    label,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Active:   true,
	}
	if err := s.timeslots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timeslot")
	}
	return slot, nil
}

// UpdateTimeslot modifies an existing timeslot.
func (s *RosterService) UpdateTimeslot(ctx context.Context, id string, req dto.UpdateTimeslotRequest) (*models.Timeslot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeslot payload")
	}
	if err := ensureOrderedWindow(req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}
	slot, err := s.GetTimeslot(ctx, id)
	if err != nil {
		return nil, err
	}
	slot.Label = req.Label
	if slot.Label == "" {
		slot.Label = req.StartsAt + "-" + req.EndsAt
	}
	slot.StartsAt = req.StartsAt
	slot.EndsAt = req.EndsAt
	if req.Active != nil {
		slot.Active = *req.Active
	}
	if err := s.timeslots.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timeslot")
	}
	return slot, nil
}

// DeactivateTimeslot soft-deletes a timeslot.
func (s *RosterService) DeactivateTimeslot(ctx context.Context, id string) error {
	if _, err := s.GetTimeslot(ctx, id); err != nil {
		return err
	}
	if err := s.timeslots.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate timeslot")
	}
	return nil
}

func (s *RosterService) ensureResponsible(ctx context.Context, instructorID string) error {
	instructor, err := s.instructors.FindByID(ctx, instructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "responsible instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responsible instructor")
	}
	if !instructor.Active {
		return appErrors.Clone(appErrors.ErrValidation, "responsible instructor is inactive")
	}
	return nil
}

func ensureOrderedWindow(start, end string) error {
	startAt, err := time.Parse("15:04", start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "startsAt must be HH:MM")
	}
	endAt, err := time.Parse("15:04", end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "endsAt must be HH:MM")
	}
	if !endAt.After(startAt) {
		return appErrors.Clone(appErrors.ErrValidation, "endsAt must be after startsAt")
	}
	return nil
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
