package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/defense-scheduler-api/internal/dto"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	"github.com/noah-isme/defense-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
	"github.com/noah-isme/defense-scheduler-api/pkg/response"
)

// RosterHandler handles instructor, project, classroom, and timeslot endpoints.
type RosterHandler struct {
	service *service.RosterService
}

// NewRosterHandler constructs a roster handler.
func NewRosterHandler(svc *service.RosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// ListInstructors godoc
// @Summary List instructors
// @Tags Roster
// @Produce json
// @Param search query string false "Search keyword"
// @Param category query string false "senior or junior"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *RosterHandler) ListInstructors(c *gin.Context) {
	var filter models.InstructorFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	filter.Active, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder = listParams(c)

	instructors, pagination, err := h.service.ListInstructors(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, pagination)
}

// GetInstructor godoc
// @Summary Get instructor by id
// @Tags Roster
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [get]
func (h *RosterHandler) GetInstructor(c *gin.Context) {
	instructor, err := h.service.GetInstructor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// CreateInstructor godoc
// @Summary Create instructor
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.CreateInstructorRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Router /instructors [post]
func (h *RosterHandler) CreateInstructor(c *gin.Context) {
	var req dto.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.service.CreateInstructor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// UpdateInstructor godoc
// @Summary Update instructor
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body dto.UpdateInstructorRequest true "Instructor payload"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [put]
func (h *RosterHandler) UpdateInstructor(c *gin.Context) {
	var req dto.UpdateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.service.UpdateInstructor(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// DeleteInstructor godoc
// @Summary Deactivate instructor
// @Tags Roster
// @Param id path string true "Instructor ID"
// @Success 204
// @Router /instructors/{id} [delete]
func (h *RosterHandler) DeleteInstructor(c *gin.Context) {
	if err := h.service.DeactivateInstructor(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListProjects godoc
// @Summary List projects
// @Tags Roster
// @Produce json
// @Param search query string false "Search keyword"
// @Param kind query string false "interim or final"
// @Param makeup query bool false "Makeup filter"
// @Param responsibleId query string false "Responsible instructor"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *RosterHandler) ListProjects(c *gin.Context) {
	var filter models.ProjectFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if kind := c.Query("kind"); kind != "" {
		filter.Kind = &kind
	}
	if makeup := c.Query("makeup"); makeup != "" {
		if val, err := strconv.ParseBool(makeup); err == nil {
			filter.Makeup = &val
		}
	}
	if responsible := c.Query("responsibleId"); responsible != "" {
		filter.ResponsibleID = &responsible
	}
	filter.Active, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder = listParams(c)

	projects, pagination, err := h.service.ListProjects(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, pagination)
}

// GetProject godoc
// @Summary Get project by id
// @Tags Roster
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *RosterHandler) GetProject(c *gin.Context) {
	project, err := h.service.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// CreateProject godoc
// @Summary Create project
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Router /projects [post]
func (h *RosterHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.service.CreateProject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// UpdateProject godoc
// @Summary Update project
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.UpdateProjectRequest true "Project payload"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [put]
func (h *RosterHandler) UpdateProject(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.service.UpdateProject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// DeleteProject godoc
// @Summary Deactivate project
// @Tags Roster
// @Param id path string true "Project ID"
// @Success 204
// @Router /projects/{id} [delete]
func (h *RosterHandler) DeleteProject(c *gin.Context) {
	if err := h.service.DeactivateProject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Roster
// @Produce json
// @Param search query string false "Search keyword"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *RosterHandler) ListClassrooms(c *gin.Context) {
	var filter models.ClassroomFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder = listParams(c)

	classrooms, pagination, err := h.service.ListClassrooms(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, pagination)
}

// GetClassroom godoc
// @Summary Get classroom by id
// @Tags Roster
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *RosterHandler) GetClassroom(c *gin.Context) {
	classroom, err := h.service.GetClassroom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom, nil)
}

// CreateClassroom godoc
// @Summary Create classroom
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Router /classrooms [post]
func (h *RosterHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.service.CreateClassroom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classroom)
}

// UpdateClassroom godoc
// @Summary Update classroom
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Classroom ID"
// @Param payload body dto.UpdateClassroomRequest true "Classroom payload"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id} [put]
func (h *RosterHandler) UpdateClassroom(c *gin.Context) {
	var req dto.UpdateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.service.UpdateClassroom(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom, nil)
}

// DeleteClassroom godoc
// @Summary Deactivate classroom
// @Tags Roster
// @Param id path string true "Classroom ID"
// @Success 204
// @Router /classrooms/{id} [delete]
func (h *RosterHandler) DeleteClassroom(c *gin.Context) {
	if err := h.service.DeactivateClassroom(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTimeslots godoc
// @Summary List timeslots
// @Tags Roster
// @Produce json
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timeslots [get]
func (h *RosterHandler) ListTimeslots(c *gin.Context) {
	var filter models.TimeslotFilter
	filter.Active, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder = listParams(c)

	timeslots, pagination, err := h.service.ListTimeslots(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timeslots, pagination)
}

// GetTimeslot godoc
// @Summary Get timeslot by id
// @Tags Roster
// @Produce json
// @Param id path string true "Timeslot ID"
// @Success 200 {object} response.Envelope
// @Router /timeslots/{id} [get]
func (h *RosterHandler) GetTimeslot(c *gin.Context) {
	slot, err := h.service.GetTimeslot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// CreateTimeslot godoc
// @Summary Create timeslot
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimeslotRequest true "Timeslot payload"
// @Success 201 {object} response.Envelope
// @Router /timeslots [post]
func (h *RosterHandler) CreateTimeslot(c *gin.Context) {
	var req dto.CreateTimeslotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.CreateTimeslot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// UpdateTimeslot godoc
// @Summary Update timeslot
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Timeslot ID"
// @Param payload body dto.UpdateTimeslotRequest true "Timeslot payload"
// @Success 200 {object} response.Envelope
// @Router /timeslots/{id} [put]
func (h *RosterHandler) UpdateTimeslot(c *gin.Context) {
	var req dto.UpdateTimeslotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.UpdateTimeslot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// DeleteTimeslot godoc
// @Summary Deactivate timeslot
// @Tags Roster
// @Param id path string true "Timeslot ID"
// @Success 204
// @Router /timeslots/{id} [delete]
func (h *RosterHandler) DeleteTimeslot(c *gin.Context) {
	if err := h.service.DeactivateTimeslot(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func listParams(c *gin.Context) (active *bool, page, pageSize int, sortBy, sortOrder string) {
	if raw := c.Query("active"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			active = &val
		}
	}
	page = 1
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = p
	}
	pageSize = 20
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		pageSize = size
	}
	return active, page, pageSize, c.Query("sort"), c.Query("order")
}
