package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/defense-scheduler-api/internal/dto"
	"github.com/noah-isme/defense-scheduler-api/internal/engine"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	"github.com/noah-isme/defense-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
	"github.com/noah-isme/defense-scheduler-api/pkg/response"
)

type solverRunner interface {
	StartRun(ctx context.Context, req dto.StartRunRequest, actorID string) (*dto.RunResponse, error)
	GetRun(ctx context.Context, id string) (*dto.RunResponse, error)
	ListRuns(ctx context.Context) ([]dto.RunSummary, error)
	DeleteRun(ctx context.Context, id string) error
	ValidateAssignments(ctx context.Context, req dto.ValidateRequest) (*engine.ValidationReport, error)
	SaveRun(ctx context.Context, runID string, req dto.SaveScheduleRequest, actorID string) (*dto.SavedScheduleResponse, error)
	ListSchedules(ctx context.Context, page, pageSize int) ([]dto.SavedScheduleResponse, int, error)
	GetSchedule(ctx context.Context, id string) (*models.SavedSchedule, []models.SavedAssignment, error)
	DeleteSchedule(ctx context.Context, id string) error
	Strategies() dto.StrategyListResponse
}

// SolverHandler exposes defense scheduling endpoints.
type SolverHandler struct {
	service solverRunner
}

// NewSolverHandler constructs the handler.
func NewSolverHandler(svc *service.SolverService) *SolverHandler {
	return &SolverHandler{service: svc}
}

// StartRun godoc
// @Summary Start a solver run
// @Description Kicks off a defense scheduling run. Small time budgets solve inline; larger ones are queued and polled via GET.
// @Tags Solver
// @Accept json
// @Produce json
// @Param payload body dto.StartRunRequest true "Run parameters"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /solver/runs [post]
func (h *SolverHandler) StartRun(c *gin.Context) {
	var req dto.StartRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	run, err := h.service.StartRun(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if run.Status == models.RunStatusFinished || run.Status == models.RunStatusFailed {
		response.JSON(c, http.StatusOK, run, nil)
		return
	}
	response.Accepted(c, run)
}

// ListRuns godoc
// @Summary List solver runs
// @Tags Solver
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /solver/runs [get]
func (h *SolverHandler) ListRuns(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

// GetRun godoc
// @Summary Get solver run status and result
// @Tags Solver
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /solver/runs/{id} [get]
func (h *SolverHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// DeleteRun godoc
// @Summary Discard a solver run
// @Tags Solver
// @Param id path string true "Run ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /solver/runs/{id} [delete]
func (h *SolverHandler) DeleteRun(c *gin.Context) {
	if err := h.service.DeleteRun(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Validate godoc
// @Summary Validate an assignment list
// @Description Checks a posted assignment list against the active roster and returns the full validation report.
// @Tags Solver
// @Accept json
// @Produce json
// @Param payload body dto.ValidateRequest true "Assignments to validate"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /solver/validate [post]
func (h *SolverHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validate payload"))
		return
	}

	report, err := h.service.ValidateAssignments(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// SaveRun godoc
// @Summary Persist a finished run as a saved schedule
// @Tags Solver
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Param payload body dto.SaveScheduleRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /solver/runs/{id}/save [post]
func (h *SolverHandler) SaveRun(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	saved, err := h.service.SaveRun(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// Strategies godoc
// @Summary List available solver strategies
// @Tags Solver
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /solver/strategies [get]
func (h *SolverHandler) Strategies(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Strategies(), nil)
}

// ListSchedules godoc
// @Summary List saved schedules
// @Tags Schedules
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *SolverHandler) ListSchedules(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	schedules, total, err := h.service.ListSchedules(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	response.JSON(c, http.StatusOK, schedules, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total})
}

// GetSchedule godoc
// @Summary Get a saved schedule with assignments
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *SolverHandler) GetSchedule(c *gin.Context) {
	schedule, assignments, err := h.service.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"schedule": schedule, "assignments": assignments}, nil)
}

// DeleteSchedule godoc
// @Summary Delete a saved schedule
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *SolverHandler) DeleteSchedule(c *gin.Context) {
	if err := h.service.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
