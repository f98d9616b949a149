package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/defense-scheduler-api/internal/models"
	"github.com/noah-isme/defense-scheduler-api/internal/service"
	"github.com/noah-isme/defense-scheduler-api/pkg/response"
)

type exporter interface {
	Generate(ctx context.Context, runID string, kind models.ExportKind, format models.ExportFormat) (*service.ExportResult, error)
	ResolveDownload(token string) (*service.ExportDownload, error)
}

// ExportHandler streams run exports and signed downloads.
type ExportHandler struct {
	service exporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export a finished run as CSV or PDF
// @Description Renders the run's timetable (kind=schedule) or per-instructor load table (kind=loads). The response streams the file; X-Download-URL carries a signed link valid until X-Download-Expires.
// @Tags Solver
// @Produce octet-stream
// @Param id path string true "Run ID"
// @Param format query string false "csv or pdf" default(csv)
// @Param kind query string false "schedule or loads" default(schedule)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /solver/runs/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))
	kind := models.ExportKind(c.DefaultQuery("kind", string(models.ExportKindSchedule)))

	result, err := h.service.Generate(c.Request.Context(), c.Param("id"), kind, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, result.Filename))
	c.Header("X-Download-URL", result.URL)
	c.Header("X-Download-Expires", result.ExpiresAt.UTC().Format(time.RFC3339))
	c.Data(http.StatusOK, contentTypeFor(result.Format), result.Payload)
}

// Download godoc
// @Summary Download a previously generated export
// @Description Resolves a signed token issued by the export endpoint. Works even after the originating run document has expired.
// @Tags Solver
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, download.Filename))
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeForFilename(download.Filename), download.File, nil)
}

func contentTypeFor(format models.ExportFormat) string {
	if format == models.ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

func contentTypeForFilename(name string) string {
	if len(name) > 4 && name[len(name)-4:] == ".pdf" {
		return "application/pdf"
	}
	return "text/csv"
}
