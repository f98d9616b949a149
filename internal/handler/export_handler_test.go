package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/defense-scheduler-api/internal/models"
	"github.com/noah-isme/defense-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
)

type exporterMock struct {
	capturedRunID  string
	capturedKind   models.ExportKind
	capturedFormat models.ExportFormat
	generateResult *service.ExportResult
	generateErr    error
	downloadResult *service.ExportDownload
	downloadErr    error
}

func (m *exporterMock) Generate(_ context.Context, runID string, kind models.ExportKind, format models.ExportFormat) (*service.ExportResult, error) {
	m.capturedRunID = runID
	m.capturedKind = kind
	m.capturedFormat = format
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.generateResult, nil
}

func (m *exporterMock) ResolveDownload(_ string) (*service.ExportDownload, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	return m.downloadResult, nil
}

func TestExportHandlerStreamsCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exporterMock{generateResult: &service.ExportResult{
		Payload:   []byte("Starts At,Timeslot\n09:00,Morning A\n"),
		Filename:  "defense_schedule_run12345_20260601_090000.csv",
		URL:       "/api/v1/exports/tok",
		Format:    models.ExportFormatCSV,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	handler := &ExportHandler{service: mockSvc}
	router := gin.New()
	router.GET("/solver/runs/:id/export", handler.Export)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/solver/runs/run-1/export?format=csv&kind=schedule", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "run-1", mockSvc.capturedRunID)
	require.Equal(t, models.ExportKindSchedule, mockSvc.capturedKind)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	require.Equal(t, "/api/v1/exports/tok", w.Header().Get("X-Download-URL"))
	require.Contains(t, w.Body.String(), "Morning A")
}

func TestExportHandlerDefaultsToScheduleCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exporterMock{generateResult: &service.ExportResult{
		Payload:  []byte("x"),
		Filename: "defense_schedule.csv",
		Format:   models.ExportFormatCSV,
	}}
	handler := &ExportHandler{service: mockSvc}
	router := gin.New()
	router.GET("/solver/runs/:id/export", handler.Export)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/solver/runs/run-2/export", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.ExportFormatCSV, mockSvc.capturedFormat)
	require.Equal(t, models.ExportKindSchedule, mockSvc.capturedKind)
}

func TestExportHandlerUnfinishedRunConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exporterMock{generateErr: appErrors.Clone(appErrors.ErrRunNotFinished, "only finished runs can be exported")}
	handler := &ExportHandler{service: mockSvc}
	router := gin.New()
	router.GET("/solver/runs/:id/export", handler.Export)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/solver/runs/run-3/export?format=pdf", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	path := filepath.Join(dir, "defense_loads_run12345.csv")
	require.NoError(t, os.WriteFile(path, []byte("Instructor,Sessions\nSenior One,3\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	mockSvc := &exporterMock{downloadResult: &service.ExportDownload{
		File:      file,
		Filename:  "defense_loads_run12345.csv",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	handler := &ExportHandler{service: mockSvc}
	router := gin.New()
	router.GET("/exports/:token", handler.Download)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/sometoken", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Senior One")
	require.Contains(t, w.Header().Get("Content-Disposition"), "defense_loads_run12345.csv")
}

func TestExportHandlerDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exporterMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}
	handler := &ExportHandler{service: mockSvc}
	router := gin.New()
	router.GET("/exports/:token", handler.Download)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/exports/garbage", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}
