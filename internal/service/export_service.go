package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
	"github.com/noah-isme/defense-scheduler-api/pkg/export"
	"github.com/noah-isme/defense-scheduler-api/pkg/storage"
)

type exportRunSource interface {
	Get(ctx context.Context, id string) (*models.SolverRun, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportResult captures a rendered export together with its download
// coordinates. The payload is returned inline; the stored copy stays
// downloadable under the signed token until cleanup.
type ExportResult struct {
	Payload      []byte
	Filename     string
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ExportService renders finished runs into CSV or PDF artifacts and
// manages their on-disk lifetime.
type ExportService struct {
	runs        exportRunSource
	instructors rosterInstructorSource
	projects    rosterProjectSource
	classrooms  rosterClassroomSource
	timeslots   rosterTimeslotSource
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(
	runs exportRunSource,
	instructors rosterInstructorSource,
	projects rosterProjectSource,
	classrooms rosterClassroomSource,
	timeslots rosterTimeslotSource,
	store fileStorage,
	signer *storage.SignedURLSigner,
	cfg ExportConfig,
	logger *zap.Logger,
	csv csvRenderer,
	pdf pdfRenderer,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		runs:        runs,
		instructors: instructors,
		projects:    projects,
		classrooms:  classrooms,
		timeslots:   timeslots,
		storage:     store,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate renders a finished run into the requested format and stores the
// artifact under a signed download token.
func (s *ExportService) Generate(ctx context.Context, runID string, kind models.ExportKind, format models.ExportFormat) (*ExportResult, error) {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solver run not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solver run")
	}
	if run.Status != models.RunStatusFinished || run.Result == nil {
		return nil, appErrors.Clone(appErrors.ErrRunNotFinished, "only finished runs can be exported")
	}

	names, err := s.loadNames(ctx)
	if err != nil {
		return nil, err
	}

	var dataset export.Dataset
	switch kind {
	case models.ExportKindSchedule, "":
		dataset = buildScheduleDataset(run, names)
	case models.ExportKindLoads:
		dataset = buildLoadDataset(run, names)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export kind %q", kind))
	}

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := buildExportFilename(run.ID, kind, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(run.ID, relPath)
	if err != nil {
		// Nothing will ever reference the stored file without a token.
		_ = s.storage.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export url")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		Payload:      payload,
		Filename:     filename,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ResolveDownload validates a download token and opens the stored file.
// The run document may already have expired; the signed token alone
// authorizes the download.
func (s *ExportService) ResolveDownload(token string) (*ExportDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	parts := strings.Split(relPath, "/")
	return &ExportDownload{
		File:      file,
		Filename:  parts[len(parts)-1],
		ExpiresAt: expiresAt,
	}, nil
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL
// when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup(0)
				if err != nil {
					s.logger.Sugar().Warnw("export cleanup failed", "error", err)
					continue
				}
				if len(removed) > 0 {
					s.logger.Sugar().Infow("expired exports removed", "count", len(removed))
				}
			}
		}
	}()
}

// rosterNames maps external ids onto display fields for export rows.
type rosterNames struct {
	instructorName     map[string]string
	instructorCategory map[string]string
	projectTitle       map[string]string
	projectStudent     map[string]string
	projectKind        map[string]string
	classroomName      map[string]string
	timeslotWindow     map[string]string
}

func (s *ExportService) loadNames(ctx context.Context) (*rosterNames, error) {
	instructors, err := s.instructors.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load projects")
	}
	classrooms, err := s.classrooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	timeslots, err := s.timeslots.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}

	names := &rosterNames{
		instructorName:     make(map[string]string, len(instructors)),
		instructorCategory: make(map[string]string, len(instructors)),
		projectTitle:       make(map[string]string, len(projects)),
		projectStudent:     make(map[string]string, len(projects)),
		projectKind:        make(map[string]string, len(projects)),
		classroomName:      make(map[string]string, len(classrooms)),
		timeslotWindow:     make(map[string]string, len(timeslots)),
	}
	for _, item := range instructors {
		names.instructorName[item.ID] = item.FullName
		names.instructorCategory[item.ID] = item.Category
	}
	for _, item := range projects {
		names.projectTitle[item.ID] = item.Title
		names.projectStudent[item.ID] = item.StudentName
		names.projectKind[item.ID] = item.Kind
	}
	for _, item := range classrooms {
		names.classroomName[item.ID] = item.Name
	}
	for _, item := range timeslots {
		names.timeslotWindow[item.ID] = fmt.Sprintf("%s-%s", item.StartsAt, item.EndsAt)
	}
	return names, nil
}

func (n *rosterNames) instructor(id string) string {
	if name, ok := n.instructorName[id]; ok && name != "" {
		return name
	}
	return id
}

func (n *rosterNames) lookup(m map[string]string, id string) string {
	if v, ok := m[id]; ok && v != "" {
		return v
	}
	return id
}

func runMeta(run *models.SolverRun) []export.MetaEntry {
	meta := []export.MetaEntry{
		{Key: "Run", Value: shortRunID(run.ID)},
		{Key: "Strategy", Value: run.Params.Strategy},
		{Key: "Score", Value: fmt.Sprintf("%.2f", run.Result.Score)},
	}
	if run.FinishedAt != nil {
		meta = append(meta, export.MetaEntry{Key: "Finished", Value: run.FinishedAt.UTC().Format(time.RFC3339)})
	}
	return meta
}

func buildScheduleDataset(run *models.SolverRun, names *rosterNames) export.Dataset {
	rows := make([]map[string]string, 0, len(run.Result.Assignments))
	for _, rec := range run.Result.Assignments {
		slate := lo.Map(rec.InstructorIDs, func(id string, _ int) string {
			return names.instructor(id)
		})
		rows = append(rows, map[string]string{
			"Starts At": rec.StartsAt,
			"Timeslot":  names.lookup(names.timeslotWindow, rec.TimeslotID),
			"Classroom": names.lookup(names.classroomName, rec.ClassroomID),
			"Project":   names.lookup(names.projectTitle, rec.ProjectID),
			"Student":   names.lookup(names.projectStudent, rec.ProjectID),
			"Kind":      names.lookup(names.projectKind, rec.ProjectID),
			"Committee": strings.Join(slate, "; "),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Defense Schedule %s", shortRunID(run.ID)),
		Meta:    runMeta(run),
		Headers: []string{"Starts At", "Timeslot", "Classroom", "Project", "Student", "Kind", "Committee"},
		Rows:    rows,
	}
}

func buildLoadDataset(run *models.SolverRun, names *rosterNames) export.Dataset {
	type loadRow struct {
		total       int
		responsible int
		jury        int
	}
	loads := make(map[string]*loadRow)
	order := make([]string, 0)
	for _, rec := range run.Result.Assignments {
		for i, id := range rec.InstructorIDs {
			row, ok := loads[id]
			if !ok {
				row = &loadRow{}
				loads[id] = row
				order = append(order, id)
			}
			row.total++
			if i == 0 {
				row.responsible++
			} else {
				row.jury++
			}
		}
	}

	rows := make([]map[string]string, 0, len(order))
	for _, id := range order {
		row := loads[id]
		rows = append(rows, map[string]string{
			"Instructor":  names.instructor(id),
			"Category":    names.lookup(names.instructorCategory, id),
			"Sessions":    fmt.Sprintf("%d", row.total),
			"Responsible": fmt.Sprintf("%d", row.responsible),
			"Jury":        fmt.Sprintf("%d", row.jury),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Instructor Loads %s", shortRunID(run.ID)),
		Meta:    runMeta(run),
		Headers: []string{"Instructor", "Category", "Sessions", "Responsible", "Jury"},
		Rows:    rows,
	}
}

func buildExportFilename(runID string, kind models.ExportKind, format models.ExportFormat) string {
	if kind == "" {
		kind = models.ExportKindSchedule
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("defense_%s_%s_%s.%s", kind, shortRunID(runID), timestamp, format)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
