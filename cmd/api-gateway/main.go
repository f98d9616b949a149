package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/defense-scheduler-api/api/swagger"
	"github.com/noah-isme/defense-scheduler-api/internal/handler"
	"github.com/noah-isme/defense-scheduler-api/internal/middleware"
	"github.com/noah-isme/defense-scheduler-api/internal/models"
	"github.com/noah-isme/defense-scheduler-api/internal/repository"
	"github.com/noah-isme/defense-scheduler-api/internal/service"
	"github.com/noah-isme/defense-scheduler-api/pkg/cache"
	"github.com/noah-isme/defense-scheduler-api/pkg/config"
	"github.com/noah-isme/defense-scheduler-api/pkg/database"
	"github.com/noah-isme/defense-scheduler-api/pkg/jobs"
	"github.com/noah-isme/defense-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/defense-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/defense-scheduler-api/pkg/middleware/requestid"
	"github.com/noah-isme/defense-scheduler-api/pkg/storage"
)

// @title Defense Scheduler API
// @version 1.0.0
// @description Optimizing engine and REST surface for academic project defense scheduling
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	timeslotRepo := repository.NewTimeslotRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	runStore := repository.NewRunStoreRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "defense-scheduler-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	rosterSvc := service.NewRosterService(instructorRepo, projectRepo, classroomRepo, timeslotRepo, validate, logr)

	// The queue handler closes over solverSvc, assigned directly below;
	// jobs only flow after queue.Start.
	var solverSvc *service.SolverService
	queue := jobs.NewQueue("solver", func(ctx context.Context, job jobs.Job) error {
		return solverSvc.HandleJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Solver.WorkerConcurrency,
		BufferSize: 64,
		MaxRetries: cfg.Solver.WorkerRetries,
		RetryDelay: 5 * time.Second,
		// Headroom on top of the largest accepted budget covers roster
		// loading and the terminal store write.
		JobTimeout: cfg.Solver.MaxTimeBudget + 30*time.Second,
		Logger:     logr,
	})
	solverSvc = service.NewSolverService(
		instructorRepo, projectRepo, classroomRepo, timeslotRepo,
		runStore, scheduleRepo, queue, metricsSvc, validate, logr,
		service.SolverServiceConfig{
			DefaultStrategy: cfg.Solver.DefaultStrategy,
			TimeBudget:      cfg.Solver.TimeBudget,
			MaxTimeBudget:   cfg.Solver.MaxTimeBudget,
			MaxIterations:   cfg.Solver.MaxIterations,
			LoadTolerance:   cfg.Solver.LoadTolerance,
			RunTTL:          cfg.Solver.RunTTL,
			InlineBudget:    cfg.Solver.InlineBudget,
		},
	)

	exportSvc := service.NewExportService(
		runStore, instructorRepo, projectRepo, classroomRepo, timeslotRepo,
		exportStore, signer,
		service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		},
		logr, nil, nil,
	)

	queue.Start(ctx)
	solverSvc.RecoverPendingRuns(ctx)
	exportSvc.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	solverHandler := handler.NewSolverHandler(solverSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc,
		handler.ReadinessCheck{Name: "postgres", Probe: db.PingContext},
		handler.ReadinessCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	// Signed tokens are self-authorizing, downloads stay outside JWT.
	api.GET("/exports/:token", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	write := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	solver := protected.Group("/solver")
	solver.GET("/strategies", solverHandler.Strategies)
	solver.GET("/runs", solverHandler.ListRuns)
	solver.GET("/runs/:id", solverHandler.GetRun)
	solver.GET("/runs/:id/export", middleware.Audit(userRepo, models.AuditActionExport, "export"), exportHandler.Export)
	solver.POST("/validate", solverHandler.Validate)
	solver.POST("/runs", write, middleware.Audit(userRepo, models.AuditActionRunStart, "solver_run"), solverHandler.StartRun)
	solver.POST("/runs/:id/save", write, middleware.Audit(userRepo, models.AuditActionScheduleSave, "schedule"), solverHandler.SaveRun)
	solver.DELETE("/runs/:id", write, solverHandler.DeleteRun)

	schedules := protected.Group("/schedules")
	schedules.GET("", solverHandler.ListSchedules)
	schedules.GET("/:id", solverHandler.GetSchedule)
	schedules.DELETE("/:id", write, solverHandler.DeleteSchedule)

	registerRosterRoutes(protected, rosterHandler, userRepo, write)

	users := protected.Group("/users")
	users.GET("", adminOnly, userHandler.List)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
	users.POST("", adminOnly, userHandler.Create)
	users.PUT("/:id", adminOnly, userHandler.Update)
	users.DELETE("/:id", adminOnly, userHandler.Delete)

	protected.GET("/audit-logs", adminOnly, userHandler.ListAuditLogs)

	protected.GET("/metrics/summary", metricsHandler.Summary)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	queue.Stop()
	logr.Sugar().Infow("server stopped")
}

func registerRosterRoutes(group *gin.RouterGroup, h *handler.RosterHandler, userRepo *repository.UserRepository, write gin.HandlerFunc) {
	audit := func(resource string) gin.HandlerFunc {
		return middleware.Audit(userRepo, models.AuditActionRosterChange, resource)
	}

	instructors := group.Group("/instructors")
	instructors.GET("", h.ListInstructors)
	instructors.GET("/:id", h.GetInstructor)
	instructors.POST("", write, audit("instructor"), h.CreateInstructor)
	instructors.PUT("/:id", write, audit("instructor"), h.UpdateInstructor)
	instructors.DELETE("/:id", write, audit("instructor"), h.DeleteInstructor)

	projects := group.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.GET("/:id", h.GetProject)
	projects.POST("", write, audit("project"), h.CreateProject)
	projects.PUT("/:id", write, audit("project"), h.UpdateProject)
	projects.DELETE("/:id", write, audit("project"), h.DeleteProject)

	classrooms := group.Group("/classrooms")
	classrooms.GET("", h.ListClassrooms)
	classrooms.GET("/:id", h.GetClassroom)
	classrooms.POST("", write, audit("classroom"), h.CreateClassroom)
	classrooms.PUT("/:id", write, audit("classroom"), h.UpdateClassroom)
	classrooms.DELETE("/:id", write, audit("classroom"), h.DeleteClassroom)

	timeslots := group.Group("/timeslots")
	timeslots.GET("", h.ListTimeslots)
	timeslots.GET("/:id", h.GetTimeslot)
	timeslots.POST("", write, audit("timeslot"), h.CreateTimeslot)
	timeslots.PUT("/:id", write, audit("timeslot"), h.UpdateTimeslot)
	timeslots.DELETE("/:id", write, audit("timeslot"), h.DeleteTimeslot)
}
