package main

import (
	"context"
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

	_ "github.com/fieldside/clubcal-api/api/swagger"
	"github.com/fieldside/clubcal-api/internal/handler"
	internalmiddleware "github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/models"
	"github.com/fieldside/clubcal-api/internal/repository"
	"github.com/fieldside/clubcal-api/internal/service"
	"github.com/fieldside/clubcal-api/pkg/cache"
	"github.com/fieldside/clubcal-api/pkg/config"
	"github.com/fieldside/clubcal-api/pkg/database"
	"github.com/fieldside/clubcal-api/pkg/logger"
	corsmiddleware "github.com/fieldside/clubcal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fieldside/clubcal-api/pkg/middleware/requestid"
	"github.com/fieldside/clubcal-api/pkg/storage"
)

// @title ClubCal API
// @version 1.0.0
// @description Recurring schedule, attendance, and tuition billing API for sports clubs.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	tuitionRepo := repository.NewTuitionRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT, logr)
	activitySvc := service.NewActivityService(activityRepo, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheRepo, validate, logr, metricsSvc,
		cfg.Schedules.MaterializeHorizon, cfg.Schedules.CacheTTL)
	visibilitySvc := service.NewVisibilityService(categoryRepo, studentRepo, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, scheduleRepo, activitySvc, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, activitySvc, validate, logr)
	teamSvc := service.NewTeamService(teamRepo, activitySvc, validate, logr)
	tuitionSvc := service.NewTuitionService(tuitionRepo, studentRepo, teamRepo, activitySvc, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, visibilitySvc, validate, logr)

	var statementSvc *service.StatementService
	if cfg.Statements.Enabled {
		store, serr := storage.NewLocalStorage(cfg.Statements.StorageDir)
		if serr != nil {
			logr.Sugar().Fatalw("statement storage init failed", "error", serr)
		}
		signer := storage.NewSignedURLSigner(cfg.Statements.SignedURLSecret, cfg.Statements.SignedURLTTL)
		statementSvc = service.NewStatementService(tuitionRepo, studentRepo, teamRepo, store, signer,
			cfg.Statements.WorkerConcurrency, cfg.Statements.WorkerRetries, logr)
	}

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, visibilitySvc, metricsSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, scheduleSvc, visibilitySvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	teamHandler := handler.NewTeamHandler(teamSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	tuitionHandler := handler.NewTuitionHandler(tuitionSvc, metricsSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	var statementHandler *handler.StatementHandler
	if statementSvc != nil {
		statementHandler = handler.NewStatementHandler(statementSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoach)
	anyRole := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoach, models.RoleStudent)

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokenSvc))
	{
		api.GET("/schedules", anyRole, scheduleHandler.List)
		api.GET("/schedules/:id", anyRole, scheduleHandler.Get)
		api.POST("/schedules", staff,
			internalmiddleware.Audit(activitySvc, "schedule.create", "schedule"), scheduleHandler.Create)
		api.PUT("/schedules/:id", staff,
			internalmiddleware.Audit(activitySvc, "schedule.update", "schedule"), scheduleHandler.Update)
		api.DELETE("/schedules/:id", staff,
			internalmiddleware.Audit(activitySvc, "schedule.delete", "schedule"), scheduleHandler.Delete)
		api.GET("/schedules/:id/attendances", anyRole, attendanceHandler.Roster)

		api.POST("/attendances", anyRole, attendanceHandler.SetStatus)
		api.POST("/attendances/:id/transfer", staff, attendanceHandler.Transfer)

		api.GET("/categories", anyRole, categoryHandler.List)
		api.POST("/categories", staff,
			internalmiddleware.Audit(activitySvc, "category.create", "category"), categoryHandler.Create)
		api.PUT("/categories/reorder", staff,
			internalmiddleware.Audit(activitySvc, "category.reorder", "category"), categoryHandler.Reorder)
		// Older clients post to the batch spelling; same handler either way.
		api.POST("/categories/reorder-batch", staff,
			internalmiddleware.Audit(activitySvc, "category.reorder", "category"), categoryHandler.Reorder)
		api.PUT("/categories/:id", staff,
			internalmiddleware.Audit(activitySvc, "category.update", "category"), categoryHandler.Update)
		api.DELETE("/categories/:id", staff,
			internalmiddleware.Audit(activitySvc, "category.delete", "category"), categoryHandler.Delete)

		api.GET("/team", staff, teamHandler.Get)
		api.PUT("/team/fees", staff, teamHandler.UpdateFees)

		api.GET("/students", staff, studentHandler.List)
		api.GET("/students/:id", anyRole, studentHandler.Get)
		api.PUT("/students/:id/player-type", staff, studentHandler.UpdatePlayerType)
		api.PUT("/students/:id/categories", staff, studentHandler.ReplaceCategories)

		api.GET("/tuition-payments", staff, tuitionHandler.List)
		api.POST("/tuition-payments/generate", staff, tuitionHandler.Generate)
		api.POST("/tuition-payments/reset-unpaid", staff, tuitionHandler.ResetUnpaid)
		api.PUT("/tuition-payments/:id", staff, tuitionHandler.Update)
		api.POST("/tuition-payments/:id/mark-paid", staff, tuitionHandler.MarkPaid)

		if statementHandler != nil {
			api.POST("/tuition-payments/statements", staff, statementHandler.Enqueue)
			api.GET("/tuition-payments/statements/:id", staff, statementHandler.Get)
		}

		api.GET("/documents", anyRole, documentHandler.List)
		api.POST("/documents", staff,
			internalmiddleware.Audit(activitySvc, "document.create", "document"), documentHandler.Create)
		api.DELETE("/documents/:id", staff,
			internalmiddleware.Audit(activitySvc, "document.delete", "document"), documentHandler.Delete)

		api.GET("/activity", staff, activityHandler.List)
	}

	// Download authenticates through the signed token, not a bearer token.
	if statementHandler != nil {
		r.GET(cfg.APIPrefix+"/tuition-payments/statements/download", statementHandler.Download)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if statementSvc != nil {
		statementSvc.Start(rootCtx)
		defer statementSvc.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
