package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/lifesaving-resources/instructor-api/internal/forms"
	"github.com/lifesaving-resources/instructor-api/internal/handler"
	"github.com/lifesaving-resources/instructor-api/internal/middleware"
	"github.com/lifesaving-resources/instructor-api/internal/repository"
	"github.com/lifesaving-resources/instructor-api/internal/service"
	"github.com/lifesaving-resources/instructor-api/pkg/cache"
	"github.com/lifesaving-resources/instructor-api/pkg/config"
	"github.com/lifesaving-resources/instructor-api/pkg/database"
	"github.com/lifesaving-resources/instructor-api/pkg/export"
	"github.com/lifesaving-resources/instructor-api/pkg/logger"
	"github.com/lifesaving-resources/instructor-api/pkg/mailer"
	corsmiddleware "github.com/lifesaving-resources/instructor-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lifesaving-resources/instructor-api/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}
	if !cfg.Reporting.CacheEnabled {
		redisClient = nil
	}

	validate := validator.New()

	instructorRepo := repository.NewInstructorRepository(db)
	certificationRepo := repository.NewCertificationRepository(db)
	courseRepo := repository.NewCourseHistoryRepository(db)
	assistantRepo := repository.NewAssistantHistoryRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	importLogRepo := repository.NewImportLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var mail mailer.Mailer = mailer.Noop{}
	if cfg.Mailer.Enabled && cfg.Mailer.APIKey != "" {
		mail = mailer.NewResend(cfg.Mailer.APIKey, cfg.Mailer.From, logr)
	}

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)
	certificationSvc := service.NewCertificationService(certificationRepo, instructorRepo, cfg.Certification, validate, logr)
	courseSvc := service.NewCourseHistoryService(courseRepo, instructorRepo, certificationRepo, validate, logr)
	assistantSvc := service.NewAssistantHistoryService(assistantRepo, logr)
	submissionSvc := service.NewSubmissionService(
		submissionRepo,
		instructorRepo,
		courseRepo,
		assistantRepo,
		certificationRepo,
		forms.Defaults(),
		mail,
		service.SubmissionNotifier{AdminEmail: cfg.Mailer.AdminEmail, EntryURL: cfg.Mailer.EntryURL},
		logr,
	)
	reportingSvc := service.NewReportingService(courseRepo, cacheRepo, cfg.Reporting.CacheTTL, logr)
	exportSvc := service.NewExportService(reportingSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	importSvc := service.NewImportService(instructorRepo, certificationRepo, courseRepo, assistantRepo, importLogRepo, logr)
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	certificationHandler := handler.NewCertificationHandler(certificationSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, assistantSvc, reportingSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, reportingSvc, metricsSvc)
	reportHandler := handler.NewReportHandler(reportingSvc, exportSvc)
	importHandler := handler.NewImportHandler(importSvc, reportingSvc)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/webhooks/forms", middleware.WebhookSecret(cfg.Webhook.Secret), submissionHandler.Intake)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/register", authHandler.Register)
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/instructors", instructorHandler.List)
	authed.POST("/instructors", instructorHandler.Create)
	authed.GET("/instructors/:id", instructorHandler.Get)
	authed.PUT("/instructors/:id", instructorHandler.Update)
	authed.DELETE("/instructors/:id", instructorHandler.Deactivate)

	authed.GET("/instructors/:id/status", certificationHandler.Status)
	authed.GET("/instructors/:id/certifications/:discipline", certificationHandler.Detail)
	authed.PUT("/instructors/:id/certifications", certificationHandler.SetOriginal)
	authed.POST("/instructors/:id/recertifications", certificationHandler.AddRecertification)
	authed.DELETE("/recertifications/:eventId", certificationHandler.DeleteRecertification)

	authed.GET("/instructors/:id/courses", courseHandler.List)
	authed.POST("/instructors/:id/courses", courseHandler.Record)
	authed.GET("/instructors/:id/courses/count", courseHandler.CountRecent)
	authed.GET("/instructors/:id/assists", courseHandler.ListAssists)
	authed.GET("/instructors/:id/led-assists", courseHandler.ListLedAssists)

	authed.GET("/submissions/unrecognized", submissionHandler.ListUnrecognized)
	authed.POST("/submissions/:id/dismiss", submissionHandler.Dismiss)
	authed.DELETE("/submissions/:id", submissionHandler.Delete)

	authed.GET("/reports/statistics", reportHandler.Statistics)
	authed.GET("/reports/statistics/export", reportHandler.Export)

	authed.POST("/imports/roster", importHandler.Roster)
	authed.GET("/imports", importHandler.History)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
