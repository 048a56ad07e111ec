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
	"go.uber.org/zap"

	_ "github.com/hyeongseol/academy-api/api/swagger"
	"github.com/hyeongseol/academy-api/internal/handler"
	"github.com/hyeongseol/academy-api/internal/middleware"
	"github.com/hyeongseol/academy-api/internal/repository"
	"github.com/hyeongseol/academy-api/internal/schedule"
	"github.com/hyeongseol/academy-api/internal/service"
	"github.com/hyeongseol/academy-api/pkg/cache"
	"github.com/hyeongseol/academy-api/pkg/config"
	"github.com/hyeongseol/academy-api/pkg/database"
	"github.com/hyeongseol/academy-api/pkg/jobs"
	"github.com/hyeongseol/academy-api/pkg/logger"
	corsmiddleware "github.com/hyeongseol/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hyeongseol/academy-api/pkg/middleware/requestid"
	"github.com/hyeongseol/academy-api/pkg/storage"
)

// @title Academy API
// @version 1.0.0
// @description Academy management dashboard: registries, assignments, attendance, timetables and reports
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// registry listings fall back to the store on every read
		logr.Warn("redis unavailable, registry cache disabled", zap.Error(err))
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositories
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	// shared plumbing
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Registry.CacheTTL, logr, cfg.Registry.CacheEnabled)
	storePolicy := service.NewStorePolicy(cfg.Store, metricsSvc)

	// services
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "academy-api",
	})
	teacherSvc := service.NewTeacherService(teacherRepo, classRepo, cacheSvc, storePolicy, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, cacheSvc, storePolicy, validate, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, enrollmentRepo, cacheSvc, storePolicy, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, cacheSvc, storePolicy, validate, logr)

	classifier := schedule.Classifier{LateAfter: cfg.Kiosk.LateAfter, EarlyBefore: cfg.Kiosk.EarlyBefore}
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, classRepo, classifier, cacheSvc, metricsSvc, storePolicy, validate, logr)

	timetableSvc := service.NewTimetableService(classRepo, enrollmentRepo, cacheSvc, storePolicy, cfg.Academy.Rooms, logr)
	summarySvc := service.NewSummaryService(studentSvc, enrollmentRepo, attendanceRepo, storePolicy, logr)
	qrSvc := service.NewQRService(studentSvc, logr)
	dashboardSvc := service.NewDashboardService(teacherRepo, studentRepo, classRepo, attendanceRepo, timetableSvc, storePolicy, cfg.Academy.Name, logr)

	// report pipeline
	reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(teacherRepo, studentRepo, classRepo, enrollmentRepo, attendanceRepo,
		reportStorage, signer, cfg.Academy.Name, cfg.APIPrefix+"/reports/download", logr)

	worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	if cfg.Reports.Enabled {
		queue.Start(ctx)
		defer queue.Stop()
	}

	reportSvc := service.NewReportService(reportRepo, queue, exportSvc, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: time.Hour,
	})
	reportSvc.StartCleanup(ctx)

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Teacher:    handler.NewTeacherHandler(teacherSvc),
		Student:    handler.NewStudentHandler(studentSvc, enrollmentSvc, summarySvc, qrSvc),
		Class:      handler.NewClassHandler(classSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Timetable:  handler.NewTimetableHandler(timetableSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Report:     handler.NewReportHandler(reportSvc, exportSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc),
	}, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
