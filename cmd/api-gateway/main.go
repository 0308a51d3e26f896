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

	_ "github.com/ahmad-watoo/ams-api/api/swagger"
	"github.com/ahmad-watoo/ams-api/internal/handler"
	"github.com/ahmad-watoo/ams-api/internal/middleware"
	"github.com/ahmad-watoo/ams-api/internal/models"
	"github.com/ahmad-watoo/ams-api/internal/repository"
	"github.com/ahmad-watoo/ams-api/internal/service"
	"github.com/ahmad-watoo/ams-api/pkg/cache"
	"github.com/ahmad-watoo/ams-api/pkg/config"
	"github.com/ahmad-watoo/ams-api/pkg/database"
	"github.com/ahmad-watoo/ams-api/pkg/export"
	"github.com/ahmad-watoo/ams-api/pkg/jobs"
	"github.com/ahmad-watoo/ams-api/pkg/logger"
	corsmiddleware "github.com/ahmad-watoo/ams-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ahmad-watoo/ams-api/pkg/middleware/requestid"
	"github.com/ahmad-watoo/ams-api/pkg/storage"
)

// @title AMS API
// @version 1.0.0
// @description Academy management system backend
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	examRepo := repository.NewExamRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	learningRepo := repository.NewLearningRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	// Certificate rendering and storage.
	certificateStore, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init certificate storage", "error", err)
	}
	certificateSigner := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	pdfExporter := export.NewPDFExporter()

	// Services.
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, validate, logr)
	academicSvc := service.NewAcademicService(academicRepo, validate, logr)
	examSvc := service.NewExamService(examRepo, validate, logr)
	financeSvc := service.NewFinanceService(financeRepo, validate, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, validate, logr)
	librarySvc := service.NewLibraryService(libraryRepo, service.LibraryPolicy{
		FinePerDay:  cfg.Library.FinePerDay,
		LoanDays:    cfg.Library.LoanDays,
		RenewalDays: cfg.Library.RenewalDays,
		MaxRenewals: cfg.Library.MaxRenewals,
	}, validate, logr)
	learningSvc := service.NewLearningService(learningRepo, validate, logr)
	transferSvc := service.NewTransferService(transferRepo, studentRepo, validate, logr)

	// The certificate queue and service reference each other, so the queue is
	// built around a handler that is bound after construction.
	var certificateSvc *service.CertificateService
	certificateQueue := jobs.NewQueue("certificates", func(ctx context.Context, job jobs.Job) error {
		return certificateSvc.RenderJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Certificates.WorkerConcurrency,
		MaxRetries: cfg.Certificates.WorkerRetries,
		Logger:     logr,
	})
	certificateSvc = service.NewCertificateService(
		certificateRepo,
		studentRepo,
		pdfExporter,
		certificateStore,
		certificateSigner,
		certificateQueue,
		validate,
		logr,
	)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:     dashboardRepo,
		Finance:  financeRepo,
		Cache:    cacheSvc,
		Metrics:  metricsSvc,
		Logger:   logr,
		CacheTTL: cfg.Dashboard.CacheTTL,
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	admissionHandler := handler.NewAdmissionHandler(admissionSvc)
	academicHandler := handler.NewAcademicHandler(academicSvc)
	examHandler := handler.NewExamHandler(examSvc)
	financeHandler := handler.NewFinanceHandler(financeSvc, export.NewCSVExporter())
	payrollHandler := handler.NewPayrollHandler(payrollSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)
	libraryHandler := handler.NewLibraryHandler(librarySvc)
	learningHandler := handler.NewLearningHandler(learningSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc, certificateStore)
	transferHandler := handler.NewTransferHandler(transferSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public routes.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/certificates/verify/:code", certificateHandler.Verify)
	api.GET("/certificates/download", certificateHandler.Download)

	// Authenticated routes.
	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))

	auth.POST("/auth/logout", middleware.Audit(userRepo, models.AuditActionLogout, "auth"), authHandler.Logout)
	auth.POST("/auth/change-password", middleware.Audit(userRepo, models.AuditActionPasswordChange, "auth"), authHandler.ChangePassword)
	auth.GET("/auth/me", authHandler.Me)

	registrar := middleware.RBAC("ADMIN", "REGISTRAR")
	faculty := middleware.RBAC("ADMIN", "REGISTRAR", "FACULTY")
	accountant := middleware.RBAC("ADMIN", "ACCOUNTANT")
	hr := middleware.RBAC("ADMIN", "HR")
	librarian := middleware.RBAC("ADMIN", "LIBRARIAN")
	adminOnly := middleware.RBAC("ADMIN")

	auth.GET("/students", faculty, studentHandler.List)
	auth.GET("/students/:id", middleware.RBAC("ADMIN", "REGISTRAR", "FACULTY", "SELF"), studentHandler.Get)
	auth.POST("/students", registrar, middleware.Audit(userRepo, models.AuditActionCreate, "student"), studentHandler.Create)
	auth.PUT("/students/:id", registrar, middleware.Audit(userRepo, models.AuditActionUpdate, "student"), studentHandler.Update)
	auth.DELETE("/students/:id", registrar, middleware.Audit(userRepo, models.AuditActionDelete, "student"), studentHandler.Delete)
	auth.GET("/students/:id/transcript", middleware.RBAC("ADMIN", "REGISTRAR", "FACULTY", "SELF"), examHandler.Transcript)

	auth.GET("/admissions", registrar, admissionHandler.List)
	auth.GET("/admissions/merit-list", registrar, admissionHandler.MeritList)
	auth.GET("/admissions/:id", registrar, admissionHandler.Get)
	auth.POST("/admissions", registrar, middleware.Audit(userRepo, models.AuditActionCreate, "admission"), admissionHandler.Create)
	auth.POST("/admissions/:id/review", registrar, middleware.Audit(userRepo, models.AuditActionUpdate, "admission"), admissionHandler.Review)

	auth.GET("/campuses", academicHandler.ListCampuses)
	auth.POST("/campuses", adminOnly, academicHandler.CreateCampus)
	auth.GET("/programs", academicHandler.ListPrograms)
	auth.GET("/programs/:id", academicHandler.GetProgram)
	auth.POST("/programs", adminOnly, academicHandler.CreateProgram)
	auth.PUT("/programs/:id", adminOnly, academicHandler.UpdateProgram)
	auth.GET("/courses", academicHandler.ListCourses)
	auth.GET("/courses/:id", academicHandler.GetCourse)
	auth.POST("/courses", registrar, academicHandler.CreateCourse)
	auth.PUT("/courses/:id", registrar, academicHandler.UpdateCourse)

	auth.GET("/exams", examHandler.List)
	auth.GET("/exams/:id", examHandler.Get)
	auth.POST("/exams", faculty, examHandler.Create)
	auth.PUT("/exams/:id", faculty, examHandler.Update)
	auth.GET("/results", faculty, examHandler.ListResults)
	auth.POST("/exams/:id/results", faculty, middleware.Audit(userRepo, models.AuditActionCreate, "result"), examHandler.EnterResult)

	auth.GET("/fees/structures", accountant, financeHandler.ListFeeStructures)
	auth.GET("/fees/structure", accountant, financeHandler.GetFeeStructure)
	auth.PUT("/fees/structures", accountant, middleware.Audit(userRepo, models.AuditActionUpdate, "fee_structure"), financeHandler.UpsertFeeStructure)
	auth.GET("/fees/payments", accountant, financeHandler.ListPayments)
	auth.GET("/fees/payments/export", accountant, financeHandler.ExportPayments)
	auth.POST("/fees/payments", accountant, middleware.Audit(userRepo, models.AuditActionCreate, "fee_payment"), financeHandler.RecordPayment)

	auth.GET("/employees", hr, employeeHandler.List)
	auth.GET("/employees/:id", hr, employeeHandler.Get)
	auth.POST("/employees", hr, middleware.Audit(userRepo, models.AuditActionCreate, "employee"), employeeHandler.Create)
	auth.PUT("/employees/:id", hr, middleware.Audit(userRepo, models.AuditActionUpdate, "employee"), employeeHandler.Update)
	auth.DELETE("/employees/:id", hr, middleware.Audit(userRepo, models.AuditActionDelete, "employee"), employeeHandler.Delete)
	auth.GET("/employees/:id/salary-structure", hr, payrollHandler.GetActiveStructure)
	auth.GET("/employees/:id/salary-structures", hr, payrollHandler.ListStructures)

	auth.POST("/payroll/structures", hr, middleware.Audit(userRepo, models.AuditActionCreate, "salary_structure"), payrollHandler.CreateStructure)
	auth.POST("/payroll/process", hr, middleware.Audit(userRepo, models.AuditActionCreate, "salary_run"), payrollHandler.Process)
	auth.GET("/payroll/runs", hr, payrollHandler.List)
	auth.POST("/payroll/runs/:id/process", hr, middleware.Audit(userRepo, models.AuditActionUpdate, "salary_run"), payrollHandler.MarkProcessed)
	auth.POST("/payroll/runs/:id/approve", hr, middleware.Audit(userRepo, models.AuditActionUpdate, "salary_run"), payrollHandler.Approve)
	auth.POST("/payroll/runs/:id/pay", accountant, middleware.Audit(userRepo, models.AuditActionUpdate, "salary_run"), payrollHandler.MarkPaid)

	auth.GET("/library/books", libraryHandler.ListBooks)
	auth.GET("/library/books/:id", libraryHandler.GetBook)
	auth.POST("/library/books", librarian, libraryHandler.CreateBook)
	auth.PUT("/library/books/:id", librarian, libraryHandler.UpdateBook)
	auth.GET("/library/borrowings", librarian, libraryHandler.ListBorrowings)
	auth.POST("/library/borrowings", librarian, middleware.Audit(userRepo, models.AuditActionCreate, "borrowing"), libraryHandler.Borrow)
	auth.POST("/library/borrowings/:id/return", librarian, libraryHandler.Return)
	auth.POST("/library/borrowings/:id/renew", librarian, libraryHandler.Renew)
	auth.POST("/library/borrowings/flag-overdue", librarian, libraryHandler.FlagOverdue)

	auth.GET("/materials", learningHandler.ListMaterials)
	auth.POST("/materials", faculty, learningHandler.CreateMaterial)
	auth.DELETE("/materials/:id", faculty, learningHandler.DeleteMaterial)
	auth.GET("/assignments", learningHandler.ListAssignments)
	auth.POST("/assignments", faculty, learningHandler.CreateAssignment)
	auth.PUT("/assignments/:id", faculty, learningHandler.UpdateAssignment)

	auth.GET("/certificates/requests", registrar, certificateHandler.ListRequests)
	auth.GET("/certificates/requests/:id", registrar, certificateHandler.GetRequest)
	auth.POST("/certificates/requests", middleware.RBAC("ADMIN", "REGISTRAR", "STUDENT"), certificateHandler.Request)
	auth.POST("/certificates/requests/:id/review", registrar, middleware.Audit(userRepo, models.AuditActionUpdate, "certificate_request"), certificateHandler.Review)
	auth.POST("/certificates/requests/:id/fee", accountant, certificateHandler.MarkFeePaid)
	auth.POST("/certificates/requests/:id/process", registrar, certificateHandler.Process)
	auth.POST("/certificates/requests/:id/download-token", registrar, certificateHandler.DownloadToken)

	auth.GET("/transfers", registrar, transferHandler.List)
	auth.GET("/transfers/:id", registrar, transferHandler.Get)
	auth.POST("/transfers", registrar, middleware.Audit(userRepo, models.AuditActionCreate, "transfer"), transferHandler.Request)
	auth.POST("/transfers/:id/review", registrar, middleware.Audit(userRepo, models.AuditActionUpdate, "transfer"), transferHandler.Review)
	auth.POST("/transfers/:id/complete", registrar, middleware.Audit(userRepo, models.AuditActionUpdate, "transfer"), transferHandler.Complete)

	auth.GET("/dashboard/summary", adminOnly, dashboardHandler.Summary)
	auth.POST("/dashboard/summary/invalidate", adminOnly, dashboardHandler.Invalidate)
	auth.GET("/dashboard/system", adminOnly, dashboardHandler.System)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	certificateQueue.Start(ctx)
	defer certificateQueue.Stop()

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
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
