package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "meritboard/docs" // This is for Swagger
	"meritboard/internal/auth"
	"meritboard/internal/authz"
	"meritboard/internal/config"
	"meritboard/internal/database"
	"meritboard/internal/email"
	"meritboard/internal/handlers"
	"meritboard/internal/jobs"
	"meritboard/internal/logger"
	"meritboard/internal/middleware"
	"meritboard/internal/repository"
	"meritboard/internal/service"
	"meritboard/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title MeritBoard API
// @version 1.0
// @description Backend API for the MeritBoard academic scoring and review platform

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(cfg.Log.Level, "api")

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize blob store and checksum queue
	store, err := storage.NewDiskStore(cfg.Storage.Root)
	if err != nil {
		slog.Error("Failed to initialize blob store", "error", err)
		os.Exit(1)
	}
	queue := jobs.NewQueue(&cfg.Redis, cfg.Worker.QueueKey)
	defer queue.Close()

	// Initialize repositories
	studentRepo := repository.NewStudentRepository(db.DB)
	subjectRepo := repository.NewSubjectScoreRepository(db.DB)
	academicRepo := repository.NewAcademicExpertiseRepository(db.DB)
	comprehensiveRepo := repository.NewComprehensivePerformanceRepository(db.DB)
	limitRepo := repository.NewScoreLimitRepository(db.DB)
	ruleRepo := repository.NewCategoryRuleRepository(db.DB)
	rankingRepo := repository.NewRankingRepository(db.DB)
	volunteerRepo := repository.NewVolunteerRepository(db.DB)
	ticketRepo := repository.NewTicketRepository(db.DB)
	projectRepo := repository.NewProjectRepository(db.DB)
	selectionRepo := repository.NewSelectionRepository(db.DB)
	proofRepo := repository.NewProofReviewRepository(db.DB)
	fileRepo := repository.NewFileRepository(db.DB)
	dictRepo := repository.NewDictRepository(db.DB)
	policyRepo := repository.NewPolicyRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	auditService := service.NewAuditService(auditRepo)
	scoringService := service.NewScoringService(subjectRepo, academicRepo, comprehensiveRepo, proofRepo, limitRepo, rankingRepo, auditService)
	studentService := service.NewStudentService(studentRepo, authService, scoringService, auditService, cfg.App.EnableRegistration)
	reviewService := service.NewReviewService(volunteerRepo, ticketRepo, studentRepo, emailService, auditService)
	rulesService := service.NewRulesService(limitRepo, ruleRepo, proofRepo, academicRepo, comprehensiveRepo, store, auditService)
	programService := service.NewProgramService(projectRepo, selectionRepo, studentRepo, auditService)
	fileService := service.NewFileService(fileRepo, store, queue)
	dictService := service.NewDictService(dictRepo, auditService)
	policyService := service.NewPolicyService(policyRepo, fileRepo, auditService)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService, studentRepo)
	rbacMw := middleware.NewRBACMiddleware()
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	auditMw := middleware.NewAuditMiddleware(db.DB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(studentService)
	studentHandler := handlers.NewStudentHandler(studentService, scoringService)
	volunteerHandler := handlers.NewVolunteerHandler(reviewService)
	ticketHandler := handlers.NewTicketHandler(reviewService)
	rulesHandler := handlers.NewRulesHandler(rulesService, scoringService)
	programHandler := handlers.NewProgramHandler(programService)
	fileHandler := handlers.NewFileHandler(fileService)
	dictHandler := handlers.NewDictHandler(dictService)
	policyHandler := handlers.NewPolicyHandler(policyService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Route helpers
	authed := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(http.HandlerFunc(h))
	}
	perm := func(action, resource string, h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(rbacMw.RequirePermission(action, resource)(http.HandlerFunc(h)))
	}
	staff := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(rbacMw.RequireStaff(http.HandlerFunc(h)))
	}

	// Setup router
	mux := http.NewServeMux()

	// Public auth endpoints
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)

	// Own account
	mux.Handle("GET /api/v1/me", authed(authHandler.Me))
	mux.Handle("PUT /api/v1/me/password", authed(authHandler.ChangePassword))

	// Rankings and student administration
	mux.Handle("GET /api/v1/rankings", authed(studentHandler.Rankings))
	mux.Handle("GET /api/v1/students",
		perm(authz.ActionRead, authz.ResourceStudent, studentHandler.List))
	mux.Handle("GET /api/v1/students/{id}",
		perm(authz.ActionRead, authz.ResourceStudent, studentHandler.Get))
	mux.Handle("PUT /api/v1/students/{id}/role",
		perm(authz.ActionUpdate, authz.ResourceStudent, studentHandler.SetRole))
	mux.Handle("PUT /api/v1/students/{id}/active",
		perm(authz.ActionUpdate, authz.ResourceStudent, studentHandler.SetActive))

	// Score records; services scope students to their own rows
	mux.Handle("GET /api/v1/students/{id}/subject-score", authed(studentHandler.GetSubjectScore))
	mux.Handle("PUT /api/v1/students/{id}/subject-score", authed(studentHandler.SetSubjectScore))
	mux.Handle("GET /api/v1/students/{id}/academic-expertise", authed(studentHandler.ListAcademicExpertise))
	mux.Handle("POST /api/v1/students/{id}/academic-expertise", authed(studentHandler.AddAcademicExpertise))
	mux.Handle("PUT /api/v1/academic-expertise/{id}", authed(studentHandler.UpdateAcademicExpertise))
	mux.Handle("DELETE /api/v1/academic-expertise/{id}", authed(studentHandler.DeleteAcademicExpertise))
	mux.Handle("GET /api/v1/students/{id}/comprehensive-performance", authed(studentHandler.ListComprehensivePerformance))
	mux.Handle("POST /api/v1/students/{id}/comprehensive-performance", authed(studentHandler.AddComprehensivePerformance))
	mux.Handle("PUT /api/v1/comprehensive-performance/{id}", authed(studentHandler.UpdateComprehensivePerformance))
	mux.Handle("DELETE /api/v1/comprehensive-performance/{id}", authed(studentHandler.DeleteComprehensivePerformance))

	// Volunteer records
	mux.Handle("POST /api/v1/volunteer-records", authed(volunteerHandler.Create))
	mux.Handle("GET /api/v1/volunteer-records", authed(volunteerHandler.List))
	mux.Handle("GET /api/v1/volunteer-records/{id}", authed(volunteerHandler.Get))
	mux.Handle("PUT /api/v1/volunteer-records/{id}", authed(volunteerHandler.Update))
	mux.Handle("DELETE /api/v1/volunteer-records/{id}", authed(volunteerHandler.Delete))
	mux.Handle("POST /api/v1/volunteer-records/{id}/review",
		perm(authz.ActionReview, authz.ResourceVolunteerRecord, volunteerHandler.Review))
	mux.Handle("POST /api/v1/volunteer-records/{id}/override",
		perm(authz.ActionOverride, authz.ResourceVolunteerRecord, volunteerHandler.Override))

	// Student review tickets
	mux.Handle("POST /api/v1/review-tickets", authed(ticketHandler.Create))
	mux.Handle("GET /api/v1/review-tickets", authed(ticketHandler.List))
	mux.Handle("GET /api/v1/review-tickets/{id}", authed(ticketHandler.Get))
	mux.Handle("PUT /api/v1/review-tickets/{id}",
		perm(authz.ActionUpdate, authz.ResourceStudentTicket, ticketHandler.Update))
	mux.Handle("DELETE /api/v1/review-tickets/{id}",
		perm(authz.ActionDelete, authz.ResourceStudentTicket, ticketHandler.Delete))
	mux.Handle("POST /api/v1/review-tickets/{id}/review",
		perm(authz.ActionReview, authz.ResourceStudentTicket, ticketHandler.Review))
	mux.Handle("POST /api/v1/review-tickets/{id}/override",
		perm(authz.ActionOverride, authz.ResourceStudentTicket, ticketHandler.Override))

	// Score limits, category rules and proof reviews
	mux.Handle("GET /api/v1/score-limits", authed(rulesHandler.GetLimits))
	mux.Handle("PUT /api/v1/score-limits",
		perm(authz.ActionConfigure, authz.ResourceScoreLimit, rulesHandler.UpdateLimits))
	mux.Handle("GET /api/v1/category-rules", authed(rulesHandler.ListCategoryRules))
	mux.Handle("PUT /api/v1/category-rules",
		perm(authz.ActionConfigure, authz.ResourceCategoryRule, rulesHandler.ReplaceCategoryRules))
	mux.Handle("POST /api/v1/admin/scores/recompute",
		authMw.Authenticate(
			rbacMw.RequirePermission(authz.ActionConfigure, authz.ResourceScoreLimit)(
				auditMw.Log("recompute", "score", "Forced full score recompute")(
					http.HandlerFunc(rulesHandler.Recompute),
				),
			),
		),
	)
	mux.Handle("GET /api/v1/proof-reviews",
		perm(authz.ActionReview, authz.ResourceProofReview, rulesHandler.ListProofReviews))
	mux.Handle("GET /api/v1/proof-reviews/{id}",
		perm(authz.ActionReview, authz.ResourceProofReview, rulesHandler.GetProofReview))
	mux.Handle("POST /api/v1/proof-reviews/{id}/decide",
		perm(authz.ActionReview, authz.ResourceProofReview, rulesHandler.DecideProof))
	mux.Handle("POST /api/v1/proof-reviews/decide",
		perm(authz.ActionReview, authz.ResourceProofReview, rulesHandler.DecideProofByEntity))

	// Teacher projects and selections
	mux.Handle("GET /api/v1/projects", authed(programHandler.List))
	mux.Handle("GET /api/v1/projects/{id}", authed(programHandler.Get))
	mux.Handle("POST /api/v1/projects",
		perm(authz.ActionCreate, authz.ResourceProject, programHandler.Create))
	mux.Handle("PUT /api/v1/projects/{id}",
		perm(authz.ActionUpdate, authz.ResourceProject, programHandler.Update))
	mux.Handle("DELETE /api/v1/projects/{id}",
		perm(authz.ActionUpdate, authz.ResourceProject, programHandler.Delete))
	mux.Handle("POST /api/v1/projects/{id}/select", authed(programHandler.Select))
	mux.Handle("GET /api/v1/projects/{id}/selections", staff(programHandler.ListSelections))
	mux.Handle("GET /api/v1/selections", authed(programHandler.MySelections))
	mux.Handle("POST /api/v1/selections/{id}/cancel", authed(programHandler.CancelSelection))

	// Files
	mux.Handle("POST /api/v1/files", authed(fileHandler.Upload))
	mux.Handle("GET /api/v1/files", authed(fileHandler.List))
	mux.Handle("GET /api/v1/files/{id}", authed(fileHandler.Get))
	mux.Handle("GET /api/v1/files/{id}/download", authed(fileHandler.Download))
	mux.Handle("DELETE /api/v1/files/{id}", authed(fileHandler.Delete))

	// Dictionaries
	mux.Handle("GET /api/v1/dicts", authed(dictHandler.ListCategories))
	mux.Handle("GET /api/v1/dicts/{category}", authed(dictHandler.ListByCategory))
	mux.Handle("POST /api/v1/admin/dicts", staff(dictHandler.Create))
	mux.Handle("PUT /api/v1/admin/dicts/{id}", staff(dictHandler.Update))
	mux.Handle("DELETE /api/v1/admin/dicts/{id}", staff(dictHandler.Delete))

	// Policies
	mux.Handle("GET /api/v1/policies", authed(policyHandler.List))
	mux.Handle("GET /api/v1/policies/{id}", authed(policyHandler.Get))
	mux.Handle("POST /api/v1/admin/policies",
		perm(authz.ActionConfigure, authz.ResourcePolicy, policyHandler.Create))
	mux.Handle("PUT /api/v1/admin/policies/{id}",
		perm(authz.ActionConfigure, authz.ResourcePolicy, policyHandler.Update))
	mux.Handle("DELETE /api/v1/admin/policies/{id}",
		perm(authz.ActionConfigure, authz.ResourcePolicy, policyHandler.Delete))

	// Audit log
	mux.Handle("GET /api/v1/admin/audit-logs",
		perm(authz.ActionRead, authz.ResourceAuditLog, auditHandler.List))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte(`{"status":"unhealthy"}`)); err != nil {
				slog.Error("Failed to write health check response", "error", err)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`)); err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
