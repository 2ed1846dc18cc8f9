package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/salaryflow/payroll-backend/internal/payroll/events"
	"github.com/salaryflow/payroll-backend/internal/payroll/handler"
	"github.com/salaryflow/payroll-backend/internal/payroll/repository"
	"github.com/salaryflow/payroll-backend/internal/payroll/service"
	"github.com/salaryflow/payroll-backend/pkg/config"
	"github.com/salaryflow/payroll-backend/pkg/database"
	"github.com/salaryflow/payroll-backend/pkg/httputil"
	"github.com/salaryflow/payroll-backend/pkg/logger"
	"github.com/salaryflow/payroll-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("payroll-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("payroll-service", cfg.Server.Environment)
	log.Info().Msg("starting Payroll Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewImportEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	employeeRepo := repository.NewEmployeeRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	componentRepo := repository.NewComponentRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	lineItemRepo := repository.NewLineItemRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Initialize services
	importService := service.NewImportService(
		employeeRepo, componentRepo, recordRepo, lineItemRepo, assignmentRepo,
		publisher, log,
	)
	exportService := service.NewExportService(reportRepo, periodRepo, log)

	// Initialize handlers
	importHandler := handler.NewImportHandler(importService, periodRepo, cfg.Import, log)
	periodHandler := handler.NewPeriodHandler(periodRepo, log)
	exportHandler := handler.NewExportHandler(exportService, log)
	historyHandler := handler.NewHistoryHandler(assignmentRepo, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS - the admin UI runs on a separate origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*.salaryflow.cn"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "payroll-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/payroll", func(r chi.Router) {
		r.Route("/imports", func(r chi.Router) {
			r.Post("/", importHandler.Run)
			r.Post("/xlsx", importHandler.RunXLSX)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Get("/", periodHandler.List)
			r.Post("/", periodHandler.Create)
			r.Get("/resolve", periodHandler.Resolve)
			r.Get("/{id}", periodHandler.Get)
			r.Get("/{id}/summary", exportHandler.Summary)
			r.Get("/{id}/export/payroll", exportHandler.PayrollDetails)
		})

		r.Get("/employees/{id}/category-history", historyHandler.CategoryHistory)

		r.Route("/exports", func(r chi.Router) {
			r.Get("/contribution-bases", exportHandler.ContributionBases)
			r.Get("/category-assignments", exportHandler.CategoryAssignments)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
