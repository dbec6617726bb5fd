package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/superdoll/tracker-api/docs"
	"github.com/superdoll/tracker-api/internal/auth"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/database"
	"github.com/superdoll/tracker-api/internal/http/handler"
	"github.com/superdoll/tracker-api/internal/http/middleware"
	"github.com/superdoll/tracker-api/internal/http/router"
	"github.com/superdoll/tracker-api/internal/jobs"
	"github.com/superdoll/tracker-api/internal/logger"
	"github.com/superdoll/tracker-api/internal/notification"
	"github.com/superdoll/tracker-api/internal/queue"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/service"
	"github.com/superdoll/tracker-api/internal/storage"
	"go.uber.org/zap"
)

// @title Superdoll Tracker API
// @version 1.0
// @description Customer, vehicle, order and inventory tracking for a tyre and service centre

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	} else {
		docs.SwaggerInfo.Host = ""
	}

	// Secrets come from the environment locally and from Key Vault in staging/production
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	loc := cfg.App.Location()

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Warn("Schema auto-migrated; use cmd/migrate outside local development")
	}

	store, err := cache.NewStore(ctx, &cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to initialize read-model store: %w", err)
	}
	dependencies := make(map[string]router.Pinger)
	if p, ok := store.(router.Pinger); ok {
		dependencies["cache"] = p
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// The queue provider hands SMS to cmd/worker over RabbitMQ
	var (
		mqConn    *queue.Connection
		publisher notification.JobPublisher
	)
	if cfg.SMS.Provider == notification.ProviderQueue {
		mqConn, err = queue.NewConnection(cfg.RabbitMQ.URL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		p, err := queue.NewPublisher(mqConn, cfg.RabbitMQ.SMSQueue)
		if err != nil {
			return fmt.Errorf("failed to create sms publisher: %w", err)
		}
		publisher = p
		dependencies["rabbitmq"] = mqConn
	}
	sender, err := notification.NewSender(&cfg.SMS, publisher, log)
	if err != nil {
		return fmt.Errorf("failed to initialize sms sender: %w", err)
	}

	// Repositories
	customerRepo := repository.NewCustomerRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	tokens := auth.NewTokenManager(&cfg.Auth)
	ledger := service.NewInventoryLedger(db, inventoryRepo, store, log)
	orderService := service.NewOrderService(db, orderRepo, customerRepo, vehicleRepo, userRepo, ledger, store, log)
	customerService := service.NewCustomerService(db, customerRepo, vehicleRepo, orderRepo, store, log)
	registrationService := service.NewRegistrationService(db, customerService, orderService, inventoryRepo, vehicleRepo, log)
	drafts := service.NewRegistrationDraftStore(store, cfg.Cache.RegistrationTTLDuration())
	inventoryService := service.NewInventoryService(inventoryRepo, ledger, store, &cfg.Cache, log)
	inquiryService := service.NewInquiryService(orderRepo, orderService, sender, store, &cfg.Cache, cfg.SMS.SignOff, loc, log)
	dashboardService := service.NewDashboardService(orderRepo, customerRepo, inventoryRepo, store, &cfg.Cache, loc, log)
	reportService := service.NewReportService(orderRepo, customerRepo, loc, log)
	exportService := service.NewExportService(orderRepo, customerRepo)
	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, cfg.Auth.APIKey, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, dependencies, authMiddleware, rateLimiter, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		User:         handler.NewUserHandler(userService, log),
		Customer:     handler.NewCustomerHandler(customerService, orderService, log),
		Order:        handler.NewOrderHandler(orderService, log),
		Inventory:    handler.NewInventoryHandler(inventoryService, log),
		Registration: handler.NewRegistrationHandler(registrationService, drafts, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, reportService, log),
		Inquiry:      handler.NewInquiryHandler(inquiryService, log),
		Export:       handler.NewExportHandler(exportService, reportService, loc, log),
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		jobLog := logger.WithComponent(log, "jobs")
		scheduler = jobs.NewScheduler(jobLog, cfg.Jobs.JobTimeoutDuration(), loc)
		reminder := jobs.NewFollowUpReminderJob(orderRepo, sender, cfg.SMS.SignOff, loc, jobLog)
		archive := jobs.NewReportArchiveJob(exportService, fileStorage, loc, jobLog)
		if err := jobs.Register(scheduler, &cfg.Jobs, reminder, archive); err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))
	} else {
		log.Info("Scheduled jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if scheduler != nil {
			scheduler.Stop(shutdownCtx)
			log.Info("Scheduler stopped")
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}
	}

	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Warn("Error closing read-model store", zap.Error(err))
		}
	}
	if mqConn != nil {
		if err := mqConn.Close(); err != nil {
			log.Warn("Error closing RabbitMQ connection", zap.Error(err))
		}
	}

	log.Info("Server stopped gracefully")
	return nil
}
