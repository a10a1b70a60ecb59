package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	auditapp "github.com/fieldops/backend/internal/application/audit"
	billapp "github.com/fieldops/backend/internal/application/billing"
	curapp "github.com/fieldops/backend/internal/application/currency"
	procapp "github.com/fieldops/backend/internal/application/procurement"
	projapp "github.com/fieldops/backend/internal/application/project"
	"github.com/fieldops/backend/internal/infrastructure/auth"
	"github.com/fieldops/backend/internal/infrastructure/config"
	"github.com/fieldops/backend/internal/infrastructure/event"
	"github.com/fieldops/backend/internal/infrastructure/logger"
	"github.com/fieldops/backend/internal/infrastructure/notification"
	"github.com/fieldops/backend/internal/infrastructure/persistence"
	"github.com/fieldops/backend/internal/infrastructure/scheduler"
	"github.com/fieldops/backend/internal/infrastructure/storage"
	"github.com/fieldops/backend/internal/interfaces/http/handler"
	"github.com/fieldops/backend/internal/interfaces/http/router"
)

const appVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting FieldOps Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", appVersion),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	poRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	rateRepo := persistence.NewGormExchangeRateRepository(db.DB)
	activityRepo := persistence.NewGormActivityLogRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Inject the outbox publisher so domain events commit in the same
	// transaction as the aggregate they describe
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	poRepo.SetOutboxEventSaver(outboxPublisher)
	invoiceRepo.SetOutboxEventSaver(outboxPublisher)
	rateRepo.SetOutboxEventSaver(outboxPublisher)

	// Initialize application services
	currencyService := curapp.NewCurrencyService(rateRepo)
	projectService := projapp.NewProjectService(projectRepo)
	poService := procapp.NewPurchaseOrderService(poRepo, projectRepo, currencyService, log)
	invoiceService := billapp.NewInvoiceService(invoiceRepo, projectRepo, currencyService, log)
	activityService := auditapp.NewActivityService(activityRepo, log)

	// Attachment storage: presigned URLs against S3 when credentials are
	// configured, otherwise the in-process stub
	if cfg.Storage.AccessKey != "" {
		objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		poService.SetStorage(objectStorage)
		log.Info("Object storage configured",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("endpoint", cfg.Storage.Endpoint),
		)
	} else {
		poService.SetStorage(storage.NewStubObjectStorage())
		log.Warn("No storage bucket configured, using stub object storage")
	}

	// Initialize event bus and subscribe the audit recorder as a wildcard
	// handler so every committed event lands in the activity log. The
	// notification handler listens on lifecycle events only.
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditEventHandler(activityService))
	eventBus.Subscribe(event.NewNotificationEventHandler(
		notification.NewLogSender(log), cfg.Notification.Recipient, log))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Start the outbox processor to drain committed events to the bus
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	} else {
		log.Warn("Outbox processor disabled, committed events will not be delivered")
	}

	// Background overdue invoice sweep
	overdueScheduler := scheduler.NewOverdueScheduler(invoiceService, log, scheduler.OverdueSchedulerConfig{
		Enabled:       cfg.Overdue.Enabled,
		CheckInterval: cfg.Overdue.CheckInterval,
	})
	if err := overdueScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start overdue scheduler", zap.Error(err))
	}
	defer func() {
		if err := overdueScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping overdue scheduler", zap.Error(err))
		}
	}()

	// Authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build the HTTP engine
	engine := router.Setup(router.Config{
		Handlers: router.Handlers{
			Health:        handler.NewHealthHandler(db, appVersion),
			PurchaseOrder: handler.NewPurchaseOrderHandler(poService),
			Invoice:       handler.NewInvoiceHandler(invoiceService),
			Currency:      handler.NewCurrencyHandler(currencyService),
			Project:       handler.NewProjectHandler(projectService),
			Activity:      handler.NewActivityHandler(activityService),
		},
		JWTService: jwtService,
		Logger:     log,
		HTTP:       &cfg.HTTP,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
