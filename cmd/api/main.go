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

	"github.com/motorserv/srf-api/docs"
	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/database"
	"github.com/motorserv/srf-api/internal/datawarehouse"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/http/handler"
	"github.com/motorserv/srf-api/internal/http/middleware"
	"github.com/motorserv/srf-api/internal/http/router"
	"github.com/motorserv/srf-api/internal/jobs"
	"github.com/motorserv/srf-api/internal/logger"
	"github.com/motorserv/srf-api/internal/repository"
	"github.com/motorserv/srf-api/internal/service"
	"github.com/motorserv/srf-api/internal/storage"
	"go.uber.org/zap"
)

// @title SRF Service API
// @version 1.0
// @description Service request forms for warranty and out-of-warranty motor and pump repairs, vendor rewinding and settlement ledgers

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for integrations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
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

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from the environment in development and Key Vault elsewhere
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()

	exportStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// The ERP warehouse is optional; customer lookups stay local without it
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
			dwClient = nil
		} else if dwClient != nil {
			log.Info("Data warehouse connected",
				zap.Int("max_open_conns", cfg.DataWarehouse.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.DataWarehouse.QueryTimeout),
			)
		}
	} else {
		log.Info("Data warehouse not configured, skipping")
	}

	// Repositories
	srfRepo := repository.NewSRFRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	modelRepo := repository.NewModelRepository(db)
	rateRepo := repository.NewRewindingRateRepository(db)
	centerRepo := repository.NewServiceCenterRepository(db)
	masterRepo := repository.NewMasterRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	exportRepo := repository.NewLedgerExportRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	allocator := service.NewIdentifierAllocator(srfRepo, log)
	masterService := service.NewMasterService(masterRepo, dwClient, log)
	srfService := service.NewSRFService(srfRepo, registryRepo, modelRepo, centerRepo, masterService, allocator, log)
	settlementService := service.NewSettlementService(srfRepo, log)
	vendorService := service.NewVendorService(srfRepo, vendorRepo, ledgerRepo, registryRepo, log)
	ledgerService := service.NewLedgerService(ledgerRepo, log)
	catalogService := service.NewCatalogService(modelRepo, rateRepo, centerRepo, log)
	registryService := service.NewRegistryService(registryRepo, log)
	exportService := service.NewExportService(ledgerRepo, exportRepo, exportStorage, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogService, nil, log)

	handlers := router.Handlers{
		Warranty:      handler.NewSRFHandler(domain.KindWarranty, srfService, settlementService, ledgerService, log),
		OutOfWarranty: handler.NewSRFHandler(domain.KindOutOfWarranty, srfService, settlementService, ledgerService, log),
		Vendor:        handler.NewVendorHandler(vendorService, log),
		Registry:      handler.NewRegistryHandler(registryService, cfg.Storage.MaxUploadSizeMB, log),
		Catalog:       handler.NewCatalogHandler(catalogService, masterService, log),
		Export:        handler.NewExportHandler(exportService, log),
		Audit:         handler.NewAuditHandler(auditLogService, log),
		Auth:          handler.NewAuthHandler(userRepo, log),
	}

	rt := router.NewRouter(cfg, log, db, dwClient, authMiddleware, rateLimiter, auditMiddleware, handlers)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterLedgerSnapshotJob(
			scheduler,
			exportService,
			log,
			cfg.Jobs.LedgerSnapshotCron,
			cfg.Jobs.LedgerSnapshotTimeoutDuration(),
		); err != nil {
			log.Error("Failed to register ledger snapshot job", zap.Error(err))
		}
		if err := jobs.RegisterAuditRetentionJob(
			scheduler,
			auditLogService,
			log,
			cfg.Jobs.AuditRetentionCron,
			cfg.Jobs.AuditRetentionDays,
		); err != nil {
			log.Error("Failed to register audit retention job", zap.Error(err))
		}
		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if dwClient != nil {
			if err := dwClient.Close(); err != nil {
				log.Warn("Error closing data warehouse connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
