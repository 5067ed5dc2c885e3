package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	analyticsapp "github.com/btp-erp/backend/internal/application/analytics"
	ledgerapp "github.com/btp-erp/backend/internal/application/ledger"
	salesapp "github.com/btp-erp/backend/internal/application/sales"
	"github.com/btp-erp/backend/internal/infrastructure/cache"
	"github.com/btp-erp/backend/internal/infrastructure/config"
	"github.com/btp-erp/backend/internal/infrastructure/event"
	"github.com/btp-erp/backend/internal/infrastructure/logger"
	"github.com/btp-erp/backend/internal/infrastructure/migration"
	"github.com/btp-erp/backend/internal/infrastructure/persistence"
	"github.com/btp-erp/backend/internal/infrastructure/telemetry"
	"github.com/btp-erp/backend/internal/interfaces/http/handler"
	"github.com/btp-erp/backend/internal/interfaces/http/middleware"
	"github.com/btp-erp/backend/internal/interfaces/http/router"
	"github.com/btp-erp/backend/migrations"
	"go.uber.org/zap"
)

//	@title			BTP Backend API
//	@version		1.0
//	@description	Order to invoice lifecycle and finance ledger for construction trades.

//	@host		localhost:8080
//	@BasePath	/api/v1

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting BTP Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	providers, err := telemetry.NewProviders(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()
	meter := providers.Meter("github.com/btp-erp/backend")

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        db.Driver,
	}, log); err != nil {
		return err
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	if _, err := telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
		log.Warn("Database pool metrics unavailable", zap.Error(err))
	}

	if err := migrateSchema(db, sqlDB, log); err != nil {
		return err
	}

	// Domain wiring
	prefix := cfg.Finance.SequencePrefix
	salesRepo := persistence.NewGormSalesRecordRepository(db.DB, prefix)
	txRepo := persistence.NewGormTransactionRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, prefix)

	lifecycleService := salesapp.NewLifecycleService(salesRepo, txScope, ledgerapp.NewSettlementRecorder(log), log)
	lifecycleService.SetDefaultTaxRate(cfg.Finance.DefaultTaxRate)
	transactionService := ledgerapp.NewTransactionService(txRepo, log)

	statsCache, closeCache := cache.NewStatsCache(cfg.Redis, log)
	defer closeCache()
	aggregationService := analyticsapp.NewAggregationService(
		persistence.NewGormSnapshotReader(db.DB),
		statsCache,
		analyticsapp.Config{
			DefaultMonths: cfg.Finance.StatsMonths,
			DefaultLimit:  cfg.Finance.TopLimit,
			CacheTTL:      cfg.Finance.StatsCacheTTL,
		},
		log,
	)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	audit := salesapp.NewAuditLogHandler(log)
	eventBus.Subscribe(audit, audit.EventTypes()...)
	invalidator := analyticsapp.NewCacheInvalidationHandler(statsCache, log)
	eventBus.Subscribe(invalidator, invalidator.EventTypes()...)
	lifecycleMetrics, err := telemetry.NewLifecycleMetrics(meter)
	if err != nil {
		return err
	}
	eventBus.Subscribe(lifecycleMetrics, lifecycleMetrics.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()
	lifecycleService.SetEventPublisher(eventBus)
	transactionService.SetEventPublisher(eventBus)

	// HTTP
	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     cfg.Telemetry.Enabled,
		Metrics:     middleware.NewHTTPMetrics("btp"),
	}, log)
	if err != nil {
		return err
	}
	router.RegisterAPI(engine, router.Handlers{
		Sales:        handler.NewSalesHandler(lifecycleService),
		Transactions: handler.NewTransactionHandler(transactionService),
		Stats:        handler.NewStatsHandler(aggregationService),
		System:       handler.NewSystemHandler(db, version),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// migrateSchema applies the embedded SQL migrations on Postgres. sqlite runs
// are local or test setups and use AutoMigrate.
func migrateSchema(db *persistence.Database, sqlDB *sql.DB, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		log.Info("Creating sqlite schema from models")
		return db.AutoMigrate()
	}

	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}
