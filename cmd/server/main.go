package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/kitchenops/backend/internal/application/inventory"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/recipe"
	"github.com/kitchenops/backend/internal/infrastructure/catalog"
	"github.com/kitchenops/backend/internal/infrastructure/config"
	"github.com/kitchenops/backend/internal/infrastructure/event"
	"github.com/kitchenops/backend/internal/infrastructure/logger"
	"github.com/kitchenops/backend/internal/infrastructure/persistence"
	"github.com/kitchenops/backend/internal/infrastructure/scheduler"
	"github.com/kitchenops/backend/internal/infrastructure/settings"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.toml if present)")
	receiptsPath := flag.String("receipts", "", "goods receipt CSV export to apply on start-up")
	salesPath := flag.String("sales", "", "point of sale CSV export to apply on start-up")
	flag.Parse()

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting kitchen inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	log.Info("Telemetry ready",
		zap.Bool("tracing", tracerProvider.IsEnabled()),
		zap.String("service", tracerProvider.GetConfig().ServiceName),
	)
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	metrics, err := telemetry.NewInventoryMetrics(telemetry.InventoryMetricsConfig{
		Meter:  meterProvider.Meter("kitchenops/inventory"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize inventory metrics", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	dbSystem := cfg.Database.Driver
	if dbSystem == "postgres" {
		dbSystem = "postgresql"
	}
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugin(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem,
		}, log)),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Event bus and sinks
	serializer := event.NewInventoryEventSerializer()
	eventBus := event.NewInMemoryEventBus(log)
	onSinkFailure := func(sink string, _ error) {
		metrics.RecordSinkFailure(context.Background(), sink)
	}

	eventLog := persistence.NewGormEventLogRepository(db.DB, serializer)
	eventBus.Subscribe(event.NewSinkHandler(eventLog, log, onSinkFailure))

	if cfg.Redis.Enabled {
		redisSink, err := event.NewRedisStreamSink(ctx, event.RedisStreamConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Stream:   cfg.Redis.Stream,
			MaxLen:   cfg.Redis.MaxLen,
		}, serializer)
		if err != nil {
			log.Fatal("Failed to connect event stream", zap.Error(err))
		}
		defer func() {
			_ = redisSink.Close()
		}()
		eventBus.Subscribe(event.NewSinkHandler(redisSink, log, onSinkFailure))
		log.Info("Redis event stream enabled", zap.String("stream", redisSink.Stream()))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Kitchen setup
	kitchen := &catalog.Catalog{
		Recipes:      recipe.NewTable(),
		Items:        inventory.NewStaticCatalog(),
		OpeningStock: map[string]decimal.Decimal{},
	}
	if cfg.Inventory.CatalogFile != "" {
		kitchen, err = catalog.NewLoader().LoadFile(cfg.Inventory.CatalogFile)
		if err != nil {
			log.Fatal("Failed to load catalog", zap.Error(err))
		}
	}

	resolver := recipe.NewResolver(kitchen.Recipes)
	ledger := inventory.NewLedger(resolver, kitchen.OpeningStock,
		inventory.WithLowStockThreshold(decimal.NewFromFloat(cfg.Inventory.LowStockThreshold)))
	tracker := inventory.NewBatchTracker(inventory.WithWarningWindowDays(cfg.Expiration.WarningWindowDays))

	// Opening batches are already counted in the opening stock
	for _, b := range kitchen.Batches {
		if _, err := tracker.AddBatch(b.SKU, b.Info, b.LocationID); err != nil {
			log.Fatal("Failed to add opening batch", zap.String("sku", b.SKU), zap.Error(err))
		}
	}
	log.Info("Kitchen loaded",
		zap.Int("recipes", kitchen.Recipes.Len()),
		zap.Int("items", len(kitchen.Items.Items())),
		zap.Int("skus", len(ledger.SKUs())),
		zap.Int("batches", len(kitchen.Batches)),
	)

	rotation, err := inventory.ParseRotation(cfg.Inventory.DefaultRotation)
	if err != nil {
		log.Fatal("Invalid rotation", zap.Error(err))
	}

	// Application services
	preferences := settings.NewInMemoryStore(nil)
	policies := inventoryapp.NewPolicyResolver(preferences, cfg.Inventory.OversellPolicy, logger.Component(log, "oversell-policy"))

	sales := inventoryapp.NewSaleService(ledger, tracker, policies, eventBus, inventoryapp.SaleServiceConfig{
		TrackBatches: cfg.Inventory.TrackBatchesOnSale,
		Rotation:     rotation,
	}, logger.Component(log, "sales"))
	sales.SetMetrics(metrics)

	batches := inventoryapp.NewBatchService(tracker, ledger, eventBus, logger.Component(log, "batches"))
	batches.SetMetrics(metrics)

	reorder := inventoryapp.NewReorderMonitor(kitchen.Items, ledger,
		persistence.NewGormPurchaseOrderRepository(db.DB), eventBus, logger.Component(log, "reorder-monitor"))
	reorder.SetMetrics(metrics)

	expiry := inventoryapp.NewExpirationMonitor(tracker, eventBus, logger.Component(log, "expiration-monitor"))
	expiry.SetMetrics(metrics)

	if *receiptsPath != "" {
		importReceipts(ctx, log, batches, *receiptsPath)
	}
	if *salesPath != "" {
		importSales(ctx, log, sales, *salesPath)
	}

	metrics.StartPeriodicCollection(ctx, ledger, cfg.Telemetry.MetricsExportInterval)

	// Background scans
	sched := scheduler.NewIntervalScheduler(scheduler.DefaultConfig(), logger.Component(log, "scheduler"))
	sched.SetObserver(func(name string, d time.Duration, err error) {
		metrics.RecordJobRun(context.Background(), name, d, err)
	})
	if err := sched.Register("reorder-scan", cfg.Scheduler.ReorderInterval, reorder.Run); err != nil {
		log.Fatal("Failed to register reorder scan", zap.Error(err))
	}
	if err := sched.Register("expiration-scan", cfg.Scheduler.ExpirationInterval, expiry.Run); err != nil {
		log.Fatal("Failed to register expiration scan", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	} else {
		log.Info("Scheduler disabled, background scans will not run")
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler forced to stop", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus forced to stop", zap.Error(err))
	}
	metrics.Stop()
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.ForceFlush(shutdownCtx); err != nil {
		log.Error("Error flushing spans", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Service exited gracefully")
}
