package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"

	billingapp "github.com/gescom/backend/internal/application/billing"
	catalogapp "github.com/gescom/backend/internal/application/catalog"
	partnerapp "github.com/gescom/backend/internal/application/partner"
	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/infrastructure/cache"
	"github.com/gescom/backend/internal/infrastructure/config"
	"github.com/gescom/backend/internal/infrastructure/event"
	"github.com/gescom/backend/internal/infrastructure/logger"
	"github.com/gescom/backend/internal/infrastructure/persistence"
	"github.com/gescom/backend/internal/infrastructure/telemetry"
	"github.com/gescom/backend/internal/interfaces/http/handler"
	"github.com/gescom/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	billing.DefaultTaxRate = decimal.NewFromFloat(cfg.Billing.DefaultTaxRate)

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting gescom backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.DB.Use(otelgorm.NewPlugin()); err != nil {
			log.Fatal("failed to install gorm tracing plugin", zap.Error(err))
		}
	}
	log.Info("database connected")

	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("error stopping event bus", zap.Error(err))
		}
	}()

	quotationRepo := persistence.NewGormQuotationRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	numberGen := persistence.NewCounterNumberGenerator(db.DB, cfg.Billing.NumberSeriesFloor)

	var productRepo catalog.ProductRepository = persistence.NewGormProductRepository(db.DB)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("error closing redis client", zap.Error(err))
			}
		}()
		productRepo = cache.NewCachedProductRepository(productRepo, redisClient, cfg.Redis.CacheTTL, log)
		log.Info("redis product cache enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	quotationService := billingapp.NewQuotationService(quotationRepo, productRepo, clientRepo, numberGen, eventBus, log)
	conversionService := billingapp.NewConversionService(quotationRepo, invoiceRepo, numberGen, eventBus, log)
	productService := catalogapp.NewProductService(productRepo, log)
	clientService := partnerapp.NewClientService(clientRepo, log)

	engine := router.New(router.ConfigFromHTTP(cfg), log, router.Handlers{
		Quotation: handler.NewQuotationHandler(quotationService, conversionService),
		Invoice:   handler.NewInvoiceHandler(conversionService),
		Product:   handler.NewProductHandler(productService),
		Client:    handler.NewClientHandler(clientService),
		System:    handler.NewSystemHandler(db),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
