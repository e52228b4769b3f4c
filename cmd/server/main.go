package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appposting "github.com/merx/erp/internal/application/posting"
	"github.com/merx/erp/internal/domain/ledger"
	"github.com/merx/erp/internal/domain/shared/valueobject"
	"github.com/merx/erp/internal/domain/stock"
	"github.com/merx/erp/internal/infrastructure/config"
	"github.com/merx/erp/internal/infrastructure/event"
	"github.com/merx/erp/internal/infrastructure/logger"
	"github.com/merx/erp/internal/infrastructure/persistence"
	"github.com/merx/erp/internal/interfaces/http/handler"
	"github.com/merx/erp/internal/interfaces/http/middleware"
	"github.com/merx/erp/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

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

	log.Info("Starting stock ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	currency := valueobject.Currency(cfg.Posting.Currency)

	// Repositories
	positions := persistence.NewGormPositionRepository(db.DB)
	movements := persistence.NewGormMovementRepository(db.DB)
	entries := persistence.NewGormEntryRepository(db.DB)
	accounts := persistence.NewGormAccountRepository(db.DB)

	// Domain services
	resolver := ledger.NewRepositoryAccountResolver(accounts)
	postingEngine := ledger.NewPostingEngine(resolver, currency)
	costingEngine := stock.NewCostingEngine(currency)

	// Event bus with a logging subscriber for the audit trail
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewLoggingHandler(log))

	// Application service
	scope := persistence.NewGormTransactionScope(db.DB)
	service := appposting.NewPostingService(scope, positions, movements, entries,
		postingEngine, costingEngine, log)
	service.SetMaxRetries(cfg.Posting.MaxRetries)
	service.SetEventPublisher(bus)
	service.SetAuditSink(appposting.NewLoggingAuditSink(log))

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r := router.NewRouter(engine)
	r.Register(handler.NewPostingHandler(service))
	r.Register(handler.NewStockHandler(service))
	r.Register(handler.NewLedgerHandler(service, accounts))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

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
