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

	application "github.com/factorpool/backend/internal/application/factoring"
	"github.com/factorpool/backend/internal/infrastructure/auth"
	"github.com/factorpool/backend/internal/infrastructure/config"
	"github.com/factorpool/backend/internal/infrastructure/event"
	"github.com/factorpool/backend/internal/infrastructure/logger"
	"github.com/factorpool/backend/internal/infrastructure/persistence"
	"github.com/factorpool/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := persistence.AutoMigrate(db.DB); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	if cfg.Telemetry.TracingEnabled {
		if err := db.EnableTracing(cfg.Database.DBName); err != nil {
			return fmt.Errorf("enable database tracing: %w", err)
		}
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewAuditLogHandler(log))
	if err := bus.Start(context.Background()); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() {
		_ = bus.Stop(context.Background())
	}()

	registry := persistence.NewGormReceivableRegistry(db.DB)
	access := persistence.NewGormAccessController(db.DB)

	engine := application.NewEngine(
		persistence.NewGormTransactionManager(db.DB),
		persistence.NewGormApprovalRepository(db.DB),
		persistence.NewGormImpairmentRepository(db.DB),
		persistence.NewGormStateRepository(db.DB),
		persistence.NewGormQueueRepository(db.DB),
		registry,
		access,
		persistence.NewGormUnitLedger(db.DB),
		bus,
		log,
	)

	jwtService := auth.NewJWTService(cfg.JWT)

	r := router.New(router.Dependencies{
		Config:     cfg,
		Logger:     log,
		Engine:     engine,
		Database:   db,
		Registry:   registry,
		Access:     access,
		JWTService: jwtService,
		Version:    version,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
