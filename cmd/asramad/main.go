package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"asrama-occupancy-backend/config"
	"asrama-occupancy-backend/internal/api"
	"asrama-occupancy-backend/internal/db"
	"asrama-occupancy-backend/internal/logger"
	"asrama-occupancy-backend/internal/notification"
	"asrama-occupancy-backend/internal/occupancy"
	"asrama-occupancy-backend/internal/seed"
	"asrama-occupancy-backend/internal/store"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run migrations and seed, then exit")
	flag.Parse()

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *migrateOnly {
		if err := bootstrap(ctx, gormDB, true, true); err != nil {
			logger.Fatal("bootstrap failed", zap.Error(err))
		}
		return
	}
	if err := bootstrap(ctx, gormDB, cfg.Database.MigrateOnStart(), cfg.Seed.Enabled); err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	appStore := store.NewGormStore(gormDB)

	engineOpts := occupancy.Options{
		LockTimeout:            cfg.Occupancy.LockTimeout,
		AuditTrailDefaultLimit: cfg.Occupancy.AuditTrailDefaultLimit,
		AuditTrailMaxLimit:     cfg.Occupancy.AuditTrailMaxLimit,
	}

	var webpushOptions *webpush.Options
	var workerPool *notification.WorkerPool
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool, err = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		if err != nil {
			logger.Fatal("failed to create notification worker pool", zap.Error(err))
		}
		workerPool.Start(ctx)
		engineOpts.Notifier = workerPool
	} else {
		logger.Warn("VAPID keys not configured, vacancy notifications are disabled")
	}

	engine := occupancy.NewEngine(appStore, engineOpts)

	router := api.NewRouter(engine, appStore, webpushOptions, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}
	cancel()
	if workerPool != nil {
		workerPool.Stop(cfg.Server.ShutdownTimeout)
	}

	logger.Info("server gracefully stopped")
}

func bootstrap(ctx context.Context, gormDB *gorm.DB, migrate, loadSeed bool) error {
	if migrate {
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
	}
	if loadSeed {
		if err := seed.Run(ctx, gormDB); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}
