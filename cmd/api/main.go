package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-image-optimizer/internal/adapter"
	"github.com/feral-file/ff-image-optimizer/internal/api/middleware"
	"github.com/feral-file/ff-image-optimizer/internal/api/server"
	"github.com/feral-file/ff-image-optimizer/internal/config"
	"github.com/feral-file/ff-image-optimizer/internal/logger"
	"github.com/feral-file/ff-image-optimizer/internal/media/addresser"
	"github.com/feral-file/ff-image-optimizer/internal/media/artifact"
	"github.com/feral-file/ff-image-optimizer/internal/media/featuregate"
	"github.com/feral-file/ff-image-optimizer/internal/media/gateway"
	"github.com/feral-file/ff-image-optimizer/internal/media/nativecache"
	"github.com/feral-file/ff-image-optimizer/internal/media/optimizer"
	"github.com/feral-file/ff-image-optimizer/internal/media/status"
	"github.com/feral-file/ff-image-optimizer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "image-optimizer-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Image Optimizer API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	configStore := store.NewPGStore(db)
	gate := featuregate.NewGate(configStore)
	tracker := status.NewTracker(configStore)

	// Initialize media and artifact storage
	fs := adapter.NewFileSystem()
	mediaStore := artifact.NewFileSystemStore(cfg.Media.Root, fs)

	artifactStore := mediaStore
	if cfg.Storage.Backend == config.STORAGE_BACKEND_GCS {
		gcsClient, err := adapter.NewGCSClient(ctx)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create GCS client", zap.Error(err))
		}
		defer func() { _ = gcsClient.Close() }()
		artifactStore = artifact.NewGCSStore(gcsClient, cfg.Storage.Bucket, cfg.Storage.Prefix)
		logger.InfoCtx(ctx, "Storing optimized images in GCS", zap.String("bucket", cfg.Storage.Bucket))
	}

	layout, err := nativecache.ParseLayout(cfg.Media.CacheLayout)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid media cache layout", zap.Error(err))
	}
	keyMode, err := addresser.ParseMode(cfg.Optimizer.KeyMode)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid optimizer key mode", zap.Error(err))
	}

	tinify := gateway.NewGateway(adapter.NewHTTPClient(cfg.Tinify.Timeout), gateway.Config{
		Endpoint: cfg.Tinify.Endpoint,
	})

	opt := optimizer.NewOptimizer(
		optimizer.Config{
			BaseURL:         cfg.Media.BaseURL,
			ArtifactBaseURL: cfg.Storage.BaseURL,
			MaxRetries:      cfg.Optimizer.MaxRetries,
			RetryInterval:   cfg.Optimizer.RetryInterval,
			PoolSize:        cfg.Optimizer.PoolSize,
		},
		gate,
		addresser.NewAddresser(keyMode),
		artifactStore,
		mediaStore,
		nativecache.NewResolver(layout, mediaStore),
		tinify,
		tracker,
	)
	defer opt.Close()

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	srv := server.New(serverConfig, opt, gate, tracker)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Don't use the canceled ctx for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, fmt.Errorf("server forced to shutdown: %w", err))
	}

	logger.Info("API server stopped")
}
