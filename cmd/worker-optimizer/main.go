package main

import (
	"context"
	"errors"
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
	"github.com/feral-file/ff-image-optimizer/internal/bridge"
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
	cfg, err := config.LoadWorkerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "worker-optimizer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting optimizer worker")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	configStore := store.NewPGStore(db)

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
	}

	layout, err := nativecache.ParseLayout(cfg.Media.CacheLayout)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid media cache layout", zap.Error(err))
	}
	keyMode, err := addresser.ParseMode(cfg.Optimizer.KeyMode)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid optimizer key mode", zap.Error(err))
	}

	opt := optimizer.NewOptimizer(
		optimizer.Config{
			BaseURL:         cfg.Media.BaseURL,
			ArtifactBaseURL: cfg.Storage.BaseURL,
			MaxRetries:      cfg.Optimizer.MaxRetries,
			RetryInterval:   cfg.Optimizer.RetryInterval,
			PoolSize:        cfg.Optimizer.PoolSize,
		},
		featuregate.NewGate(configStore),
		addresser.NewAddresser(keyMode),
		artifactStore,
		mediaStore,
		nativecache.NewResolver(layout, mediaStore),
		gateway.NewGateway(adapter.NewHTTPClient(cfg.Tinify.Timeout), gateway.Config{Endpoint: cfg.Tinify.Endpoint}),
		status.NewTracker(configStore),
	)
	defer opt.Close()

	// Create bridge
	eventBridge, err := bridge.NewBridge(
		bridge.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			ConsumerName:   cfg.NATS.ConsumerName,
			FilterSubject:  cfg.NATS.FilterSubject,
			PublishPrefix:  cfg.NATS.PublishPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
			Concurrency:    cfg.Optimizer.PoolSize,
		},
		adapter.NewNatsJetStream(),
		opt,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create event bridge", zap.Error(err))
	}
	defer eventBridge.Close()
	logger.InfoCtx(ctx, "Event bridge created", zap.String("stream", cfg.NATS.StreamName), zap.String("consumer", cfg.NATS.ConsumerName))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	doneCh := make(chan struct{})
	go func() {
		defer close(doneCh)
		if err := eventBridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "bridge"))
		cancel()
	}

	// Let in-flight messages settle
	select {
	case <-doneCh:
	case <-time.After(10 * time.Second):
		logger.Warn("Timed out waiting for in-flight messages")
	}

	logger.Info("Optimizer worker stopped")
}
