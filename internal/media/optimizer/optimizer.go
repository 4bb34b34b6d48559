package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/logger"
	"github.com/feral-file/ff-image-optimizer/internal/media/addresser"
	"github.com/feral-file/ff-image-optimizer/internal/media/artifact"
	"github.com/feral-file/ff-image-optimizer/internal/media/featuregate"
	"github.com/feral-file/ff-image-optimizer/internal/media/gateway"
	"github.com/feral-file/ff-image-optimizer/internal/media/nativecache"
	"github.com/feral-file/ff-image-optimizer/internal/media/status"
)

const (
	DEFAULT_POOL_SIZE      = 4
	DEFAULT_RETRY_INTERVAL = 2 * time.Second
)

// Config holds orchestrator settings
type Config struct {
	// BaseURL is the public URL of the media root (e.g. "https://shop.example/pub/media")
	BaseURL string
	// ArtifactBaseURL is the public URL optimized artifacts are served from.
	// Empty means artifacts live under the media root and BaseURL is used.
	ArtifactBaseURL string
	// MaxRetries is the number of extra compression attempts; 0 means a single attempt
	MaxRetries int
	// RetryInterval is the initial backoff between attempts
	RetryInterval time.Duration
	// PoolSize bounds concurrent optimizations in OptimizeBatch
	PoolSize int
}

// BatchResult is the outcome for one image of a batch
type BatchResult struct {
	Image    domain.Image
	Decision domain.Decision
	Err      error
}

// Optimizer decides, per saved image, whether to compress it and where the
// optimized artifact lives
//
//go:generate mockgen -source=optimizer.go -destination=../../mocks/optimizer.go -package=mocks -mock_names=Optimizer=MockOptimizer
type Optimizer interface {
	// OnImageSaved runs the optimization policy for a freshly saved image.
	// Policy outcomes and compression failures are reported through the decision
	// only; the error is non-nil for invalid images and storage I/O failures.
	OnImageSaved(ctx context.Context, img domain.Image) (domain.Decision, error)

	// ResolveURL returns the optimized URL when the artifact exists and the
	// platform-native URL otherwise. It never compresses or writes.
	// The error is non-nil only for invalid images.
	ResolveURL(ctx context.Context, img domain.Image) (string, error)

	// OptimizeBatch runs OnImageSaved for every image on a bounded worker pool.
	// Results keep the input order.
	OptimizeBatch(ctx context.Context, imgs []domain.Image) []BatchResult

	// Close stops the worker pool
	Close()
}

type optimizer struct {
	config    Config
	gate      featuregate.Gate
	addresser addresser.Addresser
	artifacts artifact.Store
	media     artifact.Store
	native    nativecache.Resolver
	gateway   gateway.Gateway
	tracker   status.Tracker
	pool      pond.ResultPool[BatchResult]
}

// NewOptimizer creates an Optimizer.
// media is the platform media directory holding originals and native cache files;
// artifacts receives optimized images and may be the same store.
func NewOptimizer(
	cfg Config,
	gate featuregate.Gate,
	addr addresser.Addresser,
	artifacts artifact.Store,
	media artifact.Store,
	native nativecache.Resolver,
	gw gateway.Gateway,
	tracker status.Tracker,
) Optimizer {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DEFAULT_POOL_SIZE
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DEFAULT_RETRY_INTERVAL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.ArtifactBaseURL == "" {
		cfg.ArtifactBaseURL = cfg.BaseURL
	}

	return &optimizer{
		config:    cfg,
		gate:      gate,
		addresser: addr,
		artifacts: artifacts,
		media:     media,
		native:    native,
		gateway:   gw,
		tracker:   tracker,
		pool:      pond.NewResultPool[BatchResult](cfg.PoolSize),
	}
}

// OnImageSaved implements the save-time policy:
// disabled -> key -> existence check -> compress -> persist
func (o *optimizer) OnImageSaved(ctx context.Context, img domain.Image) (domain.Decision, error) {
	if err := img.Validate(); err != nil {
		return domain.DecisionFailed, err
	}

	fields := imageFields(img)

	apiKey, enabled := o.enabled(ctx, img)
	if !enabled {
		logger.DebugCtx(ctx, "Optimization disabled", fields...)
		return domain.DecisionDisabled, nil
	}

	source := o.sourceLoader(img)

	key, err := o.addresser.Key(ctx, img, source.load)
	if err != nil {
		return o.sourceFailure(ctx, err, fields)
	}

	artifactPath := addresser.ArtifactPath(key, img)
	fields = append(fields, zap.String("artifactPath", artifactPath))

	exists, err := o.artifacts.Exists(ctx, artifactPath)
	if err != nil {
		return domain.DecisionFailed, fmt.Errorf("failed to check artifact: %w", err)
	}
	if exists {
		logger.DebugCtx(ctx, "Optimized artifact already present", fields...)
		return domain.DecisionCacheHit, nil
	}

	data, err := source.load(ctx)
	if err != nil {
		return o.sourceFailure(ctx, err, fields)
	}

	result, err := o.compress(ctx, apiKey, data)
	if err != nil {
		var ce *gateway.CompressionError
		if errors.As(err, &ce) {
			o.recordCount(ctx, ce.CompressionCount)
		}
		logger.Named(domain.LOG_CATEGORY).Error(err.Error(), fields...)
		return domain.DecisionFailed, nil
	}

	written, err := o.artifacts.WriteIfAbsent(ctx, artifactPath, result.Data)
	if err != nil {
		return domain.DecisionFailed, fmt.Errorf("failed to persist artifact: %w", err)
	}
	o.recordCount(ctx, result.CompressionCount)

	logger.InfoCtx(ctx, "Image optimized",
		append(fields,
			zap.Int("originalSize", len(data)),
			zap.Int("optimizedSize", len(result.Data)),
			zap.Bool("written", written),
		)...,
	)

	return domain.DecisionCompressed, nil
}

// ResolveURL recomputes the artifact path and falls back to the native cache
func (o *optimizer) ResolveURL(ctx context.Context, img domain.Image) (string, error) {
	if err := img.Validate(); err != nil {
		return "", err
	}

	if p, ok := o.optimizedPath(ctx, img); ok {
		return joinURL(o.config.ArtifactBaseURL, p), nil
	}
	return joinURL(o.config.BaseURL, o.native.FallbackPath(ctx, img)), nil
}

// optimizedPath returns the artifact path when optimization applies and the artifact exists
func (o *optimizer) optimizedPath(ctx context.Context, img domain.Image) (string, bool) {
	if _, enabled := o.enabled(ctx, img); !enabled {
		return "", false
	}

	source := o.sourceLoader(img)
	key, err := o.addresser.Key(ctx, img, source.load)
	if err != nil {
		logger.DebugCtx(ctx, "Cannot address image, using native URL", append(imageFields(img), zap.Error(err))...)
		return "", false
	}

	artifactPath := addresser.ArtifactPath(key, img)
	exists, err := o.artifacts.Exists(ctx, artifactPath)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to check artifact, using native URL",
			append(imageFields(img), zap.String("artifactPath", artifactPath), zap.Error(err))...)
		return "", false
	}
	return artifactPath, exists
}

// OptimizeBatch fans the images out to the worker pool
func (o *optimizer) OptimizeBatch(ctx context.Context, imgs []domain.Image) []BatchResult {
	tasks := make([]pond.Result[BatchResult], len(imgs))
	for i, img := range imgs {
		tasks[i] = o.pool.SubmitErr(func() (BatchResult, error) {
			if err := ctx.Err(); err != nil {
				return BatchResult{Image: img, Decision: domain.DecisionFailed, Err: err}, nil
			}
			decision, err := o.OnImageSaved(ctx, img)
			return BatchResult{Image: img, Decision: decision, Err: err}, nil
		})
	}

	results := make([]BatchResult, len(imgs))
	for i, task := range tasks {
		result, err := task.Wait()
		if err != nil {
			// Only reached when the pool itself rejects or panics
			result = BatchResult{Image: imgs[i], Decision: domain.DecisionFailed, Err: err}
		}
		results[i] = result
	}
	return results
}

func (o *optimizer) Close() {
	o.pool.StopAndWait()
}

// enabled reads the gate; configuration errors disable optimization
func (o *optimizer) enabled(ctx context.Context, img domain.Image) (string, bool) {
	apiKey, err := o.gate.APIKey(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to read API key, skipping optimization", zap.Error(err))
		return "", false
	}
	if apiKey == "" {
		return "", false
	}

	ok, err := o.gate.IsEnabledFor(ctx, img.DestinationSubdir)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to read type flag, skipping optimization",
			zap.String("subdir", img.DestinationSubdir), zap.Error(err))
		return "", false
	}
	return apiKey, ok
}

// compress calls the gateway, retrying transient failures when configured
func (o *optimizer) compress(ctx context.Context, apiKey string, data []byte) (*gateway.Result, error) {
	if o.config.MaxRetries == 0 {
		return o.gateway.Compress(ctx, apiKey, data)
	}

	var result *gateway.Result
	operation := func() error {
		r, err := o.gateway.Compress(ctx, apiKey, data)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			logger.WarnCtx(ctx, "Compression attempt failed, retrying", zap.Error(err))
			return err
		}
		result = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.config.RetryInterval
	b.MaxElapsedTime = 0 // Bounded by MaxRetries instead
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.config.MaxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

// retryable reports whether another attempt could succeed
func retryable(err error) bool {
	var ce *gateway.CompressionError
	if !errors.As(err, &ce) {
		return true
	}
	return ce.Kind == gateway.KindServer || ce.Kind == gateway.KindConnection
}

func (o *optimizer) recordCount(ctx context.Context, count *int) {
	if count == nil {
		return
	}
	if err := o.tracker.SetCompressionCount(ctx, *count); err != nil {
		logger.WarnCtx(ctx, "Failed to store compression count", zap.Int("count", *count), zap.Error(err))
	}
}

// sourceFailure maps a source read error to a decision; only I/O errors are returned
func (o *optimizer) sourceFailure(ctx context.Context, err error, fields []zap.Field) (domain.Decision, error) {
	if errors.Is(err, domain.ErrSourceNotFound) || errors.Is(err, domain.ErrArtifactNotFound) {
		logger.WarnCtx(ctx, "Source image missing, skipping optimization", append(fields, zap.Error(err))...)
		return domain.DecisionFailed, nil
	}
	return domain.DecisionFailed, fmt.Errorf("failed to read source image: %w", err)
}

func joinURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// sourceLoader reads the saved image at most once per decision
type sourceLoader struct {
	o    *optimizer
	img  domain.Image
	once sync.Once
	data []byte
	err  error
}

func (o *optimizer) sourceLoader(img domain.Image) *sourceLoader {
	return &sourceLoader{o: o, img: img}
}

func (s *sourceLoader) load(ctx context.Context) ([]byte, error) {
	s.once.Do(func() {
		p, err := s.o.native.Locate(ctx, s.img)
		if err != nil {
			s.err = err
			return
		}
		s.data, s.err = s.o.media.Read(ctx, p)
	})
	return s.data, s.err
}

func imageFields(img domain.Image) []zap.Field {
	return []zap.Field{
		zap.String("baseFile", img.BaseFile),
		zap.String("subdir", img.DestinationSubdir),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("quality", img.Quality),
	}
}
