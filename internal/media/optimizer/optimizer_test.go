package optimizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/feral-file/ff-image-optimizer/internal/adapter"
	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/logger"
	"github.com/feral-file/ff-image-optimizer/internal/media/addresser"
	"github.com/feral-file/ff-image-optimizer/internal/media/artifact"
	"github.com/feral-file/ff-image-optimizer/internal/media/featuregate"
	"github.com/feral-file/ff-image-optimizer/internal/media/gateway"
	"github.com/feral-file/ff-image-optimizer/internal/media/nativecache"
	"github.com/feral-file/ff-image-optimizer/internal/media/optimizer"
	"github.com/feral-file/ff-image-optimizer/internal/mocks"
)

const (
	baseURL     = "https://shop.example/pub/media"
	apiKey      = "tinify-key"
	sourceBytes = "tiny png bytes"
	optimized   = "optimized bytes"

	// sha256("catalog/product/example.png")
	exampleKey = "c81bf7828925ba76a42ecdecea304525180af578f00d293122b45a2c8cbc5eb3"
)

var optimizedURLPattern = regexp.MustCompile(`/catalog/product/optimized/([0-9a-f])/([0-9a-f])/([0-9a-f]{64})/[^/]+$`)

type fixture struct {
	root    string
	media   artifact.Store
	native  nativecache.Resolver
	gate    *mocks.MockFeatureGate
	gateway *mocks.MockGateway
	tracker *mocks.MockStatusTracker
}

func newFixture(t *testing.T, ctrl *gomock.Controller) *fixture {
	t.Helper()
	root := t.TempDir()
	media := artifact.NewFileSystemStore(root, adapter.NewFileSystem())
	return &fixture{
		root:    root,
		media:   media,
		native:  nativecache.NewResolver(nativecache.LayoutHashed, media),
		gate:    mocks.NewMockFeatureGate(ctrl),
		gateway: mocks.NewMockGateway(ctrl),
		tracker: mocks.NewMockStatusTracker(ctrl),
	}
}

func (f *fixture) optimizer(t *testing.T, cfg optimizer.Config, mode addresser.Mode) optimizer.Optimizer {
	t.Helper()
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	o := optimizer.NewOptimizer(cfg, f.gate, addresser.NewAddresser(mode), f.media, f.media, f.native, f.gateway, f.tracker)
	t.Cleanup(o.Close)
	return o
}

// enable makes the gate answer with a key and the given per-subdir flag
func (f *fixture) enable(subdir string, enabled bool) {
	f.gate.EXPECT().APIKey(gomock.Any()).Return(apiKey, nil).AnyTimes()
	f.gate.EXPECT().IsEnabledFor(gomock.Any(), subdir).Return(enabled, nil).AnyTimes()
}

func (f *fixture) write(t *testing.T, p, content string) {
	t.Helper()
	full := filepath.Join(f.root, filepath.FromSlash(p))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

func (f *fixture) read(t *testing.T, p string) ([]byte, bool) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(p)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false
	}
	require.NoError(t, err)
	return data, true
}

// saveSource places the rendered image where the host platform would
func (f *fixture) saveSource(t *testing.T, img domain.Image) string {
	t.Helper()
	p := nativecache.CachePath(nativecache.LayoutHashed, img)
	f.write(t, p, sourceBytes)
	return p
}

func exampleImage() domain.Image {
	return domain.Image{BaseFile: "example.png", DestinationSubdir: "my_image_type"}
}

func examplePath() string {
	return "catalog/product/optimized/c/8/" + exampleKey + "/example.png"
}

func intPtr(n int) *int {
	return &n
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestOnImageSaved_Compresses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	f.saveSource(t, img)

	f.gateway.EXPECT().
		Compress(gomock.Any(), apiKey, []byte(sourceBytes)).
		Return(&gateway.Result{Data: []byte(optimized), CompressionCount: intPtr(5)}, nil)
	f.tracker.EXPECT().SetCompressionCount(gomock.Any(), 5).Return(nil)

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)
	decision, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionCompressed, decision)

	data, ok := f.read(t, examplePath())
	require.True(t, ok)
	assert.Equal(t, []byte(optimized), data)

	url, err := o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/"+examplePath(), url)

	m := optimizedURLPattern.FindStringSubmatch(url)
	require.NotNil(t, m)
	assert.Equal(t, m[3][0:1], m[1])
	assert.Equal(t, m[3][1:2], m[2])
}

func TestOnImageSaved_KeepsExistingArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	f.saveSource(t, img)
	f.write(t, examplePath(), "sentinel")

	// Gateway must not be called; gomock fails on unexpected calls
	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)

	for i := 0; i < 2; i++ {
		decision, err := o.OnImageSaved(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionCacheHit, decision)
	}

	data, ok := f.read(t, examplePath())
	require.True(t, ok)
	assert.Equal(t, []byte("sentinel"), data)
}

func TestOnImageSaved_SecondSaveIsCacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	f.saveSource(t, img)

	f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).
		Return(&gateway.Result{Data: []byte(optimized)}, nil).Times(1)

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)

	first, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	second, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionCompressed, first)
	assert.Equal(t, domain.DecisionCacheHit, second)
	data, _ := f.read(t, examplePath())
	assert.Equal(t, []byte(optimized), data)
}

func TestOnImageSaved_DisabledType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", false)
	img := exampleImage()
	f.saveSource(t, img)

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)
	decision, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDisabled, decision)

	_, ok := f.read(t, examplePath())
	assert.False(t, ok)
	_, err = os.Stat(filepath.Join(f.root, "catalog", "product", "optimized"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOnImageSaved_SwatchTypeDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	img := domain.Image{BaseFile: "example.png", DestinationSubdir: "swatch_thumb"}
	f.saveSource(t, img)

	st := mocks.NewMockConfigStore(ctrl)
	st.EXPECT().GetKeyValue(gomock.Any(), domain.CONFIG_API_KEY_PATH).Return(apiKey, nil).AnyTimes()
	st.EXPECT().GetKeyValue(gomock.Any(), "tinify_compress_images/types/swatch").Return("0", nil).AnyTimes()

	o := optimizer.NewOptimizer(optimizer.Config{BaseURL: baseURL}, featuregate.NewGate(st),
		addresser.NewAddresser(addresser.ModePath), f.media, f.media, f.native, f.gateway, f.tracker)
	defer o.Close()

	decision, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDisabled, decision)

	_, ok := f.read(t, examplePath())
	assert.False(t, ok)

	url, err := o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Nil(t, optimizedURLPattern.FindStringSubmatch(url))
}

func TestOnImageSaved_GateReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.gate.EXPECT().APIKey(gomock.Any()).Return("", errors.New("db down"))

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)
	decision, err := o.OnImageSaved(context.Background(), exampleImage())
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDisabled, decision)
}

func TestOnImageSaved_QualityDoesNotChangeArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)

	high := exampleImage()
	high.Quality = 90
	low := exampleImage()
	low.Quality = 40
	f.saveSource(t, high)
	f.saveSource(t, low)

	f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).
		Return(&gateway.Result{Data: []byte(optimized)}, nil).Times(1)

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)

	decision, err := o.OnImageSaved(context.Background(), high)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionCompressed, decision)

	decision, err = o.OnImageSaved(context.Background(), low)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionCacheHit, decision)

	highURL, err := o.ResolveURL(context.Background(), high)
	require.NoError(t, err)
	lowURL, err := o.ResolveURL(context.Background(), low)
	require.NoError(t, err)
	assert.Equal(t, highURL, lowURL)
	assert.Equal(t, baseURL+"/"+examplePath(), highURL)
}

func TestOnImageSaved_GatewayFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logs := observe(t)

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	nativePath := f.saveSource(t, img)

	compressionErr := &gateway.CompressionError{
		Kind:             gateway.KindClient,
		Status:           415,
		Code:             "Unsupported",
		Message:          "File type is not supported",
		CompressionCount: intPtr(7),
	}
	f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).Return(nil, compressionErr)
	f.tracker.EXPECT().SetCompressionCount(gomock.Any(), 7).Return(nil)

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)
	decision, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionFailed, decision)

	tagged := logs.FilterLoggerName("tinify").FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, tagged, 1)
	assert.Equal(t, "File type is not supported (HTTP 415/Unsupported)", tagged[0].Message)

	_, ok := f.read(t, examplePath())
	assert.False(t, ok)

	url, err := o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/"+nativePath, url)
	assert.Nil(t, optimizedURLPattern.FindStringSubmatch(url))
}

func TestOnImageSaved_ConnectionFailureWithoutCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logs := observe(t)

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	f.saveSource(t, img)

	f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).
		Return(nil, &gateway.CompressionError{Kind: gateway.KindConnection, Message: "Error while connecting: refused"})

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)
	decision, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionFailed, decision)
	assert.Equal(t, 1, logs.FilterLoggerName("tinify").Len())
}

func TestResolveURL_BlankKeyUsesNativeURL(t *testing.T) {
	for _, key := range []string{"", "   ", "\t\n"} {
		t.Run("key "+key, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFixture(t, ctrl)
			img := exampleImage()
			// An artifact left over from an earlier key must not be served
			f.write(t, examplePath(), "sentinel")

			st := mocks.NewMockConfigStore(ctrl)
			st.EXPECT().GetKeyValue(gomock.Any(), domain.CONFIG_API_KEY_PATH).Return(key, nil).AnyTimes()
			st.EXPECT().GetKeyValue(gomock.Any(), featuregate.TypeKey("my_image_type")).Return("", nil).AnyTimes()

			o := optimizer.NewOptimizer(optimizer.Config{BaseURL: baseURL}, featuregate.NewGate(st),
				addresser.NewAddresser(addresser.ModePath), f.media, f.media, f.native, f.gateway, f.tracker)
			defer o.Close()

			url, err := o.ResolveURL(context.Background(), img)
			require.NoError(t, err)

			fallbacks := []string{
				baseURL + "/" + nativecache.CachePath(nativecache.LayoutHashed, img),
				baseURL + "/" + nativecache.CachePath(nativecache.LayoutScoped, img),
				baseURL + "/" + img.OriginalPath(),
			}
			assert.Contains(t, fallbacks, url)
			assert.Nil(t, optimizedURLPattern.FindStringSubmatch(url))

			decision, err := o.OnImageSaved(context.Background(), img)
			require.NoError(t, err)
			assert.Equal(t, domain.DecisionDisabled, decision)
		})
	}
}

func TestResolveURL_ArtifactBaseURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	const bucketURL = "https://storage.googleapis.com/optimized-media/prod"

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	f.saveSource(t, img)

	// Artifacts live outside the media root
	artifactRoot := t.TempDir()
	artifacts := artifact.NewFileSystemStore(artifactRoot, adapter.NewFileSystem())

	f.gateway.EXPECT().
		Compress(gomock.Any(), apiKey, []byte(sourceBytes)).
		Return(&gateway.Result{Data: []byte(optimized)}, nil)

	o := optimizer.NewOptimizer(optimizer.Config{BaseURL: baseURL, ArtifactBaseURL: bucketURL + "/"}, f.gate,
		addresser.NewAddresser(addresser.ModePath), artifacts, f.media, f.native, f.gateway, f.tracker)
	defer o.Close()

	native, err := o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/"+nativecache.CachePath(nativecache.LayoutHashed, img), native)

	decision, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionCompressed, decision)

	_, ok := f.read(t, examplePath())
	assert.False(t, ok, "artifact must not land in the media root")
	data, err := os.ReadFile(filepath.Join(artifactRoot, filepath.FromSlash(examplePath())))
	require.NoError(t, err)
	assert.Equal(t, []byte(optimized), data)

	url, err := o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, bucketURL+"/"+examplePath(), url)
}

func TestResolveURL_FallbackOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	o := f.optimizer(t, optimizer.Config{BaseURL: baseURL + "/"}, addresser.ModePath)

	// Nothing on disk: primary layout path
	url, err := o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/"+nativecache.CachePath(nativecache.LayoutHashed, img), url)

	// Only the original upload
	f.write(t, img.OriginalPath(), sourceBytes)
	url, err = o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/catalog/product/example.png", url)

	// Scoped cache file wins over the original
	scoped := nativecache.CachePath(nativecache.LayoutScoped, img)
	f.write(t, scoped, sourceBytes)
	url, err = o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/"+scoped, url)
}

func TestResolveURL_InvalidImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)

	_, err := o.ResolveURL(context.Background(), domain.Image{DestinationSubdir: "thumbnail"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidImage))

	decision, err := o.OnImageSaved(context.Background(), domain.Image{BaseFile: "x.png"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidImage))
	assert.Equal(t, domain.DecisionFailed, decision)
}

func TestOnImageSaved_MissingSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)

	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)
	decision, err := o.OnImageSaved(context.Background(), exampleImage())
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionFailed, decision)
}

func TestOnImageSaved_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	f.saveSource(t, img)

	artifacts := mocks.NewMockArtifactStore(ctrl)
	ioErr := errors.New("bucket unavailable")

	o := optimizer.NewOptimizer(optimizer.Config{BaseURL: baseURL}, f.gate, addresser.NewAddresser(addresser.ModePath),
		artifacts, f.media, f.native, f.gateway, f.tracker)
	defer o.Close()

	t.Run("exists", func(t *testing.T) {
		artifacts.EXPECT().Exists(gomock.Any(), examplePath()).Return(false, ioErr)

		decision, err := o.OnImageSaved(context.Background(), img)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ioErr))
		assert.Equal(t, domain.DecisionFailed, decision)
	})

	t.Run("write", func(t *testing.T) {
		artifacts.EXPECT().Exists(gomock.Any(), examplePath()).Return(false, nil)
		f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).
			Return(&gateway.Result{Data: []byte(optimized), CompressionCount: intPtr(9)}, nil)
		artifacts.EXPECT().WriteIfAbsent(gomock.Any(), examplePath(), []byte(optimized)).Return(false, ioErr)

		decision, err := o.OnImageSaved(context.Background(), img)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to persist artifact")
		assert.Equal(t, domain.DecisionFailed, decision)
	})

	t.Run("resolve falls back", func(t *testing.T) {
		artifacts.EXPECT().Exists(gomock.Any(), examplePath()).Return(false, ioErr)

		url, err := o.ResolveURL(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, baseURL+"/"+nativecache.CachePath(nativecache.LayoutHashed, img), url)
	})
}

func TestOnImageSaved_ContentKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.enable("my_image_type", true)
	img := exampleImage()
	f.saveSource(t, img)

	f.gateway.EXPECT().Compress(gomock.Any(), apiKey, []byte(sourceBytes)).
		Return(&gateway.Result{Data: []byte(optimized)}, nil)

	o := f.optimizer(t, optimizer.Config{}, addresser.ModeContent)
	decision, err := o.OnImageSaved(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionCompressed, decision)

	// sha256("tiny png bytes")
	p := "catalog/product/optimized/e/2/e2413f71258c919a617bc67ee85f74f89859b963b96b31b1936127fb28d8a2bd/example.png"
	_, ok := f.read(t, p)
	assert.True(t, ok)

	url, err := o.ResolveURL(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/"+p, url)
}

func TestOnImageSaved_Retry(t *testing.T) {
	serverErr := &gateway.CompressionError{Kind: gateway.KindServer, Status: 503, Code: "Unavailable", Message: "Service unavailable"}
	clientErr := &gateway.CompressionError{Kind: gateway.KindAccount, Status: 429, Code: "TooManyRequests", Message: "Your monthly limit has been exceeded"}

	t.Run("transient error retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newFixture(t, ctrl)
		f.enable("my_image_type", true)
		f.saveSource(t, exampleImage())

		gomock.InOrder(
			f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).Return(nil, serverErr),
			f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).Return(&gateway.Result{Data: []byte(optimized)}, nil),
		)

		o := f.optimizer(t, optimizer.Config{MaxRetries: 2, RetryInterval: time.Millisecond}, addresser.ModePath)
		decision, err := o.OnImageSaved(context.Background(), exampleImage())
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionCompressed, decision)
	})

	t.Run("account error not retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newFixture(t, ctrl)
		f.enable("my_image_type", true)
		f.saveSource(t, exampleImage())

		f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).Return(nil, clientErr).Times(1)

		o := f.optimizer(t, optimizer.Config{MaxRetries: 3, RetryInterval: time.Millisecond}, addresser.ModePath)
		decision, err := o.OnImageSaved(context.Background(), exampleImage())
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionFailed, decision)
	})

	t.Run("single attempt by default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newFixture(t, ctrl)
		f.enable("my_image_type", true)
		f.saveSource(t, exampleImage())

		f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).Return(nil, serverErr).Times(1)

		o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)
		decision, err := o.OnImageSaved(context.Background(), exampleImage())
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionFailed, decision)
	})
}

func TestOptimizeBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	f.gate.EXPECT().APIKey(gomock.Any()).Return(apiKey, nil).AnyTimes()
	f.gate.EXPECT().IsEnabledFor(gomock.Any(), "thumbnail").Return(true, nil).AnyTimes()
	f.gate.EXPECT().IsEnabledFor(gomock.Any(), "swatch_thumb").Return(false, nil).AnyTimes()

	imgs := []domain.Image{
		{BaseFile: "/a/b/first.png", DestinationSubdir: "thumbnail", Width: 100, Height: 100},
		{BaseFile: "/s/e/second.png", DestinationSubdir: "thumbnail", Width: 100, Height: 100},
		{BaseFile: "/t/h/third.png", DestinationSubdir: "swatch_thumb"},
		{BaseFile: "/m/i/missing.png", DestinationSubdir: "thumbnail"},
	}
	for _, img := range imgs[:3] {
		f.saveSource(t, img)
	}

	f.gateway.EXPECT().Compress(gomock.Any(), apiKey, gomock.Any()).
		Return(&gateway.Result{Data: []byte(optimized)}, nil).Times(2)

	o := f.optimizer(t, optimizer.Config{PoolSize: 2}, addresser.ModePath)
	results := o.OptimizeBatch(context.Background(), imgs)

	require.Len(t, results, len(imgs))
	expected := []domain.Decision{
		domain.DecisionCompressed,
		domain.DecisionCompressed,
		domain.DecisionDisabled,
		domain.DecisionFailed,
	}
	for i, r := range results {
		assert.Equal(t, imgs[i], r.Image)
		assert.Equal(t, expected[i], r.Decision, r.Image.BaseFile)
		assert.NoError(t, r.Err)
	}
}

func TestOptimizeBatch_CanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(t, ctrl)
	o := f.optimizer(t, optimizer.Config{}, addresser.ModePath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.OptimizeBatch(ctx, []domain.Image{exampleImage()})
	require.Len(t, results, 1)
	assert.Equal(t, domain.DecisionFailed, results[0].Decision)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
}
