package rest_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-image-optimizer/internal/api/middleware"
	"github.com/feral-file/ff-image-optimizer/internal/api/rest"
	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/media/optimizer"
	"github.com/feral-file/ff-image-optimizer/internal/mocks"
)

const optimizedURL = "https://shop.example/pub/media/catalog/product/optimized/c/8/c81bf7828925ba76a42ecdecea304525180af578f00d293122b45a2c8cbc5eb3/example.png"

type testAPI struct {
	router    *gin.Engine
	optimizer *mocks.MockOptimizer
	gate      *mocks.MockFeatureGate
	tracker   *mocks.MockStatusTracker
}

func newTestAPI(t *testing.T, guard gin.HandlerFunc) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	api := &testAPI{
		router:    gin.New(),
		optimizer: mocks.NewMockOptimizer(ctrl),
		gate:      mocks.NewMockFeatureGate(ctrl),
		tracker:   mocks.NewMockStatusTracker(ctrl),
	}
	rest.SetupRoutes(api.router, rest.NewHandler(api.optimizer, api.gate, api.tracker), guard)
	return api
}

func (a *testAPI) do(method, target string, body interface{}, header ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func exampleImage() domain.Image {
	return domain.Image{BaseFile: "example.png", DestinationSubdir: "my_image_type", Quality: 80}
}

func TestSaveImage(t *testing.T) {
	api := newTestAPI(t, nil)
	img := exampleImage()

	api.optimizer.EXPECT().OnImageSaved(gomock.Any(), img).Return(domain.DecisionCompressed, nil)
	api.optimizer.EXPECT().ResolveURL(gomock.Any(), img).Return(optimizedURL, nil)

	w := api.do(http.MethodPost, "/api/v1/images/saved", img)
	require.Equal(t, http.StatusOK, w.Code)

	var resp rest.SaveImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.DecisionCompressed, resp.Decision)
	assert.Equal(t, optimizedURL, resp.URL)
	assert.Equal(t, "example.png", resp.BaseFile)
}

func TestSaveImage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		setupMocks func(*mocks.MockOptimizer)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed body",
			body:       "{",
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name: "invalid image",
			body: domain.Image{DestinationSubdir: "thumbnail"},
			setupMocks: func(o *mocks.MockOptimizer) {
				o.EXPECT().OnImageSaved(gomock.Any(), gomock.Any()).
					Return(domain.DecisionFailed, fmt.Errorf("%w: base file is required", domain.ErrInvalidImage))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_failed",
		},
		{
			name: "storage failure",
			body: exampleImage(),
			setupMocks: func(o *mocks.MockOptimizer) {
				o.EXPECT().OnImageSaved(gomock.Any(), gomock.Any()).
					Return(domain.DecisionFailed, errors.New("failed to persist artifact: disk full"))
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "storage_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			if tt.setupMocks != nil {
				tt.setupMocks(api.optimizer)
			}

			w := api.do(http.MethodPost, "/api/v1/images/saved", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestSaveImages(t *testing.T) {
	api := newTestAPI(t, nil)

	first := exampleImage()
	second := domain.Image{BaseFile: "/s/w/swatch.png", DestinationSubdir: "swatch_thumb"}
	broken := domain.Image{BaseFile: "/b/r/broken.png", DestinationSubdir: "thumbnail"}

	api.optimizer.EXPECT().OptimizeBatch(gomock.Any(), []domain.Image{first, second, broken}).Return([]optimizer.BatchResult{
		{Image: first, Decision: domain.DecisionCompressed},
		{Image: second, Decision: domain.DecisionDisabled},
		{Image: broken, Decision: domain.DecisionFailed, Err: errors.New("failed to check artifact: timeout")},
	})
	api.optimizer.EXPECT().ResolveURL(gomock.Any(), first).Return(optimizedURL, nil)
	api.optimizer.EXPECT().ResolveURL(gomock.Any(), second).Return("https://shop.example/pub/media/catalog/product/s/w/swatch.png", nil)

	w := api.do(http.MethodPost, "/api/v1/images/saved/batch", rest.SaveImagesRequest{Images: []domain.Image{first, second, broken}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp rest.SaveImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)
	assert.Equal(t, domain.DecisionCompressed, resp.Results[0].Decision)
	assert.Equal(t, optimizedURL, resp.Results[0].URL)
	assert.Equal(t, domain.DecisionDisabled, resp.Results[1].Decision)
	assert.Equal(t, domain.DecisionFailed, resp.Results[2].Decision)
	assert.Empty(t, resp.Results[2].URL)
	assert.Contains(t, resp.Results[2].Error, "timeout")
}

func TestSaveImages_Validation(t *testing.T) {
	tooMany := make([]domain.Image, rest.MAX_BATCH_SIZE+1)
	for i := range tooMany {
		tooMany[i] = exampleImage()
	}

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing images", body: map[string]interface{}{}},
		{name: "empty images", body: rest.SaveImagesRequest{Images: []domain.Image{}}},
		{name: "too many images", body: rest.SaveImagesRequest{Images: tooMany}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			w := api.do(http.MethodPost, "/api/v1/images/saved/batch", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestResolveURL(t *testing.T) {
	api := newTestAPI(t, nil)

	expected := domain.Image{BaseFile: "/e/x/example.jpg", DestinationSubdir: "thumbnail", Width: 200, Height: 133, Quality: 80, StoreID: 2}
	api.optimizer.EXPECT().ResolveURL(gomock.Any(), expected).Return(optimizedURL, nil)

	w := api.do(http.MethodGet, "/api/v1/images/url?base_file=/e/x/example.jpg&subdir=thumbnail&width=200&height=133&quality=80&store_id=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"`+optimizedURL+`"}`, w.Body.String())
}

func TestResolveURL_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing base file", query: "subdir=thumbnail"},
		{name: "missing subdir", query: "base_file=example.png"},
		{name: "negative width", query: "base_file=example.png&subdir=thumbnail&width=-1"},
		{name: "quality out of range", query: "base_file=example.png&subdir=thumbnail&quality=101"},
		{name: "non numeric height", query: "base_file=example.png&subdir=thumbnail&height=tall"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			w := api.do(http.MethodGet, "/api/v1/images/url?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation_failed")
		})
	}
}

func TestGetStatus(t *testing.T) {
	api := newTestAPI(t, nil)
	api.gate.EXPECT().HasAPIKey(gomock.Any()).Return(true, nil)
	api.tracker.EXPECT().CompressionCount(gomock.Any()).Return(42, nil)

	w := api.do(http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"api_key_configured":true,"compression_count":42}`, w.Body.String())
}

func TestGetStatus_Error(t *testing.T) {
	api := newTestAPI(t, nil)
	api.gate.EXPECT().HasAPIKey(gomock.Any()).Return(true, nil)
	api.tracker.EXPECT().CompressionCount(gomock.Any()).Return(0, errors.New("db down"))

	w := api.do(http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"status":"ok"`))
}

func TestWriteRoutesGuarded(t *testing.T) {
	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{APIKeys: []string{"platform-key"}})
	require.NoError(t, err)
	api := newTestAPI(t, middleware.Auth(auth))

	w := api.do(http.MethodPost, "/api/v1/images/saved", exampleImage())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/images/saved/batch", rest.SaveImagesRequest{Images: []domain.Image{exampleImage()}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	img := exampleImage()
	api.optimizer.EXPECT().OnImageSaved(gomock.Any(), img).Return(domain.DecisionDisabled, nil)
	api.optimizer.EXPECT().ResolveURL(gomock.Any(), img).Return("https://shop.example/pub/media/catalog/product/example.png", nil)
	w = api.do(http.MethodPost, "/api/v1/images/saved", img, "Authorization", "ApiKey platform-key")
	assert.Equal(t, http.StatusOK, w.Code)

	// Reads stay public
	api.optimizer.EXPECT().ResolveURL(gomock.Any(), gomock.Any()).Return(optimizedURL, nil)
	w = api.do(http.MethodGet, "/api/v1/images/url?base_file=example.png&subdir=my_image_type", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
