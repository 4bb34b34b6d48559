package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/media/featuregate"
	"github.com/feral-file/ff-image-optimizer/internal/media/optimizer"
	"github.com/feral-file/ff-image-optimizer/internal/media/status"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// SaveImage runs the optimization policy for one saved image
	// POST /api/v1/images/saved
	SaveImage(c *gin.Context)

	// SaveImages runs the optimization policy for up to MAX_BATCH_SIZE images
	// POST /api/v1/images/saved/batch
	SaveImages(c *gin.Context)

	// ResolveURL returns the URL to serve for an image
	// GET /api/v1/images/url?base_file=<path>&subdir=<type>&width=<w>&height=<h>&quality=<q>&store_id=<id>
	ResolveURL(c *gin.Context)

	// GetStatus reports whether a key is configured and the last compression count
	// GET /api/v1/status
	GetStatus(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

type handler struct {
	optimizer optimizer.Optimizer
	gate      featuregate.Gate
	tracker   status.Tracker
}

// NewHandler creates a new REST API handler
func NewHandler(opt optimizer.Optimizer, gate featuregate.Gate, tracker status.Tracker) Handler {
	return &handler{
		optimizer: opt,
		gate:      gate,
		tracker:   tracker,
	}
}

func (h *handler) SaveImage(c *gin.Context) {
	var img domain.Image
	if err := c.ShouldBindJSON(&img); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	decision, err := h.optimizer.OnImageSaved(ctx, img)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImage) {
			respondValidationError(c, err.Error())
			return
		}
		respondStorageError(c, err, zap.String("baseFile", img.BaseFile))
		return
	}

	url, err := h.optimizer.ResolveURL(ctx, img)
	if err != nil {
		respondInternalError(c, err, "Failed to resolve image URL")
		return
	}

	c.JSON(http.StatusOK, SaveImageResponse{
		BaseFile:          img.BaseFile,
		DestinationSubdir: img.DestinationSubdir,
		Decision:          decision,
		URL:               url,
	})
}

func (h *handler) SaveImages(c *gin.Context) {
	var req SaveImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if len(req.Images) == 0 {
		respondValidationError(c, "images must not be empty")
		return
	}
	if len(req.Images) > MAX_BATCH_SIZE {
		respondValidationError(c, fmt.Sprintf("at most %d images per batch", MAX_BATCH_SIZE))
		return
	}

	ctx := c.Request.Context()
	results := h.optimizer.OptimizeBatch(ctx, req.Images)

	resp := SaveImagesResponse{Results: make([]SaveImageResponse, 0, len(results))}
	for _, r := range results {
		item := SaveImageResponse{
			BaseFile:          r.Image.BaseFile,
			DestinationSubdir: r.Image.DestinationSubdir,
			Decision:          r.Decision,
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else if url, err := h.optimizer.ResolveURL(ctx, r.Image); err == nil {
			item.URL = url
		}
		resp.Results = append(resp.Results, item)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ResolveURL(c *gin.Context) {
	params, err := ParseResolveURLQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	url, err := h.optimizer.ResolveURL(c.Request.Context(), params.Image())
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, ResolveURLResponse{URL: url})
}

func (h *handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	hasKey, err := h.gate.HasAPIKey(ctx)
	if err != nil {
		respondInternalError(c, err, "Failed to read configuration")
		return
	}

	count, err := h.tracker.CompressionCount(ctx)
	if err != nil {
		respondInternalError(c, err, "Failed to read compression count")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		APIKeyConfigured: hasKey,
		CompressionCount: count,
	})
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-image-optimizer",
	})
}
