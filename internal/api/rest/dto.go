package rest

import (
	"github.com/feral-file/ff-image-optimizer/internal/domain"
)

// SaveImagesRequest is the body of POST /images/saved/batch
type SaveImagesRequest struct {
	Images []domain.Image `json:"images" binding:"required"`
}

// SaveImageResponse reports the decision for one saved image
type SaveImageResponse struct {
	BaseFile          string          `json:"base_file"`
	DestinationSubdir string          `json:"destination_subdir"`
	Decision          domain.Decision `json:"decision"`
	URL               string          `json:"url,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// SaveImagesResponse is the body returned by POST /images/saved/batch
type SaveImagesResponse struct {
	Results []SaveImageResponse `json:"results"`
}

// ResolveURLResponse is the body returned by GET /images/url
type ResolveURLResponse struct {
	URL string `json:"url"`
}

// StatusResponse is the body returned by GET /status
type StatusResponse struct {
	APIKeyConfigured bool `json:"api_key_configured"`
	CompressionCount int  `json:"compression_count"`
}
