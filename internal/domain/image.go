package domain

import (
	"fmt"
	"path"
	"strings"
)

// Image identifies a product image saved by the host platform.
// The value is treated as immutable once a save begins.
type Image struct {
	// BaseFile is the path relative to catalog/product (e.g. "example.png" or "/e/x/example.png")
	BaseFile string `json:"base_file"`
	// DestinationSubdir is the image type the platform rendered for (e.g. "thumbnail", "swatch_thumb")
	DestinationSubdir string `json:"destination_subdir"`
	Width             int    `json:"width,omitempty"`
	Height            int    `json:"height,omitempty"`
	// Quality is the requested JPEG quality; it never affects the cache key
	Quality int `json:"quality,omitempty"`
	// StoreID is the host store scope used by the scoped cache layout
	StoreID int `json:"store_id,omitempty"`
}

// Validate checks that the image carries enough identity to be addressed
func (i Image) Validate() error {
	if strings.TrimSpace(i.BaseFile) == "" {
		return fmt.Errorf("%w: base file is required", ErrInvalidImage)
	}
	if i.Filename() == "" || i.Filename() == "." || i.Filename() == "/" {
		return fmt.Errorf("%w: base file %q has no filename", ErrInvalidImage, i.BaseFile)
	}
	if strings.TrimSpace(i.DestinationSubdir) == "" {
		return fmt.Errorf("%w: destination subdir is required", ErrInvalidImage)
	}
	if i.Width < 0 || i.Height < 0 || i.Quality < 0 {
		return fmt.Errorf("%w: dimensions and quality must not be negative", ErrInvalidImage)
	}
	return nil
}

// CleanBaseFile returns the base file without leading slashes
func (i Image) CleanBaseFile() string {
	return strings.TrimLeft(path.Clean("/"+i.BaseFile), "/")
}

// Filename returns the last element of the base file
func (i Image) Filename() string {
	return path.Base(i.CleanBaseFile())
}

// OriginalPath returns the media-relative path of the uploaded original
func (i Image) OriginalPath() string {
	return path.Join(CATALOG_PRODUCT_DIR, i.CleanBaseFile())
}

// Decision is the outcome of handling an image save
type Decision string

const (
	DecisionDisabled   Decision = "disabled"
	DecisionCacheHit   Decision = "cache_hit"
	DecisionCompressed Decision = "compressed"
	DecisionFailed     Decision = "failed"
)
