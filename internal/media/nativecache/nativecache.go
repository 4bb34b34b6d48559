package nativecache

import (
	"context"
	"crypto/md5" //nolint:gosec // scope names only, matches the host platform
	"encoding/hex"
	"fmt"
	"path"
	"strconv"

	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/media/artifact"
)

// Layout names a host platform cache directory scheme
type Layout string

const (
	// LayoutScoped is catalog/product/cache/<store>/<subdir>/<scope>/<file> (2.0.x)
	LayoutScoped Layout = "scoped"
	// LayoutHashed is catalog/product/cache/<scope>/<file> (2.1.x and later)
	LayoutHashed Layout = "hashed"
)

// ParseLayout converts a configured value to a Layout, defaulting to LayoutHashed
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutHashed:
		return LayoutHashed, nil
	case LayoutScoped:
		return LayoutScoped, nil
	default:
		return "", fmt.Errorf("unknown cache layout %q", s)
	}
}

const defaultStoreID = 1

// Scope returns a 32-character hex scope for a resize configuration.
// It approximates the host's naming: the host hashes its full resize settings
// (frame, aspect ratio, background and more), so Scope is only used to build
// a path when no native file exists. Locate finds real files by probing.
func Scope(layout Layout, img domain.Image) string {
	params := "w=" + strconv.Itoa(img.Width) + "&h=" + strconv.Itoa(img.Height) + "&q=" + strconv.Itoa(img.Quality)
	if layout == LayoutHashed {
		params = "subdir=" + img.DestinationSubdir + "&" + params
	}
	sum := md5.Sum([]byte(params)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// CachePath returns the native cache path of img under layout
func CachePath(layout Layout, img domain.Image) string {
	if layout == LayoutScoped {
		storeID := img.StoreID
		if storeID == 0 {
			storeID = defaultStoreID
		}
		return path.Join(domain.NATIVE_CACHE_DIR, strconv.Itoa(storeID), img.DestinationSubdir, Scope(layout, img), img.CleanBaseFile())
	}
	return path.Join(domain.NATIVE_CACHE_DIR, Scope(layout, img), img.CleanBaseFile())
}

// Resolver finds the file the host platform serves for an image
type Resolver interface {
	// Candidates lists paths in probe order: primary layout, other layout, original upload
	Candidates(img domain.Image) []string

	// Locate returns the first candidate that exists, or domain.ErrSourceNotFound
	Locate(ctx context.Context, img domain.Image) (string, error)

	// FallbackPath returns the located path, or the primary layout path when nothing exists
	FallbackPath(ctx context.Context, img domain.Image) string
}

type resolver struct {
	layout Layout
	media  artifact.Store
}

// NewResolver creates a Resolver probing the media directory
func NewResolver(layout Layout, media artifact.Store) Resolver {
	if layout == "" {
		layout = LayoutHashed
	}
	return &resolver{
		layout: layout,
		media:  media,
	}
}

func (r *resolver) other() Layout {
	if r.layout == LayoutScoped {
		return LayoutHashed
	}
	return LayoutScoped
}

func (r *resolver) Candidates(img domain.Image) []string {
	return []string{
		CachePath(r.layout, img),
		CachePath(r.other(), img),
		img.OriginalPath(),
	}
}

func (r *resolver) Locate(ctx context.Context, img domain.Image) (string, error) {
	for _, candidate := range r.Candidates(img) {
		ok, err := r.media.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, img.CleanBaseFile())
}

func (r *resolver) FallbackPath(ctx context.Context, img domain.Image) string {
	p, err := r.Locate(ctx, img)
	if err != nil {
		return CachePath(r.layout, img)
	}
	return p
}
