package addresser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strconv"

	"github.com/feral-file/ff-image-optimizer/internal/domain"
)

// Mode selects which bytes identify an image
type Mode string

const (
	// ModePath derives the key from the image's catalog path and dimensions
	ModePath Mode = "path"
	// ModeContent derives the key from the saved image bytes
	ModeContent Mode = "content"
)

// ParseMode converts a configured value to a Mode, defaulting to ModePath
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePath:
		return ModePath, nil
	case ModeContent:
		return ModeContent, nil
	default:
		return "", fmt.Errorf("unknown key mode %q", s)
	}
}

// CacheKey is the hex-encoded SHA-256 digest addressing an optimized artifact
type CacheKey string

func (k CacheKey) String() string {
	return string(k)
}

// ComputeKey hashes identity bytes into a CacheKey
func ComputeKey(identity []byte) CacheKey {
	sum := sha256.Sum256(identity)
	return CacheKey(hex.EncodeToString(sum[:]))
}

// Identity returns the canonical path identity of an image.
// Destination subdir and quality are deliberately absent: the remote service
// picks its own quality, so every variant of the same pixels shares one artifact.
func Identity(img domain.Image) []byte {
	id := img.OriginalPath()
	if img.Width > 0 || img.Height > 0 {
		id += "|" + strconv.Itoa(img.Width) + "x" + strconv.Itoa(img.Height)
	}
	return []byte(id)
}

// ArtifactPath returns catalog/product/optimized/<k0>/<k1>/<key>/<filename>
func ArtifactPath(key CacheKey, img domain.Image) string {
	k := string(key)
	return path.Join(domain.OPTIMIZED_DIR, k[0:1], k[1:2], k, img.Filename())
}

// SourceFunc lazily loads the saved image bytes
type SourceFunc func(ctx context.Context) ([]byte, error)

// Addresser derives cache keys for images
type Addresser interface {
	// Mode returns the configured key mode
	Mode() Mode

	// Key computes the cache key of img. The source is only loaded in ModeContent.
	Key(ctx context.Context, img domain.Image, source SourceFunc) (CacheKey, error)
}

type addresser struct {
	mode Mode
}

// NewAddresser creates an Addresser for the given mode
func NewAddresser(mode Mode) Addresser {
	if mode == "" {
		mode = ModePath
	}
	return &addresser{mode: mode}
}

func (a *addresser) Mode() Mode {
	return a.mode
}

func (a *addresser) Key(ctx context.Context, img domain.Image, source SourceFunc) (CacheKey, error) {
	if a.mode != ModeContent {
		return ComputeKey(Identity(img)), nil
	}

	if source == nil {
		return "", fmt.Errorf("content key mode requires a source")
	}
	data, err := source(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load source for key: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty source", domain.ErrSourceNotFound)
	}
	return ComputeKey(data), nil
}
