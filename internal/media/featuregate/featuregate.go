package featuregate

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/store"
)

// Gate answers whether optimization may run. Every call reads the config
// store again so configuration changes apply to the next decision.
//
//go:generate mockgen -source=featuregate.go -destination=../../mocks/featuregate.go -package=mocks -mock_names=Gate=MockFeatureGate
type Gate interface {
	// IsEnabledFor reports whether images rendered for subdir are optimized.
	// An unset flag means enabled.
	IsEnabledFor(ctx context.Context, subdir string) (bool, error)

	// APIKey returns the trimmed API key, "" when unset or blank
	APIKey(ctx context.Context) (string, error)

	// HasAPIKey reports whether a non-blank key is configured
	HasAPIKey(ctx context.Context) (bool, error)
}

type gate struct {
	store store.ConfigStore
}

// NewGate creates a Gate reading from the config store
func NewGate(st store.ConfigStore) Gate {
	return &gate{store: st}
}

// swatchType groups swatch_image and swatch_thumb under one flag
const swatchType = "swatch"

// ImageType returns the image type a destination subdir is rendered for.
// Every swatch_* subdir belongs to the swatch type; other subdirs are their own type.
func ImageType(subdir string) string {
	subdir = strings.Trim(strings.TrimSpace(subdir), "/")
	if subdir == swatchType || strings.HasPrefix(subdir, swatchType+"_") {
		return swatchType
	}
	return subdir
}

// TypeKey returns the config key of the enablement flag for subdir
func TypeKey(subdir string) string {
	return path.Join(domain.CONFIG_TYPES_PATH, ImageType(subdir))
}

func (g *gate) IsEnabledFor(ctx context.Context, subdir string) (bool, error) {
	v, err := g.store.GetKeyValue(ctx, TypeKey(subdir))
	if err != nil {
		return false, fmt.Errorf("failed to read type flag for %s: %w", ImageType(subdir), err)
	}

	v = strings.TrimSpace(v)
	if v == "" {
		return true, nil
	}

	enabled, err := strconv.ParseBool(v)
	if err != nil {
		// Unreadable flags keep the type off rather than guessing
		return false, nil
	}
	return enabled, nil
}

func (g *gate) APIKey(ctx context.Context) (string, error) {
	v, err := g.store.GetKeyValue(ctx, domain.CONFIG_API_KEY_PATH)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(v), nil
}

func (g *gate) HasAPIKey(ctx context.Context) (bool, error) {
	key, err := g.APIKey(ctx)
	if err != nil {
		return false, err
	}
	return key != "", nil
}
