package status

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/store"
)

// Tracker persists the compression count reported by the remote service.
// The value is an external running total, so concurrent updates are
// last-writer-wins.
//
//go:generate mockgen -source=status.go -destination=../../mocks/status.go -package=mocks -mock_names=Tracker=MockStatusTracker
type Tracker interface {
	// CompressionCount returns the last reported count, 0 when never reported
	CompressionCount(ctx context.Context) (int, error)

	// SetCompressionCount stores the reported count
	SetCompressionCount(ctx context.Context, count int) error
}

type tracker struct {
	store store.ConfigStore
}

// NewTracker creates a Tracker backed by the config store
func NewTracker(st store.ConfigStore) Tracker {
	return &tracker{store: st}
}

func (t *tracker) CompressionCount(ctx context.Context) (int, error) {
	v, err := t.store.GetKeyValue(ctx, domain.CONFIG_COMPRESSION_COUNT_PATH)
	if err != nil {
		return 0, fmt.Errorf("failed to read compression count: %w", err)
	}

	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse compression count %q: %w", v, err)
	}
	return n, nil
}

func (t *tracker) SetCompressionCount(ctx context.Context, count int) error {
	if count < 0 {
		return fmt.Errorf("compression count must not be negative: %d", count)
	}
	if err := t.store.SetKeyValue(ctx, domain.CONFIG_COMPRESSION_COUNT_PATH, strconv.Itoa(count)); err != nil {
		return fmt.Errorf("failed to store compression count: %w", err)
	}
	return nil
}
