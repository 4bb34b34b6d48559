package store

import (
	"context"
)

// ConfigStore defines the key-value operations backing configuration and status
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=ConfigStore=MockConfigStore
type ConfigStore interface {
	// GetKeyValue returns the value for key, or "" when the key is unset
	GetKeyValue(ctx context.Context, key string) (string, error)
	// SetKeyValue creates or replaces the value for key
	SetKeyValue(ctx context.Context, key string, value string) error
	// GetAllKeyValuesByPrefix returns every pair whose key starts with prefix
	GetAllKeyValuesByPrefix(ctx context.Context, prefix string) (map[string]string, error)
}
