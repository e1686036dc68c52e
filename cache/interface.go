package cache

import (
	"context"
	"time"
)

// KeyPrefix namespaces every key written by this module.
const KeyPrefix = "bondmodel:"

// Cache stores bucketed series keyed by run fingerprint.
type Cache interface {
	// Get returns the series stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]float64, bool, error)
	Set(ctx context.Context, key string, values []float64) error
	Close() error
}

// Options configures a cache.
type Options struct {
	// DefaultTTL bounds how long an entry lives. Zero keeps entries until Close.
	DefaultTTL time.Duration `json:"defaultTTL"`
}

func DefaultOptions() *Options {
	return &Options{DefaultTTL: 24 * time.Hour}
}
