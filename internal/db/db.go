package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	KVStore
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// StreamEntry is a single append-only stream record.
type StreamEntry struct {
	Fields map[string]string
}

// StreamStore appends entries to capped streams.
type StreamStore interface {
	// XAddMulti appends entries in order in a single round-trip. IDs are aligned with
	// entries, empty where an entry failed.
	// maxLen > 0 trims the stream approximately to that many entries.
	XAddMulti(ctx context.Context, stream string, maxLen int64, entries []StreamEntry) ([]string, error)
}
