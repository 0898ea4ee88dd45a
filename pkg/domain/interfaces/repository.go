package interfaces

import (
	"context"
	"time"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

// Repository aggregates the durable key-value namespaces the gateway
// relies on. The store is eventually consistent; callers must tolerate
// read-then-write races (the rate limiter explicitly does).
type Repository interface {
	RateLimit() RateLimitRepository
	Embedding() EmbeddingRepository

	// Ping verifies connectivity for health checks.
	Ping(ctx context.Context) error
	Close() error
}

// RateLimitRepository stores one ordered timestamp list (epoch
// milliseconds) per client. Entries expire with the supplied TTL so idle
// clients are reclaimed without a reaper.
type RateLimitRepository interface {
	// Get returns the stored timestamps, or nil when the key is absent.
	Get(ctx context.Context, key types.ClientKey) ([]int64, error)
	Put(ctx context.Context, key types.ClientKey, timestamps []int64, ttl time.Duration) error
}

// EmbeddingRepository stores precomputed vectors keyed by project ID, or
// by "query:<text>" for memoized query embeddings.
type EmbeddingRepository interface {
	// Get returns the stored vector, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]float64, error)
	Put(ctx context.Context, key string, vector []float64) error
	Delete(ctx context.Context, key string) error
	// List returns every stored vector keyed by its raw store key,
	// including memoized query embeddings.
	List(ctx context.Context) (map[string][]float64, error)
}
