package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

// Memory is an in-process Repository used for development and tests. TTL
// eviction is lazy: expired rate-limit entries disappear on the next read.
type Memory struct {
	rateLimit *rateLimitRepository
	embedding *embeddingRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		rateLimit: &rateLimitRepository{
			entries: make(map[types.ClientKey]rateLimitEntry),
			now:     time.Now,
		},
		embedding: &embeddingRepository{
			vectors: make(map[string][]float64),
		},
	}
}

func (m *Memory) RateLimit() interfaces.RateLimitRepository {
	return m.rateLimit
}

func (m *Memory) Embedding() interfaces.EmbeddingRepository {
	return m.embedding
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

type rateLimitEntry struct {
	timestamps []int64
	expiresAt  time.Time
}

type rateLimitRepository struct {
	mu      sync.Mutex
	entries map[types.ClientKey]rateLimitEntry
	now     func() time.Time
}

func (r *rateLimitRepository) Get(ctx context.Context, key types.ClientKey) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		return nil, nil
	}
	if r.now().After(entry.expiresAt) {
		delete(r.entries, key)
		return nil, nil
	}

	timestamps := make([]int64, len(entry.timestamps))
	copy(timestamps, entry.timestamps)
	return timestamps, nil
}

func (r *rateLimitRepository) Put(ctx context.Context, key types.ClientKey, timestamps []int64, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]int64, len(timestamps))
	copy(stored, timestamps)
	r.entries[key] = rateLimitEntry{
		timestamps: stored,
		expiresAt:  r.now().Add(ttl),
	}
	return nil
}

type embeddingRepository struct {
	mu      sync.RWMutex
	vectors map[string][]float64
}

func copyVector(v []float64) []float64 {
	copied := make([]float64, len(v))
	copy(copied, v)
	return copied
}

func (r *embeddingRepository) Get(ctx context.Context, key string) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vector, exists := r.vectors[key]
	if !exists {
		return nil, nil
	}
	return copyVector(vector), nil
}

func (r *embeddingRepository) Put(ctx context.Context, key string, vector []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vectors[key] = copyVector(vector)
	return nil
}

func (r *embeddingRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.vectors, key)
	return nil
}

func (r *embeddingRepository) List(ctx context.Context) (map[string][]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]float64, len(r.vectors))
	for key, vector := range r.vectors {
		result[key] = copyVector(vector)
	}
	return result, nil
}
