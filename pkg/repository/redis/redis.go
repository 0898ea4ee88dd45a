package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

// Key prefixes separate the two logical namespaces inside a single redis
// keyspace: rate-limit windows and embedding vectors.
const (
	rateLimitKeyPrefix = "rl:"
	embeddingKeyPrefix = "emb:"
)

// Redis is a Repository backed by a redis server. Values are stored as
// JSON; rate-limit keys carry a native TTL.
type Redis struct {
	client    *goredis.Client
	rateLimit *rateLimitRepository
	embedding *embeddingRepository
}

var _ interfaces.Repository = &Redis{}

func New(addr, password string, db int) *Redis {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Redis{
		client:    client,
		rateLimit: &rateLimitRepository{client: client},
		embedding: &embeddingRepository{client: client},
	}
}

func (r *Redis) RateLimit() interfaces.RateLimitRepository {
	return r.rateLimit
}

func (r *Redis) Embedding() interfaces.EmbeddingRepository {
	return r.embedding
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return goerr.Wrap(err, "failed to ping redis")
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type rateLimitRepository struct {
	client *goredis.Client
}

func (r *rateLimitRepository) Get(ctx context.Context, key types.ClientKey) ([]int64, error) {
	raw, err := r.client.Get(ctx, rateLimitKeyPrefix+key.String()).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get rate limit window", goerr.V("key", key))
	}

	var timestamps []int64
	if err := json.Unmarshal([]byte(raw), &timestamps); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal rate limit window", goerr.V("key", key))
	}
	return timestamps, nil
}

func (r *rateLimitRepository) Put(ctx context.Context, key types.ClientKey, timestamps []int64, ttl time.Duration) error {
	raw, err := json.Marshal(timestamps)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal rate limit window", goerr.V("key", key))
	}
	if err := r.client.Set(ctx, rateLimitKeyPrefix+key.String(), raw, ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to save rate limit window", goerr.V("key", key))
	}
	return nil
}

type embeddingRepository struct {
	client *goredis.Client
}

func (r *embeddingRepository) Get(ctx context.Context, key string) ([]float64, error) {
	raw, err := r.client.Get(ctx, embeddingKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get embedding", goerr.V("key", key))
	}

	var vector []float64
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal embedding", goerr.V("key", key))
	}
	return vector, nil
}

func (r *embeddingRepository) Put(ctx context.Context, key string, vector []float64) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal embedding", goerr.V("key", key))
	}
	if err := r.client.Set(ctx, embeddingKeyPrefix+key, raw, 0).Err(); err != nil {
		return goerr.Wrap(err, "failed to save embedding", goerr.V("key", key))
	}
	return nil
}

func (r *embeddingRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, embeddingKeyPrefix+key).Err(); err != nil {
		return goerr.Wrap(err, "failed to delete embedding", goerr.V("key", key))
	}
	return nil
}

func (r *embeddingRepository) List(ctx context.Context) (map[string][]float64, error) {
	result := make(map[string][]float64)

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, embeddingKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan embeddings")
		}

		for _, fullKey := range keys {
			raw, err := r.client.Get(ctx, fullKey).Result()
			if err != nil {
				if errors.Is(err, goredis.Nil) {
					continue
				}
				return nil, goerr.Wrap(err, "failed to get embedding", goerr.V("key", fullKey))
			}
			var vector []float64
			if err := json.Unmarshal([]byte(raw), &vector); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal embedding", goerr.V("key", fullKey))
			}
			result[fullKey[len(embeddingKeyPrefix):]] = vector
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return result, nil
}
