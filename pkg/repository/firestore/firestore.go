package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

const (
	rateLimitCollection = "rate_limits"
	embeddingCollection = "embeddings"
)

// Firestore is a Repository backed by Cloud Firestore. Rate-limit docs
// carry an ExpiresAt field; configure a Firestore TTL policy on it so
// idle windows are reclaimed server-side.
type Firestore struct {
	client    *firestore.Client
	rateLimit *rateLimitRepository
	embedding *embeddingRepository
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	return &Firestore{
		client:    client,
		rateLimit: &rateLimitRepository{client: client},
		embedding: &embeddingRepository{client: client},
	}, nil
}

func (f *Firestore) RateLimit() interfaces.RateLimitRepository {
	return f.rateLimit
}

func (f *Firestore) Embedding() interfaces.EmbeddingRepository {
	return f.embedding
}

func (f *Firestore) Ping(ctx context.Context) error {
	iter := f.client.Collections(ctx)
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return goerr.Wrap(err, "failed to ping firestore")
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

type rateLimitDoc struct {
	Timestamps []int64   `firestore:"Timestamps"`
	ExpiresAt  time.Time `firestore:"ExpiresAt"`
}

type rateLimitRepository struct {
	client *firestore.Client
}

func (r *rateLimitRepository) Get(ctx context.Context, key types.ClientKey) ([]int64, error) {
	doc, err := r.client.Collection(rateLimitCollection).Doc(key.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get rate limit window", goerr.V("key", key))
	}

	var d rateLimitDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal rate limit window", goerr.V("key", key))
	}

	// Lazy expiry: the TTL policy deletes asynchronously, so a stale doc
	// may still be readable.
	if time.Now().After(d.ExpiresAt) {
		return nil, nil
	}
	return d.Timestamps, nil
}

func (r *rateLimitRepository) Put(ctx context.Context, key types.ClientKey, timestamps []int64, ttl time.Duration) error {
	doc := rateLimitDoc{
		Timestamps: timestamps,
		ExpiresAt:  time.Now().Add(ttl),
	}
	if _, err := r.client.Collection(rateLimitCollection).Doc(key.String()).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to save rate limit window", goerr.V("key", key))
	}
	return nil
}

type embeddingDoc struct {
	Vector firestore.Vector32 `firestore:"Vector"`
}

type embeddingRepository struct {
	client *firestore.Client
}

func toVector32(v []float64) firestore.Vector32 {
	converted := make([]float32, len(v))
	for i, x := range v {
		converted[i] = float32(x)
	}
	return firestore.Vector32(converted)
}

func fromVector32(v firestore.Vector32) []float64 {
	converted := make([]float64, len(v))
	for i, x := range v {
		converted[i] = float64(x)
	}
	return converted
}

func (r *embeddingRepository) Get(ctx context.Context, key string) ([]float64, error) {
	doc, err := r.client.Collection(embeddingCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get embedding", goerr.V("key", key))
	}

	var d embeddingDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal embedding", goerr.V("key", key))
	}
	return fromVector32(d.Vector), nil
}

func (r *embeddingRepository) Put(ctx context.Context, key string, vector []float64) error {
	doc := embeddingDoc{Vector: toVector32(vector)}
	if _, err := r.client.Collection(embeddingCollection).Doc(key).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to save embedding", goerr.V("key", key))
	}
	return nil
}

func (r *embeddingRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.client.Collection(embeddingCollection).Doc(key).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete embedding", goerr.V("key", key))
	}
	return nil
}

func (r *embeddingRepository) List(ctx context.Context) (map[string][]float64, error) {
	iter := r.client.Collection(embeddingCollection).Documents(ctx)
	defer iter.Stop()

	result := make(map[string][]float64)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list embeddings")
		}
		var d embeddingDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal embedding", goerr.V("key", doc.Ref.ID))
		}
		result[doc.Ref.ID] = fromVector32(d.Vector)
	}
	return result, nil
}
