package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/gift-mpho/portfolio-gateway/pkg/repository/memory"
	"github.com/gift-mpho/portfolio-gateway/pkg/usecase"
)

func TestEmbedCatalog(t *testing.T) {
	repo := memory.New()
	calls := 0
	llm := &mockLLMClient{
		embeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			calls++
			return [][]float64{{0.1, 0.2, 0.3}}, nil
		},
	}
	uc := usecase.New(repo, chatCatalog(t), llm)
	ctx := context.Background()

	gt.NoError(t, uc.Embed.EmbedCatalog(ctx, false)).Required()
	gt.Value(t, calls).Equal(2)

	stored, err := repo.Embedding().List(ctx)
	gt.NoError(t, err)
	gt.Value(t, len(stored)).Equal(2)
	gt.Array(t, stored["trading-bot"]).Length(3)
}

func TestEmbedCatalogSkipsExisting(t *testing.T) {
	repo := memory.New()
	calls := 0
	llm := &mockLLMClient{
		embeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			calls++
			return [][]float64{{0.1, 0.2}}, nil
		},
	}
	uc := usecase.New(repo, chatCatalog(t), llm)
	ctx := context.Background()

	gt.NoError(t, repo.Embedding().Put(ctx, "trading-bot", []float64{1, 2}))

	gt.NoError(t, uc.Embed.EmbedCatalog(ctx, false)).Required()
	gt.Value(t, calls).Equal(1)

	// Force regenerates everything.
	gt.NoError(t, uc.Embed.EmbedCatalog(ctx, true)).Required()
	gt.Value(t, calls).Equal(3)
}
