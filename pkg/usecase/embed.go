package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

// EmbedUseCase precomputes catalog embeddings so the search engine can
// score queries without per-request project embedding calls.
type EmbedUseCase struct {
	store   interfaces.EmbeddingRepository
	catalog *model.Catalog
	llm     gollem.LLMClient
}

func NewEmbedUseCase(store interfaces.EmbeddingRepository, catalog *model.Catalog, llm gollem.LLMClient) *EmbedUseCase {
	return &EmbedUseCase{store: store, catalog: catalog, llm: llm}
}

// EmbedCatalog generates and stores one embedding per catalog project.
// Existing vectors are kept unless force is set.
func (uc *EmbedUseCase) EmbedCatalog(ctx context.Context, force bool) error {
	logger := logging.From(ctx)

	existing, err := uc.store.List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list stored embeddings")
	}

	var generated, skipped int
	for _, p := range uc.catalog.Projects() {
		if _, ok := existing[string(p.ID)]; ok && !force {
			skipped++
			continue
		}

		vectors, err := uc.llm.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{p.EmbeddingText()})
		if err != nil {
			return goerr.Wrap(err, "failed to generate project embedding", goerr.V("project", p.ID))
		}
		if len(vectors) == 0 || len(vectors[0]) == 0 {
			return goerr.New("provider returned empty embedding", goerr.V("project", p.ID))
		}

		if err := uc.store.Put(ctx, string(p.ID), vectors[0]); err != nil {
			return goerr.Wrap(err, "failed to store project embedding", goerr.V("project", p.ID))
		}

		logger.Info("embedded project", "project", p.ID)
		generated++
	}

	logger.Info("catalog embedding complete", "generated", generated, "skipped", skipped)
	return nil
}
