package search

import (
	"context"
	"sort"
	"strings"

	"github.com/m-mizutani/gollem"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

const (
	// DefaultSimilarityThreshold keeps only semantic hits above this
	// cosine score; below it the top-3 fallback applies.
	DefaultSimilarityThreshold = 0.7

	semanticFallbackLimit = 3

	noticeDegraded = "Semantic search unavailable. Showing keyword results only."
)

// Generic queries that mean "show me everything".
var genericTerms = map[string]bool{
	"":           true,
	"project":    true,
	"projects":   true,
	"all":        true,
	"everything": true,
	"work":       true,
	"portfolio":  true,
}

// Result is the outcome of one hybrid search. Projects is never empty for
// a non-empty catalog; Notice is set when the semantic pass degraded.
type Result struct {
	Projects []*model.Project
	Notice   string
}

// Engine combines an always-available keyword pass over the catalog with
// a best-effort semantic pass over precomputed embeddings. Embedding
// failures degrade the search, they never fail it.
type Engine struct {
	catalog   *model.Catalog
	repo      interfaces.EmbeddingRepository
	llm       gollem.LLMClient
	threshold float64
}

type Option func(*Engine)

func WithSimilarityThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

func New(catalog *model.Catalog, repo interfaces.EmbeddingRepository, llm gollem.LLMClient, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		repo:      repo,
		llm:       llm,
		threshold: DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs the hybrid search. Semantic results come first in the
// merge so relevance ranking wins ties; an empty merge falls back to the
// whole catalog because a recommendation surface should never come back
// empty-handed.
func (e *Engine) Search(ctx context.Context, query string) *Result {
	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	if genericTerms[lowerQuery] {
		return &Result{Projects: e.catalog.Projects()}
	}

	keyword := e.keywordSearch(lowerQuery)

	semantic, notice := e.semanticSearch(ctx, query)

	merged := dedupe(append(semantic, keyword...))
	if len(merged) == 0 {
		merged = e.catalog.Projects()
	}

	return &Result{Projects: merged, Notice: notice}
}

func (e *Engine) keywordSearch(lowerQuery string) []*model.Project {
	tokens := strings.Fields(lowerQuery)

	var matched []*model.Project
	for _, p := range e.catalog.Projects() {
		if p.MatchesKeyword(lowerQuery, tokens) {
			matched = append(matched, p)
		}
	}
	return matched
}

// semanticSearch ranks catalog projects by cosine similarity against the
// query embedding. Any failure along the way (quota exhausted, empty
// store, provider error) degrades to keyword-only with a notice.
func (e *Engine) semanticSearch(ctx context.Context, query string) ([]*model.Project, string) {
	logger := logging.From(ctx)

	queryVector, err := e.queryEmbedding(ctx, query)
	if err != nil {
		logger.Warn("semantic search degraded", "error", err.Error())
		return nil, noticeDegraded
	}

	stored, err := e.repo.List(ctx)
	if err != nil {
		logger.Warn("semantic search degraded", "error", err.Error())
		return nil, noticeDegraded
	}

	type ranked struct {
		project    *model.Project
		similarity float64
	}

	var candidates []ranked
	for key, vector := range stored {
		// The store also holds memoized query embeddings; only keys that
		// resolve to a catalog project participate in ranking.
		project := e.catalog.Get(types.ProjectID(key))
		if project == nil {
			continue
		}
		candidates = append(candidates, ranked{
			project:    project,
			similarity: Cosine(queryVector, vector),
		})
	}
	if len(candidates) == 0 {
		return nil, noticeDegraded
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	var results []*model.Project
	for _, c := range candidates {
		if c.similarity > e.threshold {
			results = append(results, c.project)
		}
	}
	if len(results) == 0 {
		// Nothing cleared the threshold; surface the closest few anyway.
		limit := semanticFallbackLimit
		if limit > len(candidates) {
			limit = len(candidates)
		}
		for _, c := range candidates[:limit] {
			results = append(results, c.project)
		}
	}

	return results, ""
}

// queryEmbedding memoizes ad hoc query vectors under "query:<text>" so a
// repeated query skips the provider round trip.
func (e *Engine) queryEmbedding(ctx context.Context, query string) ([]float64, error) {
	cacheKey := model.QueryEmbeddingKey(query)

	cached, err := e.repo.Get(ctx, cacheKey)
	if err == nil && len(cached) > 0 {
		return cached, nil
	}

	vectors, err := e.llm.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errEmptyEmbedding
	}

	if err := e.repo.Put(ctx, cacheKey, vectors[0]); err != nil {
		logging.From(ctx).Warn("failed to cache query embedding", "error", err.Error())
	}
	return vectors[0], nil
}

func dedupe(projects []*model.Project) []*model.Project {
	seen := make(map[types.ProjectID]bool, len(projects))
	result := make([]*model.Project, 0, len(projects))
	for _, p := range projects {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		result = append(result, p)
	}
	return result
}
