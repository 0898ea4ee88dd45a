package usecase

import (
	"time"

	"github.com/m-mizutani/gollem"

	"github.com/gift-mpho/portfolio-gateway/pkg/agent/tool"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/guardrail"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/ratelimit"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/search"
)

type UseCases struct {
	Chat    *ChatUseCase
	Contact *ContactUseCase
	Health  *HealthUseCase
	Embed   *EmbedUseCase
}

type config struct {
	notifier            interfaces.Notifier
	rateLimitWindow     time.Duration
	rateLimitMax        int
	similarityThreshold float64
	maxToolDepth        int
	maxStreamAttempts   uint
	guard               *guardrail.Screen
}

type Option func(*config)

func WithNotifier(n interfaces.Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

func WithRateLimit(window time.Duration, maxRequests int) Option {
	return func(c *config) {
		c.rateLimitWindow = window
		c.rateLimitMax = maxRequests
	}
}

func WithSimilarityThreshold(threshold float64) Option {
	return func(c *config) {
		c.similarityThreshold = threshold
	}
}

func WithMaxToolDepth(depth int) Option {
	return func(c *config) {
		c.maxToolDepth = depth
	}
}

func WithMaxStreamAttempts(attempts uint) Option {
	return func(c *config) {
		c.maxStreamAttempts = attempts
	}
}

func WithGuardrail(guard *guardrail.Screen) Option {
	return func(c *config) {
		c.guard = guard
	}
}

func New(repo interfaces.Repository, catalog *model.Catalog, llm gollem.LLMClient, opts ...Option) *UseCases {
	cfg := &config{
		rateLimitWindow:     ratelimit.DefaultWindow,
		rateLimitMax:        ratelimit.DefaultMaxRequests,
		similarityThreshold: search.DefaultSimilarityThreshold,
		maxToolDepth:        DefaultMaxToolDepth,
		maxStreamAttempts:   DefaultMaxStreamAttempts,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.guard == nil {
		cfg.guard = guardrail.New()
	}

	limiter := ratelimit.New(repo.RateLimit(),
		ratelimit.WithWindow(cfg.rateLimitWindow),
		ratelimit.WithMaxRequests(cfg.rateLimitMax),
	)
	engine := search.New(catalog, repo.Embedding(), llm,
		search.WithSimilarityThreshold(cfg.similarityThreshold),
	)
	dispatcher := tool.NewDispatcher(engine)

	return &UseCases{
		Chat:    NewChatUseCase(llm, catalog, cfg.guard, limiter, dispatcher, cfg.maxToolDepth, cfg.maxStreamAttempts),
		Contact: NewContactUseCase(cfg.notifier),
		Health:  NewHealthUseCase(repo, llm),
		Embed:   NewEmbedUseCase(repo.Embedding(), catalog, llm),
	}
}
