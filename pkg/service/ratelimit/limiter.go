package ratelimit

import (
	"context"
	"time"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxRequests = 10
)

// Limiter is a sliding-window admission check backed by the durable
// store. The read-modify-write is not transactional: concurrent requests
// from one client can both observe the same snapshot and both be
// admitted. The limit is soft by design; switch to an atomic counter if
// a hard guarantee is ever required.
type Limiter struct {
	repo        interfaces.RateLimitRepository
	window      time.Duration
	maxRequests int
	now         func() time.Time
}

type Option func(*Limiter)

func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		l.window = window
	}
}

func WithMaxRequests(max int) Option {
	return func(l *Limiter) {
		l.maxRequests = max
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(repo interfaces.RateLimitRepository, opts ...Option) *Limiter {
	l := &Limiter{
		repo:        repo,
		window:      DefaultWindow,
		maxRequests: DefaultMaxRequests,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow checks and records one request for the client. Entries older than
// the window are pruned lazily; the stored list carries a TTL of the
// window length so idle clients are reclaimed automatically. When the
// store is unreachable the limiter fails open with a warning rather than
// taking the chat endpoint down with it.
func (l *Limiter) Allow(ctx context.Context, key types.ClientKey) *model.RateLimitDecision {
	now := l.now().UnixMilli()
	windowStart := now - l.window.Milliseconds()

	timestamps, err := l.repo.Get(ctx, key)
	if err != nil {
		logging.From(ctx).Warn("rate limit store unavailable, failing open", "error", err.Error())
		return &model.RateLimitDecision{Allowed: true}
	}

	recent := make([]int64, 0, len(timestamps))
	for _, t := range timestamps {
		if t > windowStart {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.maxRequests {
		oldest := recent[0]
		retryAfterMs := oldest + l.window.Milliseconds() - now
		retryAfter := int((retryAfterMs + 999) / 1000)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &model.RateLimitDecision{Allowed: false, RetryAfterSeconds: retryAfter}
	}

	recent = append(recent, now)
	if err := l.repo.Put(ctx, key, recent, l.window); err != nil {
		logging.From(ctx).Warn("failed to persist rate limit window", "error", err.Error())
	}

	return &model.RateLimitDecision{Allowed: true}
}
