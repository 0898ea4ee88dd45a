package usecase

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Error tags classifying failures detected before the stream opens. The
// HTTP controller maps them to status codes; anything detected after the
// stream opens becomes an SSE error frame instead.
var (
	ErrTagValidation = goerr.NewTag("validation")
	ErrTagGuardrail  = goerr.NewTag("guardrail_block")
	ErrTagRateLimit  = goerr.NewTag("rate_limited")
	ErrTagUpstream   = goerr.NewTag("upstream")
)

// KeyRetryAfterSeconds carries the rate limiter's backoff hint on a
// rate-limited error.
const KeyRetryAfterSeconds = "retry_after_seconds"

// RetryAfterSeconds extracts the backoff hint from a rate-limited error,
// or 0 when the error carries none.
func RetryAfterSeconds(err error) int {
	var ge *goerr.Error
	if !errors.As(err, &ge) {
		return 0
	}
	if v, ok := ge.Values()[KeyRetryAfterSeconds].(int); ok {
		return v
	}
	return 0
}
