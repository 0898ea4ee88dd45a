package model

// RateLimitDecision is the outcome of one admission check.
// RetryAfterSeconds is derived from the oldest surviving timestamp in the
// window so a denied client knows when capacity frees up.
type RateLimitDecision struct {
	Allowed           bool
	RetryAfterSeconds int
}
