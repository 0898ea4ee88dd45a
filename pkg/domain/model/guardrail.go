package model

// GuardrailVerdict is the outcome of screening one input. It is computed
// fresh per request and never persisted. Category names the tripwire
// group that fired; the matched text itself is never carried so it cannot
// leak into logs or responses.
type GuardrailVerdict struct {
	Blocked  bool
	Category string
}
