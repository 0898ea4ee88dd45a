package model

import (
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

// MaxPromptLength bounds the user prompt, counted in runes so multibyte
// text is not penalized. Anything longer is rejected before any provider
// call.
const MaxPromptLength = 1200

// ChatTurn is one prior exchange in the conversation. History is owned by
// the caller and replayed on every request; the gateway keeps no
// conversational state between requests.
type ChatTurn struct {
	Role    types.ChatRole `json:"role"`
	Content string         `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt  string     `json:"prompt"`
	History []ChatTurn `json:"history,omitempty"`
	Persona string     `json:"persona,omitempty"`
}

func (r *ChatRequest) Validate() error {
	if len(r.Prompt) == 0 {
		return goerr.New("prompt is required")
	}
	if n := utf8.RuneCountInString(r.Prompt); n > MaxPromptLength {
		return goerr.New("prompt exceeds maximum length",
			goerr.V("length", n),
			goerr.V("max", MaxPromptLength),
		)
	}
	for i, turn := range r.History {
		if err := turn.Role.Validate(); err != nil {
			return goerr.Wrap(err, "invalid history turn", goerr.V("index", i))
		}
	}
	return nil
}
