package interfaces

import "github.com/gift-mpho/portfolio-gateway/pkg/domain/types"

// StreamWriter is the sink for one chat exchange. The orchestrator emits
// sanitized text and tool signals through it and guarantees that exactly
// one of WriteCompletion or WriteError+WriteCompletion terminates every
// stream.
type StreamWriter interface {
	WriteText(text string) error
	WriteToolCall(name types.ToolName) error
	WriteError(message string) error
	WriteCompletion() error
}
