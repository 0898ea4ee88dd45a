package model

import "github.com/gift-mpho/portfolio-gateway/pkg/domain/types"

// ToolCall is a function call emitted by the model. Arguments arrive as
// untyped JSON; the dispatcher validates them against the tool's schema
// before anything downstream runs.
type ToolCall struct {
	ID   string
	Name types.ToolName
	Args map[string]any
}

// ToolResult is the outcome of dispatching a ToolCall. Exactly one of
// Payload or Signal is set: a Payload continues the conversation (it is
// fed back to the model), a Signal terminates the stream with a
// frontend-directed instruction.
type ToolResult struct {
	Call    ToolCall
	Payload map[string]any
	Signal  types.ToolName
}

// Terminal reports whether the result ends the stream instead of being
// returned to the model.
func (r *ToolResult) Terminal() bool {
	return r.Signal != ""
}
