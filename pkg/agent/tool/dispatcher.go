package tool

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/search"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

// Error tags let the orchestrator map dispatch failures to the right
// terminal behavior without string matching.
var (
	ErrTagUnknownTool = goerr.NewTag("unknown_tool")
	ErrTagInvalidArgs = goerr.NewTag("invalid_tool_args")
)

// Dispatcher routes model-issued function calls to their implementations.
// The model's arguments are untyped JSON, so this is the single place
// where they are validated against each tool's schema before any
// downstream effect.
type Dispatcher struct {
	tools map[types.ToolName]gollem.Tool
}

func NewDispatcher(engine *search.Engine) *Dispatcher {
	return &Dispatcher{
		tools: map[types.ToolName]gollem.Tool{
			types.ToolProjectSearch:      &projectSearchTool{engine: engine},
			types.ToolDisplayContactForm: &displayContactFormTool{},
		},
	}
}

// Specs returns the tool schemas advertised to the model.
func (d *Dispatcher) Specs() []gollem.ToolSpec {
	specs := make([]gollem.ToolSpec, 0, len(d.tools))
	for _, t := range d.tools {
		specs = append(specs, t.Spec())
	}
	return specs
}

// Tools returns the tool implementations for session construction.
func (d *Dispatcher) Tools() []gollem.Tool {
	tools := make([]gollem.Tool, 0, len(d.tools))
	for _, t := range d.tools {
		tools = append(tools, t)
	}
	return tools
}

// Dispatch validates and executes one tool call. displayContactForm is
// terminal: it yields a frontend signal instead of a payload for the
// model. Unknown names indicate a contract mismatch between the declared
// tool set and this dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, call *model.ToolCall) (*model.ToolResult, error) {
	logging.From(ctx).Info("dispatching tool call", "tool", call.Name)

	if call.Name == types.ToolDisplayContactForm {
		return &model.ToolResult{Call: *call, Signal: types.ToolDisplayContactForm}, nil
	}

	impl, exists := d.tools[call.Name]
	if !exists {
		return nil, goerr.New("unknown tool", goerr.T(ErrTagUnknownTool), goerr.V("tool", call.Name))
	}

	payload, err := impl.Run(ctx, call.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "tool execution failed", goerr.V("tool", call.Name))
	}

	return &model.ToolResult{Call: *call, Payload: payload}, nil
}
