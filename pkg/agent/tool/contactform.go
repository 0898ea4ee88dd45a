package tool

import (
	"context"

	"github.com/m-mizutani/gollem"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

// displayContactFormTool is a no-op in the gateway: its whole effect is
// the reserved toolCall marker the frontend reacts to by rendering a
// contact form. The dispatcher short-circuits it as a terminal signal,
// so Run only exists to satisfy the tool interface.
type displayContactFormTool struct{}

func (t *displayContactFormTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        types.ToolDisplayContactForm.String(),
		Description: "Instructs the frontend to display the contact form to the user.",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *displayContactFormTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{
		"status": "Contact form display instruction sent to frontend.",
	}, nil
}
