package tool

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/search"
)

// projectSearchTool exposes the hybrid retrieval engine to the model.
type projectSearchTool struct {
	engine *search.Engine
}

func (t *projectSearchTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        types.ToolProjectSearch.String(),
		Description: "Searches for portfolio projects based on a natural language query using semantic understanding. Returns projects most relevant to the query.",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: `The natural language query to search for projects (e.g., "AI trading bots", "web development projects").`,
				Required:    true,
			},
		},
	}
}

func (t *projectSearchTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, goerr.New("query must be a non-empty string", goerr.T(ErrTagInvalidArgs))
	}

	result := t.engine.Search(ctx, query)

	// An empty list invites the model to invent projects; a literal
	// explanation does not.
	if len(result.Projects) == 0 {
		return map[string]any{
			"projects": "No matching projects were found for this query.",
		}, nil
	}

	projects := make([]map[string]any, len(result.Projects))
	for i, p := range result.Projects {
		projects[i] = map[string]any{
			"id":          p.ID.String(),
			"title":       p.Title,
			"summary":     p.Summary,
			"description": p.Description,
			"tags":        p.Tags,
			"url":         p.URL,
		}
	}

	payload := map[string]any{"projects": projects}
	if result.Notice != "" {
		payload["notice"] = result.Notice
	}
	return payload, nil
}
