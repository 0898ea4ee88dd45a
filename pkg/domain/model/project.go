package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

// Project is one portfolio entry. The catalog is loaded once at startup
// and treated as immutable afterwards.
type Project struct {
	ID          types.ProjectID `toml:"id" json:"id"`
	Title       string          `toml:"title" json:"title"`
	Summary     string          `toml:"summary" json:"summary"`
	Description string          `toml:"description" json:"description"`
	Tags        []string        `toml:"tags" json:"tags"`
	URL         string          `toml:"url" json:"url"`
}

func (p *Project) Validate() error {
	if err := p.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid project")
	}
	if p.Title == "" {
		return goerr.New("project title is required", goerr.V("id", p.ID))
	}
	if p.Summary == "" {
		return goerr.New("project summary is required", goerr.V("id", p.ID))
	}
	return nil
}

// EmbeddingText is the text embedded for semantic search: title, summary,
// description and tags joined into one passage.
func (p *Project) EmbeddingText() string {
	parts := []string{p.Title, p.Summary, p.Description}
	if len(p.Tags) > 0 {
		parts = append(parts, strings.Join(p.Tags, ", "))
	}
	return strings.Join(parts, "\n")
}

// MatchesKeyword reports whether the lower-cased query (or one of its
// tokens) hits the project's text fields or tag set.
func (p *Project) MatchesKeyword(lowerQuery string, tokens []string) bool {
	if strings.Contains(strings.ToLower(p.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Summary), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Description), lowerQuery) {
		return true
	}
	for _, tag := range p.Tags {
		lowerTag := strings.ToLower(tag)
		for _, token := range tokens {
			if strings.Contains(lowerTag, token) {
				return true
			}
		}
	}
	return false
}

// Catalog is the validated, ID-indexed set of portfolio projects.
type Catalog struct {
	projects []*Project
	byID     map[types.ProjectID]*Project
}

func NewCatalog(projects []*Project) (*Catalog, error) {
	byID := make(map[types.ProjectID]*Project, len(projects))
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid catalog")
		}
		if _, exists := byID[p.ID]; exists {
			return nil, goerr.New("duplicate project ID", goerr.V("id", p.ID))
		}
		byID[p.ID] = p
	}
	return &Catalog{projects: projects, byID: byID}, nil
}

// Projects returns all catalog entries in declaration order. Callers must
// not mutate the returned slice.
func (c *Catalog) Projects() []*Project {
	return c.projects
}

func (c *Catalog) Get(id types.ProjectID) *Project {
	return c.byID[id]
}

func (c *Catalog) Len() int {
	return len(c.projects)
}
