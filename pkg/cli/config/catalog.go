package config

import (
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

// Catalog holds CLI flags for the project catalog.
type Catalog struct {
	path string
}

// Flags returns CLI flags for catalog configuration
func (c *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog-path",
			Usage:       "Path to the project catalog TOML file (embedded default when empty)",
			Sources:     cli.EnvVars("GATEWAY_CATALOG_PATH"),
			Destination: &c.path,
		},
	}
}

// Configure loads and validates the project catalog.
func (c *Catalog) Configure() (*model.Catalog, error) {
	data := defaultCatalogTOML
	if c.path != "" {
		raw, err := os.ReadFile(c.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V("path", c.path))
		}
		data = raw
	}

	var doc struct {
		Projects []*model.Project `toml:"projects"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse catalog TOML", goerr.V("path", c.path))
	}

	catalog, err := model.NewCatalog(doc.Projects)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog", goerr.V("path", c.path))
	}

	logging.Default().Info("Loaded project catalog", "projects", catalog.Len(), "path", c.path)
	return catalog, nil
}
