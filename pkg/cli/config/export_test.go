package config

// NewCatalogWithPath builds a Catalog config pointing at path, for tests.
func NewCatalogWithPath(path string) *Catalog {
	return &Catalog{path: path}
}
