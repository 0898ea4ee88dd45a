package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/gift-mpho/portfolio-gateway/pkg/cli/config"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/types"
)

func TestCatalogEmbeddedDefault(t *testing.T) {
	var cfg config.Catalog

	catalog, err := cfg.Configure()
	gt.NoError(t, err).Required()
	gt.True(t, catalog.Len() > 0)

	for _, p := range catalog.Projects() {
		gt.NoError(t, p.Validate())
	}
}

func TestCatalogFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	doc := `
[[projects]]
id = "demo"
title = "Demo Project"
summary = "A demo"
tags = ["go"]
`
	gt.NoError(t, os.WriteFile(path, []byte(doc), 0600)).Required()

	catalog, err := config.NewCatalogWithPath(path).Configure()
	gt.NoError(t, err).Required()
	gt.Value(t, catalog.Len()).Equal(1)
	gt.Value(t, catalog.Get(types.ProjectID("demo")).Title).Equal("Demo Project")
}

func TestCatalogRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	gt.NoError(t, os.WriteFile(path, []byte("[[projects]]\nid = 12"), 0600)).Required()

	_, err := config.NewCatalogWithPath(path).Configure()
	gt.Error(t, err)
}

func TestCatalogRejectsMissingFile(t *testing.T) {
	_, err := config.NewCatalogWithPath("/does/not/exist.toml").Configure()
	gt.Error(t, err)
}
