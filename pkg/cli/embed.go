package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/gift-mpho/portfolio-gateway/pkg/cli/config"
	"github.com/gift-mpho/portfolio-gateway/pkg/usecase"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/safe"
)

func cmdEmbed() *cli.Command {
	var force bool
	var geminiCfg config.Gemini
	var repoCfg config.Repository
	var catalogCfg config.Catalog

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Regenerate embeddings even when vectors already exist",
			Destination: &force,
		},
	}
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:  "embed",
		Usage: "Precompute embeddings for the project catalog",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			catalog, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load project catalog")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			llm, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}

			uc := usecase.New(repo, catalog, llm)
			if err := uc.Embed.EmbedCatalog(ctx, force); err != nil {
				return goerr.Wrap(err, "failed to embed catalog")
			}

			return nil
		},
	}
}
