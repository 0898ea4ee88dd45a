package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/gift-mpho/portfolio-gateway/pkg/cli/config"
	httpctrl "github.com/gift-mpho/portfolio-gateway/pkg/controller/http"
	"github.com/gift-mpho/portfolio-gateway/pkg/usecase"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/safe"
)

func cmdServe() *cli.Command {
	var addr string
	var allowedOrigins []string
	var chatTimeout time.Duration
	var rateLimitWindow time.Duration
	var rateLimitMax int
	var similarityThreshold float64
	var toolDepth int
	var geminiCfg config.Gemini
	var repoCfg config.Repository
	var catalogCfg config.Catalog
	var notifyCfg config.Notify

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("GATEWAY_ADDR"),
			Destination: &addr,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "CORS allowed origin (can be specified multiple times)",
			Sources:     cli.EnvVars("GATEWAY_ALLOWED_ORIGINS"),
			Destination: &allowedOrigins,
		},
		&cli.DurationFlag{
			Name:        "chat-timeout",
			Usage:       "Wall clock limit for one chat turn",
			Value:       60 * time.Second,
			Sources:     cli.EnvVars("GATEWAY_CHAT_TIMEOUT"),
			Destination: &chatTimeout,
		},
		&cli.DurationFlag{
			Name:        "rate-limit-window",
			Usage:       "Sliding window size for per-client rate limiting",
			Value:       60 * time.Second,
			Sources:     cli.EnvVars("GATEWAY_RATE_LIMIT_WINDOW"),
			Destination: &rateLimitWindow,
		},
		&cli.IntFlag{
			Name:        "rate-limit-max",
			Usage:       "Maximum requests per client per window",
			Value:       10,
			Sources:     cli.EnvVars("GATEWAY_RATE_LIMIT_MAX"),
			Destination: &rateLimitMax,
		},
		&cli.FloatFlag{
			Name:        "similarity-threshold",
			Usage:       "Minimum cosine similarity for semantic search hits",
			Value:       0.7,
			Sources:     cli.EnvVars("GATEWAY_SIMILARITY_THRESHOLD"),
			Destination: &similarityThreshold,
		},
		&cli.IntFlag{
			Name:        "tool-depth",
			Usage:       "Maximum tool call rounds per chat turn",
			Value:       usecase.DefaultMaxToolDepth,
			Sources:     cli.EnvVars("GATEWAY_TOOL_DEPTH"),
			Destination: &toolDepth,
		},
	}

	// Add shared config flags
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, catalogCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
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

			ucOpts := []usecase.Option{
				usecase.WithRateLimit(rateLimitWindow, rateLimitMax),
				usecase.WithSimilarityThreshold(similarityThreshold),
				usecase.WithMaxToolDepth(toolDepth),
			}
			if notifier := notifyCfg.Configure(); notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
			}

			uc := usecase.New(repo, catalog, llm, ucOpts...)

			httpHandler := httpctrl.New(uc,
				httpctrl.WithAllowedOrigins(allowedOrigins),
				httpctrl.WithChatTimeout(chatTimeout),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
