package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/laneflow/laneflow/pkg/api"
	"github.com/laneflow/laneflow/pkg/cache"
	"github.com/laneflow/laneflow/pkg/pipeline"
)

// redisURLEnv overrides the config file's redis_url setting.
const redisURLEnv = "LANEFLOW_REDIS_URL"

// serveCommand creates the serve command for the HTTP conversion service.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Run the HTTP conversion service.

The service exposes POST /v1/convert for spec conversion and GET /healthz
for liveness probes. With a Redis URL configured (laneflow.toml or the
LANEFLOW_REDIS_URL environment variable) artifacts are cached in Redis so
multiple instances share one cache; otherwise the local file cache is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	defaultAddr := ":8080"
	if c.Config.Addr != "" {
		defaultAddr = c.Config.Addr
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	store, err := c.serveCache(ctx)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	runner := pipeline.NewRunner(store, c.Logger)
	defer runner.Close()

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, c.Logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveCache picks the cache backend for the HTTP service: Redis when a URL
// is configured, the local file cache otherwise.
func (c *CLI) serveCache(ctx context.Context) (cache.Cache, error) {
	url := os.Getenv(redisURLEnv)
	if url == "" && c.Config != nil {
		url = c.Config.RedisURL
	}
	if url != "" {
		return cache.NewRedisCache(ctx, url)
	}
	return c.newCache(false)
}
