package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valhq/flowscope/internal/server"
	"github.com/valhq/flowscope/pkg/cache"
	"github.com/valhq/flowscope/pkg/config"
	"github.com/valhq/flowscope/pkg/discovery"
	"github.com/valhq/flowscope/pkg/observability"
	"github.com/valhq/flowscope/pkg/store"
)

// newServeCmd creates the serve command, which runs the HTTP API and the
// websocket topology feed until interrupted.
func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the FlowScope dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			api, err := discovery.NewDockerAPI(ctx, cfg.Docker.Host)
			if err != nil {
				return err
			}
			source := discovery.NewClient(api)
			defer source.Close()

			metrics := observability.NewRegistry()
			source.Instrument(metrics.ObserveDockerCall)

			c, err := buildCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			layouts, err := buildStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer layouts.Close(context.Background())

			srv := server.New(cfg, source, c, layouts, metrics, logger)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// buildCache constructs the configured cache backend.
func buildCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = defaultCacheDir()
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
	}
	return cache.NewNullCache(), nil
}

// buildStore constructs the configured saved-layout backend.
func buildStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.Backend == "mongo" {
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.Store.URI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
		})
	}
	return store.NewMemoryStore(), nil
}
