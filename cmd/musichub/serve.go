package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/justestif/go-musichub/internal/web"
)

func cmdServe() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if addr != "" {
					a.cfg.Server.Addr = addr
				}

				ctx, cancel := context.WithCancel(ctx)
				defer cancel()
				go a.purgeLoop(ctx, a.cfg.Cache.PurgeInterval)

				handlers := web.NewHandlers(a.recommend, a.search, a.charts, a.lyrics, a.logger)
				server := web.NewServer(web.ServerConfig{
					Addr:         a.cfg.Server.Addr,
					ReadTimeout:  a.cfg.Server.ReadTimeout,
					WriteTimeout: a.cfg.Server.WriteTimeout,
					Logger:       a.logger,
				}, handlers)

				err := server.Run(ctx)
				stats := a.cache.Stats()
				a.logger.Info("cache stats",
					"hits", stats.Hits,
					"misses", stats.Misses,
					"writes", stats.Writes,
					"skips", stats.Skips,
				)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
