package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/pamrfid/internal/login"
	"github.com/danmuck/pamrfid/internal/server"
	"github.com/danmuck/pamrfid/internal/source"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the reader open and serve diagnostics over HTTP",
		Long: "Reads tags until interrupted or the source is exhausted. /health, /metrics\n" +
			"and /last (masked ID) are served on metrics.addr; an empty address disables HTTP.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Metrics.Addr = addr
			}
			logger := opts.logger(cfg)
			if os.Getenv(gin.EnvGinMode) == "" {
				gin.SetMode(gin.ReleaseMode)
			}

			src, err := source.Open(cfg.Reader)
			if err != nil {
				return err
			}
			defer src.Close()

			watcher := server.NewWatcher(login.New(cfg, login.WithLogger(logger)), logger)
			g, gctx := errgroup.WithContext(cmd.Context())
			// The HTTP listener lives only as long as the watcher.
			ctx, cancel := context.WithCancel(gctx)
			defer cancel()
			if cfg.Metrics.Addr != "" {
				srv := server.New(cfg.Metrics.Addr, watcher, cfg.Metrics.CORSOrigins, logger)
				g.Go(func() error { return srv.Serve(ctx) })
			}
			g.Go(func() error {
				defer cancel()
				return watcher.Run(ctx, src)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "diagnostics listen address, overrides metrics.addr")
	return cmd
}
