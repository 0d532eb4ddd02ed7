package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/sieve/internal/api"
	"github.com/crimson-sun/sieve/internal/engine"
	"github.com/crimson-sun/sieve/internal/engine/classifier"
	"github.com/crimson-sun/sieve/internal/logging"
	"github.com/crimson-sun/sieve/internal/supervisor"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, artifactDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve anomaly predictions over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if addr != "" {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return err
				}
				cfg.Server.Host = host
				if cfg.Server.Port, err = strconv.Atoi(port); err != nil {
					return err
				}
			}
			if artifactDir != "" {
				cfg.Artifacts.Dir = artifactDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logging.WithComponent("api")

			bundle, err := engine.LoadBundle(cfg.Artifacts.Paths(), classifier.Options{
				ONNXLibrary: cfg.Artifacts.ONNXLibrary,
			})
			if err != nil {
				log.Error().Err(err).Msg("failed to load artifacts")
				return err
			}
			defer bundle.Close()

			srv := &http.Server{
				Addr: cfg.Server.Addr(),
				Handler: api.NewRouter(bundle.Engine(),
					api.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateWindow),
					api.WithWidths(bundle.Widths),
				),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tree := supervisor.NewTree("sieve", logging.NewSlogLogger(), supervisor.TreeConfig{
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			})
			tree.AddAPIService(supervisor.NewHTTPService(srv, cfg.Server.ShutdownTimeout))

			log.Info().Str("addr", srv.Addr).Msg("serving predictions")
			if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address host:port (overrides server.host/server.port)")
	cmd.Flags().StringVar(&artifactDir, "artifacts", "", "artifact directory (overrides artifacts.dir)")
	return cmd
}
