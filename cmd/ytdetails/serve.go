package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/ytdetails/internal/api"
	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/internal/telemetry"
)

const serviceName = "ytdetails"

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve track details over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.setup()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			ctx := cmd.Context()

			tp, err := telemetry.NewProvider(ctx, cfg.TelemetryConfig(serviceName, version))
			if err != nil {
				return err
			}
			defer func() { _ = tp.Shutdown(context.Background()) }()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			var ready func(context.Context) error
			if a.store != nil {
				ready = a.store.Ping
			}
			handler := api.NewRouter(a.client.Loader(), api.Config{
				RequestsPerMinute: cfg.Server.RequestsPerMinute,
				Ready:             ready,
			})
			srv := &http.Server{
				Addr:              cfg.Server.Listen,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return runServer(ctx, srv, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address, overrides server.listen")
	return cmd
}

// runServer serves until ctx is done, then shuts srv down gracefully.
func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	log := logger.WithComponent(logger.ComponentApp)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("HTTP server shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
