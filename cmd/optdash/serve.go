package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/chart"
	"github.com/dgnsrekt/options-dashboard/internal/dashboard"
	"github.com/dgnsrekt/options-dashboard/internal/server"
	"github.com/dgnsrekt/options-dashboard/internal/table"
	"github.com/dgnsrekt/options-dashboard/internal/ws"
)

func dashboardOptions() dashboard.Options {
	opts := dashboard.DefaultOptions()
	opts.Grid = table.GridOptions{
		PageLength:   cfg.Table.PageLength,
		FixedColumns: cfg.Table.FixedColumns,
	}
	opts.Chart = chart.Options{
		PrimaryRatio:    cfg.Chart.PrimaryRatio,
		OscillatorLabel: cfg.Chart.OscillatorLabel,
		HistoryDays:     cfg.Chart.HistoryDays,
	}
	return opts
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			logger.Info("configuration loaded",
				zap.String("port", cfg.Server.Port),
				zap.String("backend", cfg.Backend.BaseURL),
				zap.Bool("wsEnabled", cfg.Server.WSEnabled),
				zap.Int("sessionTTLMin", cfg.Server.SessionTTLMin),
			)

			client := newClient()
			registry := server.NewRegistry(client, dashboardOptions(), cfg.Chart.Width, cfg.Chart.Height, logger)
			ttl := time.Duration(cfg.Server.SessionTTLMin) * time.Minute
			go registry.Run(ctx, ttl, time.Minute)

			srv := server.NewServer(client, registry, logger)

			// WebSocket components (optional)
			var hub *ws.Hub
			if cfg.Server.WSEnabled {
				hub = ws.NewHub(srv, logger)
				go hub.Run(ctx)
				srv.AttachHub(hub)
				logger.Info("WebSocket enabled")
			}

			httpServer := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      server.NewRouter(srv, hub, logger),
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server", zap.String("addr", httpServer.Addr))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			logger.Info("shutting down server...")
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}

			logger.Info("server stopped")
			return nil
		},
	}
}
