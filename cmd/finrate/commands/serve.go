package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/finrate/api"
	"github.com/use-agent/finrate/cache"
)

func newServeCmd(opts *options) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			slog.Info("finrate starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
				"auth", cfg.Auth.Enabled,
			)
			if cfg.Auth.Enabled && len(cfg.Auth.APIKeys) == 0 {
				slog.Warn("auth enabled without API keys, API is open")
			}

			sc, err := opts.newScraper()
			if err != nil {
				return err
			}
			defer sc.Close()

			cc := cache.New(cfg.Cache.MaxEntries)
			defer cc.Close()

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(sc, cfg, cc, time.Now()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("HTTP server: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				slog.Info("shutdown signal received")
			}

			// Give in-flight requests 5 seconds to complete.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}
			slog.Info("finrate stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}
