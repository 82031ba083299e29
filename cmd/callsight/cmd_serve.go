package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/callsight/store"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run database over HTTP for dashboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("serve requires db_path in config or CALLSIGHT_DB_PATH")
			}

			// Machine-readable logs for the serving path.
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: level,
			})))

			st, err := store.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			apiKey := os.Getenv("CALLSIGHT_SERVE_API_KEY")
			corsOrigins := os.Getenv("CALLSIGHT_CORS_ORIGINS")

			h := newHandler(st)
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/stats", h.handleStats)
			mux.HandleFunc("GET /api/calls", h.handleCalls)
			mux.HandleFunc("GET /api/runs", h.handleRuns)
			mux.HandleFunc("GET /health", h.handleHealth)

			// Middleware chain: recovery -> cors -> auth -> logging -> mux
			var handler http.Handler = mux
			handler = logMiddleware(handler)
			handler = authMiddleware(apiKey, handler)
			handler = corsMiddleware(corsOrigins, handler)
			handler = recoveryMiddleware(handler)

			srv := &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("server starting", "addr", addr, "db", cfg.DBPath)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	return cmd
}
