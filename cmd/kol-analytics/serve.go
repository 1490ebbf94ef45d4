// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/kol-analytics/internal/api"
	"github.com/pdiddy/kol-analytics/internal/metrics"
	"github.com/pdiddy/kol-analytics/internal/source"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the KOL API over HTTP",
	Long: `Serve loads the KOL data and exposes it over HTTP: /health, /api/kols
(with query, country, expertiseArea, minHIndex and maxHIndex filters),
/api/kols/{id}, /api/kols/stats, /api/kols/meta/countries,
/api/kols/meta/expertise-areas and Prometheus metrics on /metrics.

With --reload-interval the data is reloaded periodically; SIGHUP triggers an
immediate reload. A reload that finishes after a newer one started is
discarded.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().StringSlice("cors-origin", nil, "allowed CORS origin, repeatable (\"*\" allows any)")
	serveCmd.Flags().Duration("reload-interval", 0, "reload the data periodically (0 disables)")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origin"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetDuration("reload-interval")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	loader := newLoader(cfg, m)
	out := loader.Load(ctx)
	if out.Err != nil {
		logger.Error("initial load failed; serving empty data until a reload succeeds", zap.Error(out.Err))
	}

	handler := api.NewHandler(api.Options{
		State:       loader,
		Version:     version,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
		Metrics:     m,
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go reloadLoop(ctx, loader, interval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving KOL API",
			zap.String("addr", cfg.Server.Addr),
			zap.Stringer("source", out.Status),
			zap.Int("records", out.Snapshot.Len()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// reloadLoop reloads on every tick and on SIGHUP until ctx ends.
func reloadLoop(ctx context.Context, loader *source.Loader, interval time.Duration) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-hup:
			logger.Info("SIGHUP received, reloading")
		}
		out := loader.Reload(ctx)
		logger.Debug("reloaded", zap.Stringer("source", out.Status), zap.Int("records", out.Snapshot.Len()))
	}
}
