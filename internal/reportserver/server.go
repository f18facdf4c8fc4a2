// Package reportserver serves stored harness reports over HTTP.
package reportserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownGrace bounds how long in-flight requests may finish after ctx ends.
const shutdownGrace = 5 * time.Second

// Config captures the settings for serving stored reports.
type Config struct {
	Addr string
	// OutputDir holds <fixture>/<run-id>/results.json trees.
	OutputDir string
	// HistoryDB is served for download when set.
	HistoryDB string
	Logger    *slog.Logger
}

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully. A clean shutdown returns nil.
func Serve(ctx context.Context, cfg Config) error {
	if cfg.Addr == "" {
		return errors.New("reportserver: addr is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving reports", "addr", cfg.Addr, "output_dir", cfg.OutputDir)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		logger.Info("shutting down report server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
