package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/invoicedesk/invoicedesk/internal/app"
	"github.com/invoicedesk/invoicedesk/internal/observability"
	"github.com/invoicedesk/invoicedesk/internal/pdf"
	"github.com/invoicedesk/invoicedesk/internal/platform/db"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.TestMode {
				e.logger.Info("test mode detected, skipping runtime startup")
				return nil
			}
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	cfg, logger := e.cfg, e.logger
	if cfg.MigrateOnStart {
		version, err := db.Migrate(cfg.PGDSN, db.Up)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", slog.Uint64("version", uint64(version)))
	}

	a, res, err := e.build(ctx, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer res.Close()

	if cfg.PDFEngine == app.PDFEngineGotenberg {
		client := pdf.NewGotenbergClient(cfg.GotenbergURL)
		if err := client.Ping(ctx); err != nil {
			logger.Warn("gotenberg unreachable", slog.String("url", cfg.GotenbergURL), slog.Any("error", err))
		}
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      a.Handler,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("pdf_engine", cfg.PDFEngine))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
