package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/invoicedesk/invoicedesk/internal/app"
	"github.com/invoicedesk/invoicedesk/internal/observability"
	"github.com/invoicedesk/invoicedesk/internal/platform/cache"
	"github.com/invoicedesk/invoicedesk/internal/platform/db"
)

var version = "dev"

// env is the configuration and logger every command starts from.
type env struct {
	cfg    *app.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "invoicedesk",
		Short:         "InvoiceDesk invoicing dashboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e.cfg = cfg
			e.logger = app.NewLogger(cfg)
			slog.SetDefault(e.logger)
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(e),
		newMigrateCmd(e),
		newSeedCmd(e),
		newUserCmd(e),
	)
	return root
}

// resources are the live connections behind an App.
type resources struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

func (r *resources) Close() {
	if r.redis != nil {
		_ = r.redis.Close()
	}
	if r.pool != nil {
		r.pool.Close()
	}
}

func (e *env) connect(ctx context.Context) (*resources, error) {
	pool, err := db.New(ctx, e.cfg.PGDSN, db.PoolOptions{})
	if err != nil {
		return nil, err
	}
	client, err := cache.New(ctx, cache.Options{Addr: e.cfg.RedisAddr})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &resources{pool: pool, redis: client}, nil
}

// build connects and wires the application. Callers close the resources.
func (e *env) build(ctx context.Context, metrics *observability.Metrics) (*app.App, *resources, error) {
	res, err := e.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(app.Options{
		Config:       e.cfg,
		Logger:       e.logger,
		Redis:        res.redis,
		Repositories: app.PostgresRepositories(res.pool),
		Metrics:      metrics,
	})
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	return a, res, nil
}
