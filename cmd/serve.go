package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agrisense/cropscan/internal/config"
	"github.com/agrisense/cropscan/internal/observability"
	"github.com/agrisense/cropscan/internal/report"
	"github.com/agrisense/cropscan/internal/server"
	"github.com/agrisense/cropscan/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the entity store and serve the report API over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := observability.GetLogger()
	defer observability.Sync()

	snap, err := loadSnapshot(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc := report.NewService(snap, log)
	srv := server.New(cfg.Server, svc, log)

	log.Info("Serving report API",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("api_prefix", cfg.Server.APIPrefix))
	return srv.Run(ctx)
}

// loadSnapshot bootstraps the in-memory entity store from the configured
// source driver.
func loadSnapshot(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Snapshot, error) {
	switch cfg.Source.Driver {
	case config.DriverExcel:
		return store.LoadExcel(cfg.Source.ExcelPath, log)
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Source.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		defer pool.Close()

		loader, err := store.NewPostgresLoader(ctx, pool, log)
		if err != nil {
			return nil, err
		}
		return loader.LoadSnapshot(ctx)
	default:
		return nil, fmt.Errorf("unsupported source.driver: %q", cfg.Source.Driver)
	}
}
