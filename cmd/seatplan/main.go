// Package main implements the seatplan service and its operator commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/config"
	"github.com/cimillas/seatplan/internal/logging"
	"github.com/cimillas/seatplan/migrations"
)

var (
	// configPath points at an optional YAML config file.
	configPath string
	version    = "dev"
)

const startupTimeout = 5 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seatplan",
	Short: "Block seating engine for recurring occasions",
	Long: `seatplan assigns candidates to venue blocks under a demographic band
and serves the seat swap, move and release API.

Settings come from defaults, then --config, then the environment
(PORT, DATABASE_URL, CORS_ORIGINS, LOG_LEVEL, NATS_URL, ...). A .env file in
the working directory or a parent is loaded first.`,
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(planCmd)
}

// runtime holds what every command needs once configuration is resolved.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func (rt *runtime) Close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
	_ = rt.logger.Sync()
}

// bootstrap loads configuration, builds the logger, connects to Postgres and
// applies pending migrations.
func bootstrap(ctx context.Context) (*runtime, error) {
	config.LoadDotEnv(nil)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	rt := &runtime{cfg: cfg, logger: logger}

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.Database.URL)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	rt.pool = pool
	if err := pool.Ping(startupCtx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := migrations.Apply(startupCtx, pool, logger); err != nil {
		rt.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return rt, nil
}
