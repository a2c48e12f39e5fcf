package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Freeeeeet/bookit/internal/app"
	"github.com/Freeeeeet/bookit/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version подставляется при сборке через -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookit",
		Short:         "Experience booking service",
		Long:          `Bookit serves the experience catalog and takes bookings against limited time slots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newExperiencesCmd(),
		newSlotsCmd(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bookit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookit %s\n", version)
		},
	}
}

// deps общие зависимости команд
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *app.Database
}

func bootstrap(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Printf("Failed to build logger: %v", err)
		return nil, err
	}

	db, err := app.OpenDatabase(ctx, cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Error("Failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &deps{cfg: cfg, logger: logger, db: db}, nil
}

func (r *deps) Close() {
	if err := r.db.Close(); err != nil {
		r.logger.Warn("Failed to close database", zap.Error(err))
	}
	_ = r.logger.Sync()
}
