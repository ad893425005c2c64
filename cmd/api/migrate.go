package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/maroonxv/travel-sharing/migrations"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Long:  `migrate runs the embedded goose migrations against DATABASE_URL. With --down it rolls back the latest one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			down, _ := cmd.Flags().GetBool("down")
			return runMigrate(cmd.Context(), down)
		},
	}
	cmd.Flags().BoolP("down", "d", false, "roll back the latest migration instead of applying pending ones")
	return cmd
}

func runMigrate(ctx context.Context, down bool) error {
	// Only DATABASE_URL matters here, so the full server config is not required.
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("required environment variables not set: DATABASE_URL")
	}
	logger := newLogger(os.Getenv("LOG_LEVEL"))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}

	var results []*goose.MigrationResult
	if down {
		res, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		if res != nil {
			results = append(results, res)
		}
	} else {
		if results, err = provider.Up(ctx); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	}
	for _, r := range results {
		logger.Info("migration applied",
			"version", r.Source.Version,
			"direction", r.Direction,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("migrations complete", "version", version, "applied", len(results))
	return nil
}
