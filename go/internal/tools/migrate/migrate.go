package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/questline/go/internal/dbconfig"
	"github.com/mcdev12/questline/go/internal/migrations"
)

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func main() {
	_ = godotenv.Load()

	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	applied, skipped, err := migrate(ctx, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Migrations complete: %d applied, %d already present\n", applied, skipped)
}

func migrate(ctx context.Context, pool *pgxpool.Pool) (applied, skipped int, err error) {
	if _, err := pool.Exec(ctx, createVersionTable); err != nil {
		return 0, 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	all, err := migrations.All()
	if err != nil {
		return 0, 0, err
	}

	for _, m := range all {
		var version string
		err := pool.QueryRow(ctx, `SELECT version FROM schema_migrations WHERE version = $1`, m.Version).Scan(&version)
		switch {
		case err == nil:
			skipped++
			continue
		case !errors.Is(err, pgx.ErrNoRows):
			return applied, skipped, fmt.Errorf("check %s: %w", m.Version, err)
		}

		if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
			return err
		}); err != nil {
			return applied, skipped, fmt.Errorf("apply %s: %w", m.Version, err)
		}
		fmt.Printf("applied %s\n", m.Version)
		applied++
	}
	return applied, skipped, nil
}
