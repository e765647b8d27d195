// Command migrate applies or rolls back the database schema.
//
//	migrate [up|down|status]
package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/collections-app/internal/config"
	"github.com/ayush/collections-app/internal/logger"
	"github.com/ayush/collections-app/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}
	if cfg.PostgresDSN == "" {
		log.Error("POSTGRES_DSN is not set")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connect", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.NewPostgresStore(pool).Migrate(ctx, direction); err != nil {
		log.Error("migrate", "direction", direction, "error", err)
		os.Exit(1)
	}
	log.Info("migrate done", "direction", direction)
}
