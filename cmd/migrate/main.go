package main

import (
	"context"
	"flag"
	"os"

	"bookcatalog/internal/platform/logging"
	"bookcatalog/internal/platform/postgres"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()
	logging.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	fsys, migrationsDir := migrationSource()

	if *command == "create" {
		if *name == "" {
			log.Fatal().Msg("Name is required for 'create' command")
		}
		if fsys != nil {
			migrationsDir = "db/migrations"
		}
		if err := goose.Create(nil, migrationsDir, *name, "sql"); err != nil {
			log.Fatal().Err(err).Msg("Failed to create migration")
		}
		log.Info().Str("name", *name).Str("dir", migrationsDir).Msg("Migration created")
		return
	}

	ctx := context.Background()
	pool, err := postgres.Open(ctx, databaseDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("Failed to set dialect")
	}

	switch *command {
	case "up":
		if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, sqlDB, migrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to rollback migrations")
		}
		log.Info().Msg("Migrations rolled back successfully")
	case "status":
		if err := goose.StatusContext(ctx, sqlDB, migrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to check migration status")
		}
	default:
		log.Fatal().Str("command", *command).Msg("Unknown command. Use: up, down, status, create")
	}
}
