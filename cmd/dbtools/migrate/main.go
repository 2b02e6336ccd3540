// cmd/dbtools/migrate/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/db"
)

func main() {
	var (
		dbPath   = flag.String("db", "", "Path to SQLite database")
		command  = flag.String("command", "", "Command to run (up, down, version, seed)")
		seedPath = flag.String("seed", "", "YAML file with fields and users (seed command)")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *dbPath == "" || *command == "" {
		flag.Usage()
		os.Exit(1)
	}

	absDB, err := filepath.Abs(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database path")
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	switch *command {
	case "up", "down", "version":
		if err := runMigrate(absDB, *command); err != nil {
			log.Fatal().Err(err).Str("command", *command).Msg("Migration failed")
		}
	case "seed":
		if *seedPath == "" {
			log.Fatal().Msg("seed requires -seed")
		}
		counts, err := seedFile(context.Background(), absDB, *seedPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Seed failed")
		}
		log.Info().Int("fields", counts.fields).Int("users", counts.users).Msg("Seed complete")
	default:
		log.Fatal().Str("command", *command).Msg("Unknown command")
	}
}

func runMigrate(path, command string) error {
	sqlDB, err := sql.Open("sqlite3", db.SQLiteDSN(path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		sqlDB.Close()
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("Successfully ran migrations up")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("Successfully ran migrations down")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return err
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
	}
	return nil
}
