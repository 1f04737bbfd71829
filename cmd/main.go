package main

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	if err := config.ApplyEnv(); err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Logging.Level))

	db, err := openDatabase(config)
	if err != nil {
		logger.Warn("credential database unavailable, session will not persist", "error", err)
	} else {
		defer db.Close()
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		DB:     db,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "linkguard",
		Usage:    "Monitor affiliate links, alerts and revenue impact",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatal(shared.UserMessage(err), "error", err)
	}
}

// openDatabase opens the configured SQLite file and applies pending migrations.
func openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
