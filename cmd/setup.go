package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadSetupConfig reads the config at path, creating it from the template when missing.
func (r *Runner) loadSetupConfig(path string) *shared.Config {
	var config *shared.Config
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", path)
			if config, err = shared.LoadConfig(path); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if err := config.ApplyEnv(); err != nil {
		r.logger.Warn("ignoring environment overrides", "error", err)
	}
	return config
}

func (r *Runner) openSetupDatabase(config *shared.Config) (*sql.DB, error) {
	r.logger.Info("opening database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return db, nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadSetupConfig(cmd.String("config"))

	db, err := r.openSetupDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}
	for _, s := range states {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("%s %04d %s\n", mark, s.Version, s.Name)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupConfig writes the default configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url (or %s) to your backend\n", shared.EnvAPIURL)
	r.writePlain("2. Run 'linkguard setup database'\n")
	r.writePlain("3. Run 'linkguard auth login --email you@example.com'\n")
	return nil
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config := r.loadSetupConfig(cmd.String("config"))

	db, err := r.openSetupDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return r.writePlain("✓ Rolled back latest migration\n")
}
