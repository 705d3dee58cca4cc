package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/postgres"
	"github.com/sagarc03/zipstream/database/sqlite"
)

// Config holds the configuration for connecting to a job history backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN    string           `mapstructure:"dsn" validate:"required"`
	Tables zipstream.Tables `mapstructure:"tables"`
}

// Database is an open history backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() zipstream.JobHistory
	Close() error
}

// Connect opens the configured backend without touching the schema. Most
// callers want Open.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects the backend and checks it is usable: it pings the server,
// runs Migrate when migrate is set, and validates the schema. The returned
// Database is closed again on any failure.
func Open(ctx context.Context, cfg Config, migrate bool) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := prepare(ctx, db, migrate); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func prepare(ctx context.Context, db Database, migrate bool) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	if err := db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	return nil
}
