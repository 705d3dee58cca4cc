package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/zipstream"
)

const applicationName = "zipstream"

type database struct {
	pool   *pgxpool.Pool
	tables zipstream.Tables
}

// Connect creates a pgx pool for dsn. Connections are opened lazily; call
// Ping to check the server is reachable. Tables should be validated before
// calling Connect.
func Connect(ctx context.Context, dsn string, tables zipstream.Tables) (*database, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: parse dsn: %w", err)
	}

	// Job history writes once per finished download; a small pool is plenty.
	if cfg.MaxConns > 4 {
		cfg.MaxConns = 4
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{pool: pool, tables: tables}, nil
}

func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the job history table and its indexes.
func (d *database) Migrate(ctx context.Context) error {
	if err := createJobsTable(ctx, d.pool, d.tables.Jobs); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns the JobHistory backed by this database.
func (d *database) GetRepo() zipstream.JobHistory {
	return &repo{pool: d.pool, tableName: d.tables.Jobs}
}

func (d *database) Close() error {
	d.pool.Close()
	return nil
}
