// Package database connects the job history to a SQL backend.
//
// # Supported Backends
//
//   - PostgreSQL: pgx connection pool, for deployments sharing one history
//   - SQLite: modernc.org/sqlite, for single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "zipstream.db",
//	    Tables: zipstream.Tables{Jobs: "zipstream_jobs"},
//	}
//
//	db, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Validate(ctx); err != nil {
//	    return err
//	}
//	history := db.GetRepo()
//
// Tables are created by Migrate, which the "zipstream init" command runs.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
