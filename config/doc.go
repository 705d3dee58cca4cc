// Package config provides configuration loading and validation for zipstream.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (ZIPSTREAM_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with ZIPSTREAM_ prefix:
//   - server.port → ZIPSTREAM_SERVER_PORT
//   - archive.path → ZIPSTREAM_ARCHIVE_PATH
//   - archive.delay → ZIPSTREAM_ARCHIVE_DELAY
//
// Two older names are still read when the prefixed variable is unset:
// PHOTOS_DIRECTORY for archive.path and LOGGING_ENABLED for log.enabled.
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and HTTP timeouts
//   - Archive: photo directory, compression command, chunk size, pacing delay,
//     termination grace period and concurrent job limit
//   - Index: optional landing page file
//   - Metrics: Prometheus endpoint toggle
//   - CORS: cross-origin resource sharing settings
//   - Log: logging toggle, level and format
//   - History: job history toggle and automatic table migration
//   - Database: history backend type (sqlite or postgres), DSN and table names
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Chunk size must be positive, grace period greater than zero
//   - Delay and max jobs must not be negative
//   - Log level must be debug, info, warn, or error; format text or json
//   - Database type must be sqlite or postgres, with a non-empty DSN
package config
