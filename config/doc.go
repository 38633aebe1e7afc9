// Package config provides configuration loading and validation for photoblog.
//
// The package handles YAML configuration files, .env files, environment
// variables and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (PHOTOBLOG_ prefix), including those loaded by LoadDotEnv
//  4. CLI flags
//
// # Usage
//
//	_ = config.LoadDotEnv()
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
// All config keys map to environment variables with PHOTOBLOG_ prefix:
//   - server.port → PHOTOBLOG_SERVER_PORT
//   - database.dsn → PHOTOBLOG_DATABASE_DSN
//   - storage.secret_key → PHOTOBLOG_STORAGE_SECRET_KEY
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, page size limits and max_upload_size for the local object route
//   - Service: cleanup_timeout and verify_uploads for the upload coordinator
//   - Database: type, DSN, and table names
//   - Storage: object store backend and its credentials
//   - Grants: object key prefix and upload/download grant lifetimes
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//   - Env: deployment environment, "prod" selects JSON logs
package config
