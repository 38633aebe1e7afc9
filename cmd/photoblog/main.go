package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photoblog/config"
)

var version = "dev"

var (
	configFiles []string
	envFiles    []string
)

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "photoblog",
	Short:   "Photo catalog server with presigned object storage",
	Long: `Photoblog serves a photo catalog whose image bytes live in an object
store and whose metadata lives in SQLite or PostgreSQL. Clients upload and
download images directly through short-lived presigned URLs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFiles...); err != nil {
			return err
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSliceVar(&configFiles, "config", nil, "config file path, repeat to merge (default: ./config.yaml)")
	flags.StringSliceVar(&envFiles, "env-file", nil, "dotenv file to load before reading the environment (default: ./.env)")
	flags.String("db-type", "", "database type: sqlite, postgres (env: PHOTOBLOG_DATABASE_TYPE)")
	flags.String("db-dsn", "", "database connection string (env: PHOTOBLOG_DATABASE_DSN)")
	flags.String("storage-type", "", "object store: filesystem, s3, minio, stowry (env: PHOTOBLOG_STORAGE_TYPE)")
	flags.String("storage-path", "", "filesystem object store directory (env: PHOTOBLOG_STORAGE_PATH)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env: PHOTOBLOG_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
