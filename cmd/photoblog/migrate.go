package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photoblog/config"
	"github.com/sagarc03/photoblog/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog tables",
	Long: `Create the catalog tables and indexes if they do not exist, then
validate that the schema matches what photoblog expects.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	slog.Info("migration complete", "type", cfg.Database.Type, "table", cfg.Database.Tables.Photos)
	return nil
}
