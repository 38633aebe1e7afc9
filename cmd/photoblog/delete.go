package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/config"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [flags] <id1> [id2] ...",
	Short: "Delete photos and their images",
	Long: `Delete photos by id. The stored image is removed first and the
catalog row after it, the same way the API deletes.

Examples:
  # Delete after confirming
  photoblog delete 6f1c1e0a-4a5b-4c8d-9e2f-0123456789ab

  # Delete without asking
  photoblog delete --yes 6f1c1e0a-4a5b-4c8d-9e2f-0123456789ab`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

var (
	deleteYes   bool
	deleteQuiet bool
)

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")
	deleteCmd.Flags().BoolVarP(&deleteQuiet, "quiet", "q", false, "suppress per-photo output")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, parseErr := uuid.Parse(arg)
		if parseErr != nil {
			return fmt.Errorf("invalid photo id %q: %w", arg, parseErr)
		}
		ids = append(ids, id)
	}

	if !deleteYes {
		ok, promptErr := confirm(fmt.Sprintf("Delete %d photo(s) and their images", len(ids)))
		if promptErr != nil {
			return promptErr
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, openOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	deleted := 0
	notFound := 0

	for _, id := range ids {
		deleteErr := a.coordinator.Delete(ctx, id)
		if photoblog.Kind(deleteErr) == photoblog.KindNotFound {
			notFound++
			if !deleteQuiet {
				slog.Warn("not found", "id", id)
			}
			continue
		}
		if deleteErr != nil {
			if errors.Is(deleteErr, photoblog.ErrConflictOnCleanup) {
				slog.Error("stores out of sync, run 'photoblog reconcile'", "id", id, "err", deleteErr)
			}
			return fmt.Errorf("delete %s: %w", id, deleteErr)
		}
		deleted++
		if !deleteQuiet {
			slog.Info("deleted", "id", id)
		}
	}

	slog.Info("delete complete", "deleted", deleted, "not_found", notFound)
	return nil
}
