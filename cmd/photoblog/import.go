package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/config"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <file1> [file2] ...",
	Short: "Import local images into the catalog",
	Long: `Upload local image files to the object store and register a photo
for each of them.

The title defaults to the file name without its extension and the
description defaults to the title.

Examples:
  # Import a single photo
  photoblog import sunset.jpg --title "Sunset" --tags beach,sea

  # Import several photos sharing metadata
  photoblog import --camera "X100V" --location Lisbon *.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var (
	importTitle       string
	importDescription string
	importTags        string
	importLocation    string
	importCamera      string
	importQuiet       bool
)

func init() {
	importCmd.Flags().StringVar(&importTitle, "title", "", "photo title (default: file name)")
	importCmd.Flags().StringVar(&importDescription, "description", "", "photo description (default: title)")
	importCmd.Flags().StringVar(&importTags, "tags", "", "comma separated tags")
	importCmd.Flags().StringVar(&importLocation, "location", "", "where the photo was taken")
	importCmd.Flags().StringVar(&importCamera, "camera", "", "camera used")
	importCmd.Flags().BoolVarP(&importQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, openOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	imported := 0
	for _, path := range args {
		photo, importErr := importFile(ctx, a, path)
		if importErr != nil {
			if errors.Is(importErr, photoblog.ErrConflictOnCleanup) {
				slog.Error("stores out of sync, run 'photoblog reconcile'", "file", path, "err", importErr)
			}
			return fmt.Errorf("import %s: %w", path, importErr)
		}
		imported++
		if !importQuiet {
			slog.Info("imported", "file", path, "id", photo.ID, "key", photo.ObjectKey)
		}
	}

	slog.Info("import complete", "imported", imported)
	return nil
}

// importFile uploads one image and commits its row. The object is removed
// again when the row cannot be committed.
func importFile(ctx context.Context, a *app, path string) (photoblog.Photo, error) {
	ext := photoblog.ExtensionOf(path)
	contentType := mime.TypeByExtension("." + ext)
	if !strings.HasPrefix(contentType, "image/") {
		return photoblog.Photo{}, fmt.Errorf("%w: %q is not an image file", photoblog.ErrValidationFailed, path)
	}

	f, err := os.Open(path) //nolint:gosec // Path is supplied by the operator
	if err != nil {
		return photoblog.Photo{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return photoblog.Photo{}, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return photoblog.Photo{}, fmt.Errorf("%w: %q is not a regular file", photoblog.ErrValidationFailed, path)
	}

	key, err := a.keys.NewKey(ext)
	if err != nil {
		return photoblog.Photo{}, err
	}

	if err := a.backend.Put(ctx, key, f, info.Size(), contentType); err != nil {
		return photoblog.Photo{}, fmt.Errorf("upload %s: %w", key, err)
	}

	title := importTitle
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	description := importDescription
	if description == "" {
		description = title
	}

	photo, err := a.coordinator.Create(ctx, photoblog.CreatePhoto{
		Title:       title,
		Description: description,
		ObjectKey:   key,
		Tags:        photoblog.SplitTags(importTags),
		Location:    importLocation,
		Camera:      importCamera,
	})
	if err != nil {
		return photoblog.Photo{}, removeUploaded(ctx, a.backend, key, err)
	}

	return photo, nil
}

// removeUploaded deletes an object whose row was never committed and returns
// cause. A failed delete leaves an orphaned object, reported as
// ErrConflictOnCleanup joined with cause.
func removeUploaded(ctx context.Context, store photoblog.ObjectStore, key string, cause error) error {
	delErr := store.Delete(context.WithoutCancel(ctx), key)
	if delErr == nil {
		return cause
	}
	return errors.Join(cause, fmt.Errorf("remove uploaded object %s: %w: %w", key, photoblog.ErrConflictOnCleanup, delErr))
}
