package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/config"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Find photos whose image is missing from the object store",
	Long: `Page through the catalog and check that every photo's object key names
a stored object. Rows left behind by interrupted deletes or abandoned
uploads are reported as dangling.

With --prune the dangling rows are deleted after the sweep.

Examples:
  # Report only
  photoblog reconcile

  # Report as JSON
  photoblog reconcile --output json

  # Delete dangling rows without asking
  photoblog reconcile --prune --yes`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

var (
	reconcilePrune     bool
	reconcileYes       bool
	reconcileOutput    string
	reconcileBatchSize int
)

func init() {
	reconcileCmd.Flags().BoolVar(&reconcilePrune, "prune", false, "delete dangling rows")
	reconcileCmd.Flags().BoolVarP(&reconcileYes, "yes", "y", false, "do not ask before pruning")
	reconcileCmd.Flags().StringVarP(&reconcileOutput, "output", "o", "yaml", "report format (yaml, json)")
	reconcileCmd.Flags().IntVar(&reconcileBatchSize, "batch-size", 100, "rows read per catalog page")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if reconcileOutput != "yaml" && reconcileOutput != "json" {
		return fmt.Errorf("unsupported output format: %s", reconcileOutput)
	}
	if reconcileBatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", reconcileBatchSize)
	}

	if reconcilePrune && !reconcileYes {
		ok, promptErr := confirm("Delete catalog rows whose image is missing")
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

	reconciler := photoblog.NewReconciler(a.db.GetRepo(), a.backend)
	report, sweepErr := reconciler.Sweep(ctx, photoblog.SweepOptions{
		BatchSize: reconcileBatchSize,
		Prune:     reconcilePrune,
	})

	if err := writeReport(cmd.OutOrStdout(), reconcileOutput, report); err != nil {
		return err
	}

	if sweepErr != nil {
		return fmt.Errorf("reconcile: %w", sweepErr)
	}

	slog.Info("reconcile complete",
		"checked", report.Checked,
		"dangling", len(report.Dangling),
		"pruned", report.Pruned,
	)
	return nil
}

func writeReport(w io.Writer, format string, report photoblog.SweepReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	}
	return nil
}
