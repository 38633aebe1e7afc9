package photoblog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Reconciler finds catalog rows whose object is missing from the store.
type Reconciler struct {
	repo  PhotoRepo
	store ClaimVerifier
}

// SweepOptions controls a reconciliation sweep.
type SweepOptions struct {
	// BatchSize is the number of rows read per catalog page (default: 100).
	BatchSize int
	// Prune deletes the rows of dangling references once the sweep has read every page.
	Prune bool
}

// DanglingRef is a catalog row whose object key names no stored object.
type DanglingRef struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	ObjectKey string    `json:"objectKey" yaml:"object_key"`
	Pruned    bool      `json:"pruned" yaml:"pruned"`
}

// SweepReport summarizes a sweep.
type SweepReport struct {
	Checked  int           `json:"checked" yaml:"checked"`
	Dangling []DanglingRef `json:"dangling" yaml:"dangling"`
	Pruned   int           `json:"pruned" yaml:"pruned"`
}

func NewReconciler(repo PhotoRepo, store ClaimVerifier) *Reconciler {
	return &Reconciler{repo: repo, store: store}
}

// Sweep pages through the whole catalog and checks every object key with the store.
//
// Rows are only pruned after all pages were read so that deleting rows does
// not shift the pages still to be visited. The report is returned together
// with any error, covering the rows processed so far.
func (r *Reconciler) Sweep(ctx context.Context, opts SweepOptions) (SweepReport, error) {
	report := SweepReport{Dangling: []DanglingRef{}}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("sweep: %w", err)
	}

	batch := opts.BatchSize
	if batch <= 0 {
		batch = 100
	}

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("sweep: %w", err)
		}

		photos, total, err := r.repo.Find(ctx, Filter{}, page, batch)
		if err != nil {
			return report, fmt.Errorf("sweep page %d: %w", page, catalogError(err))
		}

		for _, p := range photos {
			ok, existsErr := r.store.Exists(ctx, p.ObjectKey)
			if existsErr != nil {
				return report, fmt.Errorf("sweep '%s': %w: %w", p.ObjectKey, ErrStoreUnavailable, existsErr)
			}
			report.Checked++
			if !ok {
				report.Dangling = append(report.Dangling, DanglingRef{ID: p.ID, Title: p.Title, ObjectKey: p.ObjectKey})
			}
		}

		if len(photos) < batch || page*batch >= total {
			break
		}
	}

	if !opts.Prune {
		return report, nil
	}

	for i := range report.Dangling {
		ref := &report.Dangling[i]
		err := r.repo.Delete(ctx, ref.ID)
		// Ignore ErrNotFound - row may have been deleted already
		if err != nil && !errors.Is(err, ErrNotFound) {
			return report, fmt.Errorf("sweep prune '%s': %w", ref.ObjectKey, catalogError(err))
		}
		ref.Pruned = true
		report.Pruned++
	}

	return report, nil
}
