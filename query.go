package photoblog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPageSize is used when a list request does not name a page size.
	DefaultPageSize = 12
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 100

	grantConcurrency = 8
)

// QueryFacade serves read paths. Every photo it returns carries a freshly
// issued download grant; grants are never persisted.
type QueryFacade struct {
	repo            PhotoRepo
	grants          *GrantIssuer
	defaultPageSize int
	maxPageSize     int
}

// QueryConfig holds paging limits. Zero values select the defaults.
type QueryConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

func NewQueryFacade(repo PhotoRepo, grants *GrantIssuer, cfg QueryConfig) (*QueryFacade, error) {
	if repo == nil || grants == nil {
		return nil, errors.New("new query facade: repo and grant issuer are required")
	}
	defaultSize := cfg.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	maxSize := cfg.MaxPageSize
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if defaultSize > maxSize {
		return nil, fmt.Errorf("new query facade: default page size %d exceeds max page size %d", defaultSize, maxSize)
	}
	return &QueryFacade{
		repo:            repo,
		grants:          grants,
		defaultPageSize: defaultSize,
		maxPageSize:     maxSize,
	}, nil
}

// Normalize clamps the paging fields of q to the facade's limits.
func (f *QueryFacade) Normalize(q ListQuery) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = f.defaultPageSize
	}
	if q.PageSize > f.maxPageSize {
		q.PageSize = f.maxPageSize
	}
	return q
}

// List returns one page of photos matching q, newest first.
// A grant failure for any row fails the whole page with ErrStoreUnavailable.
func (f *QueryFacade) List(ctx context.Context, q ListQuery) (PhotoPage, error) {
	if err := ctx.Err(); err != nil {
		return PhotoPage{}, fmt.Errorf("list photos: %w", err)
	}

	q = f.Normalize(q)

	photos, total, err := f.repo.Find(ctx, q.Filter(), q.Page, q.PageSize)
	if err != nil {
		return PhotoPage{}, fmt.Errorf("list photos: %w", catalogError(err))
	}

	items, err := f.attachGrants(ctx, photos)
	if err != nil {
		return PhotoPage{}, fmt.Errorf("list photos: %w", err)
	}

	return PhotoPage{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: TotalPages(total, q.PageSize),
		Total:      total,
	}, nil
}

// Get returns a single photo with a fresh download grant.
func (f *QueryFacade) Get(ctx context.Context, id uuid.UUID) (PhotoView, error) {
	if err := ctx.Err(); err != nil {
		return PhotoView{}, fmt.Errorf("get photo %s: %w", id, err)
	}

	photo, err := f.repo.Get(ctx, id)
	if err != nil {
		return PhotoView{}, fmt.Errorf("get photo %s: %w", id, catalogError(err))
	}

	view, err := f.view(ctx, photo)
	if err != nil {
		return PhotoView{}, fmt.Errorf("get photo %s: %w", id, err)
	}

	return view, nil
}

// View attaches a fresh download grant to a photo returned by a write path.
func (f *QueryFacade) View(ctx context.Context, photo Photo) (PhotoView, error) {
	view, err := f.view(ctx, photo)
	if err != nil {
		return PhotoView{}, fmt.Errorf("view photo %s: %w", photo.ID, err)
	}
	return view, nil
}

// Tags returns the sorted, duplicate-free union of all tags.
func (f *QueryFacade) Tags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	tags, err := f.repo.ListDistinctTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", catalogError(err))
	}
	if tags == nil {
		tags = []string{}
	}

	return tags, nil
}

func (f *QueryFacade) attachGrants(ctx context.Context, photos []Photo) ([]PhotoView, error) {
	items := make([]PhotoView, len(photos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(grantConcurrency)
	for i, photo := range photos {
		g.Go(func() error {
			view, err := f.view(gctx, photo)
			if err != nil {
				return err
			}
			items[i] = view
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

func (f *QueryFacade) view(ctx context.Context, photo Photo) (PhotoView, error) {
	grant, err := f.grants.IssueDownloadGrant(ctx, photo.ObjectKey)
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return PhotoView{}, err
	}
	if photo.Tags == nil {
		photo.Tags = []string{}
	}
	return PhotoView{
		Photo:             photo,
		ImageURL:          grant.URL,
		ImageURLExpiresAt: grant.ExpiresAt,
	}, nil
}
