// Package postgres implements the photo catalog on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/internal"
)

const uniqueViolation = "23505"

const photoColumns = "id, title, description, object_key, tags, location, camera, likes, created_at, updated_at"

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewRepo returns a PhotoRepo over an existing pool. The table must already be migrated.
func NewRepo(pool *pgxpool.Pool, tables photoblog.Tables) (photoblog.PhotoRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &repo{pool: pool, tableName: tables.Photos}, nil
}

func (r *repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *repo) Find(ctx context.Context, f photoblog.Filter, page, pageSize int) ([]photoblog.Photo, int, error) {
	if pageSize < 1 {
		return nil, 0, fmt.Errorf("find: %w: page size must be positive", photoblog.ErrValidationFailed)
	}

	where, args := buildFilter(f)

	//nolint:gosec // G201: table name is validated
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.table(), where)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("find: count: %w", err)
	}

	//nolint:gosec // G201: table name is validated
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, photoColumns, r.table(), where, len(args)+1, len(args)+2)
	args = append(args, pageSize, internal.Offset(page, pageSize))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find: %w", err)
	}
	defer rows.Close()

	photos := []photoblog.Photo{}
	for rows.Next() {
		p, scanErr := scanPhoto(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("find: %w", scanErr)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("find: %w", err)
	}

	return photos, total, nil
}

func buildFilter(f photoblog.Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, internal.ContainsPattern(f.Search))
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if f.Tag != "" {
		args = append(args, f.Tag)
		conds = append(conds, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (photoblog.Photo, error) {
	//nolint:gosec // G201: table name is validated
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, photoColumns, r.table())

	p, err := scanPhoto(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return photoblog.Photo{}, fmt.Errorf("get %s: %w", id, photoblog.ErrNotFound)
		}
		return photoblog.Photo{}, fmt.Errorf("get %s: %w", id, err)
	}

	return p, nil
}

func (r *repo) Create(ctx context.Context, c photoblog.CreatePhoto) (photoblog.Photo, error) {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}

	//nolint:gosec // G201: table name is validated
	query := fmt.Sprintf(`
		INSERT INTO %s (title, description, object_key, tags, location, camera)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, r.table(), photoColumns)

	p, err := scanPhoto(r.pool.QueryRow(ctx, query,
		c.Title, c.Description, c.ObjectKey, tags, nullable(c.Location), nullable(c.Camera),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return photoblog.Photo{}, fmt.Errorf("create: %w: object key %q is already referenced", photoblog.ErrValidationFailed, c.ObjectKey)
		}
		return photoblog.Photo{}, fmt.Errorf("create: %w", err)
	}

	return p, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, u photoblog.PhotoUpdate) (photoblog.Photo, error) {
	var sets []string
	var args []any

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Title.Set {
		set("title", u.Title.Value)
	}
	if u.Description.Set {
		set("description", u.Description.Value)
	}
	if u.ObjectKey.Set {
		set("object_key", u.ObjectKey.Value)
	}
	if u.Tags.Set {
		tags := u.Tags.Value
		if tags == nil {
			tags = []string{}
		}
		set("tags", tags)
	}
	if u.Location.Set {
		set("location", nullable(u.Location.Value))
	}
	if u.Camera.Set {
		set("camera", nullable(u.Camera.Value))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	//nolint:gosec // G201: table name is validated
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, r.table(), strings.Join(sets, ", "), len(args), photoColumns)

	p, err := scanPhoto(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return photoblog.Photo{}, fmt.Errorf("update %s: %w", id, photoblog.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return photoblog.Photo{}, fmt.Errorf("update %s: %w: object key %q is already referenced", id, photoblog.ErrValidationFailed, u.ObjectKey.Value)
		}
		return photoblog.Photo{}, fmt.Errorf("update %s: %w", id, err)
	}

	return p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	//nolint:gosec // G201: table name is validated
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table())

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", id, photoblog.ErrNotFound)
	}

	return nil
}

func (r *repo) IncrementLikes(ctx context.Context, id uuid.UUID) (photoblog.Photo, error) {
	//nolint:gosec // G201: table name is validated
	query := fmt.Sprintf(`
		UPDATE %s
		SET likes = likes + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.table(), photoColumns)

	p, err := scanPhoto(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return photoblog.Photo{}, fmt.Errorf("increment likes %s: %w", id, photoblog.ErrNotFound)
		}
		return photoblog.Photo{}, fmt.Errorf("increment likes %s: %w", id, err)
	}

	return p, nil
}

func (r *repo) ListDistinctTags(ctx context.Context) ([]string, error) {
	//nolint:gosec // G201: table name is validated
	query := fmt.Sprintf(`
		SELECT tag
		FROM (SELECT DISTINCT unnest(tags) AS tag FROM %s) AS t
		ORDER BY tag COLLATE "C"
	`, r.table())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list distinct tags: %w", err)
	}

	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list distinct tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}

	return tags, nil
}

func scanPhoto(row pgx.Row) (photoblog.Photo, error) {
	var p photoblog.Photo
	var location, camera *string

	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.ObjectKey, &p.Tags,
		&location, &camera, &p.Likes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return photoblog.Photo{}, err
	}

	if location != nil {
		p.Location = *location
	}
	if camera != nil {
		p.Camera = *camera
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	return p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
