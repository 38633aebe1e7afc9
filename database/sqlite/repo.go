// Package sqlite implements the photo catalog using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/internal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeFormat is fixed width so that text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const photoColumns = "id, title, description, object_key, tags, location, camera, likes, created_at, updated_at"

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) table() string {
	return quoteIdentifier(r.tableName)
}

func (r *repo) Find(ctx context.Context, f photoblog.Filter, page, pageSize int) ([]photoblog.Photo, int, error) {
	if pageSize < 1 {
		return nil, 0, fmt.Errorf("find: %w: page size must be positive", photoblog.ErrValidationFailed)
	}

	where, args := r.buildFilter(f)

	countQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT COUNT(*) FROM %s %s`, r.table(), where)

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("find: count: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, photoColumns, r.table(), where)
	args = append(args, pageSize, internal.Offset(page, pageSize))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find: %w", err)
	}
	defer func() { _ = rows.Close() }()

	photos := []photoblog.Photo{}
	for rows.Next() {
		p, scanErr := scanPhoto(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("find: %w", scanErr)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("find: rows: %w", err)
	}

	return photos, total, nil
}

// buildFilter matches search text literally and case-insensitively, including non-ASCII letters.
func (r *repo) buildFilter(f photoblog.Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		conds = append(conds, fmt.Sprintf(`(%[1]s(title, ?) OR %[1]s(description, ?))`, containsFoldFunc))
		args = append(args, f.Search, f.Search)
	}

	if f.Tag != "" {
		conds = append(conds, fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(%s.tags) WHERE json_each.value = ?)`, r.table()))
		args = append(args, f.Tag)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (photoblog.Photo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE id = ?`, photoColumns, r.table())

	p, err := scanPhoto(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return photoblog.Photo{}, fmt.Errorf("get %s: %w", id, photoblog.ErrNotFound)
		}
		return photoblog.Photo{}, fmt.Errorf("get %s: %w", id, err)
	}

	return p, nil
}

func (r *repo) Create(ctx context.Context, c photoblog.CreatePhoto) (photoblog.Photo, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return photoblog.Photo{}, fmt.Errorf("create: generate id: %w", err)
	}

	tags, err := encodeTags(c.Tags)
	if err != nil {
		return photoblog.Photo{}, fmt.Errorf("create: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, title, description, object_key, tags, location, camera, likes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		RETURNING %s`, r.table(), photoColumns)

	p, err := scanPhoto(r.db.QueryRowContext(ctx, query,
		id.String(), c.Title, c.Description, c.ObjectKey, tags,
		nullable(c.Location), nullable(c.Camera), now, now,
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
		sets = append(sets, column+" = ?")
		args = append(args, value)
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
		tags, err := encodeTags(u.Tags.Value)
		if err != nil {
			return photoblog.Photo{}, fmt.Errorf("update %s: %w", id, err)
		}
		set("tags", tags)
	}
	if u.Location.Set {
		set("location", nullable(u.Location.Value))
	}
	if u.Camera.Set {
		set("camera", nullable(u.Camera.Value))
	}
	set("updated_at", time.Now().UTC().Format(timeFormat))
	args = append(args, id.String())

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET %s
		WHERE id = ?
		RETURNING %s`, r.table(), strings.Join(sets, ", "), photoColumns)

	p, err := scanPhoto(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE id = ?`, r.table())

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: rows affected: %w", id, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete %s: %w", id, photoblog.ErrNotFound)
	}

	return nil
}

func (r *repo) IncrementLikes(ctx context.Context, id uuid.UUID) (photoblog.Photo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET likes = likes + 1, updated_at = ?
		WHERE id = ?
		RETURNING %s`, r.table(), photoColumns)

	now := time.Now().UTC().Format(timeFormat)

	p, err := scanPhoto(r.db.QueryRowContext(ctx, query, now, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return photoblog.Photo{}, fmt.Errorf("increment likes %s: %w", id, photoblog.ErrNotFound)
		}
		return photoblog.Photo{}, fmt.Errorf("increment likes %s: %w", id, err)
	}

	return p, nil
}

func (r *repo) ListDistinctTags(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT DISTINCT j.value
		FROM %s AS p, json_each(p.tags) AS j
		ORDER BY j.value`, r.table())

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list distinct tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("list distinct tags: scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list distinct tags: rows: %w", err)
	}

	return tags, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row scanner) (photoblog.Photo, error) {
	var p photoblog.Photo
	var idStr, tags, createdAt, updatedAt string
	var location, camera sql.NullString

	err := row.Scan(
		&idStr, &p.Title, &p.Description, &p.ObjectKey, &tags,
		&location, &camera, &p.Likes, &createdAt, &updatedAt,
	)
	if err != nil {
		return photoblog.Photo{}, err
	}

	p.ID, err = uuid.Parse(idStr)
	if err != nil {
		return photoblog.Photo{}, fmt.Errorf("parse uuid: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return photoblog.Photo{}, fmt.Errorf("parse tags: %w", err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	p.Location = location.String
	p.Camera = camera.String

	p.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return photoblog.Photo{}, fmt.Errorf("parse created_at: %w", err)
	}

	p.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return photoblog.Photo{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return p, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
