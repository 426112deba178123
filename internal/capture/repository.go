package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, c *Capture) error
	GetByID(ctx context.Context, id string) (*Capture, error)
	ListBySession(ctx context.Context, sessionID string) ([]*Capture, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

var captureColumns = []string{
	"id", "session_id", "uploader_id", "filename", "storage_path",
	"thumbnail_path", "content_type", "size", "width", "height", "captured_at",
}

func scanCapture(row pgx.Row) (*Capture, error) {
	c := &Capture{}
	err := row.Scan(
		&c.ID,
		&c.SessionID,
		&c.UploaderID,
		&c.Filename,
		&c.StoragePath,
		&c.ThumbnailPath,
		&c.ContentType,
		&c.Size,
		&c.Width,
		&c.Height,
		&c.CapturedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c *Capture) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.captures").
		Columns(captureColumns...).
		Values(c.ID, c.SessionID, c.UploaderID, c.Filename, c.StoragePath,
			c.ThumbnailPath, c.ContentType, c.Size, c.Width, c.Height, c.CapturedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create capture record: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Capture, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(captureColumns...).
		From("public.captures").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	c, err := scanCapture(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}
	return c, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID string) ([]*Capture, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(captureColumns...).
		From("public.captures").
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("captured_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate captures: %w", err)
	}
	return captures, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.captures").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete capture record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
