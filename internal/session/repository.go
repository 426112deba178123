package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create inserts the session unless the user already holds an Active
	// one. The no-active-session check and the insert execute as one
	// atomic statement; a losing concurrent request gets ErrAlreadyActive.
	Create(ctx context.Context, s *Session) error

	GetByID(ctx context.Context, id string) (*Session, error)
	GetActiveByUser(ctx context.Context, userID string) (*Session, error)
	List(ctx context.Context, filter Filter) ([]*Session, int, error)

	// End completes an Active session, stamping ended_at and merging the
	// caller-supplied notes (COALESCE keeps prior notes when nil).
	// Returns ErrNotActive if the session exists but is not Active,
	// ErrNotFound if it does not exist.
	End(ctx context.Context, id string, notes *string) (*Session, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const sessionColumns = "id, user_id, booking_id, equipment_id, status, started_at, ended_at, notes"

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	if err := row.Scan(
		&s.ID, &s.UserID, &s.BookingID, &s.EquipmentID,
		&s.Status, &s.StartedAt, &s.EndedAt, &s.Notes,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgxRepository) Create(ctx context.Context, s *Session) error {
	// The WHERE NOT EXISTS guard and the partial unique index
	// uq_sessions_active_user (user_id WHERE status = 'Active') together
	// enforce the single-active-session invariant: the guard keeps the
	// common path clean, the index decides races between concurrent inserts.
	const query = `
		INSERT INTO public.sessions (user_id, booking_id, equipment_id, status, notes)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM public.sessions
			WHERE user_id = $1 AND status = 'Active'
		)
		RETURNING id, started_at
	`

	err := r.pool.QueryRow(ctx, query,
		s.UserID, s.BookingID, s.EquipmentID, StatusActive, s.Notes,
	).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyActive
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyActive
		}
		return fmt.Errorf("create session failed: %w", err)
	}

	s.Status = StatusActive
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	const query = "SELECT " + sessionColumns + " FROM public.sessions WHERE id = $1"

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return s, nil
}

// GetActiveByUser returns the user's Active session, or nil if none exists.
func (r *pgxRepository) GetActiveByUser(ctx context.Context, userID string) (*Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM public.sessions
		WHERE user_id = $1 AND status = 'Active'
		ORDER BY started_at DESC
		LIMIT 1
	`

	s, err := scanSession(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active session failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Session, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "user_id", "booking_id", "equipment_id",
		"status", "started_at", "ended_at", "notes",
		"count(*) OVER() AS total_count",
	).From("public.sessions")

	if filter.EquipmentID != "" {
		query = query.Where(squirrel.Eq{"equipment_id": filter.EquipmentID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"status": StatusActive})
	}

	query = query.OrderBy("started_at DESC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list sessions query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions failed: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	var total int

	for rows.Next() {
		var s Session
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.BookingID, &s.EquipmentID,
			&s.Status, &s.StartedAt, &s.EndedAt, &s.Notes, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan session failed: %w", err)
		}
		sessions = append(sessions, &s)
	}

	return sessions, total, rows.Err()
}

func (r *pgxRepository) End(ctx context.Context, id string, notes *string) (*Session, error) {
	const query = `
		UPDATE public.sessions
		SET status = 'Completed', ended_at = now(), notes = COALESCE($2, notes)
		WHERE id = $1 AND status = 'Active'
		RETURNING ` + sessionColumns

	s, err := scanSession(r.pool.QueryRow(ctx, query, id, notes))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("end session failed: %w", err)
	}

	// No Active row matched: distinguish "not active" from "not found".
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrNotActive
}
