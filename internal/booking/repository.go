package booking

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
	// Create inserts the booking unless an overlapping Pending/Approved
	// booking already exists for the same equipment and date. The overlap
	// check and the insert execute as one atomic statement against the
	// store; a losing concurrent request gets ErrTimeConflict.
	Create(ctx context.Context, b *Booking) error

	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// UpdateStatus drives the approval workflow, recording the approver.
	UpdateStatus(ctx context.Context, id string, status Status, approvedBy string) (*Booking, error)

	// UpdateDetails changes title/group/attendees only.
	UpdateDetails(ctx context.Context, b *Booking) error

	// Reschedule moves the booking to a new date/slot, re-running the
	// overlap check with the booking itself excluded. Like Create, check
	// and write are one atomic statement.
	Reschedule(ctx context.Context, b *Booking) error

	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const bookingColumns = `id, equipment_id, date, slot_start, slot_end, title,
	group_name, attendees, requester_id, requester_name, status, approved_by, created_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.EquipmentID, &b.Date, &b.SlotStart, &b.SlotEnd, &b.Title,
		&b.GroupName, &b.Attendees, &b.RequesterID, &b.RequesterName,
		&b.Status, &b.ApprovedBy, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	// The WHERE NOT EXISTS guard makes the overlap check and the insert one
	// statement. The exclusion constraint on (equipment_id, date, slot range)
	// is the backstop for two statements racing on disjoint snapshots: one of
	// them fails with an exclusion violation, mapped to the same conflict.
	const query = `
		INSERT INTO public.bookings (
			equipment_id, date, slot_start, slot_end, title,
			group_name, attendees, requester_id, requester_name, status
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM public.bookings
			WHERE equipment_id = $1
			  AND date = $2
			  AND status IN ('Pending', 'Approved')
			  AND NOT (slot_end <= $3 OR slot_start >= $4)
		)
		RETURNING id, status, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		b.EquipmentID, b.Date, b.SlotStart, b.SlotEnd, b.Title,
		b.GroupName, b.Attendees, b.RequesterID, b.RequesterName, StatusPending,
	).Scan(&b.ID, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTimeConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return ErrTimeConflict
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	const query = "SELECT " + bookingColumns + " FROM public.bookings WHERE id = $1"

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "equipment_id", "date", "slot_start", "slot_end", "title",
		"group_name", "attendees", "requester_id", "requester_name",
		"status", "approved_by", "created_at",
		"count(*) OVER() AS total_count",
	).From("public.bookings")

	if filter.EquipmentID != "" {
		query = query.Where(squirrel.Eq{"equipment_id": filter.EquipmentID})
	}
	if filter.Date != nil {
		query = query.Where(squirrel.Eq{"date": *filter.Date})
	}
	if filter.RequesterID != "" {
		query = query.Where(squirrel.Eq{"requester_id": filter.RequesterID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	query = query.OrderBy("date DESC", "slot_start ASC")

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
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.EquipmentID, &b.Date, &b.SlotStart, &b.SlotEnd, &b.Title,
			&b.GroupName, &b.Attendees, &b.RequesterID, &b.RequesterName,
			&b.Status, &b.ApprovedBy, &b.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, rows.Err()
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status, approvedBy string) (*Booking, error) {
	const query = `
		UPDATE public.bookings
		SET status = $2, approved_by = $3
		WHERE id = $1
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id, status, approvedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update booking status failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) UpdateDetails(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("title", b.Title).
		Set("group_name", b.GroupName).
		Set("attendees", b.Attendees).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Reschedule(ctx context.Context, b *Booking) error {
	// Same guard as Create, except the booking's own row is excluded so a
	// slot overlapping only the old position still goes through. The
	// exclusion constraint never compares a row against itself, so it
	// remains a valid backstop here too.
	const query = `
		UPDATE public.bookings AS b
		SET date = $2, slot_start = $3, slot_end = $4,
		    title = $5, group_name = $6, attendees = $7
		WHERE b.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM public.bookings o
			WHERE o.equipment_id = b.equipment_id
			  AND o.date = $2
			  AND o.id <> b.id
			  AND o.status IN ('Pending', 'Approved')
			  AND NOT (o.slot_end <= $3 OR o.slot_start >= $4)
		)
	`

	ct, err := r.pool.Exec(ctx, query,
		b.ID, b.Date, b.SlotStart, b.SlotEnd, b.Title, b.GroupName, b.Attendees,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return ErrTimeConflict
		}
		return fmt.Errorf("reschedule booking failed: %w", err)
	}
	// The caller has already resolved the booking, so an untouched row
	// means the guard fired.
	if ct.RowsAffected() == 0 {
		return ErrTimeConflict
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
