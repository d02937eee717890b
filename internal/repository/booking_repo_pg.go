package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tverdin/carrental/internal/domain"
)

type BookingFilter struct {
	UserID int64
	Status domain.BookingStatus
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListActiveForCar(ctx context.Context, carID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, user_id, car_id, book_place, book_date, duration, destination, return_date, price_cents, status, created_at, updated_at`

// Create inserts the booking inside a transaction that locks the car row
// first, so two concurrent creates for the same car serialize here even when
// the caller's advisory lock was bypassed. The overlap re-check runs under
// that lock.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin booking create", err)
	}
	defer tx.Rollback(ctx)

	var carID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM cars WHERE id=$1 FOR UPDATE`, booking.CarID).Scan(&carID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{Entity: "car"}
		}
		return storageErr("lock car row", err)
	}

	var conflict bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE car_id=$1 AND status IN ('waiting', 'approved')
			AND book_date <= $3 AND return_date >= $2
		)`, booking.CarID, booking.BookDate, booking.ReturnDate).Scan(&conflict); err != nil {
		return storageErr("check booking overlap", err)
	}
	if conflict {
		return &domain.ConflictError{Msg: "car not available for selected dates"}
	}

	booking.Status = domain.BookingStatusWaiting
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (reference, user_id, car_id, book_place, book_date, duration, destination, return_date, price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.UserID, booking.CarID, booking.BookPlace, booking.BookDate,
		booking.Duration, booking.Destination, booking.ReturnDate, booking.PriceCents, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return storageErr("insert booking", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit booking create", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "booking"}
		}
		return nil, storageErr("get booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListActiveForCar(ctx context.Context, carID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE car_id=$1 AND status IN ('waiting', 'approved') ORDER BY book_date`, carID)
	if err != nil {
		return nil, storageErr("list active bookings", err)
	}
	return collectBookings(rows)
}

// UpdateStatus moves the booking from one status to another in a single
// conditional statement, so concurrent transitions for the same booking
// serialize in the database: exactly one writer sees the expected status, the
// rest get ErrStaleStatus.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+bookingColumns, to, id, from)
	b, err := scanBooking(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storageErr("update booking status", err)
	}

	// zero rows: either the booking is gone or another writer got there first
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, storageErr("check booking exists", err)
	}
	if !exists {
		return nil, &domain.NotFoundError{Entity: "booking"}
	}
	return nil, ErrStaleStatus
}

func (r *PGBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		query += ` AND user_id=$` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY book_date DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	return collectBookings(rows)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.CarID, &b.BookPlace, &b.BookDate, &b.Duration, &b.Destination, &b.ReturnDate, &b.PriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storageErr("scan booking", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate bookings", err)
	}
	return bookings, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
