package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tverdin/carrental/internal/domain"
)

type CarRepository interface {
	List(ctx context.Context) ([]domain.Car, error)
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	Create(ctx context.Context, car *domain.Car) error
	Update(ctx context.Context, car *domain.Car) error
	Delete(ctx context.Context, id int64) error
	RecomputeAvailability(ctx context.Context, carID int64) error
	RecomputeAllAvailability(ctx context.Context) error
}

type PGCarRepository struct {
	db *pgxpool.Pool
}

func NewCarRepository(db *pgxpool.Pool) CarRepository {
	return &PGCarRepository{db: db}
}

const carColumns = `id, make, model, year, color, registration_number, price_per_day_cents, image_url, available, created_at, updated_at`

func (r *PGCarRepository) List(ctx context.Context) ([]domain.Car, error) {
	rows, err := r.db.Query(ctx, `SELECT `+carColumns+` FROM cars ORDER BY make, model`)
	if err != nil {
		return nil, storageErr("list cars", err)
	}
	defer rows.Close()

	cars := make([]domain.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, storageErr("scan car", err)
		}
		cars = append(cars, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate cars", err)
	}
	return cars, nil
}

func (r *PGCarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	row := r.db.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE id=$1`, id)
	c, err := scanCar(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "car"}
		}
		return nil, storageErr("get car", err)
	}
	return c, nil
}

func (r *PGCarRepository) Create(ctx context.Context, car *domain.Car) error {
	err := r.db.QueryRow(ctx, `INSERT INTO cars (make, model, year, color, registration_number, price_per_day_cents, image_url, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		car.Make, car.Model, car.Year, car.Color, car.RegistrationNumber, car.PricePerDayCents, car.ImageURL, car.Available).
		Scan(&car.ID, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Msg: "car with this registration number already exists"}
		}
		return storageErr("insert car", err)
	}
	return nil
}

func (r *PGCarRepository) Update(ctx context.Context, car *domain.Car) error {
	row := r.db.QueryRow(ctx, `UPDATE cars SET make=$1, model=$2, year=$3, color=$4, registration_number=$5, price_per_day_cents=$6, image_url=$7, updated_at=now()
		WHERE id=$8 RETURNING updated_at`,
		car.Make, car.Model, car.Year, car.Color, car.RegistrationNumber, car.PricePerDayCents, car.ImageURL, car.ID)
	if err := row.Scan(&car.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{Entity: "car"}
		}
		if isUniqueViolation(err) {
			return &domain.ConflictError{Msg: "car with this registration number already exists"}
		}
		return storageErr("update car", err)
	}
	return nil
}

func (r *PGCarRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM cars WHERE id=$1`, id)
	if err != nil {
		return storageErr("delete car", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "car"}
	}
	return nil
}

// RecomputeAvailability refreshes the denormalized available flag from live
// bookings. A car is unavailable while an active booking covers today.
func (r *PGCarRepository) RecomputeAvailability(ctx context.Context, carID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE cars SET available = NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE bookings.car_id = cars.id
			AND bookings.status IN ('waiting', 'approved')
			AND bookings.book_date <= now() AND bookings.return_date >= now()
		), updated_at = now()
		WHERE id = $1`, carID)
	if err != nil {
		return storageErr("recompute car availability", err)
	}
	return nil
}

func (r *PGCarRepository) RecomputeAllAvailability(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `UPDATE cars SET available = NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE bookings.car_id = cars.id
			AND bookings.status IN ('waiting', 'approved')
			AND bookings.book_date <= now() AND bookings.return_date >= now()
		), updated_at = now()`)
	if err != nil {
		return storageErr("recompute availability", err)
	}
	return nil
}

func scanCar(row pgx.Row) (*domain.Car, error) {
	var c domain.Car
	if err := row.Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.Color, &c.RegistrationNumber, &c.PricePerDayCents, &c.ImageURL, &c.Available, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

var _ CarRepository = (*PGCarRepository)(nil)
