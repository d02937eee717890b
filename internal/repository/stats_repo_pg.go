package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tverdin/carrental/internal/domain"
)

type CarUsage struct {
	CarID        int64
	Make         string
	Model        string
	BookingCount int
}

type DashboardStats struct {
	TotalRevenueCents int64
	ActiveBookings    int
	TotalCars         int
	CompletionRate    int
	RecentBookings    []domain.Booking
	RecentPayments    []domain.Payment
	TopCars           []CarUsage
}

type StatsRepository interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type PGStatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) StatsRepository {
	return &PGStatsRepository{db: db}
}

func (r *PGStatsRepository) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats

	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM payments`).Scan(&stats.TotalRevenueCents); err != nil {
		return nil, storageErr("sum revenue", err)
	}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status IN ('waiting', 'approved')`).Scan(&stats.ActiveBookings); err != nil {
		return nil, storageErr("count active bookings", err)
	}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cars`).Scan(&stats.TotalCars); err != nil {
		return nil, storageErr("count cars", err)
	}

	var total, completed int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'approved') FROM bookings`).Scan(&total, &completed); err != nil {
		return nil, storageErr("count bookings", err)
	}
	if total > 0 {
		stats.CompletionRate = completed * 100 / total
	}

	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY book_date DESC LIMIT 5`)
	if err != nil {
		return nil, storageErr("recent bookings", err)
	}
	stats.RecentBookings, err = collectBookings(rows)
	if err != nil {
		return nil, err
	}

	payRows, err := r.db.Query(ctx, `SELECT id, booking_id, amount_cents, method, transaction_id, paid_at FROM payments ORDER BY paid_at DESC LIMIT 5`)
	if err != nil {
		return nil, storageErr("recent payments", err)
	}
	defer payRows.Close()
	stats.RecentPayments = make([]domain.Payment, 0, 5)
	for payRows.Next() {
		var p domain.Payment
		if err := payRows.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Method, &p.TransactionID, &p.PaidAt); err != nil {
			return nil, storageErr("scan payment", err)
		}
		stats.RecentPayments = append(stats.RecentPayments, p)
	}
	if err := payRows.Err(); err != nil {
		return nil, storageErr("iterate payments", err)
	}

	carRows, err := r.db.Query(ctx, `SELECT cars.id, cars.make, cars.model, COUNT(bookings.id)
		FROM cars LEFT JOIN bookings ON bookings.car_id = cars.id
		GROUP BY cars.id, cars.make, cars.model
		ORDER BY COUNT(bookings.id) DESC LIMIT 3`)
	if err != nil {
		return nil, storageErr("top cars", err)
	}
	defer carRows.Close()
	stats.TopCars = make([]CarUsage, 0, 3)
	for carRows.Next() {
		var u CarUsage
		if err := carRows.Scan(&u.CarID, &u.Make, &u.Model, &u.BookingCount); err != nil {
			return nil, storageErr("scan car usage", err)
		}
		stats.TopCars = append(stats.TopCars, u)
	}
	if err := carRows.Err(); err != nil {
		return nil, storageErr("iterate car usage", err)
	}

	return &stats, nil
}

var _ StatsRepository = (*PGStatsRepository)(nil)
