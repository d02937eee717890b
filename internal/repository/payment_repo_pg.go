package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tverdin/carrental/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	ListForBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO payments (booking_id, amount_cents, method, transaction_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, paid_at`,
		payment.BookingID, payment.AmountCents, payment.Method, payment.TransactionID).
		Scan(&payment.ID, &payment.PaidAt)
	if err != nil {
		return storageErr("insert payment", err)
	}
	return nil
}

func (r *PGPaymentRepository) ListForBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, amount_cents, method, transaction_id, paid_at FROM payments WHERE booking_id=$1 ORDER BY paid_at DESC`, bookingID)
	if err != nil {
		return nil, storageErr("list payments", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Method, &p.TransactionID, &p.PaidAt); err != nil {
			return nil, storageErr("scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate payments", err)
	}
	return payments, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
