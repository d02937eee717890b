package domain

import "time"

const PaymentMethodSimulated = "simulated"

type Payment struct {
	ID            int64
	BookingID     int64
	AmountCents   int64
	Method        string
	TransactionID string
	PaidAt        time.Time
}
