package domain

import "time"

type Car struct {
	ID                 int64
	Make               string
	Model              string
	Year               int
	Color              string
	RegistrationNumber string
	PricePerDayCents   int64
	ImageURL           string
	// Available is a denormalized cache recomputed from live bookings.
	// The overlap check against the bookings table is authoritative.
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
