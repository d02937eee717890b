package domain

import "time"

type BookingStatus string

const (
	BookingStatusWaiting  BookingStatus = "waiting"
	BookingStatusApproved BookingStatus = "approved"
	BookingStatusReturned BookingStatus = "returned"
)

// ParseBookingStatus accepts only statuses a caller may transition a booking
// into. "waiting" is assigned at creation and is never a valid target.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingStatusApproved:
		return BookingStatusApproved, nil
	case BookingStatusReturned:
		return BookingStatusReturned, nil
	default:
		return "", &ValidationError{Msg: `status must be "approved" or "returned"`}
	}
}

// CanTransitionTo reports whether the forward transition s -> next is legal.
// Re-entering the same state is not a transition; callers treat it as a no-op.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusWaiting:
		return next == BookingStatusApproved
	case BookingStatusApproved:
		return next == BookingStatusReturned
	default:
		return false
	}
}

// Active reports whether the booking still occupies its car's date window.
func (s BookingStatus) Active() bool {
	return s == BookingStatusWaiting || s == BookingStatusApproved
}

type Booking struct {
	ID          int64
	Reference   string
	UserID      int64
	CarID       int64
	BookPlace   string
	BookDate    time.Time
	Duration    int
	Destination string
	ReturnDate  time.Time
	PriceCents  int64
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IntervalsOverlap reports whether [aStart, aEnd] and [bStart, bEnd] share at
// least one day. Bounds are inclusive: the intervals overlap when
// aStart <= bEnd and bStart <= aEnd.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Overlaps reports whether the booking's window intersects [start, end].
func (b *Booking) Overlaps(start, end time.Time) bool {
	return IntervalsOverlap(b.BookDate, b.ReturnDate, start, end)
}
