package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/kafka"
	"github.com/tverdin/carrental/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID int64, next domain.BookingStatus) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*domain.Payment, error)
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error)
	ListPayments(ctx context.Context, bookingID int64) ([]domain.Payment, error)
}

type Cache interface {
	AcquireBookingLock(ctx context.Context, carID int64, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, carID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	cars               repository.CarRepository
	users              repository.UserRepository
	payments           repository.PaymentRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	lockRetries        int
	lockRetryDelay     time.Duration
	logger             zerolog.Logger
}

type CreateBookingInput struct {
	UserID      int64
	CarID       int64
	BookPlace   string
	BookDate    time.Time
	Duration    int
	Destination string
	ReturnDate  time.Time
}

type ConfirmPaymentInput struct {
	BookingID   int64
	AmountCents int64
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLockRetries(retries int, delay time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.lockRetries = retries
		s.lockRetryDelay = delay
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	cars repository.CarRepository,
	users repository.UserRepository,
	payments repository.PaymentRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	lockTTL time.Duration,
	logger zerolog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		cars:           cars,
		users:          users,
		payments:       payments,
		cache:          cache,
		producer:       producer,
		bookingTopic:   bookingTopic,
		lockTTL:        lockTTL,
		lockRetries:    3,
		lockRetryDelay: 100 * time.Millisecond,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking validates the request, resolves the user and car, checks the
// requested window against every active booking for the car and inserts the
// booking with status waiting. The check and insert run under a per-car
// advisory lock; the repository re-checks inside its transaction as a
// backstop.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := validateBookingInput(input); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}
	car, err := s.cars.GetByID(ctx, input.CarID)
	if err != nil {
		return nil, err
	}

	locked, err := s.acquireLock(ctx, input.CarID)
	if err != nil {
		return nil, err
	}
	if locked {
		defer func() {
			_ = s.cache.ReleaseBookingLock(ctx, input.CarID)
		}()
	}

	active, err := s.bookings.ListActiveForCar(ctx, input.CarID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].Overlaps(input.BookDate, input.ReturnDate) {
			return nil, &domain.ConflictError{Msg: "car not available for selected dates"}
		}
	}

	booking := &domain.Booking{
		Reference:   uuid.NewString(),
		UserID:      input.UserID,
		CarID:       input.CarID,
		BookPlace:   input.BookPlace,
		BookDate:    input.BookDate,
		Duration:    input.Duration,
		Destination: input.Destination,
		ReturnDate:  input.ReturnDate,
		PriceCents:  car.PricePerDayCents * int64(input.Duration),
		Status:      domain.BookingStatusWaiting,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.refreshAvailability(ctx, booking.CarID)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// UpdateStatus applies one step of the waiting -> approved -> returned state
// machine. Re-submitting the current status is a no-op success. Moving a
// returned booking anywhere, or skipping a step, is rejected.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID int64, next domain.BookingStatus) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, &domain.InvalidTransitionError{From: current.Status, To: next}
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, current.Status, next)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// a concurrent transition won; re-read and judge the fresh status
			refreshed, getErr := s.bookings.GetByID(ctx, bookingID)
			if getErr != nil {
				return nil, getErr
			}
			if refreshed.Status == next {
				return refreshed, nil
			}
			return nil, &domain.InvalidTransitionError{From: refreshed.Status, To: next}
		}
		return nil, err
	}

	switch next {
	case domain.BookingStatusApproved:
		s.publish(ctx, kafka.EventBookingApproved, updated)
	case domain.BookingStatusReturned:
		s.refreshAvailability(ctx, updated.CarID)
		s.publish(ctx, kafka.EventBookingReturned, updated)
	}
	return updated, nil
}

// ConfirmPayment records a simulated payment and moves the booking from
// waiting to approved. A booking that is already approved is a no-op success
// and gets no second payment record. An amount differing from the stored
// price is logged and accepted.
func (s *BookingService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*domain.Payment, error) {
	current, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusReturned {
		return nil, &domain.InvalidTransitionError{From: current.Status, To: domain.BookingStatusApproved}
	}
	if current.Status == domain.BookingStatusApproved {
		return nil, nil
	}

	if input.AmountCents != current.PriceCents {
		s.logger.Warn().
			Int64("booking_id", current.ID).
			Int64("submitted_cents", input.AmountCents).
			Int64("price_cents", current.PriceCents).
			Msg("payment amount differs from booking price")
	}

	// the conditional update is the serialization point: when two
	// confirmations race, only the one that flips waiting to approved
	// records a payment, the loser lands on the no-op path
	updated, err := s.bookings.UpdateStatus(ctx, input.BookingID, domain.BookingStatusWaiting, domain.BookingStatusApproved)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, nil
		}
		return nil, err
	}

	payment := &domain.Payment{
		BookingID:     updated.ID,
		AmountCents:   input.AmountCents,
		Method:        domain.PaymentMethodSimulated,
		TransactionID: "sim_" + uuid.NewString(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventPaymentRecorded, updated)
	s.publish(ctx, kafka.EventBookingApproved, updated)
	return payment, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// ListPayments returns the payments recorded for a booking, newest first.
func (s *BookingService) ListPayments(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.payments.ListForBooking(ctx, bookingID)
}

func validateBookingInput(input CreateBookingInput) error {
	switch {
	case input.UserID == 0:
		return &domain.ValidationError{Msg: "user id is required"}
	case input.CarID == 0:
		return &domain.ValidationError{Msg: "car id is required"}
	case input.BookPlace == "":
		return &domain.ValidationError{Msg: "pickup place is required"}
	case input.Destination == "":
		return &domain.ValidationError{Msg: "destination is required"}
	case input.BookDate.IsZero():
		return &domain.ValidationError{Msg: "pickup date is required"}
	case input.ReturnDate.IsZero():
		return &domain.ValidationError{Msg: "return date is required"}
	case input.Duration <= 0:
		return &domain.ValidationError{Msg: "duration must be a positive number of days"}
	case input.ReturnDate.Before(input.BookDate):
		return &domain.ValidationError{Msg: "return date must not be before pickup date"}
	}
	return nil
}

// acquireLock takes the per-car lock with a bounded retry loop. Exhausting the
// retries means another create for the same car is in flight, which is
// reported as a conflict.
func (s *BookingService) acquireLock(ctx context.Context, carID int64) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	for attempt := 0; attempt < s.lockRetries; attempt++ {
		ok, err := s.cache.AcquireBookingLock(ctx, carID, s.lockTTL)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(s.lockRetryDelay):
		}
	}
	return false, &domain.ConflictError{Msg: "car is being booked by someone else, try again"}
}

// refreshAvailability updates the denormalized flag. Failures are logged only:
// the flag is a cache and the worker sweep repairs it.
func (s *BookingService) refreshAvailability(ctx context.Context, carID int64) {
	if err := s.cars.RecomputeAvailability(ctx, carID); err != nil {
		s.logger.Warn().Err(err).Int64("car_id", carID).Msg("recompute availability failed")
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		Reference:  booking.Reference,
		BookingID:  booking.ID,
		CarID:      booking.CarID,
		UserID:     booking.UserID,
		Status:     string(booking.Status),
		PriceCents: booking.PriceCents,
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Str("reference", booking.Reference).Msg("publish booking event failed")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event); err != nil {
			s.logger.Warn().Err(err).Str("event", eventType).Str("reference", booking.Reference).Msg("publish notification event failed")
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
