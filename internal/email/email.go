package email

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tverdin/carrental/internal/kafka"
)

// Sender delivers booking notifications. Delivery is logged rather than sent;
// the worker treats it as the real thing.
type Sender struct {
	logger zerolog.Logger
}

func NewSender(logger zerolog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.logger.Info().
		Str("event", event.Type).
		Str("reference", event.Reference).
		Int64("booking_id", event.BookingID).
		Int64("user_id", event.UserID).
		Str("status", event.Status).
		Msg("send booking notification")
	return nil
}
