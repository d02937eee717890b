package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Consumer feeds booking events to the notification worker. Offsets are
// committed on an interval rather than per message, so a crash can redeliver
// a few events; redelivering a notification only repeats a log line.
type Consumer struct {
	reader *kafka.Reader
	logger zerolog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
			// booking events are a few hundred bytes; deliver promptly
			// instead of waiting for a full batch
			MinBytes:          1,
			MaxBytes:          1 << 20,
			MaxWait:           time.Second,
			CommitInterval:    time.Second,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume blocks, decoding each message into a BookingEvent and handing it to
// handler. A message that does not decode is logged and skipped; a handler
// error stops the loop.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		var event BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("skip undecodable booking event")
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}
