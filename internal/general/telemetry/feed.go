package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ride-console/internal/domain/geo"
	"ride-console/internal/general/contracts"
	"ride-console/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrBadLocationMessage = errors.New("malformed location update")

// Consumer is the subset of the rabbitmq client the feed needs.
type Consumer interface {
	ConsumeLoop(ctx context.Context, queue, consumerTag string, prefetch int, handler func(context.Context, amqp.Delivery) error) error
}

// Feed copies driver location broadcasts into a MemoryStore.
type Feed struct {
	consumer Consumer
	store    *MemoryStore
	logger   *logger.Logger
	prefetch int
}

// NewFeed wires a consumer to a store.
func NewFeed(consumer Consumer, store *MemoryStore, logger *logger.Logger, prefetch int) *Feed {
	return &Feed{consumer: consumer, store: store, logger: logger, prefetch: prefetch}
}

// Run consumes the location queue until ctx is done.
func (feed *Feed) Run(ctx context.Context) error {
	feed.logger.Info(ctx, "telemetry_feed_started", "Consuming driver location updates",
		map[string]any{"queue": contracts.QueueLocationUpdatesAdmin, "prefetch": feed.prefetch})
	return feed.consumer.ConsumeLoop(ctx, contracts.QueueLocationUpdatesAdmin, contracts.ConsumerTelemetryFeed, feed.prefetch, feed.Handle)
}

// Handle decodes one delivery into the store. Malformed messages are rejected so the
// consumer drops them; out-of-order samples are acknowledged and ignored.
func (feed *Feed) Handle(ctx context.Context, d amqp.Delivery) error {
	sample, err := DecodeLocationUpdate(d.Body)
	if err != nil {
		feed.logger.Warn(ctx, "telemetry_message_rejected", "Dropping location update", err,
			map[string]any{"message_id": d.MessageId, "size": len(d.Body)})
		return err
	}
	if !feed.store.Put(sample) {
		feed.logger.Debug(ctx, "telemetry_sample_stale", "Older sample ignored",
			map[string]any{"driver_id": sample.DriverID})
	}
	return nil
}

// DecodeLocationUpdate maps a LocationUpdateMessage body to a validated sample.
// A missing timestamp falls back to the envelope's sent_at.
func DecodeLocationUpdate(body []byte) (geo.Sample, error) {
	var msg contracts.LocationUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return geo.Sample{}, fmt.Errorf("%w: %v", ErrBadLocationMessage, err)
	}

	at := msg.Timestamp
	if at.IsZero() {
		at = msg.SentAt
	}

	sample, err := geo.NewSample(msg.DriverID, msg.Location.Lat, msg.Location.Lng, msg.HeadingDegrees, at)
	if err != nil {
		return geo.Sample{}, fmt.Errorf("%w: %v", ErrBadLocationMessage, err)
	}
	return sample, nil
}
