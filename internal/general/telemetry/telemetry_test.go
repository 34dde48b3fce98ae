package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ride-console/internal/domain/geo"
	"ride-console/internal/general/contracts"
	"ride-console/internal/general/logger"
	"ride-console/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

func at(sec int64) time.Time { return time.Unix(1700000000+sec, 0).UTC() }

func TestMemoryStore_KeepsNewestSample(t *testing.T) {
	store := NewMemoryStore()

	if !store.Put(geo.Sample{DriverID: "d1", Latitude: 43.2, Longitude: 76.8, Timestamp: at(10)}) {
		t.Fatal("first sample must be stored")
	}
	if store.Put(geo.Sample{DriverID: "d1", Latitude: 1, Longitude: 1, Timestamp: at(5)}) {
		t.Fatal("older sample must be ignored")
	}
	if !store.Put(geo.Sample{DriverID: "d1", Latitude: 43.3, Longitude: 76.9, Timestamp: at(20)}) {
		t.Fatal("newer sample must replace")
	}

	got, err := store.LatestForDrivers(context.Background(), []string{"d1", "d2"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 1 || got["d1"].Latitude != 43.3 {
		t.Fatalf("unexpected lookup result: %+v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestMemoryStore_RejectsOversizedBatch(t *testing.T) {
	store := NewMemoryStore()
	ids := make([]string, ports.TelemetryBatchLimit+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("d%d", i)
	}

	if _, err := store.LatestForDrivers(context.Background(), ids); !errors.Is(err, ports.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	if _, err := store.LatestForDrivers(context.Background(), ids[:ports.TelemetryBatchLimit]); err != nil {
		t.Fatalf("a full batch must be accepted, got %v", err)
	}
}

func TestDecodeLocationUpdate(t *testing.T) {
	body := []byte(`{"driver_id":"d1","location":{"lat":43.24,"lng":76.91},"heading_degrees":180,"timestamp":"2024-05-01T10:00:00Z"}`)
	s, err := DecodeLocationUpdate(body)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.DriverID != "d1" || s.Latitude != 43.24 || s.Longitude != 76.91 || s.Heading != 180 {
		t.Fatalf("unexpected sample: %+v", s)
	}

	// sent_at stands in for a missing timestamp
	s, err = DecodeLocationUpdate([]byte(`{"driver_id":"d2","location":{"lat":43.2,"lng":76.9},"sent_at":"2024-05-01T10:00:05Z"}`))
	if err != nil || s.Timestamp.IsZero() || s.Heading != 0 {
		t.Fatalf("expected sent_at fallback, got %+v, %v", s, err)
	}

	for name, bad := range map[string]string{
		"json":      `{`,
		"no driver": `{"location":{"lat":43.2,"lng":76.9},"timestamp":"2024-05-01T10:00:00Z"}`,
		"zero fix":  `{"driver_id":"d1","location":{"lat":0,"lng":0},"timestamp":"2024-05-01T10:00:00Z"}`,
		"no time":   `{"driver_id":"d1","location":{"lat":43.2,"lng":76.9}}`,
	} {
		if _, err := DecodeLocationUpdate([]byte(bad)); !errors.Is(err, ErrBadLocationMessage) {
			t.Errorf("%s: expected ErrBadLocationMessage, got %v", name, err)
		}
	}
}

type stubConsumer struct {
	queue, tag string
	prefetch   int
	deliveries [][]byte
	results    []error
}

func (c *stubConsumer) ConsumeLoop(ctx context.Context, queue, tag string, prefetch int, handler func(context.Context, amqp.Delivery) error) error {
	c.queue, c.tag, c.prefetch = queue, tag, prefetch
	for _, body := range c.deliveries {
		c.results = append(c.results, handler(ctx, amqp.Delivery{Body: body}))
	}
	return nil
}

func TestFeed_Run(t *testing.T) {
	store := NewMemoryStore()
	consumer := &stubConsumer{deliveries: [][]byte{
		[]byte(`{"driver_id":"d1","location":{"lat":43.2,"lng":76.9},"timestamp":"2024-05-01T10:00:00Z"}`),
		[]byte(`garbage`),
		[]byte(`{"driver_id":"d1","location":{"lat":43.1,"lng":76.8},"timestamp":"2024-05-01T09:00:00Z"}`),
	}}
	feed := NewFeed(consumer, store, logger.NewWithWriter("test", &bytes.Buffer{}, logger.LevelDebug), 8)

	if err := feed.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if consumer.queue != contracts.QueueLocationUpdatesAdmin || consumer.tag != contracts.ConsumerTelemetryFeed || consumer.prefetch != 8 {
		t.Fatalf("unexpected subscription: %+v", consumer)
	}
	if consumer.results[0] != nil || consumer.results[1] == nil || consumer.results[2] != nil {
		t.Fatalf("unexpected handler results: %v", consumer.results)
	}

	got, _ := store.LatestForDrivers(context.Background(), []string{"d1"})
	if got["d1"].Latitude != 43.2 {
		t.Fatalf("older sample overwrote newer one: %+v", got["d1"])
	}
}
