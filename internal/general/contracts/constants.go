package contracts

// Exchanges
const (
	ExchangeLocationFanout = "location_fanout"
)

// Queues
const (
	// QueueLocationUpdatesAdmin feeds the aggregation service's in-memory telemetry store.
	QueueLocationUpdatesAdmin = "location_updates_admin"
)

// Consumer tags
const (
	ConsumerTelemetryFeed = "admin-service.telemetry"
)
