package contracts

import "time"

// LocationUpdateMessage is broadcast by the driver location service.
// Exchange: ExchangeLocationFanout (fanout, no routing key).
type LocationUpdateMessage struct {
	DriverID       string    `json:"driver_id"`
	RideID         string    `json:"ride_id,omitempty"`
	Location       GeoPoint  `json:"location"`
	SpeedKMH       float64   `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64  `json:"heading_degrees,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}
