package geo

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Sample is the latest known position report for one driver.
type Sample struct {
	DriverID  string    `json:"-"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Heading   float64   `json:"heading"` // degrees clockwise from north, [0, 360)
	Timestamp time.Time `json:"timestamp"`
}

var (
	ErrMissingDriverID    = errors.New("driver ID is missing")
	ErrInvalidLatitude    = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude   = errors.New("longitude must be between -180 and 180")
	ErrInvalidCoordinates = errors.New("coordinates cannot be zero")
	ErrInvalidHeading     = errors.New("heading must be between 0 and 360")
	ErrZeroTimestamp      = errors.New("timestamp must be a valid time")
)

// NewSample builds a validated sample. A nil heading means the device did not report one.
func NewSample(driverID string, latitude, longitude float64, heading *float64, recordedAt time.Time) (Sample, error) {
	sample := Sample{
		DriverID:  strings.TrimSpace(driverID),
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: recordedAt.UTC(),
	}
	if heading != nil {
		if *heading < 0 || *heading > 360 || math.IsNaN(*heading) {
			return Sample{}, ErrInvalidHeading
		}
		sample.Heading = NormalizeHeading(*heading)
	}
	if err := sample.Validate(); err != nil {
		return Sample{}, err
	}
	return sample, nil
}

// Validate checks invariants of the Sample.
func (sample Sample) Validate() error {
	if sample.DriverID == "" {
		return ErrMissingDriverID
	}
	// a 0,0 fix is what uninitialised devices report
	if sample.Latitude == 0 && sample.Longitude == 0 {
		return ErrInvalidCoordinates
	}
	if sample.Latitude < -90 || sample.Latitude > 90 || math.IsNaN(sample.Latitude) {
		return ErrInvalidLatitude
	}
	if sample.Longitude < -180 || sample.Longitude > 180 || math.IsNaN(sample.Longitude) {
		return ErrInvalidLongitude
	}
	if sample.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// Position returns the sample's coordinates.
func (sample Sample) Position() LatLng {
	return LatLng{Lat: sample.Latitude, Lon: sample.Longitude}
}

// NormalizeHeading folds any angle into [0, 360).
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
