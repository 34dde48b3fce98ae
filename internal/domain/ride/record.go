package ride

import "time"

// Point is a geographic point with an optional street address.
type Point struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}

// Passenger is the rider summary carried on a live ride.
type Passenger struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// DriverSummary is the assigned-driver summary carried on a live ride.
type DriverSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Record is a fully-defaulted live ride as returned by the ride store.
// Optional nested objects are nil (never half-filled) so consumers only check for nil.
type Record struct {
	ID            string         `json:"id"`
	Status        Status         `json:"status"`
	Kind          Kind           `json:"type"`
	Class         string         `json:"rideClass"`
	Origin        *Point         `json:"origin"`
	Destination   *Point         `json:"destination"`
	Stops         []Point        `json:"stops"`
	Passenger     *Passenger     `json:"passenger"`
	Driver        *DriverSummary `json:"driver"`
	Price         float64        `json:"price"`
	Distance      string         `json:"distance"`
	Duration      string         `json:"duration"`
	PaymentMethod string         `json:"paymentMethod"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// DriverID returns the assigned driver's id, or "" when the ride has no driver.
func (record Record) DriverID() string {
	if record.Driver == nil {
		return ""
	}
	return record.Driver.ID
}

// HasRoute reports whether both endpoints are known.
func (record Record) HasRoute() bool {
	return record.Origin != nil && record.Destination != nil
}
