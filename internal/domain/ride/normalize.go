package ride

import (
	"encoding/json"
	"strings"
	"time"
)

// Raw is a ride row as it comes out of the store: every optional column is a pointer
// and intermediate stops are an opaque JSON document.
type Raw struct {
	ID     string
	Status string
	Kind   *string
	Class  *string

	PickupLat     *float64
	PickupLon     *float64
	PickupAddress *string

	DestinationLat     *float64
	DestinationLon     *float64
	DestinationAddress *string

	Stops []byte

	PassengerName  *string
	PassengerPhone *string

	DriverID    *string
	DriverName  *string
	DriverPhone *string

	Price         *float64
	Distance      *string
	Duration      *string
	PaymentMethod *string

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// rawStop accepts both "lon" and "lng" spellings.
type rawStop struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Lng     *float64 `json:"lng"`
	Address *string  `json:"address"`
}

// Normalize maps a raw row to a fully-defaulted Record. It never fails: malformed
// optional data is dropped, not reported.
func Normalize(raw Raw) Record {
	record := Record{
		ID:            strings.TrimSpace(raw.ID),
		Status:        Status(strings.ToLower(strings.TrimSpace(raw.Status))),
		Kind:          ParseKind(str(raw.Kind)),
		Class:         str(raw.Class),
		Origin:        point(raw.PickupLat, raw.PickupLon, raw.PickupAddress),
		Destination:   point(raw.DestinationLat, raw.DestinationLon, raw.DestinationAddress),
		Stops:         stops(raw.Stops),
		Price:         num(raw.Price),
		Distance:      str(raw.Distance),
		Duration:      str(raw.Duration),
		PaymentMethod: str(raw.PaymentMethod),
	}

	if name, phone := str(raw.PassengerName), str(raw.PassengerPhone); name != "" || phone != "" {
		record.Passenger = &Passenger{Name: name, Phone: phone}
	}
	if id := str(raw.DriverID); id != "" {
		record.Driver = &DriverSummary{ID: id, Name: str(raw.DriverName), Phone: str(raw.DriverPhone)}
	}
	if raw.CreatedAt != nil {
		record.CreatedAt = raw.CreatedAt.UTC()
	}
	if raw.UpdatedAt != nil {
		record.UpdatedAt = raw.UpdatedAt.UTC()
	} else {
		record.UpdatedAt = record.CreatedAt
	}

	return record
}

// ----- helpers -----

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func num(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// point returns nil unless both coordinates are present and in range.
func point(lat, lon *float64, address *string) *Point {
	if lat == nil || lon == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return nil
	}
	return &Point{Lat: *lat, Lon: *lon, Address: str(address)}
}

func stops(doc []byte) []Point {
	out := []Point{}
	if len(doc) == 0 {
		return out
	}

	var items []rawStop
	if err := json.Unmarshal(doc, &items); err != nil {
		return out
	}

	for _, item := range items {
		lon := item.Lon
		if lon == nil {
			lon = item.Lng
		}
		if p := point(item.Lat, lon, item.Address); p != nil {
			out = append(out, *p)
		}
	}
	return out
}
