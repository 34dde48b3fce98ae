package ride

import "strings"

// Kind distinguishes passenger rides from parcel deliveries.
type Kind string

const (
	KindRide     Kind = "ride"
	KindDelivery Kind = "delivery"
)

// ParseKind normalizes a kind string; anything unknown is treated as a ride.
func ParseKind(in string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(in))) {
	case KindDelivery:
		return KindDelivery
	default:
		return KindRide
	}
}

// String returns the string representation of the Kind.
func (kind Kind) String() string {
	return string(kind)
}
