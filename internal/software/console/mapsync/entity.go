package mapsync

import (
	"slices"
	"strings"

	"ride-console/internal/domain/geo"
)

// EntityKind is one of the four map entities a ride may own.
type EntityKind string

const (
	KindPickup  EntityKind = "pickup"
	KindDropoff EntityKind = "dropoff"
	KindDriver  EntityKind = "driver"
	KindRoute   EntityKind = "route"
)

// EntityID names the kind entity of rideID, e.g. "r1:driver".
func EntityID(rideID string, kind EntityKind) string {
	return rideID + ":" + string(kind)
}

// ParseEntityID splits an entity id into its ride id and kind.
func ParseEntityID(id string) (string, EntityKind, bool) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	kind := EntityKind(id[i+1:])
	switch kind {
	case KindPickup, KindDropoff, KindDriver, KindRoute:
		return id[:i], kind, true
	default:
		return "", "", false
	}
}

// Marker is a point entity: pickup, drop-off or driver.
type Marker struct {
	ID       string     `json:"id"`
	RideID   string     `json:"ride_id"`
	Kind     EntityKind `json:"kind"`
	Position geo.LatLng `json:"position"`
	Rotation float64    `json:"rotation"` // degrees clockwise from north
	Live     bool       `json:"live"`     // false when a driver marker stands in at pickup
	Tooltip  string     `json:"tooltip"`
	Opacity  float64    `json:"opacity"`
	ZIndex   int        `json:"z_index"`
}

// RouteStyle is the line style that encodes ride status.
type RouteStyle struct {
	Color  string `json:"color"`
	Dashed bool   `json:"dashed"`
	Weight int    `json:"weight"`
}

// Route is the polyline from pickup through stops to drop-off.
type Route struct {
	ID      string       `json:"id"`
	RideID  string       `json:"ride_id"`
	Path    []geo.LatLng `json:"path"`
	Style   RouteStyle   `json:"style"`
	Tooltip string       `json:"tooltip"`
	Opacity float64      `json:"opacity"`
	ZIndex  int          `json:"z_index"`
}

func (route Route) equal(other Route) bool {
	return route.ID == other.ID &&
		route.RideID == other.RideID &&
		route.Style == other.Style &&
		route.Tooltip == other.Tooltip &&
		route.Opacity == other.Opacity &&
		route.ZIndex == other.ZIndex &&
		slices.Equal(route.Path, other.Path)
}
