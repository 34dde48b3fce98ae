package mapsync

import (
	"fmt"
	"strings"

	"ride-console/internal/domain/ride"
)

const (
	// DimmedOpacity is applied to every ride other than the selected one.
	DimmedOpacity = 0.35
	FullOpacity   = 1.0

	// SelectedZBoost lifts every entity of the selected ride above the rest.
	SelectedZBoost = 1000

	zRoute    = 10
	zEndpoint = 100
	zDriver   = 200

	routeWeight         = 4
	selectedRouteWeight = 6

	FallbackTooltip = "last known: pickup"
)

var routeStyles = map[ride.Status]RouteStyle{
	ride.StatusConfirmed:  {Color: "#2563eb", Dashed: true, Weight: routeWeight},  // blue
	ride.StatusArrived:    {Color: "#f59e0b", Dashed: true, Weight: routeWeight},  // amber
	ride.StatusInProgress: {Color: "#16a34a", Dashed: false, Weight: routeWeight}, // green
}

var defaultRouteStyle = RouteStyle{Color: "#6b7280", Dashed: true, Weight: routeWeight}

// StyleFor returns the route style for status: dashed until the trip starts.
func StyleFor(status ride.Status) RouteStyle {
	if s, ok := routeStyles[status]; ok {
		return s
	}
	return defaultRouteStyle
}

// emphasis is the opacity and z-index boost for one ride under the current selection.
type emphasis struct {
	opacity  float64
	zBoost   int
	selected bool
}

func emphasisFor(rideID, selectedID string) emphasis {
	switch {
	case selectedID == "":
		return emphasis{opacity: FullOpacity}
	case rideID == selectedID:
		return emphasis{opacity: FullOpacity, zBoost: SelectedZBoost, selected: true}
	default:
		return emphasis{opacity: DimmedOpacity}
	}
}

func statusLabel(status ride.Status) string {
	return strings.ReplaceAll(status.String(), "_", " ")
}

func endpointTooltip(label string, p *ride.Point) string {
	if p.Address == "" {
		return label
	}
	return label + ": " + p.Address
}

func routeTooltip(r ride.Record) string {
	return fmt.Sprintf("%s (%s)", r.ID, statusLabel(r.Status))
}

func driverTooltip(r ride.Record, live bool) string {
	name := "Driver"
	if r.Driver != nil && r.Driver.Name != "" {
		name = r.Driver.Name
	}
	where := "live"
	if !live {
		where = FallbackTooltip
	}
	return fmt.Sprintf("%s, %s, %s", name, statusLabel(r.Status), where)
}
