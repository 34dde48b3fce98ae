package mapsync

import "ride-console/internal/domain/geo"

// Renderer is the map surface the engine drives.
type Renderer interface {
	AddMarker(m Marker)
	UpdateMarker(m Marker)
	RemoveMarker(id string)
	AddRoute(r Route)
	UpdateRoute(r Route)
	RemoveRoute(id string)

	SetView(center geo.LatLng, zoom float64)
	FitBounds(bounds geo.Bounds, padding int)
	FlyTo(center geo.LatLng, zoom float64)
}

// Op names a render command on the wire.
type Op string

const (
	OpAddMarker    Op = "add_marker"
	OpUpdateMarker Op = "update_marker"
	OpRemoveMarker Op = "remove_marker"
	OpAddRoute     Op = "add_route"
	OpUpdateRoute  Op = "update_route"
	OpRemoveRoute  Op = "remove_route"
	OpSetView      Op = "set_view"
	OpFitBounds    Op = "fit_bounds"
	OpFlyTo        Op = "fly_to"
)

// Command is one serialisable render call.
type Command struct {
	Op      Op          `json:"op"`
	ID      string      `json:"id,omitempty"`
	Marker  *Marker     `json:"marker,omitempty"`
	Route   *Route      `json:"route,omitempty"`
	Center  *geo.LatLng `json:"center,omitempty"`
	Zoom    float64     `json:"zoom,omitempty"`
	Bounds  *geo.Bounds `json:"bounds,omitempty"`
	Padding int         `json:"padding,omitempty"`
}

// Batch is a Renderer that records commands until drained.
type Batch struct {
	cmds []Command
}

var _ Renderer = (*Batch)(nil)

func (b *Batch) AddMarker(m Marker) {
	b.cmds = append(b.cmds, Command{Op: OpAddMarker, ID: m.ID, Marker: &m})
}
func (b *Batch) UpdateMarker(m Marker) {
	b.cmds = append(b.cmds, Command{Op: OpUpdateMarker, ID: m.ID, Marker: &m})
}
func (b *Batch) RemoveMarker(id string) {
	b.cmds = append(b.cmds, Command{Op: OpRemoveMarker, ID: id})
}
func (b *Batch) AddRoute(r Route) {
	b.cmds = append(b.cmds, Command{Op: OpAddRoute, ID: r.ID, Route: &r})
}
func (b *Batch) UpdateRoute(r Route) {
	b.cmds = append(b.cmds, Command{Op: OpUpdateRoute, ID: r.ID, Route: &r})
}
func (b *Batch) RemoveRoute(id string) {
	b.cmds = append(b.cmds, Command{Op: OpRemoveRoute, ID: id})
}

func (b *Batch) SetView(center geo.LatLng, zoom float64) {
	b.cmds = append(b.cmds, Command{Op: OpSetView, Center: &center, Zoom: zoom})
}

func (b *Batch) FitBounds(bounds geo.Bounds, padding int) {
	b.cmds = append(b.cmds, Command{Op: OpFitBounds, Bounds: &bounds, Padding: padding})
}

func (b *Batch) FlyTo(center geo.LatLng, zoom float64) {
	b.cmds = append(b.cmds, Command{Op: OpFlyTo, Center: &center, Zoom: zoom})
}

// Len returns the number of pending commands.
func (b *Batch) Len() int {
	return len(b.cmds)
}

// Drain returns the pending commands and empties the batch.
func (b *Batch) Drain() []Command {
	out := b.cmds
	b.cmds = nil
	return out
}
